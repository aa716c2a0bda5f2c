package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument(t *testing.T) Document {
	docs, err := Parse([]byte(`
apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
  namespace: prod
  labels:
    app: web
spec:
  replicas: 2
  paused: false
  template:
    spec:
      containers:
      - name: web
        image: nginx
`), "test")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	return docs[0]
}

func TestDocumentAccessors(t *testing.T) {
	doc := testDocument(t)

	assert.Equal(t, "apps/v1", doc.APIVersion())
	assert.Equal(t, "Deployment", doc.Kind())
	assert.Equal(t, "web", doc.Name())
	assert.Equal(t, "prod", doc.Namespace())
	assert.Equal(t, "apps", doc.GroupVersionKind().Group)

	paused, found, err := doc.Bool("spec", "paused")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.False(t, paused)

	containers, found, err := doc.Slice("spec", "template", "spec", "containers")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, containers, 1)

	_, found, err = doc.String("spec", "missing")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestDocumentShapeMismatch(t *testing.T) {
	doc := testDocument(t)

	_, found, err := doc.String("spec", "replicas")
	assert.True(t, found)
	shapeErr, ok := err.(*ShapeError)
	require.True(t, ok, "expected *ShapeError, got %T", err)
	assert.Equal(t, "string", shapeErr.Want)
	assert.Equal(t, []string{"spec", "replicas"}, shapeErr.Path)

	_, _, err = doc.Map("metadata", "name", "deeper")
	assert.IsType(t, &ShapeError{}, err)

	_, _, err = doc.Int64("metadata", "name")
	assert.IsType(t, &ShapeError{}, err)
}

func TestDocumentSetAndDelete(t *testing.T) {
	doc := testDocument(t)

	require.NoError(t, doc.Set(map[string]interface{}{"team": "a", "size": 3}, "metadata", "annotations"))
	size, found, err := doc.Int64("metadata", "annotations", "size")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(3), size)

	doc.Delete("metadata", "labels")
	_, found, _ = doc.Map("metadata", "labels")
	assert.False(t, found)

	assert.IsType(t, &ShapeError{}, doc.Set("x", "metadata", "name", "deeper"))
}

func TestDocumentDeepCopy(t *testing.T) {
	doc := testDocument(t)
	cp := doc.DeepCopy()
	require.NoError(t, cp.Set("other", "metadata", "name"))

	assert.Equal(t, "web", doc.Name())
	assert.Equal(t, "other", cp.Name())
	assert.Equal(t, doc.Source(), cp.Source())
}

func TestFromObjects(t *testing.T) {
	obj := map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata":   map[string]interface{}{"name": "cm"},
		"data":       map[string]interface{}{"n": 1},
	}
	docs, err := FromObjects([]map[string]interface{}{obj, nil}, "objs")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	require.NoError(t, docs[0].Set("changed", "metadata", "name"))
	assert.Equal(t, "cm", obj["metadata"].(map[string]interface{})["name"], "caller's object should be untouched")

	n, _, err := docs[0].Int64("data", "n")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

package manifest

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kierr "github.com/fluxcd/kubeingest/pkg/errors"
)

func TestParseEmpty(t *testing.T) {
	doc := ``

	docs, err := Parse([]byte(doc), "test")
	if err != nil {
		t.Error(err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no documents; got %#v", docs)
	}
}

func TestParseDropsNullDocuments(t *testing.T) {
	doc := "---\n---\nkind: Pod\napiVersion: v1\nmetadata:\n  name: x\n"

	docs, err := Parse([]byte(doc), "test")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Pod", docs[0].Kind())
	assert.Equal(t, "v1", docs[0].APIVersion())
	assert.Equal(t, "x", docs[0].Name())
	assert.Equal(t, "test", docs[0].Source())
}

func TestParseSomeWithComment(t *testing.T) {
	docs := `# some random comment
---
apiVersion: apps/v1
kind: Deployment
metadata:
  name: b-deployment
  namespace: b-namespace
---
# another comment, in a document of its own
---
apiVersion: apps/v1
kind: Deployment
metadata:
  name: a-deployment
`
	objs, err := Parse([]byte(docs), "test")
	require.NoError(t, err)
	require.Len(t, objs, 2)

	// source order is preserved
	assert.Equal(t, "b-deployment", objs[0].Name())
	assert.Equal(t, "b-namespace", objs[0].Namespace())
	assert.Equal(t, "a-deployment", objs[1].Name())
	assert.Equal(t, "", objs[1].Namespace())
}

func TestParseIsRepeatable(t *testing.T) {
	docs := `---
apiVersion: v1
kind: ConfigMap
metadata:
  name: cm
data:
  count: "3"
  nested:
    - a
    - b
---
apiVersion: v1
kind: Service
metadata:
  name: svc
spec:
  ports:
  - port: 80
`
	first, err := Parse([]byte(docs), "test")
	require.NoError(t, err)
	second, err := Parse([]byte(docs), "test")
	require.NoError(t, err)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected equal results from parsing twice, got:\n%#v\nand\n%#v", first, second)
	}
}

func TestParseJSON(t *testing.T) {
	doc := `{"apiVersion": "v1", "kind": "Namespace", "metadata": {"name": "foo", "labels": {"a": "b"}}}`

	docs, err := Parse([]byte(doc), "test.json")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Namespace", docs[0].Kind())
	labels, found, err := docs[0].Map("metadata", "labels")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, map[string]interface{}{"a": "b"}, labels)
}

func TestParseNumbersAreJSONCompatible(t *testing.T) {
	doc := `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: d
spec:
  replicas: 3
  progress: 0.5
`
	docs, err := Parse([]byte(doc), "test")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	replicas, found, err := docs[0].Int64("spec", "replicas")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(3), replicas)

	progress, _, _ := docs[0].Field("spec", "progress")
	assert.Equal(t, 0.5, progress)
}

func TestParseFlattensLists(t *testing.T) {
	doc := `---
apiVersion: v1
kind: List
items:
- apiVersion: v1
  kind: ConfigMap
  metadata:
    name: one
- apiVersion: v1
  kind: ConfigMap
  metadata:
    name: two
---
apiVersion: v1
kind: Secret
metadata:
  name: three
`
	docs, err := Parse([]byte(doc), "test")
	require.NoError(t, err)
	var names []string
	for _, d := range docs {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{"one", "two", "three"}, names)
}

func TestParseKeepsDocumentsWithoutKind(t *testing.T) {
	doc := `---
metadata:
  name: nokind
`
	docs, err := Parse([]byte(doc), "test")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "", docs[0].Kind())
}

func TestParseMalformed(t *testing.T) {
	doc := `---
apiVersion: v1
kind: ConfigMap
---
apiVersion: v1
kind: ConfigMap
metadata:
  name: broken
   bad: indentation
`
	_, err := Parse([]byte(doc), "broken.yaml")
	require.Error(t, err)

	decodeErr, ok := err.(*kierr.DecodeError)
	require.True(t, ok, "expected a *DecodeError, got %T", err)
	assert.Equal(t, "broken.yaml", decodeErr.Source)
	assert.Equal(t, 1, decodeErr.Document)
	assert.NotZero(t, decodeErr.Line)
}

func TestParseNotAMapping(t *testing.T) {
	_, err := Parse([]byte("- just\n- a list\n"), "test")
	_, ok := err.(*kierr.DecodeError)
	assert.True(t, ok, "expected a *DecodeError, got %v", err)
}

func TestParseSomeLong(t *testing.T) {
	doc := `---
apiVersion: v1
kind: ConfigMap
metadata:
  name: bigmap
data:
  bigdata: |
`
	buffer := bytes.NewBufferString(doc)
	line := "    The quick brown fox jumps over the lazy dog.\n"
	for buffer.Len()+len(line) < 1024*1024 {
		buffer.WriteString(line)
	}

	docs, err := Parse(buffer.Bytes(), "test")
	if err != nil {
		t.Error(err)
	}
	if len(docs) != 1 {
		t.Errorf("expected one document, got %d", len(docs))
	}
}

package manifest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func configMap(name string) string {
	return "apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: " + name + "\n"
}

func names(docs []Document) []string {
	var ns []string
	for _, d := range docs {
		ns = append(ns, d.Name())
	}
	return ns
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.yaml"), configMap("b"))
	writeFile(t, filepath.Join(dir, "a.yml"), configMap("a"))
	writeFile(t, filepath.Join(dir, "sub", "c.json"), `{"apiVersion": "v1", "kind": "ConfigMap", "metadata": {"name": "c"}}`)
	writeFile(t, filepath.Join(dir, "README.md"), "# not a manifest")
	// a chart; its templates aren't manifests
	writeFile(t, filepath.Join(dir, "chart", "Chart.yaml"), "name: chart\n")
	writeFile(t, filepath.Join(dir, "chart", "values.yaml"), "foo: bar\n")
	writeFile(t, filepath.Join(dir, "chart", "templates", "cm.yaml"), "{{ .Values.foo }}")

	docs, err := Load(context.Background(), []string{dir}, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names(docs))
	assert.Equal(t, filepath.Join(dir, "a.yml"), docs[0].Source())
}

func TestLoadGlobAndOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "1.yaml"), configMap("one"))
	writeFile(t, filepath.Join(dir, "2.yaml"), configMap("two"))
	writeFile(t, filepath.Join(dir, "explicit.txt"), configMap("explicit"))

	docs, err := Load(context.Background(), []string{
		filepath.Join(dir, "explicit.txt"),
		filepath.Join(dir, "*.yaml"),
	}, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"explicit", "one", "two"}, names(docs))
}

func TestLoadMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(context.Background(), []string{filepath.Join(dir, "nope.yaml")}, LoadOptions{})
	assert.Error(t, err)

	_, err = Load(context.Background(), []string{filepath.Join(dir, "*.yaml")}, LoadOptions{})
	assert.Error(t, err)
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/manifests.yaml" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(configMap("remote")))
	}))
	defer srv.Close()

	docs, err := Load(context.Background(), []string{srv.URL + "/manifests.yaml"}, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"remote"}, names(docs))
	assert.Equal(t, srv.URL+"/manifests.yaml", docs[0].Source())

	_, err = Load(context.Background(), []string{srv.URL + "/missing.yaml"}, LoadOptions{})
	assert.Error(t, err)
}

func TestLoadSopsPassesThroughPlainFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "plain.yaml"), configMap("plain"))

	docs, err := Load(context.Background(), []string{dir}, LoadOptions{SopsEnabled: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"plain"}, names(docs))
}

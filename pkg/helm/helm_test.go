package helm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ghodss/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kierr "github.com/fluxcd/kubeingest/pkg/errors"
	"github.com/fluxcd/kubeingest/pkg/ingest"
	"github.com/fluxcd/kubeingest/pkg/tool"
)

const rendered = `---
# Source: web/templates/deployment.yaml
apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
---
# Source: web/templates/namespace.yaml
apiVersion: v1
kind: Namespace
metadata:
  name: web-ns
---
# Source: web/templates/role.yaml
apiVersion: rbac.authorization.k8s.io/v1
kind: ClusterRole
metadata:
  name: web-reader
`

// fakeHelm behaves enough like helm for the renderer: it answers
// version, unpacks a chart on fetch, and prints manifests on template.
type fakeHelm struct {
	version      string
	chartValues  string
	schema       string
	templateErr  error
	gotValues    map[string]interface{}
	fetchDestDir string
}

func (h *fakeHelm) run(cmd tool.Command) ([]byte, error) {
	switch cmd.Args[0] {
	case "version":
		return []byte(h.version + "\n"), nil
	case "fetch":
		dest := argAfter(cmd.Args, "--destination")
		h.fetchDestDir = dest
		chartDir := filepath.Join(dest, "web")
		if err := os.MkdirAll(chartDir, 0700); err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(chartDir, "values.yaml"), []byte(h.chartValues), 0600); err != nil {
			return nil, err
		}
		if h.schema != "" {
			if err := os.WriteFile(filepath.Join(chartDir, "values.schema.json"), []byte(h.schema), 0600); err != nil {
				return nil, err
			}
		}
		return nil, nil
	case "template":
		if h.templateErr != nil {
			return nil, h.templateErr
		}
		bytes, err := os.ReadFile(argAfter(cmd.Args, "--values"))
		if err != nil {
			return nil, err
		}
		h.gotValues = map[string]interface{}{}
		if err := yaml.Unmarshal(bytes, &h.gotValues); err != nil {
			return nil, err
		}
		return []byte(rendered), nil
	}
	return nil, errors.New("unexpected command " + cmd.String())
}

func argAfter(args []string, flag string) string {
	for i := range args[:len(args)-1] {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func newRenderer(h *fakeHelm) (*Renderer, *tool.Fake) {
	runner := &tool.Fake{RunFunc: h.run}
	return &Renderer{Runner: runner}, runner
}

func TestParseVersion(t *testing.T) {
	v2 := parseVersion("Client: v2.16.7+g5f2584f\n")
	assert.False(t, v2.V3())
	require.NotNil(t, v2.Semver)
	assert.Equal(t, uint64(16), v2.Semver.Minor())

	v3 := parseVersion("v3.1.2+gd878d4d\n")
	assert.True(t, v3.V3())

	assert.True(t, parseVersion("v3.weird").V3())
	assert.False(t, parseVersion("garbage").V3())
}

func TestTemplateV3(t *testing.T) {
	h := &fakeHelm{version: "v3.14.0+g1234", chartValues: "replicas: 1\nimage:\n  tag: old\n  repository: web\n"}
	r, runner := newRenderer(h)
	out, err := r.Template(context.Background(), ChartOpts{
		Chart:       "web",
		Repo:        "stable",
		Version:     "1.2.3",
		Values:      map[string]interface{}{"image": map[string]interface{}{"tag": "new"}},
		Namespace:   "prod",
		APIVersions: []string{"monitoring.coreos.com/v1"},
		IncludeCRDs: true,
	})
	require.NoError(t, err)
	assert.Equal(t, rendered, string(out))

	calls := runner.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, []string{"version", "--short"}, calls[0].Args)
	assert.Equal(t, []string{"fetch", "stable/web", "--untar", "--destination", h.fetchDestDir, "--version", "1.2.3"}, calls[1].Args)

	tmpl := calls[2].Args
	assert.Equal(t, []string{"template", "web", filepath.Join(h.fetchDestDir, "web")}, tmpl[:3])
	assert.Equal(t, "prod", argAfter(tmpl, "--namespace"))
	assert.Equal(t, "monitoring.coreos.com/v1", argAfter(tmpl, "--api-versions"))
	assert.Contains(t, tmpl, "--include-crds")

	assert.Equal(t, map[string]interface{}{
		"replicas": float64(1),
		"image":    map[string]interface{}{"tag": "new", "repository": "web"},
	}, h.gotValues)

	_, err = os.Stat(h.fetchDestDir)
	assert.True(t, os.IsNotExist(err), "temporary directory should be removed")
}

func TestTemplateV2(t *testing.T) {
	h := &fakeHelm{version: "Client: v2.16.7+g5f2584f"}
	r, runner := newRenderer(h)
	_, err := r.Template(context.Background(), ChartOpts{
		Chart:       "stable/web",
		ReleaseName: "rel",
		IncludeCRDs: true,
		FetchOpts:   FetchOpts{Home: "/helm/home"},
	})
	require.NoError(t, err)

	calls := runner.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, []string{"HELM_HOME=/helm/home"}, calls[1].Env)
	assert.Equal(t, "/helm/home", argAfter(calls[1].Args, "--home"))

	tmpl := calls[2].Args
	assert.Equal(t, []string{"template", filepath.Join(h.fetchDestDir, "web"), "--name", "rel"}, tmpl[:4])
	assert.NotContains(t, tmpl, "--include-crds")
}

func TestTemplateLocalPath(t *testing.T) {
	chartDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(chartDir, "values.yaml"), []byte("a: 1\nb: 2\n"), 0600))
	valuesFile := filepath.Join(t.TempDir(), "extra.yaml")
	require.NoError(t, os.WriteFile(valuesFile, []byte("b: 3\nc: 4\n"), 0600))

	h := &fakeHelm{version: "v3.14.0"}
	r, runner := newRenderer(h)
	_, err := r.Template(context.Background(), ChartOpts{
		Path:        chartDir,
		Chart:       "ignored/when-path-given",
		ValuesFiles: []string{valuesFile},
		Values:      map[string]interface{}{"a": nil, "d": 5},
	})
	require.NoError(t, err)
	for _, c := range runner.Calls() {
		assert.NotEqual(t, "fetch", c.Args[0], "local charts aren't fetched")
	}
	assert.Equal(t, map[string]interface{}{"a": nil, "b": float64(3), "c": float64(4), "d": float64(5)}, h.gotValues)

	_, err = os.Stat(filepath.Join(chartDir, "values.yaml"))
	assert.NoError(t, err, "local chart must be left in place")
}

func TestTemplateNullOverridesChartDefault(t *testing.T) {
	h := &fakeHelm{
		version:     "v3.14.0",
		chartValues: "replicas: 1\nimage:\n  tag: old\n  repository: web\nextra:\n  a: 1\n",
		schema:      `{"type": "object", "properties": {"image": {"type": "object", "properties": {"tag": {"type": "string"}}}}}`,
	}
	r, _ := newRenderer(h)
	_, err := r.Template(context.Background(), ChartOpts{
		Chart:  "stable/web",
		Values: map[string]interface{}{"image": map[string]interface{}{"tag": nil}, "extra": nil, "unknown": nil},
	})
	require.NoError(t, err, "a deleted key isn't validated as null")

	// helm merges the values file over the chart's values.yaml, so
	// leaving the key out would bring the default back
	assert.Equal(t, map[string]interface{}{
		"replicas": float64(1),
		"image":    map[string]interface{}{"tag": nil, "repository": "web"},
		"extra":    nil,
	}, h.gotValues)
}

func TestTemplateFailureCarriesStderr(t *testing.T) {
	h := &fakeHelm{
		version: "v3.14.0",
		templateErr: &tool.ExitError{
			Command: "helm template web",
			Stderr:  []byte("Error: template: web/templates/x.yaml:3: bad"),
			Err:     errors.New("exit status 1"),
		},
	}
	r, _ := newRenderer(h)
	_, err := r.Template(context.Background(), ChartOpts{Chart: "stable/web"})
	var cerr *kierr.ChartRenderError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "web", cerr.Chart)
	assert.Contains(t, string(cerr.Stderr), "bad")
	assert.Equal(t, 1, strings.Count(err.Error(), "web/templates/x.yaml:3: bad"), "stderr appears once in %q", err.Error())
	assert.Equal(t, "helm template web", cerr.Command)

	_, statErr := os.Stat(h.fetchDestDir)
	assert.True(t, os.IsNotExist(statErr), "temporary directory should be removed on error too")
}

func TestHelmNotFound(t *testing.T) {
	r := &Renderer{Helm: "no-such-helm-kubeingest"}
	_, err := r.Template(context.Background(), ChartOpts{Chart: "stable/web"})
	var cerr *kierr.ChartRenderError
	require.True(t, errors.As(err, &cerr))
	assert.True(t, errors.Is(err, tool.ErrNotFound))
}

func TestValuesSchema(t *testing.T) {
	h := &fakeHelm{
		version:     "v3.14.0",
		chartValues: "replicas: 1\n",
		schema:      `{"type": "object", "properties": {"replicas": {"type": "integer"}}}`,
	}
	r, _ := newRenderer(h)
	_, err := r.Template(context.Background(), ChartOpts{Chart: "stable/web", Values: map[string]interface{}{"replicas": 2}})
	require.NoError(t, err)

	_, err = r.Template(context.Background(), ChartOpts{Chart: "stable/web", Values: map[string]interface{}{"replicas": "two"}})
	require.Error(t, err)
	assert.Equal(t, kierr.User, kierr.AsAPIError(err).Type)
}

func TestRender(t *testing.T) {
	h := &fakeHelm{version: "v3.14.0"}
	r, _ := newRenderer(h)
	res, err := r.Render(context.Background(), ChartOpts{Chart: "stable/web", Namespace: "prod"}, ingest.Options{ResourcePrefix: "rel"})
	require.NoError(t, err)

	var ids []string
	for _, id := range res.IDs() {
		ids = append(ids, id.String())
	}
	assert.Equal(t, []string{
		"apps/v1/Deployment::prod/web",
		"rbac.authorization.k8s.io/v1/ClusterRole::default/web-reader",
		"v1/Namespace::default/web-ns",
	}, ids)
	dep := res["apps/v1/Deployment::prod/web"]
	assert.Equal(t, "chart:web", dep.Source())
	assert.Equal(t, "rel-prod/web", dep.Name())
}

// Package helm renders Helm charts by running the helm binary, and
// ingests the result.
package helm

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/ghodss/yaml"
	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	kierr "github.com/fluxcd/kubeingest/pkg/errors"
	"github.com/fluxcd/kubeingest/pkg/ingest"
	"github.com/fluxcd/kubeingest/pkg/tool"
	"github.com/fluxcd/kubeingest/pkg/transform"
)

// Renderer runs helm to render charts.
type Renderer struct {
	// Helm is the helm executable; "helm" if empty
	Helm     string
	Runner   tool.Runner
	Ingester *ingest.Ingester
	Logger   log.Logger
}

// Version is the version of helm being run.
type Version struct {
	// Raw is the output of `helm version --short`
	Raw    string
	Semver *semver.Version
}

// V3 is true for helm v3 and later, which take a different set of
// arguments to v2.
func (v Version) V3() bool {
	if v.Semver != nil {
		return v.Semver.Major() >= 3
	}
	return strings.HasPrefix(v.Raw, "v3")
}

func (r *Renderer) helm() string {
	if r.Helm == "" {
		return "helm"
	}
	return r.Helm
}

func (r *Renderer) runner() tool.Runner {
	if r.Runner == nil {
		return tool.Exec{Logger: r.logger()}
	}
	return r.Runner
}

func (r *Renderer) logger() log.Logger {
	if r.Logger == nil {
		return log.NewNopLogger()
	}
	return r.Logger
}

// Version asks helm for its version.
func (r *Renderer) Version(ctx context.Context) (Version, error) {
	out, err := r.runner().Run(ctx, tool.Command{Name: r.helm(), Args: []string{"version", "--short"}})
	if err != nil {
		return Version{}, err
	}
	return parseVersion(string(out)), nil
}

// Helm v2 says e.g., "Client: v2.16.7+g5f2584f", and v3 says
// "v3.1.2+gd878d4d".
func parseVersion(out string) Version {
	raw := strings.TrimSpace(out)
	v := Version{Raw: raw}
	s := strings.TrimPrefix(strings.SplitN(raw, "\n", 2)[0], "Client: ")
	if i := strings.Index(s, "+"); i >= 0 {
		s = s[:i]
	}
	if sv, err := semver.NewVersion(s); err == nil {
		v.Semver = sv
	}
	return v
}

// Template renders the chart, returning the stream of YAML documents
// helm prints. Anything fetched is removed before returning.
func (r *Renderer) Template(ctx context.Context, opts ChartOpts) ([]byte, error) {
	kind, ref, err := opts.source()
	if err != nil {
		return nil, err
	}
	chart := opts.Name()
	logger := log.With(r.logger(), "chart", chart, "source", kind)

	version, err := r.Version(ctx)
	if err != nil {
		return nil, r.renderError(chart, err)
	}
	logger.Log("helm", version.Raw)

	tmp, err := os.MkdirTemp("", "kubeingest-chart-")
	if err != nil {
		return nil, errors.Wrap(err, "creating temporary directory for chart")
	}
	defer os.RemoveAll(tmp)

	chartDir := ref
	if kind != sourceLocal {
		if kind == sourceOCI && !version.V3() {
			return nil, errors.Errorf("OCI chart references need helm v3 or later; found %s", version.Raw)
		}
		chartDir, err = r.fetch(ctx, version, ref, opts, tmp)
		if err != nil {
			return nil, r.renderError(chart, err)
		}
	}

	defaults, err := readChartValues(chartDir)
	if err != nil {
		return nil, err
	}
	values, err := MergeValues(defaults, opts.ValuesFiles, opts.Values)
	if err != nil {
		return nil, err
	}
	if err := validateValues(chart, chartDir, values); err != nil {
		return nil, err
	}
	// helm merges the file over the chart's values.yaml, so deletions
	// have to be given as explicit nulls.
	helmValues, err := mergeValues(defaults, opts.ValuesFiles, opts.Values, true)
	if err != nil {
		return nil, err
	}
	valuesBytes, err := yaml.Marshal(helmValues)
	if err != nil {
		return nil, errors.Wrap(err, "serialising values")
	}
	valuesFile := filepath.Join(tmp, "values.yaml")
	if err := os.WriteFile(valuesFile, valuesBytes, 0600); err != nil {
		return nil, errors.Wrap(err, "writing values")
	}

	out, err := r.runner().Run(ctx, tool.Command{
		Name: r.helm(),
		Args: templateArgs(version, opts.releaseName(), chartDir, valuesFile, opts),
	})
	if err != nil {
		return nil, r.renderError(chart, err)
	}
	return out, nil
}

func templateArgs(version Version, release, chartDir, valuesFile string, opts ChartOpts) []string {
	var args []string
	if version.V3() {
		args = []string{"template", release, chartDir}
	} else {
		args = []string{"template", chartDir, "--name", release}
	}
	args = append(args, "--values", valuesFile)
	if opts.Namespace != "" {
		args = append(args, "--namespace", opts.Namespace)
	}
	for _, v := range opts.APIVersions {
		args = append(args, "--api-versions", v)
	}
	if opts.IncludeCRDs && version.V3() {
		args = append(args, "--include-crds")
	}
	return args
}

// fetch downloads and unpacks the chart into dir, returning the
// directory of the unpacked chart.
func (r *Renderer) fetch(ctx context.Context, version Version, ref string, opts ChartOpts, dir string) (string, error) {
	fo := opts.FetchOpts
	args := []string{"fetch", ref, "--untar", "--destination", dir}
	var env []string
	if fo.Home != "" && !version.V3() {
		env = append(env, "HELM_HOME="+fo.Home)
		args = append(args, "--home", fo.Home)
	}
	for _, flag := range []struct{ name, value string }{
		{"--version", opts.version()},
		{"--repo", fo.Repo},
		{"--username", fo.Username},
		{"--password", fo.Password},
		{"--ca-file", fo.CAFile},
		{"--cert-file", fo.CertFile},
		{"--key-file", fo.KeyFile},
		{"--keyring", fo.Keyring},
	} {
		if flag.value != "" {
			args = append(args, flag.name, flag.value)
		}
	}
	if fo.Devel {
		args = append(args, "--devel")
	}
	if fo.Verify {
		args = append(args, "--verify")
	}

	if _, err := r.runner().Run(ctx, tool.Command{Name: r.helm(), Args: args, Env: env}); err != nil {
		return "", err
	}

	// helm unpacks the chart into a directory named for it; take the
	// first, should there be more than one.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	if len(dirs) == 0 {
		return "", errors.Errorf("helm fetch of %s produced no chart directory", ref)
	}
	sort.Strings(dirs)
	return filepath.Join(dir, dirs[0]), nil
}

func (r *Renderer) renderError(chart string, err error) error {
	cerr := &kierr.ChartRenderError{Chart: chart, Err: err}
	var exitErr *tool.ExitError
	if errors.As(err, &exitErr) {
		cerr.Command = exitErr.Command
		cerr.Stderr = exitErr.Stderr
	}
	return cerr
}

// Render renders the chart and ingests the resulting manifests. If a
// namespace is given, it is also given to namespaced resources that
// don't name one, before any other transformations run.
func (r *Renderer) Render(ctx context.Context, chart ChartOpts, opts ingest.Options) (ingest.Resources, error) {
	out, err := r.Template(ctx, chart)
	if err != nil {
		return nil, err
	}
	if chart.Namespace != "" {
		opts.Transformations = append(transform.Pipeline{transform.DefaultNamespace(chart.Namespace)}, opts.Transformations...)
	}
	in := r.Ingester
	if in == nil {
		in = &ingest.Ingester{Logger: r.logger()}
	}
	return in.YAML(out, "chart:"+chart.Name(), opts)
}

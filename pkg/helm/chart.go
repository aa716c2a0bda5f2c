package helm

import (
	"path"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/pkg/errors"
)

const ociScheme = "oci://"

// FetchOpts are passed on to `helm fetch`.
type FetchOpts struct {
	// Home is the helm home directory, for helm v2
	Home string `yaml:"home"`
	// Repo is the URL of the chart repository
	Repo     string `yaml:"repo"`
	Version  string `yaml:"version"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	CAFile   string `yaml:"caFile"`
	CertFile string `yaml:"certFile"`
	KeyFile  string `yaml:"keyFile"`
	Keyring  string `yaml:"keyring"`
	Devel    bool   `yaml:"devel"`
	Verify   bool   `yaml:"verify"`
}

// ChartOpts say which chart to render, and how.
type ChartOpts struct {
	// Path is a chart directory on the local filesystem. If given,
	// nothing is fetched.
	Path string
	// Chart is the name of the chart to fetch: "<repo>/<chart>",
	// or just "<chart>" along with Repo or FetchOpts.Repo, or an
	// "oci://" reference.
	Chart string
	// Repo is the name (not URL) of a configured chart repository
	Repo      string
	Version   string
	FetchOpts FetchOpts

	Values      map[string]interface{}
	ValuesFiles []string

	// Namespace is passed to helm, and given to namespaced resources
	// that don't have one.
	Namespace   string
	APIVersions []string
	// IncludeCRDs renders the chart's CRDs as well (helm v3 and
	// later).
	IncludeCRDs bool
	// ReleaseName defaults to the name of the chart
	ReleaseName string
}

type sourceKind int

const (
	sourceLocal sourceKind = iota
	sourceRepo
	sourceOCI
)

func (k sourceKind) String() string {
	switch k {
	case sourceLocal:
		return "local"
	case sourceRepo:
		return "repo"
	case sourceOCI:
		return "oci"
	}
	return "unknown"
}

// source works out where the chart comes from: a local path comes
// first, then a repository reference, then an OCI reference. It
// returns the argument to give to `helm fetch` (or the path).
func (o ChartOpts) source() (sourceKind, string, error) {
	switch {
	case o.Path != "":
		return sourceLocal, o.Path, nil
	case o.Chart == "":
		return 0, "", errors.New("either a chart path or a chart name must be given")
	case strings.Contains(o.Repo, "://"):
		return 0, "", errors.Errorf("repo %q looks like a URL; use the fetch options' repo for the repository URL, and repo for the name of a configured repository", o.Repo)
	case o.Repo != "":
		return sourceRepo, o.Repo + "/" + o.Chart, nil
	case o.FetchOpts.Repo != "" || !strings.HasPrefix(o.Chart, ociScheme):
		return sourceRepo, o.Chart, nil
	}
	ref := strings.TrimPrefix(o.Chart, ociScheme)
	if v := o.version(); v != "" {
		ref += ":" + v
	}
	if _, err := name.ParseReference(ref); err != nil {
		return 0, "", errors.Wrapf(err, "invalid OCI chart reference %q", o.Chart)
	}
	return sourceOCI, o.Chart, nil
}

// Name is the bare name of the chart, used for the default
// release name and in messages.
func (o ChartOpts) Name() string {
	c := o.Chart
	if o.Path != "" {
		c = strings.TrimRight(o.Path, "/")
	}
	return path.Base(strings.TrimPrefix(c, ociScheme))
}

func (o ChartOpts) releaseName() string {
	if o.ReleaseName != "" {
		return o.ReleaseName
	}
	return o.Name()
}

func (o ChartOpts) version() string {
	if o.Version != "" {
		return o.Version
	}
	return o.FetchOpts.Version
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Masterminds/semver/v3"
	"github.com/ryanuber/go-glob"
	"github.com/spf13/pflag"

	transport "github.com/fluxcd/kubeingest/pkg/http"
	"github.com/fluxcd/kubeingest/pkg/ingest"
	"github.com/fluxcd/kubeingest/pkg/transform"
)

// outputOpts are the flags shared by the commands that ingest
// manifests.
type outputOpts struct {
	output      string
	selector    string
	namespace   string
	prefix      string
	kubeVersion string
}

// addOutputFlags adds the flags for choosing what's output, and
// how.
func (opts *outputOpts) addOutputFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&opts.output, "output", "o", "ids", "output format: ids, yaml or json")
	fs.StringVar(&opts.selector, "select", "", "only output resources with IDs matching this glob, e.g., 'apps/v1/*::prod/*'")
	fs.StringVar(&opts.kubeVersion, "kube-version", "", "reject apiVersions removed as of this version of Kubernetes")
}

// addFlags adds the output flags, and those for naming resources.
func (opts *outputOpts) addFlags(fs *pflag.FlagSet) {
	opts.addOutputFlags(fs)
	fs.StringVarP(&opts.namespace, "namespace", "n", "", "namespace given to namespaced resources that don't have one")
	fs.StringVar(&opts.prefix, "prefix", "", "prefix for the names of resources")
}

func (opts *outputOpts) validate() error {
	switch opts.output {
	case "ids", "yaml", "json":
		return nil
	}
	return errorInvalidOutputFormat
}

func (opts *outputOpts) kubeSemver() (*semver.Version, error) {
	if opts.kubeVersion == "" {
		return nil, nil
	}
	v, err := semver.NewVersion(opts.kubeVersion)
	if err != nil {
		return nil, newUsageError(fmt.Sprintf("--kube-version %q is not a version: %s", opts.kubeVersion, err))
	}
	return v, nil
}

func (opts *outputOpts) ingestOptions() (ingest.Options, error) {
	v, err := opts.kubeSemver()
	if err != nil {
		return ingest.Options{}, err
	}
	o := ingest.Options{ResourcePrefix: opts.prefix, KubeVersion: v}
	if opts.namespace != "" {
		o.Transformations = transform.Pipeline{transform.DefaultNamespace(opts.namespace)}
	}
	return o, nil
}

func (opts *outputOpts) selected(res ingest.Resources) ingest.Resources {
	if opts.selector == "" {
		return res
	}
	out := ingest.Resources{}
	for id, r := range res {
		if glob.Glob(opts.selector, id) {
			out[id] = r
		}
	}
	return out
}

func (opts *outputOpts) write(out io.Writer, res ingest.Resources) error {
	res = opts.selected(res)
	switch opts.output {
	case "yaml":
		for _, r := range res.Sorted() {
			fmt.Fprintf(out, "---\n# %s\n", r.ResourceID())
			out.Write(r.Bytes())
		}
		return nil
	case "json":
		result, err := transport.MakeRenderResult(res)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tNAME\tSOURCE\n")
		for _, r := range res.Sorted() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.ResourceID(), r.Name(), r.Source())
		}
		return w.Flush()
	}
}

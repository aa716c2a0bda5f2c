package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Jeffail/gabs"
	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"

	"github.com/fluxcd/kubeingest/pkg/helm"
)

type helmOpts struct {
	*rootOpts
	outputOpts
	chart helm.ChartOpts
	set   []string
}

func newHelm(parent *rootOpts) *helmOpts {
	return &helmOpts{rootOpts: parent}
}

func (opts *helmOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "helm CHART",
		Short: "Render a Helm chart and ingest the result.",
		Long: `Render a Helm chart and ingest the result. CHART is a local chart
directory, "<repo>/<chart>", a chart name along with --repo-url, or an
oci:// reference.`,
		Example: `  kubeingest helm ./charts/web -f values-prod.yaml
  kubeingest helm stable/nginx --version 1.2.3 --set image.tag=1.25.0 -n web
  kubeingest helm oci://ghcr.io/example/charts/web --version 0.1.0`,
		RunE: opts.RunE,
	}
	opts.addFlags(cmd.Flags())
	cmd.Flags().StringVar(&opts.chart.Version, "version", "", "chart version")
	cmd.Flags().StringVar(&opts.chart.Repo, "repo", "", "name of a configured chart repository")
	cmd.Flags().StringVar(&opts.chart.FetchOpts.Repo, "repo-url", "", "URL of the chart repository")
	cmd.Flags().StringVar(&opts.chart.ReleaseName, "release-name", "", "release name; defaults to the chart name")
	cmd.Flags().StringSliceVarP(&opts.chart.ValuesFiles, "values", "f", nil, "values files, in order of increasing precedence")
	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "set a value, e.g., image.tag=1.25.0; takes precedence over values files")
	cmd.Flags().StringSliceVar(&opts.chart.APIVersions, "api-versions", nil, "Kubernetes api versions used for Capabilities.APIVersions")
	cmd.Flags().BoolVar(&opts.chart.IncludeCRDs, "include-crds", false, "include the chart's CRDs (helm v3 and later)")

	fo := &opts.chart.FetchOpts
	cmd.Flags().StringVar(&fo.Home, "home", "", "helm home directory (helm v2)")
	cmd.Flags().StringVar(&fo.Username, "username", "", "chart repository username")
	cmd.Flags().StringVar(&fo.Password, "password", "", "chart repository password")
	cmd.Flags().StringVar(&fo.CAFile, "ca-file", "", "verify certificates of HTTPS-enabled servers using this CA bundle")
	cmd.Flags().StringVar(&fo.CertFile, "cert-file", "", "identify HTTPS client using this SSL certificate file")
	cmd.Flags().StringVar(&fo.KeyFile, "key-file", "", "identify HTTPS client using this SSL key file")
	cmd.Flags().StringVar(&fo.Keyring, "keyring", "", "keyring containing public keys, for --verify")
	cmd.Flags().BoolVar(&fo.Devel, "devel", false, "use development versions, too")
	cmd.Flags().BoolVar(&fo.Verify, "verify", false, "verify the package before using it")
	return cmd
}

func (opts *helmOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return newUsageError("expected exactly one chart")
	}
	if err := opts.validate(); err != nil {
		return err
	}

	chart := opts.chart
	if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
		chart.Path = args[0]
	} else {
		chart.Chart = args[0]
	}
	values, err := parseSet(opts.set)
	if err != nil {
		return err
	}
	chart.Values = values

	// The namespace goes to helm; the renderer gives it to resources
	// without one.
	chart.Namespace = opts.namespace
	ingestOpts, err := opts.ingestOptions()
	if err != nil {
		return err
	}
	ingestOpts.Transformations = nil

	res, err := opts.helmRenderer().Render(context.Background(), chart, ingestOpts)
	if err != nil {
		return err
	}
	return opts.write(cmd.OutOrStdout(), res)
}

// parseSet turns "a.b=c" assignments into nested values. Values are
// read as YAML scalars, so numbers and booleans keep their type.
func parseSet(set []string) (map[string]interface{}, error) {
	if len(set) == 0 {
		return nil, nil
	}
	values := gabs.New()
	for _, s := range set {
		kv := strings.SplitN(s, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, newUsageError(fmt.Sprintf("--set %q: expected <path>=<value>", s))
		}
		var v interface{} = kv[1]
		if kv[1] != "" {
			if err := yaml.Unmarshal([]byte(kv[1]), &v); err != nil {
				v = kv[1]
			}
		}
		if _, err := values.SetP(v, kv[0]); err != nil {
			return nil, newUsageError(fmt.Sprintf("--set %q: %s", s, err))
		}
	}
	out, _ := values.Data().(map[string]interface{})
	return out, nil
}

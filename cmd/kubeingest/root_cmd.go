package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/spf13/cobra"

	"github.com/fluxcd/kubeingest/pkg/helm"
	"github.com/fluxcd/kubeingest/pkg/ingest"
	"github.com/fluxcd/kubeingest/pkg/kustomize"
	"github.com/fluxcd/kubeingest/pkg/manifest"
	"github.com/fluxcd/kubeingest/pkg/tool"
)

const (
	EnvVariableHelm      = "KUBEINGEST_HELM"
	EnvVariableKustomize = "KUBEINGEST_KUSTOMIZE"
)

type rootOpts struct {
	helm      string
	kustomize string
	kubectl   string
	sops      bool
	quiet     bool

	Logger log.Logger
	// Runner runs helm and kustomize; a tool.Exec if nil
	Runner tool.Runner
}

func newRoot() *rootOpts {
	return &rootOpts{}
}

var rootLongHelp = strings.TrimSpace(`
kubeingest turns Kubernetes manifests into typed resources, in the
order they should be applied.

Workflow:
  kubeingest yaml ./manifests/                       # Which resources do these files define?
  kubeingest helm stable/nginx -f values.yaml        # What does this chart render to?
  kubeingest kustomize ./overlays/prod -o yaml       # Show the rendered overlay
  kubeingest build                                   # Build the sources in .kubeingest.yaml
  kubeingest serve --listen :3031                    # Render over HTTP
`)

func (opts *rootOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "kubeingest",
		Long:              rootLongHelp,
		SilenceUsage:      true,
		PersistentPreRunE: opts.PersistentPreRunE,
	}
	cmd.PersistentFlags().StringVar(&opts.helm, "helm", "",
		fmt.Sprintf("helm executable; you can also set the environment variable %s", EnvVariableHelm))
	cmd.PersistentFlags().StringVar(&opts.kustomize, "kustomize", "",
		fmt.Sprintf("kustomize executable; you can also set the environment variable %s", EnvVariableKustomize))
	cmd.PersistentFlags().StringVar(&opts.kubectl, "kubectl", "", "kubectl executable, used when kustomize isn't found")
	cmd.PersistentFlags().BoolVar(&opts.sops, "sops", false, "decrypt sops-encrypted manifest files")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "don't log to stderr")

	cmd.AddCommand(
		newYAML(opts).Command(),
		newHelm(opts).Command(),
		newKustomize(opts).Command(),
		newBuild(opts).Command(),
		newKinds(opts).Command(),
		newServe(opts).Command(),
		newVersionCommand(),
	)

	return cmd
}

func (opts *rootOpts) PersistentPreRunE(cmd *cobra.Command, _ []string) error {
	if !cmd.Flags().Changed("helm") {
		if env := os.Getenv(EnvVariableHelm); env != "" {
			opts.helm = env
		}
	}
	if !cmd.Flags().Changed("kustomize") {
		if env := os.Getenv(EnvVariableKustomize); env != "" {
			opts.kustomize = env
		}
	}

	if opts.Logger == nil {
		if opts.quiet {
			opts.Logger = log.NewNopLogger()
		} else {
			logger := log.NewLogfmtLogger(log.NewSyncWriter(cmd.ErrOrStderr()))
			logger = log.With(logger, "ts", log.DefaultTimestampUTC)
			opts.Logger = logger
		}
	}
	return nil
}

func (opts *rootOpts) logger() log.Logger {
	if opts.Logger == nil {
		return log.NewNopLogger()
	}
	return opts.Logger
}

func (opts *rootOpts) runner() tool.Runner {
	if opts.Runner == nil {
		return tool.Exec{Logger: log.With(opts.logger(), "component", "tool")}
	}
	return opts.Runner
}

func (opts *rootOpts) ingester() *ingest.Ingester {
	return &ingest.Ingester{
		Logger: log.With(opts.logger(), "component", "ingest"),
		Load:   manifest.LoadOptions{SopsEnabled: opts.sops},
	}
}

func (opts *rootOpts) helmRenderer() *helm.Renderer {
	return &helm.Renderer{
		Helm:     opts.helm,
		Runner:   opts.runner(),
		Ingester: opts.ingester(),
		Logger:   log.With(opts.logger(), "component", "helm"),
	}
}

func (opts *rootOpts) kustomizeRenderer() *kustomize.Renderer {
	return &kustomize.Renderer{
		Kustomize: opts.kustomize,
		Kubectl:   opts.kubectl,
		Runner:    opts.runner(),
		Ingester:  opts.ingester(),
		Logger:    log.With(opts.logger(), "component", "kustomize"),
	}
}

package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-kit/kit/log"
	"github.com/spf13/cobra"

	"github.com/fluxcd/kubeingest/pkg/manifests"
)

type buildOpts struct {
	*rootOpts
	outputOpts
	file string
	base string
}

func newBuild(parent *rootOpts) *buildOpts {
	return &buildOpts{rootOpts: parent}
}

func (opts *buildOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [DIR]",
		Short: "Build the sources listed in a " + manifests.ConfigFilename + " file.",
		Long: `Build the sources listed in a ` + manifests.ConfigFilename + ` file, and ingest them
as one batch. Without --file, the file is looked for in DIR (or the
current directory) and then in each parent directory up to --base.`,
		Example: `  kubeingest build
  kubeingest build ./apps/web --base .
  kubeingest build -f deploy/` + manifests.ConfigFilename,
		RunE: opts.RunE,
	}
	opts.addOutputFlags(cmd.Flags())
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "path to the config file")
	cmd.Flags().StringVar(&opts.base, "base", "", "directory above which not to look for the config file; defaults to the filesystem root")
	return cmd
}

func (opts *buildOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return newUsageError("expected at most one directory")
	}
	if err := opts.validate(); err != nil {
		return err
	}
	kubeVersion, err := opts.kubeSemver()
	if err != nil {
		return err
	}

	path := opts.file
	if path == "" {
		if path, err = opts.findConfigFile(args); err != nil {
			return err
		}
	}
	cf, err := manifests.NewConfigFile(path)
	if err != nil {
		return err
	}
	opts.logger().Log("config", path)

	res, err := cf.Build(context.Background(), manifests.Builder{
		Ingester:    opts.ingester(),
		Helm:        opts.helmRenderer(),
		Kustomize:   opts.kustomizeRenderer(),
		KubeVersion: kubeVersion,
		Runner:      opts.runner(),
		Logger:      log.With(opts.logger(), "component", "build"),
	})
	if err != nil {
		return err
	}
	return opts.write(cmd.OutOrStdout(), res)
}

func (opts *buildOpts) findConfigFile(args []string) (string, error) {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	base := opts.base
	if base == "" {
		base = string(os.PathSeparator)
	}
	if base, err = filepath.Abs(base); err != nil {
		return "", err
	}
	return manifests.FindConfigFile(base, dir)
}

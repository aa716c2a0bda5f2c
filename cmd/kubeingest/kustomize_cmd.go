package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fluxcd/kubeingest/pkg/kustomize"
)

type kustomizeOpts struct {
	*rootOpts
	outputOpts
}

func newKustomize(parent *rootOpts) *kustomizeOpts {
	return &kustomizeOpts{rootOpts: parent}
}

func (opts *kustomizeOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "kustomize DIR",
		Short:   "Build a kustomization and ingest the result.",
		Example: "  kubeingest kustomize ./overlays/prod",
		RunE:    opts.RunE,
	}
	opts.addFlags(cmd.Flags())
	return cmd
}

func (opts *kustomizeOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return newUsageError("expected exactly one directory")
	}
	if err := opts.validate(); err != nil {
		return err
	}
	ingestOpts, err := opts.ingestOptions()
	if err != nil {
		return err
	}
	res, err := opts.kustomizeRenderer().Render(context.Background(), kustomize.Directory{Path: args[0]}, ingestOpts)
	if err != nil {
		return err
	}
	return opts.write(cmd.OutOrStdout(), res)
}

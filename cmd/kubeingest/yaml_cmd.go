package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/fluxcd/kubeingest/pkg/ingest"
)

type yamlOpts struct {
	*rootOpts
	outputOpts
}

func newYAML(parent *rootOpts) *yamlOpts {
	return &yamlOpts{rootOpts: parent}
}

func (opts *yamlOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yaml [path|glob|url ...]",
		Short: "Ingest manifests from files, directories, URLs, or stdin.",
		Example: `  kubeingest yaml ./manifests/
  kubeingest yaml 'deploy/*.yaml' --select 'apps/v1/*'
  kubectl get deploy -o yaml | kubeingest yaml -`,
		RunE: opts.RunE,
	}
	opts.addFlags(cmd.Flags())
	return cmd
}

func (opts *yamlOpts) RunE(cmd *cobra.Command, args []string) error {
	if err := opts.validate(); err != nil {
		return err
	}
	ingestOpts, err := opts.ingestOptions()
	if err != nil {
		return err
	}

	in := opts.ingester()
	var res ingest.Resources
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		res, err = in.YAML(data, "stdin", ingestOpts)
		if err != nil {
			return err
		}
	} else {
		res, err = in.Files(context.Background(), args, ingestOpts)
		if err != nil {
			return err
		}
	}
	return opts.write(cmd.OutOrStdout(), res)
}

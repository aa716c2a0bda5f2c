package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/fluxcd/kubeingest/pkg/kinds"
	"github.com/fluxcd/kubeingest/pkg/registry"
)

type kindsOpts struct {
	*rootOpts
}

func newKinds(parent *rootOpts) *kindsOpts {
	return &kindsOpts{rootOpts: parent}
}

func (opts *kindsOpts) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the kinds that can be ingested, in apply order.",
		RunE:  opts.RunE,
	}
}

func (opts *kindsOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}

	type entry struct{ apiVersion, kind string }
	var entries []entry
	for _, k := range registry.Default().Keys() {
		i := strings.LastIndex(k, "/")
		entries = append(entries, entry{k[:i], k[i+1:]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return kinds.Less(entries[i].kind, entries[j].kind)
	})

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintf(w, "APIVERSION\tKIND\tSCOPE\tREMOVED IN\n")
	for _, e := range entries {
		scope := "Namespaced"
		if kinds.ClusterScoped(e.kind) {
			scope = "Cluster"
		}
		removed := ""
		if v := kinds.RemovedInVersion(schema.FromAPIVersionAndKind(e.apiVersion, e.kind)); v != nil {
			removed = fmt.Sprintf("%d.%d", v.Major(), v.Minor())
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.apiVersion, e.kind, scope, removed)
	}
	return w.Flush()
}

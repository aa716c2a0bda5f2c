// Package ingest turns manifests into typed resources: documents are
// put in apply order, transformed, and dispatched by apiVersion and
// kind.
package ingest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-kit/kit/log"

	"github.com/fluxcd/kubeingest/metrics"
	kierr "github.com/fluxcd/kubeingest/pkg/errors"
	"github.com/fluxcd/kubeingest/pkg/kinds"
	"github.com/fluxcd/kubeingest/pkg/manifest"
	"github.com/fluxcd/kubeingest/pkg/registry"
	"github.com/fluxcd/kubeingest/pkg/resource"
	"github.com/fluxcd/kubeingest/pkg/transform"
)

// Options control a single ingestion.
type Options struct {
	// Transformations are applied to each document, in order, before
	// it is dispatched
	Transformations transform.Pipeline
	// ResourcePrefix, if set, is prepended to each resource's logical
	// name, as "<prefix>-<name>"
	ResourcePrefix string
	// Parent is given to each resource in its options
	Parent string
	// PreserveOrder skips sorting into apply order, for callers that
	// have already sorted the documents
	PreserveOrder bool
	// KubeVersion, if set, is the Kubernetes version being targeted;
	// resources using an apiVersion removed as of that version are
	// rejected
	KubeVersion *semver.Version
}

// Resources are the results of an ingestion, keyed by resource ID.
type Resources map[string]resource.Resource

// IDs returns the IDs of the resources, sorted.
func (r Resources) IDs() resource.IDs {
	ids := make(resource.IDs, 0, len(r))
	for _, res := range r {
		ids = append(ids, res.ResourceID())
	}
	ids.Sort()
	return ids
}

// Sorted returns the resources in apply order, and by ID within a
// kind.
func (r Resources) Sorted() []resource.Resource {
	out := make([]resource.Resource, 0, len(r))
	for _, res := range r {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool {
		_, ki, _, _ := out[i].ResourceID().Components()
		_, kj, _, _ := out[j].ResourceID().Components()
		if ri, rj := kinds.Rank(ki), kinds.Rank(kj); ri != rj {
			return ri < rj
		}
		return out[i].ResourceID().String() < out[j].ResourceID().String()
	})
	return out
}

// Ingester runs ingestions. The zero value uses the default dispatch
// table and discards log output.
type Ingester struct {
	Registry *registry.Table
	Logger   log.Logger
	// Load is used when reading files and URLs
	Load manifest.LoadOptions
}

func (in *Ingester) table() *registry.Table {
	if in.Registry == nil {
		return registry.Default()
	}
	return in.Registry
}

func (in *Ingester) logger() log.Logger {
	if in.Logger == nil {
		return log.NewNopLogger()
	}
	return in.Logger
}

// YAML decodes the YAML or JSON given, and ingests the documents.
func (in *Ingester) YAML(data []byte, source string, opts Options) (Resources, error) {
	docs, err := manifest.Parse(data, source)
	if err != nil {
		return nil, err
	}
	return in.Ingest(docs, opts)
}

// Files reads the files, directories, globs and URLs given, and
// ingests the documents as one batch.
func (in *Ingester) Files(ctx context.Context, paths []string, opts Options) (Resources, error) {
	docs, err := manifest.Load(ctx, paths, in.Load)
	if err != nil {
		return nil, err
	}
	return in.Ingest(docs, opts)
}

// Objects ingests objects supplied as literal maps.
func (in *Ingester) Objects(objs []map[string]interface{}, opts Options) (Resources, error) {
	docs, err := manifest.FromObjects(objs, "objects")
	if err != nil {
		return nil, err
	}
	return in.Ingest(docs, opts)
}

// Ingest sorts, transforms and dispatches the documents. Documents
// without an apiVersion or kind are skipped. If any document fails,
// no resources are returned. The documents given may be mutated by
// transformations, but the slice itself is not reordered.
func (in *Ingester) Ingest(docs []manifest.Document, opts Options) (_ Resources, err error) {
	defer func(begin time.Time) {
		ingestDuration.With(metrics.LabelSuccess, fmt.Sprint(err == nil)).Observe(time.Since(begin).Seconds())
	}(time.Now())

	logger := in.logger()
	table := in.table()

	ordered := make([]manifest.Document, len(docs))
	copy(ordered, docs)
	if !opts.PreserveOrder {
		kinds.Sort(ordered)
	}

	result := Resources{}
	counts := map[string]int{}
	for _, doc := range ordered {
		resOpts := resource.Options{Parent: opts.Parent}
		doc, err = opts.Transformations.Apply(doc, &resOpts)
		if err != nil {
			return nil, err
		}

		if doc.APIVersion() == "" || doc.Kind() == "" {
			logger.Log("source", doc.Source(), "skip", "document has no apiVersion or kind")
			continue
		}

		id := resource.MakeID(doc.APIVersion(), doc.Kind(), doc.Namespace(), doc.Name())
		if opts.KubeVersion != nil {
			gvk := doc.GroupVersionKind()
			if removed, removedIn := kinds.RemovedAPIVersion(gvk, opts.KubeVersion); removed {
				return nil, removedError(&kinds.RemovedAPIError{GVK: gvk, Version: removedIn}, opts.KubeVersion)
			}
		}

		res, err := table.Construct(LogicalName(doc, opts.ResourcePrefix), doc, resOpts)
		if err != nil {
			return nil, err
		}
		if _, ok := result[id.String()]; ok {
			logger.Log("resource", id, "warning", "duplicate resource ID; the later definition replaces the earlier")
		}
		result[id.String()] = res
		counts[doc.Kind()]++
	}

	for kind, n := range counts {
		resourcesTotal.With(metrics.LabelKind, kind).Add(float64(n))
	}
	return result, nil
}

// LogicalName is the name a resource is constructed with: its name,
// qualified by its namespace if it has one, and prefixed if a prefix
// is given.
func LogicalName(doc manifest.Document, prefix string) string {
	name := doc.Name()
	if ns := doc.Namespace(); ns != "" {
		name = ns + "/" + name
	}
	if prefix != "" {
		name = prefix + "-" + name
	}
	return name
}

func removedError(err *kinds.RemovedAPIError, version *semver.Version) *kierr.Error {
	return &kierr.Error{
		Type: kierr.User,
		Err:  err,
		Help: `The manifests use an apiVersion that is not served by Kubernetes ` + version.String() + `:

    ` + err.Error() + `

Update the manifests to use the suggested apiVersion, or target an
older version of Kubernetes.
`,
	}
}

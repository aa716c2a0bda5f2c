package resource

import (
	"k8s.io/apimachinery/pkg/runtime"
)

// Resource is a typed Kubernetes resource as constructed from a
// manifest. It is handed to whoever applies resources to a cluster;
// kubeingest only builds it.
type Resource interface {
	ResourceID() ID         // unique within one ingestion batch
	Name() string           // the logical name the resource was constructed with
	Source() string         // where did this come from (informational)
	Object() runtime.Object // the typed object; *unstructured.Unstructured for untyped kinds
	Options() Options       // options accumulated by transformations
	Bytes() []byte          // the definition as YAML
}

// Options is the record given to transformations alongside each
// document, and then to the constructor. Transformations may mutate
// it, e.g., to mark fields as secret.
type Options struct {
	// Parent names the component that owns the resource
	Parent string `json:"parent,omitempty"`
	// DependsOn lists resources which must be applied first
	DependsOn []ID `json:"dependsOn,omitempty"`
	// AdditionalSecretOutputs lists field paths to treat as secret
	AdditionalSecretOutputs []string `json:"additionalSecretOutputs,omitempty"`
	// IgnoreChanges lists field paths for which changes are not to
	// be applied
	IgnoreChanges []string `json:"ignoreChanges,omitempty"`
	// Protect prevents the resource being deleted
	Protect bool `json:"protect,omitempty"`
	// SkipAwait means the resource is not to be waited on for
	// readiness once applied
	SkipAwait bool `json:"skipAwait,omitempty"`
}

// MarkSecret adds paths to AdditionalSecretOutputs, leaving out any
// already present.
func (o *Options) MarkSecret(paths ...string) {
	o.AdditionalSecretOutputs = appendUnique(o.AdditionalSecretOutputs, paths...)
}

// Ignore adds paths to IgnoreChanges, leaving out any already
// present.
func (o *Options) Ignore(paths ...string) {
	o.IgnoreChanges = appendUnique(o.IgnoreChanges, paths...)
}

// Copy returns an Options with its own slices, so that mutating one
// doesn't affect the other.
func (o Options) Copy() Options {
	c := o
	c.DependsOn = append([]ID(nil), o.DependsOn...)
	c.AdditionalSecretOutputs = append([]string(nil), o.AdditionalSecretOutputs...)
	c.IgnoreChanges = append([]string(nil), o.IgnoreChanges...)
	return c
}

func appendUnique(existing []string, more ...string) []string {
	seen := map[string]bool{}
	for _, s := range existing {
		seen[s] = true
	}
	for _, s := range more {
		if !seen[s] {
			existing = append(existing, s)
			seen[s] = true
		}
	}
	return existing
}

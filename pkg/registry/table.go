// Package registry holds the dispatch table from apiVersion/kind to
// the constructor for the typed resource.
package registry

import (
	"sort"
	"sync"

	kierr "github.com/fluxcd/kubeingest/pkg/errors"
	"github.com/fluxcd/kubeingest/pkg/manifest"
	"github.com/fluxcd/kubeingest/pkg/resource"
)

// Constructor makes a typed resource from a document. The name is the
// logical name the resource is to be known by; it is not necessarily
// metadata.name.
type Constructor func(name string, doc manifest.Document, opts resource.Options) (resource.Resource, error)

// Table maps "<apiVersion>/<kind>" to constructors. Matching is
// exact and case-sensitive. It is safe for concurrent use.
type Table struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

func NewTable() *Table {
	return &Table{ctors: map[string]Constructor{}}
}

func key(apiVersion, kind string) string {
	return apiVersion + "/" + kind
}

// Register adds or replaces the constructor for apiVersion/kind.
func (t *Table) Register(apiVersion, kind string, ctor Constructor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ctors[key(apiVersion, kind)] = ctor
}

func (t *Table) Lookup(apiVersion, kind string) (Constructor, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ctor, ok := t.ctors[key(apiVersion, kind)]
	return ctor, ok
}

// Keys returns the registered "<apiVersion>/<kind>" keys, sorted.
func (t *Table) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]string, 0, len(t.ctors))
	for k := range t.ctors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Copy returns a table with the same entries, which can be extended
// without affecting this one.
func (t *Table) Copy() *Table {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c := NewTable()
	for k, v := range t.ctors {
		c.ctors[k] = v
	}
	return c
}

// Construct dispatches the document to the constructor registered for
// its apiVersion and kind. If there is none, the error is an
// *errors.UnrecognizedResourceError.
func (t *Table) Construct(name string, doc manifest.Document, opts resource.Options) (resource.Resource, error) {
	ctor, ok := t.Lookup(doc.APIVersion(), doc.Kind())
	if !ok {
		return nil, &kierr.UnrecognizedResourceError{APIVersion: doc.APIVersion(), Kind: doc.Kind()}
	}
	return ctor(name, doc, opts)
}

var defaultTable = NewTable()

// Default returns the table of built-in Kubernetes kinds. It is shared;
// use Copy to get a table to register custom kinds with.
func Default() *Table {
	return defaultTable
}

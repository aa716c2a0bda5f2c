// Package transform applies caller-supplied transformations to
// documents before they are turned into resources.
package transform

import (
	"fmt"

	"github.com/pkg/errors"

	kierr "github.com/fluxcd/kubeingest/pkg/errors"
	"github.com/fluxcd/kubeingest/pkg/manifest"
	"github.com/fluxcd/kubeingest/pkg/resource"
)

// Func is a transformation. It may mutate obj and opts in place and
// return nil, or return a new object to be used in place of obj
// verbatim.
type Func func(obj map[string]interface{}, opts *resource.Options) (map[string]interface{}, error)

// Pipeline is a sequence of transformations, applied in order.
type Pipeline []Func

// Apply runs each transformation over the document in turn, and
// returns the result. Any failure is a *errors.TransformationError;
// the caller is expected to abandon the batch.
func (p Pipeline) Apply(doc manifest.Document, opts *resource.Options) (manifest.Document, error) {
	for i, f := range p {
		replacement, err := apply(f, doc.Object, opts)
		if err != nil {
			return doc, &kierr.TransformationError{Index: i, ID: describe(doc), Err: err}
		}
		if replacement == nil {
			continue
		}
		obj, err := manifest.Normalize(replacement)
		if err != nil {
			return doc, &kierr.TransformationError{
				Index: i,
				ID:    describe(doc),
				Err:   errors.Wrap(err, "transformation returned an object that cannot be represented as JSON"),
			}
		}
		doc = manifest.NewDocument(obj, doc.Source())
	}
	return doc, nil
}

// apply runs f, turning a panic into an error.
func apply(f Func, obj map[string]interface{}, opts *resource.Options) (result map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return f(obj, opts)
}

func describe(doc manifest.Document) string {
	return resource.MakeID(doc.APIVersion(), doc.Kind(), doc.Namespace(), doc.Name()).String()
}

package registry

import (
	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/fluxcd/kubeingest/pkg/manifest"
	"github.com/fluxcd/kubeingest/pkg/resource"
)

// Object is the resource.Resource made by the constructors in this
// package.
type Object struct {
	id     resource.ID
	name   string
	source string
	obj    runtime.Object
	opts   resource.Options
	bytes  []byte
	digest digest.Digest
}

var _ resource.Resource = &Object{}

// NewObject wraps a constructed object. The document is serialised
// for Bytes and Digest, so later changes to it aren't seen.
func NewObject(name string, doc manifest.Document, obj runtime.Object, opts resource.Options) (*Object, error) {
	bytes, err := doc.YAML()
	if err != nil {
		return nil, errors.Wrap(err, "serialising document")
	}
	return &Object{
		id:     resource.MakeID(doc.APIVersion(), doc.Kind(), doc.Namespace(), doc.Name()),
		name:   name,
		source: doc.Source(),
		obj:    obj,
		opts:   opts.Copy(),
		bytes:  bytes,
		digest: digest.FromBytes(bytes),
	}, nil
}

func (o *Object) ResourceID() resource.ID   { return o.id }
func (o *Object) Name() string              { return o.name }
func (o *Object) Source() string            { return o.source }
func (o *Object) Object() runtime.Object    { return o.obj }
func (o *Object) Options() resource.Options { return o.opts.Copy() }
func (o *Object) Bytes() []byte             { return o.bytes }

// Digest identifies the content of the definition, e.g., to detect
// whether a resource has changed between two batches.
func (o *Object) Digest() digest.Digest { return o.digest }

// Typed returns a constructor that converts the document into the
// object returned by newObj.
func Typed(newObj func() runtime.Object) Constructor {
	return func(name string, doc manifest.Document, opts resource.Options) (resource.Resource, error) {
		obj := newObj()
		if err := runtime.DefaultUnstructuredConverter.FromUnstructured(doc.Object, obj); err != nil {
			return nil, errors.Wrapf(err, "converting %s to %T", describe(doc), obj)
		}
		return NewObject(name, doc, obj, opts)
	}
}

// FromScheme returns a constructor for the typed object s has
// registered for gvk.
func FromScheme(s *runtime.Scheme, gvk schema.GroupVersionKind) Constructor {
	return Typed(func() runtime.Object {
		obj, err := s.New(gvk)
		if err != nil {
			panic(err) // registered only if recognised
		}
		return obj
	})
}

// Unstructured is a constructor for kinds with no Go type; the object
// is an *unstructured.Unstructured holding a copy of the document.
func Unstructured(name string, doc manifest.Document, opts resource.Options) (resource.Resource, error) {
	return NewObject(name, doc, doc.DeepCopy().Unstructured(), opts)
}

func describe(doc manifest.Document) string {
	return resource.MakeID(doc.APIVersion(), doc.Kind(), doc.Namespace(), doc.Name()).String()
}

package transform

import (
	"encoding/json"

	"github.com/Jeffail/gabs"
	jsonpatch "github.com/evanphx/json-patch"
	"github.com/imdario/mergo"
	"github.com/pkg/errors"

	"github.com/fluxcd/kubeingest/pkg/kinds"
	"github.com/fluxcd/kubeingest/pkg/manifest"
	"github.com/fluxcd/kubeingest/pkg/resource"
)

// SetNamespace puts namespaced resources into ns. Cluster-scoped
// kinds are left alone.
func SetNamespace(ns string) Func {
	return func(obj map[string]interface{}, _ *resource.Options) (map[string]interface{}, error) {
		doc := manifest.NewDocument(obj, "")
		if kinds.ClusterScoped(doc.Kind()) {
			return nil, nil
		}
		return nil, doc.Set(ns, "metadata", "namespace")
	}
}

// DefaultNamespace puts namespaced resources that don't say which
// namespace they belong to into ns.
func DefaultNamespace(ns string) Func {
	return func(obj map[string]interface{}, _ *resource.Options) (map[string]interface{}, error) {
		doc := manifest.NewDocument(obj, "")
		if kinds.ClusterScoped(doc.Kind()) || doc.Namespace() != "" {
			return nil, nil
		}
		return nil, doc.Set(ns, "metadata", "namespace")
	}
}

// AddLabels adds the labels given, overwriting existing values.
func AddLabels(labels map[string]string) Func {
	return mergeMetadata("labels", labels)
}

// AddAnnotations adds the annotations given, overwriting existing
// values.
func AddAnnotations(annotations map[string]string) Func {
	return mergeMetadata("annotations", annotations)
}

func mergeMetadata(field string, values map[string]string) Func {
	return func(obj map[string]interface{}, _ *resource.Options) (map[string]interface{}, error) {
		if len(values) == 0 {
			return nil, nil
		}
		doc := manifest.NewDocument(obj, "")
		existing, _, err := doc.Map("metadata", field)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			existing = map[string]interface{}{}
		}
		mixin := map[string]interface{}{}
		for k, v := range values {
			mixin[k] = v
		}
		if err := mergo.Merge(&existing, mixin, mergo.WithOverride); err != nil {
			return nil, errors.Wrapf(err, "merging metadata.%s", field)
		}
		return nil, doc.Set(existing, "metadata", field)
	}
}

// SetField sets the value at a dotted path, e.g.,
// `spec.template.metadata.labels.app`, creating maps along the way.
func SetField(path string, value interface{}) Func {
	return func(obj map[string]interface{}, _ *resource.Options) (map[string]interface{}, error) {
		container, err := gabs.Consume(obj)
		if err != nil {
			return nil, err
		}
		if _, err := container.SetP(value, path); err != nil {
			return nil, errors.Wrapf(err, "setting %s", path)
		}
		// Returned, rather than left in place, so that the value is
		// normalised along with the rest of the object.
		return obj, nil
	}
}

// JSONPatch applies an RFC 6902 patch, given as JSON.
func JSONPatch(patchJSON []byte) (Func, error) {
	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, errors.Wrap(err, "decoding JSON patch")
	}
	return func(obj map[string]interface{}, _ *resource.Options) (map[string]interface{}, error) {
		return viaJSON(obj, patch.Apply)
	}, nil
}

// MergePatch applies an RFC 7386 merge patch, given as JSON.
func MergePatch(patchJSON []byte) (Func, error) {
	if !json.Valid(patchJSON) {
		return nil, errors.New("merge patch is not valid JSON")
	}
	return func(obj map[string]interface{}, _ *resource.Options) (map[string]interface{}, error) {
		return viaJSON(obj, func(doc []byte) ([]byte, error) {
			return jsonpatch.MergePatch(doc, patchJSON)
		})
	}, nil
}

func viaJSON(obj map[string]interface{}, f func([]byte) ([]byte, error)) (map[string]interface{}, error) {
	doc, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	patched, err := f(doc)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	if err := json.Unmarshal(patched, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// StripStatus removes the status field, which is set by the cluster
// and shouldn't be applied.
func StripStatus() Func {
	return func(obj map[string]interface{}, _ *resource.Options) (map[string]interface{}, error) {
		delete(obj, "status")
		return nil, nil
	}
}

// MarkSecret treats the data of documents of the given kinds as
// secret. With no kinds given, it applies to Secrets.
func MarkSecret(kindNames ...string) Func {
	if len(kindNames) == 0 {
		kindNames = []string{"Secret"}
	}
	return func(obj map[string]interface{}, opts *resource.Options) (map[string]interface{}, error) {
		kind := manifest.NewDocument(obj, "").Kind()
		for _, k := range kindNames {
			if k == kind {
				opts.MarkSecret("data", "stringData")
				break
			}
		}
		return nil, nil
	}
}

// SkipAwait marks every resource as not to be waited on once applied.
func SkipAwait() Func {
	return func(_ map[string]interface{}, opts *resource.Options) (map[string]interface{}, error) {
		opts.SkipAwait = true
		return nil, nil
	}
}

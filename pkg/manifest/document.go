package manifest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	utiljson "k8s.io/apimachinery/pkg/util/json"
)

// Document is one decoded manifest: a JSON-like tree whose values are
// nil, bool, int64, float64, string, []interface{} or
// map[string]interface{}. Documents are mutated in place by
// transformations and discarded once dispatched.
type Document struct {
	Object map[string]interface{}
	// source is informational, e.g., the file the document came from
	source string
}

// NewDocument wraps an object. The object is not copied, and must
// already hold only JSON-compatible values (see Normalize).
func NewDocument(obj map[string]interface{}, source string) Document {
	return Document{Object: obj, source: source}
}

// ShapeError is returned by the typed accessors when a value is
// present but isn't of the type asked for.
type ShapeError struct {
	Path []string
	Want string
	Got  interface{}
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %T", strings.Join(e.Path, "."), e.Want, e.Got)
}

func (d Document) Source() string {
	return d.source
}

// APIVersion gives the apiVersion, or the empty string if it's absent
// or not a string.
func (d Document) APIVersion() string {
	s, _, _ := d.String("apiVersion")
	return s
}

func (d Document) Kind() string {
	s, _, _ := d.String("kind")
	return s
}

func (d Document) Name() string {
	s, _, _ := d.String("metadata", "name")
	return s
}

func (d Document) Namespace() string {
	s, _, _ := d.String("metadata", "namespace")
	return s
}

func (d Document) GroupVersionKind() schema.GroupVersionKind {
	return schema.FromAPIVersionAndKind(d.APIVersion(), d.Kind())
}

// Field returns the value at path, whatever its type.
func (d Document) Field(path ...string) (interface{}, bool, error) {
	val, found, err := unstructured.NestedFieldNoCopy(d.Object, path...)
	if err != nil {
		return nil, false, &ShapeError{Path: path, Want: "a path through maps", Got: err}
	}
	return val, found, nil
}

func (d Document) String(path ...string) (string, bool, error) {
	val, found, err := d.Field(path...)
	if err != nil || !found {
		return "", found, err
	}
	s, ok := val.(string)
	if !ok {
		return "", true, &ShapeError{Path: path, Want: "string", Got: val}
	}
	return s, true, nil
}

func (d Document) Int64(path ...string) (int64, bool, error) {
	val, found, err := d.Field(path...)
	if err != nil || !found {
		return 0, found, err
	}
	switch n := val.(type) {
	case int64:
		return n, true, nil
	case int:
		return int64(n), true, nil
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true, nil
		}
	}
	return 0, true, &ShapeError{Path: path, Want: "integer", Got: val}
}

func (d Document) Bool(path ...string) (bool, bool, error) {
	val, found, err := d.Field(path...)
	if err != nil || !found {
		return false, found, err
	}
	b, ok := val.(bool)
	if !ok {
		return false, true, &ShapeError{Path: path, Want: "bool", Got: val}
	}
	return b, true, nil
}

// Map returns the mapping at path. It is not copied, so changes to it
// are changes to the document.
func (d Document) Map(path ...string) (map[string]interface{}, bool, error) {
	val, found, err := d.Field(path...)
	if err != nil || !found {
		return nil, found, err
	}
	m, ok := val.(map[string]interface{})
	if !ok {
		return nil, true, &ShapeError{Path: path, Want: "map", Got: val}
	}
	return m, true, nil
}

func (d Document) Slice(path ...string) ([]interface{}, bool, error) {
	val, found, err := d.Field(path...)
	if err != nil || !found {
		return nil, found, err
	}
	s, ok := val.([]interface{})
	if !ok {
		return nil, true, &ShapeError{Path: path, Want: "list", Got: val}
	}
	return s, true, nil
}

// Set puts value at path, creating intermediate maps as needed. The
// value must be JSON-compatible.
func (d Document) Set(value interface{}, path ...string) error {
	if d.Object == nil {
		return fmt.Errorf("cannot set %s on an empty document", strings.Join(path, "."))
	}
	value, err := normalizeValue(value)
	if err != nil {
		return errors.Wrapf(err, "setting %s", strings.Join(path, "."))
	}
	if err := unstructured.SetNestedField(d.Object, value, path...); err != nil {
		return &ShapeError{Path: path, Want: "a path through maps", Got: err}
	}
	return nil
}

func (d Document) Delete(path ...string) {
	unstructured.RemoveNestedField(d.Object, path...)
}

func (d Document) DeepCopy() Document {
	if d.Object == nil {
		return Document{source: d.source}
	}
	return Document{Object: runtime.DeepCopyJSON(d.Object), source: d.source}
}

// Unstructured gives the document as an apimachinery object, sharing
// the underlying map.
func (d Document) Unstructured() *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: d.Object}
}

func (d Document) JSON() ([]byte, error) {
	return json.Marshal(d.Object)
}

func (d Document) YAML() ([]byte, error) {
	return yaml.Marshal(d.Object)
}

// FromObjects wraps literal objects as documents. Each object is
// copied into JSON-compatible values, so that transformations don't
// alter the caller's values; nil objects are dropped.
func FromObjects(objs []map[string]interface{}, source string) ([]Document, error) {
	var docs []Document
	for i, obj := range objs {
		if obj == nil {
			continue
		}
		val, err := Normalize(obj)
		if err != nil {
			return nil, errors.Wrapf(err, "object %d from %s", i, source)
		}
		docs = append(docs, Document{Object: val, source: source})
	}
	return docs, nil
}

// Normalize copies obj so that it holds only the types a Document may
// contain.
func Normalize(obj map[string]interface{}) (map[string]interface{}, error) {
	val, err := normalizeValue(obj)
	if err != nil {
		return nil, err
	}
	m, ok := val.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a map, got %T", val)
	}
	return m, nil
}

// normalizeValue makes a copy of v using only the types a Document
// may contain, by a round trip through JSON. This copes with values
// built in Go, e.g., using int rather than int64.
func normalizeValue(v interface{}) (interface{}, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := utiljson.Unmarshal(bytes, &out); err != nil {
		return nil, err
	}
	return out, nil
}

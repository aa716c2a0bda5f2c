package resource

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// DefaultNamespace is used in identifiers for documents that don't
// give a namespace.
const DefaultNamespace = "default"

var (
	ErrInvalidID = errors.New("invalid resource ID")

	// The apiVersion may itself contain a slash (e.g., apps/v1), so
	// the kind is taken to be the last segment before the `::`.
	IDRegexp = regexp.MustCompile(`^(.+)/([^/:]+)::([^/]+)/(.+)$`)
)

// ID uniquely identifies a resource within one ingestion batch. It
// is constructed from the document's own fields and is comparable,
// so can be used as a map key.
type ID struct {
	apiVersion, kind, namespace, name string
}

// MakeID constructs an ID from constituent components. An empty
// namespace is given as DefaultNamespace.
func MakeID(apiVersion, kind, namespace, name string) ID {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return ID{apiVersion: apiVersion, kind: kind, namespace: namespace, name: name}
}

// String gives the canonical representation,
// `<apiVersion>/<kind>::<namespace>/<name>`.
func (id ID) String() string {
	if id == (ID{}) {
		return ""
	}
	return fmt.Sprintf("%s/%s::%s/%s", id.apiVersion, id.kind, id.namespace, id.name)
}

// ParseID constructs an ID from a string representation if possible,
// returning an error value otherwise.
func ParseID(s string) (ID, error) {
	if m := IDRegexp.FindStringSubmatch(s); m != nil {
		return ID{apiVersion: m[1], kind: m[2], namespace: m[3], name: m[4]}, nil
	}
	return ID{}, errors.Wrap(ErrInvalidID, "parsing "+s)
}

// MustParseID constructs an ID from a string representation,
// panicing if the format is invalid.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Components returns the constituent components of an ID
func (id ID) Components() (apiVersion, kind, namespace, name string) {
	return id.apiVersion, id.kind, id.namespace, id.name
}

// GroupVersionKind gives the type part of the ID.
func (id ID) GroupVersionKind() schema.GroupVersionKind {
	return schema.FromAPIVersionAndKind(id.apiVersion, id.kind)
}

// MarshalJSON encodes an ID as a JSON string.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON decodes an ID from a JSON string.
func (id *ID) UnmarshalJSON(data []byte) (err error) {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str == "" {
		// Sadly needed as it's possible to construct an empty ID literal
		*id = ID{}
		return nil
	}
	*id, err = ParseID(str)
	return err
}

// MarshalText encodes an ID as a flat string; this is required
// because IDs are sometimes used as map keys.
func (id ID) MarshalText() (text []byte, err error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes an ID from a flat string; this is required
// because IDs are sometimes used as map keys.
func (id *ID) UnmarshalText(text []byte) error {
	result, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = result
	return nil
}

type IDSet map[ID]struct{}

func (s IDSet) String() string {
	ids := s.ToSlice()
	ids.Sort()
	strs := make([]string, len(ids))
	for i := range ids {
		strs[i] = ids[i].String()
	}
	return "{" + strings.Join(strs, ", ") + "}"
}

func (s IDSet) Add(ids []ID) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

func (s IDSet) Contains(id ID) bool {
	if s == nil {
		return false
	}
	_, ok := s[id]
	return ok
}

func (s IDSet) ToSlice() IDs {
	i := 0
	keys := make(IDs, len(s))
	for k := range s {
		keys[i] = k
		i++
	}
	return keys
}

type IDs []ID

func (p IDs) Len() int           { return len(p) }
func (p IDs) Less(i, j int) bool { return p[i].String() < p[j].String() }
func (p IDs) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p IDs) Sort()              { sort.Sort(p) }

package manifest

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	jsonyaml "github.com/ghodss/yaml"
	"gopkg.in/yaml.v2"
	utiljson "k8s.io/apimachinery/pkg/util/json"

	kierr "github.com/fluxcd/kubeingest/pkg/errors"
)

var lineRegexp = regexp.MustCompile(`line (\d+)`)

// Parse takes a dump of config (multidoc YAML, or a single JSON
// document) and returns the documents therein, in the order they
// appear. Empty documents are dropped, and lists (kinds ending in
// `List`, with `items`) are replaced by their items. Documents
// without an apiVersion or kind are returned; it's up to the caller
// what to do with them.
func Parse(multidoc []byte, source string) ([]Document, error) {
	var docs []Document
	decoder := yaml.NewDecoder(bytes.NewReader(multidoc))
	for i := 0; ; i++ {
		// In order to use the decoder to extract raw documents
		// from the stream, we decode generically and encode again,
		// then convert the result to JSON so that all the keys are
		// strings.
		var val interface{}
		err := decoder.Decode(&val)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, makeDecodeError(source, i, err)
		}
		if val == nil {
			continue
		}
		raw, err := yaml.Marshal(val)
		if err != nil {
			return nil, makeDecodeError(source, i, err)
		}
		jsonBytes, err := jsonyaml.YAMLToJSON(raw)
		if err != nil {
			return nil, makeDecodeError(source, i, err)
		}
		var obj interface{}
		if err := utiljson.Unmarshal(jsonBytes, &obj); err != nil {
			return nil, makeDecodeError(source, i, err)
		}
		m, ok := obj.(map[string]interface{})
		if !ok {
			return nil, makeDecodeError(source, i, fmt.Errorf("expected a mapping, got %T", obj))
		}
		docs = append(docs, flatten(Document{Object: m, source: source})...)
	}
	return docs, nil
}

// flatten returns the items of a list, or the document itself if
// it's not a list. All resource kinds ending with `List` are
// understood as a list of resources. This is not bullet proof since
// CustomResourceDefinitions can define a custom ListKind, but we
// cannot do better without involving API discovery during parsing.
func flatten(doc Document) []Document {
	if !strings.HasSuffix(doc.Kind(), "List") {
		return []Document{doc}
	}
	items, found, err := doc.Slice("items")
	if err != nil || !found {
		return []Document{doc}
	}
	var docs []Document
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		docs = append(docs, flatten(Document{Object: m, source: doc.source})...)
	}
	return docs
}

func makeDecodeError(source string, index int, err error) *kierr.DecodeError {
	e := &kierr.DecodeError{
		Source:   source,
		Document: index,
		Err:      err,
	}
	if m := lineRegexp.FindStringSubmatch(err.Error()); m != nil {
		e.Line, _ = strconv.Atoi(m[1])
	}
	return e
}

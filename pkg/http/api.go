package http

import (
	"encoding/json"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"

	"github.com/fluxcd/kubeingest/pkg/ingest"
	"github.com/fluxcd/kubeingest/pkg/resource"
)

// RenderedResource is a resource as given in a render response.
type RenderedResource struct {
	ID      resource.ID      `json:"id"`
	Name    string           `json:"name"`
	Source  string           `json:"source,omitempty"`
	Options resource.Options `json:"options"`
	Object  json.RawMessage  `json:"object"`
}

// RenderResult is the response to a render request. Resources are
// in apply order.
type RenderResult struct {
	Resources []RenderedResource `json:"resources"`
}

func MakeRenderResult(res ingest.Resources) (RenderResult, error) {
	result := RenderResult{Resources: []RenderedResource{}}
	for _, r := range res.Sorted() {
		obj, err := yaml.YAMLToJSON(r.Bytes())
		if err != nil {
			return RenderResult{}, errors.Wrapf(err, "encoding %s", r.ResourceID())
		}
		result.Resources = append(result.Resources, RenderedResource{
			ID:      r.ResourceID(),
			Name:    r.Name(),
			Source:  r.Source(),
			Options: r.Options(),
			Object:  obj,
		})
	}
	return result, nil
}

package helm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"

	kierr "github.com/fluxcd/kubeingest/pkg/errors"
)

// MergeMaps merges override into base, returning a new map. Where
// both have a map for a key, the maps are merged recursively;
// otherwise the override wins. A nil override value removes the key.
// Neither argument is modified.
func MergeMaps(base, override map[string]interface{}) map[string]interface{} {
	return mergeMaps(base, override, false)
}

// mergeMaps is MergeMaps; with keepNulls, a nil override of a key
// base has is kept as an explicit null rather than removed, so that
// helm, merging the result over the chart's own values, removes it too.
func mergeMaps(base, override map[string]interface{}, keepNulls bool) map[string]interface{} {
	out := make(map[string]interface{}, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if v == nil {
			if _, ok := out[k]; ok && keepNulls {
				out[k] = nil
			} else {
				delete(out, k)
			}
			continue
		}
		if vm, ok := v.(map[string]interface{}); ok {
			if bm, ok := out[k].(map[string]interface{}); ok {
				out[k] = mergeMaps(bm, vm, keepNulls)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// MergeValues layers values in the order helm does: the chart's
// defaults, then each values file in turn, then the literal values.
func MergeValues(defaults map[string]interface{}, valuesFiles []string, values map[string]interface{}) (map[string]interface{}, error) {
	return mergeValues(defaults, valuesFiles, values, false)
}

func mergeValues(defaults map[string]interface{}, valuesFiles []string, values map[string]interface{}, keepNulls bool) (map[string]interface{}, error) {
	base := mergeMaps(map[string]interface{}{}, defaults, keepNulls)
	for _, path := range valuesFiles {
		current, err := readValuesFile(path)
		if err != nil {
			return nil, err
		}
		base = mergeMaps(base, current, keepNulls)
	}
	return mergeMaps(base, values, keepNulls), nil
}

func readValuesFile(path string) (map[string]interface{}, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading values file %s", path)
	}
	values := map[string]interface{}{}
	if err := yaml.Unmarshal(bytes, &values); err != nil {
		return nil, errors.Wrapf(err, "parsing values file %s", path)
	}
	return values, nil
}

// readChartValues reads values.yaml from the chart directory; it's
// fine for there not to be one.
func readChartValues(chartDir string) (map[string]interface{}, error) {
	path := filepath.Join(chartDir, "values.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]interface{}{}, nil
	}
	return readValuesFile(path)
}

// validateValues checks the values against the chart's
// values.schema.json, if it has one.
func validateValues(chart, chartDir string, values map[string]interface{}) error {
	schema, err := os.ReadFile(filepath.Join(chartDir, "values.schema.json"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewGoLoader(values))
	if err != nil {
		return errors.Wrapf(err, "validating values for chart %s", chart)
	}
	if result.Valid() {
		return nil
	}
	var problems []string
	for _, e := range result.Errors() {
		problems = append(problems, "- "+e.String())
	}
	return &kierr.Error{
		Type: kierr.User,
		Err:  fmt.Errorf("values for chart %s don't match its schema", chart),
		Help: `The values supplied for the chart "` + chart + `" don't satisfy its
values.schema.json:

` + strings.Join(problems, "\n") + `

Correct the values and try again.
`,
	}
}

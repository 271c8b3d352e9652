package kube

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	utilyaml "k8s.io/apimachinery/pkg/util/yaml"

	"github.com/shift/nixernetes-sub005/domain/model"
)

// DecodeManifests decodes a multi-document YAML or JSON stream. Empty
// documents are skipped and a v1 List is flattened into its items. Integral
// numbers decode as int64, as they do from the builders.
func DecodeManifests(data []byte) ([]model.Resource, error) {
	return DecodeManifestsFrom(bytes.NewReader(data))
}

// DecodeManifestsFrom is DecodeManifests over a reader.
func DecodeManifestsFrom(r io.Reader) ([]model.Resource, error) {
	dec := utilyaml.NewYAMLOrJSONDecoder(r, 4096)
	var out []model.Resource
	for doc := 0; ; doc++ {
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("decode document %d: %w", doc, err)
		}
		if len(raw) == 0 {
			continue
		}
		normalizeNumbers(raw)
		objs := []any{raw}
		if raw["kind"] == "List" {
			items, _ := raw["items"].([]any)
			objs = items
		}
		for _, o := range objs {
			m, ok := o.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("decode document %d: %w: list item is not a mapping", doc, model.ErrInvalidResource)
			}
			res, err := model.FromObject(m)
			if err != nil {
				return nil, fmt.Errorf("decode document %d: %w", doc, err)
			}
			out = append(out, res)
		}
	}
}

func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = normalizeNumbers(e)
		}
	case []any:
		for i, e := range x {
			x[i] = normalizeNumbers(e)
		}
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
	}
	return v
}

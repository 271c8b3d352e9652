package kube

import (
	"bytes"
	"encoding/json"
	"fmt"

	yaml "gopkg.in/yaml.v3"

	"github.com/shift/nixernetes-sub005/domain/model"
)

// BuildCleanManifest renders resources as a multi-document YAML string (each
// doc preceded by ---). Nil values and empty maps are pruned except where an
// empty map is meaningful (selectors, emptyDir).
func BuildCleanManifest(resources []model.Resource) (string, error) {
	var buf bytes.Buffer
	for _, r := range resources {
		m := r.Object()
		pruneMap(m)
		if meta, ok := m["metadata"].(map[string]any); ok { // drop empty creationTimestamp
			delete(meta, "creationTimestamp")
			if len(meta) == 0 {
				delete(m, "metadata")
			}
		}
		if st, ok := m["status"].(map[string]any); ok && len(st) == 0 { // drop empty status
			delete(m, "status")
		}
		var ybuf bytes.Buffer
		enc := yaml.NewEncoder(&ybuf)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return "", fmt.Errorf("encode %s: %w", r.Key(), err)
		}
		_ = enc.Close()
		b := ybuf.Bytes()
		buf.WriteString("---\n")
		buf.Write(b)
		if len(b) == 0 || b[len(b)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}

// BuildJSONList renders resources as a v1 List document.
func BuildJSONList(resources []model.Resource) ([]byte, error) {
	items := make([]any, 0, len(resources))
	for _, r := range resources {
		m := r.Object()
		pruneMap(m)
		items = append(items, m)
	}
	return json.MarshalIndent(map[string]any{
		"apiVersion": "v1",
		"kind":       "List",
		"items":      items,
	}, "", "  ")
}

// keepEmpty lists keys whose empty map value carries meaning.
var keepEmpty = map[string]bool{
	"podSelector":       true,
	"namespaceSelector": true,
	"emptyDir":          true,
}

// pruneMap recursively prunes nil values and empty maps from a structure (in-place), preserving empty slices.
func pruneMap(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			cleaned := pruneMap(val)
			switch cv := cleaned.(type) {
			case nil:
				delete(x, k)
			case map[string]any:
				if len(cv) == 0 && !keepEmpty[k] {
					delete(x, k)
				} else {
					x[k] = cv
				}
			default:
				x[k] = cv
			}
		}
		return x
	case []any:
		for i, it := range x {
			x[i] = pruneMap(it)
		}
		return x
	default:
		return x
	}
}

package kube

import (
	"sort"
	"strings"

	"github.com/shift/nixernetes-sub005/domain/model"
	"github.com/shift/nixernetes-sub005/internal/naming"
)

// ComputeContentHash returns a 6 character hash of ConfigMap or Secret
// content, independent of key order.
func ComputeContentHash(data map[string]string, binary map[string][]byte) string {
	var b strings.Builder
	for _, k := range model.SortedKeys(data) {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(data[k])
		b.WriteByte(0)
	}
	for _, k := range model.SortedKeys(binary) {
		b.WriteString(k)
		b.WriteString("=b:")
		b.Write(binary[k])
		b.WriteByte(0)
	}
	return naming.DefaultLengthHash(b.String())
}

// WithPodContentHash returns a copy of resources where every workload pod
// template carries the aggregate content hash of the ConfigMaps and Secrets
// it references from the same batch. References are visited in this order:
//  1. imagePullSecrets
//  2. envFrom (containers sorted by name, envFrom order preserved)
//  3. volumes
//
// Missing references contribute an empty segment; templates with no
// references are left untouched.
func WithPodContentHash(resources []model.Resource) []model.Resource {
	hashes := map[string]string{}
	for _, r := range resources {
		if r.Kind != model.KindConfigMap && r.Kind != model.KindSecret {
			continue
		}
		if h, ok := r.Metadata.Annotations[AnnotationNixContentHash]; ok {
			hashes[string(r.Kind)+"/"+r.Metadata.Namespace+"/"+r.Metadata.Name] = h
		}
	}
	out := make([]model.Resource, len(resources))
	for i, r := range resources {
		out[i] = r
		tmpl := PodTemplateOf(r)
		if tmpl == nil {
			continue
		}
		c := r.DeepCopy()
		tmpl = PodTemplateOf(c)
		spec, _ := tmpl["spec"].(map[string]any)
		segments := podRefSegments(spec, func(kind model.Kind, name string) string {
			return hashes[string(kind)+"/"+c.Metadata.Namespace+"/"+name]
		})
		if len(segments) == 0 {
			continue
		}
		meta, _ := tmpl["metadata"].(map[string]any)
		if meta == nil {
			meta = map[string]any{}
			tmpl["metadata"] = meta
		}
		ann, _ := meta["annotations"].(map[string]any)
		if ann == nil {
			ann = map[string]any{}
			meta["annotations"] = ann
		}
		ann[AnnotationNixContentHash] = naming.DefaultLengthHash(strings.Join(segments, ""))
		out[i] = c
	}
	return out
}

func podRefSegments(spec map[string]any, lookup func(model.Kind, string) string) []string {
	var segments []string
	for _, ips := range listOf(spec["imagePullSecrets"]) {
		if name, _ := ips["name"].(string); name != "" {
			segments = append(segments, lookup(model.KindSecret, name))
		}
	}
	ctns := listOf(spec["containers"])
	sort.SliceStable(ctns, func(i, j int) bool {
		ni, _ := ctns[i]["name"].(string)
		nj, _ := ctns[j]["name"].(string)
		return ni < nj
	})
	for _, ctn := range ctns {
		for _, ef := range listOf(ctn["envFrom"]) {
			if ref, ok := ef["secretRef"].(map[string]any); ok {
				if name, _ := ref["name"].(string); name != "" {
					segments = append(segments, lookup(model.KindSecret, name))
				}
			}
			if ref, ok := ef["configMapRef"].(map[string]any); ok {
				if name, _ := ref["name"].(string); name != "" {
					segments = append(segments, lookup(model.KindConfigMap, name))
				}
			}
		}
	}
	for _, vol := range listOf(spec["volumes"]) {
		if s, ok := vol["secret"].(map[string]any); ok {
			if name, _ := s["secretName"].(string); name != "" {
				segments = append(segments, lookup(model.KindSecret, name))
			}
		}
		if cm, ok := vol["configMap"].(map[string]any); ok {
			if name, _ := cm["name"].(string); name != "" {
				segments = append(segments, lookup(model.KindConfigMap, name))
			}
		}
	}
	return segments
}

// PodTemplateOf returns the pod template map of a workload resource, or nil
// for kinds without one. The map aliases r.Spec.
func PodTemplateOf(r model.Resource) map[string]any {
	switch r.Kind {
	case model.KindDeployment, model.KindStatefulSet, model.KindDaemonSet, model.KindReplicaSet, model.KindJob:
		t, _ := r.Spec["template"].(map[string]any)
		return t
	case model.KindCronJob:
		jt, _ := r.Spec["jobTemplate"].(map[string]any)
		js, _ := jt["spec"].(map[string]any)
		t, _ := js["template"].(map[string]any)
		return t
	default:
		return nil
	}
}

func listOf(v any) []map[string]any {
	items, _ := v.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

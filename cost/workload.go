package cost

import (
	"fmt"

	"github.com/shift/nixernetes-sub005/adapters/kube"
	"github.com/shift/nixernetes-sub005/domain/model"
)

// DaemonSetNodeEstimate is the node count a DaemonSet is priced at.
const DaemonSetNodeEstimate = 10

// WorkloadFromResource extracts the pod replicas and container resources of
// a workload resource. ok is false for kinds that run no pods.
func WorkloadFromResource(r model.Resource) (w Workload, ok bool) {
	var podSpec map[string]any
	replicas := int32(1)
	switch r.Kind {
	case model.KindPod:
		podSpec = r.Spec
	case model.KindDeployment, model.KindStatefulSet, model.KindReplicaSet:
		replicas = intField(r.Spec, "replicas", 1)
	case model.KindDaemonSet:
		replicas = DaemonSetNodeEstimate
	case model.KindJob:
		replicas = intField(r.Spec, "parallelism", 1)
	case model.KindCronJob:
	default:
		return Workload{}, false
	}
	if podSpec == nil {
		tmpl := kube.PodTemplateOf(r)
		podSpec, _ = tmpl["spec"].(map[string]any)
	}
	w = Workload{Kind: r.Kind, Name: r.Metadata.Name, Namespace: r.Metadata.Namespace, Replicas: replicas}
	ctns, _ := podSpec["containers"].([]any)
	for _, c := range ctns {
		m, _ := c.(map[string]any)
		if m == nil {
			continue
		}
		name, _ := m["name"].(string)
		res, _ := m["resources"].(map[string]any)
		w.Containers = append(w.Containers, Container{
			Name:     name,
			Requests: quantities(res["requests"]),
			Limits:   quantities(res["limits"]),
		})
	}
	return w, true
}

// WorkloadsFromResources extracts the workloads of a batch in input order.
func WorkloadsFromResources(rs []model.Resource) []Workload {
	var out []Workload
	for _, r := range rs {
		if w, ok := WorkloadFromResource(r); ok {
			out = append(out, w)
		}
	}
	return out
}

func intField(m map[string]any, key string, def int32) int32 {
	switch v := m[key].(type) {
	case int64:
		return int32(v)
	case int:
		return int32(v)
	case int32:
		return v
	case float64:
		return int32(v)
	default:
		return def
	}
}

// quantities keeps quantity strings and renders bare numbers ("cpu: 2").
func quantities(v any) map[string]string {
	m, _ := v.(map[string]any)
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, q := range m {
		switch q := q.(type) {
		case string:
			out[k] = q
		case nil:
		default:
			out[k] = fmt.Sprint(q)
		}
	}
	return out
}

package model

import (
	"encoding/json"
	"fmt"
	"maps"
	"sort"
)

// Kind identifies the variant of a Resource.
type Kind string

const (
	KindNamespace                        Kind = "Namespace"
	KindPod                              Kind = "Pod"
	KindDeployment                       Kind = "Deployment"
	KindStatefulSet                      Kind = "StatefulSet"
	KindDaemonSet                        Kind = "DaemonSet"
	KindReplicaSet                       Kind = "ReplicaSet"
	KindJob                              Kind = "Job"
	KindCronJob                          Kind = "CronJob"
	KindService                          Kind = "Service"
	KindConfigMap                        Kind = "ConfigMap"
	KindSecret                           Kind = "Secret"
	KindPersistentVolume                 Kind = "PersistentVolume"
	KindPersistentVolumeClaim            Kind = "PersistentVolumeClaim"
	KindServiceAccount                   Kind = "ServiceAccount"
	KindRole                             Kind = "Role"
	KindRoleBinding                      Kind = "RoleBinding"
	KindClusterRole                      Kind = "ClusterRole"
	KindClusterRoleBinding               Kind = "ClusterRoleBinding"
	KindIngress                          Kind = "Ingress"
	KindIngressClass                     Kind = "IngressClass"
	KindNetworkPolicy                    Kind = "NetworkPolicy"
	KindHorizontalPodAutoscaler          Kind = "HorizontalPodAutoscaler"
	KindPodDisruptionBudget              Kind = "PodDisruptionBudget"
	KindPriorityClass                    Kind = "PriorityClass"
	KindResourceQuota                    Kind = "ResourceQuota"
	KindLimitRange                       Kind = "LimitRange"
	KindStorageClass                     Kind = "StorageClass"
	KindFlowSchema                       Kind = "FlowSchema"
	KindPriorityLevelConfiguration       Kind = "PriorityLevelConfiguration"
	KindValidatingAdmissionPolicy        Kind = "ValidatingAdmissionPolicy"
	KindValidatingAdmissionPolicyBinding Kind = "ValidatingAdmissionPolicyBinding"
	KindClusterPolicy                    Kind = "ClusterPolicy"
	KindPolicy                           Kind = "Policy"
	KindHelmRelease                      Kind = "HelmRelease"
	KindGateway                          Kind = "Gateway"
	KindHTTPRoute                        Kind = "HTTPRoute"
	KindPeerAuthentication               Kind = "PeerAuthentication"
	KindDestinationRule                  Kind = "DestinationRule"
)

// ObjectMeta is the subset of Kubernetes object metadata the engine reasons about.
// Fields it does not model are carried in Extra.
type ObjectMeta struct {
	Name        string
	Namespace   string
	Labels      map[string]string
	Annotations map[string]string
	Extra       map[string]any
}

// Resource is a Kubernetes-shaped document: apiVersion, kind, metadata and a
// kind-specific body. Top-level fields other than spec, data, binaryData and
// type are kept in Extra so that documents round-trip.
type Resource struct {
	APIVersion string
	Kind       Kind
	Metadata   ObjectMeta
	Spec       map[string]any
	Data       map[string]string
	BinaryData map[string]string
	Type       string
	Extra      map[string]any
}

// Key returns "Kind/namespace/name" (or "Kind/name" when cluster scoped).
func (r Resource) Key() string {
	if r.Metadata.Namespace == "" {
		return fmt.Sprintf("%s/%s", r.Kind, r.Metadata.Name)
	}
	return fmt.Sprintf("%s/%s/%s", r.Kind, r.Metadata.Namespace, r.Metadata.Name)
}

// Object renders the canonical document. The returned map shares nothing with r.
func (r Resource) Object() map[string]any {
	obj := map[string]any{}
	for k, v := range r.Extra {
		obj[k] = DeepCopyValue(v)
	}
	if r.APIVersion != "" {
		obj["apiVersion"] = r.APIVersion
	}
	if r.Kind != "" {
		obj["kind"] = string(r.Kind)
	}
	meta := map[string]any{}
	for k, v := range r.Metadata.Extra {
		meta[k] = DeepCopyValue(v)
	}
	if r.Metadata.Name != "" {
		meta["name"] = r.Metadata.Name
	}
	if r.Metadata.Namespace != "" {
		meta["namespace"] = r.Metadata.Namespace
	}
	if len(r.Metadata.Labels) > 0 {
		meta["labels"] = stringMapToAny(r.Metadata.Labels)
	}
	if len(r.Metadata.Annotations) > 0 {
		meta["annotations"] = stringMapToAny(r.Metadata.Annotations)
	}
	if len(meta) > 0 {
		obj["metadata"] = meta
	}
	if r.Spec != nil {
		obj["spec"] = DeepCopyValue(r.Spec)
	}
	if r.Data != nil {
		obj["data"] = stringMapToAny(r.Data)
	}
	if r.BinaryData != nil {
		obj["binaryData"] = stringMapToAny(r.BinaryData)
	}
	if r.Type != "" {
		obj["type"] = r.Type
	}
	return obj
}

// FromObject parses a decoded document. Missing fields are left empty so that
// validation can report them; fields of the wrong shape are an error.
func FromObject(obj map[string]any) (Resource, error) {
	var r Resource
	for k, v := range obj {
		switch k {
		case "apiVersion":
			s, ok := v.(string)
			if !ok {
				return Resource{}, fmt.Errorf("%w: apiVersion must be a string", ErrInvalidResource)
			}
			r.APIVersion = s
		case "kind":
			s, ok := v.(string)
			if !ok {
				return Resource{}, fmt.Errorf("%w: kind must be a string", ErrInvalidResource)
			}
			r.Kind = Kind(s)
		case "metadata":
			if v == nil {
				continue
			}
			m, ok := v.(map[string]any)
			if !ok {
				return Resource{}, fmt.Errorf("%w: metadata must be a mapping", ErrInvalidResource)
			}
			meta, err := metaFromObject(m)
			if err != nil {
				return Resource{}, err
			}
			r.Metadata = meta
		case "spec":
			if v == nil {
				continue
			}
			m, ok := v.(map[string]any)
			if !ok {
				return Resource{}, fmt.Errorf("%w: spec must be a mapping", ErrInvalidResource)
			}
			r.Spec = DeepCopyValue(m).(map[string]any)
		case "data", "binaryData":
			sm, err := toStringMap(k, v)
			if err != nil {
				return Resource{}, err
			}
			if k == "data" {
				r.Data = sm
			} else {
				r.BinaryData = sm
			}
		case "type":
			s, ok := v.(string)
			if !ok {
				return Resource{}, fmt.Errorf("%w: type must be a string", ErrInvalidResource)
			}
			r.Type = s
		default:
			if r.Extra == nil {
				r.Extra = map[string]any{}
			}
			r.Extra[k] = DeepCopyValue(v)
		}
	}
	return r, nil
}

func metaFromObject(m map[string]any) (ObjectMeta, error) {
	var meta ObjectMeta
	for k, v := range m {
		switch k {
		case "name", "namespace":
			s, ok := v.(string)
			if !ok {
				return ObjectMeta{}, fmt.Errorf("%w: metadata.%s must be a string", ErrInvalidResource, k)
			}
			if k == "name" {
				meta.Name = s
			} else {
				meta.Namespace = s
			}
		case "labels", "annotations":
			sm, err := toStringMap("metadata."+k, v)
			if err != nil {
				return ObjectMeta{}, err
			}
			if k == "labels" {
				meta.Labels = sm
			} else {
				meta.Annotations = sm
			}
		default:
			if meta.Extra == nil {
				meta.Extra = map[string]any{}
			}
			meta.Extra[k] = DeepCopyValue(v)
		}
	}
	return meta, nil
}

// DeepCopy returns a copy of r that shares no maps or slices with it.
func (r Resource) DeepCopy() Resource {
	out := r
	out.Metadata.Labels = maps.Clone(r.Metadata.Labels)
	out.Metadata.Annotations = maps.Clone(r.Metadata.Annotations)
	if r.Metadata.Extra != nil {
		out.Metadata.Extra = DeepCopyValue(r.Metadata.Extra).(map[string]any)
	}
	if r.Spec != nil {
		out.Spec = DeepCopyValue(r.Spec).(map[string]any)
	}
	out.Data = maps.Clone(r.Data)
	out.BinaryData = maps.Clone(r.BinaryData)
	if r.Extra != nil {
		out.Extra = DeepCopyValue(r.Extra).(map[string]any)
	}
	return out
}

// MarshalJSON renders the canonical document.
func (r Resource) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Object())
}

// UnmarshalJSON parses a document through FromObject.
func (r *Resource) UnmarshalJSON(b []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	parsed, err := FromObject(obj)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalYAML renders the canonical document for gopkg.in/yaml.v3.
func (r Resource) MarshalYAML() (any, error) {
	return r.Object(), nil
}

// DeepCopyValue copies decoded YAML/JSON values. Scalars are returned as is.
func DeepCopyValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = DeepCopyValue(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = DeepCopyValue(e)
		}
		return out
	case map[string]string:
		return maps.Clone(x)
	case []string:
		return append([]string(nil), x...)
	case []map[string]any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = DeepCopyValue(e)
		}
		return out
	default:
		return v
	}
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringMapToAny(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func toStringMap(field string, v any) (map[string]string, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		return maps.Clone(x), nil
	case map[string]any:
		out := make(map[string]string, len(x))
		for k, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s must be a string", ErrInvalidResource, field, k)
			}
			out[k] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a mapping of strings", ErrInvalidResource, field)
	}
}

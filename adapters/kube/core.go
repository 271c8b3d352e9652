package kube

import (
	"encoding/base64"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/shift/nixernetes-sub005/domain/model"
)

// Namespace builds a Namespace. PodSecurity sets the enforce level of the
// pod security admission labels.
func (b *Builder) Namespace(cfg NamespaceConfig) model.Resource {
	labels := cfg.Labels
	if cfg.PodSecurity != "" {
		labels = mergeLabels(map[string]string{
			"pod-security.kubernetes.io/enforce": cfg.PodSecurity,
			"pod-security.kubernetes.io/warn":    cfg.PodSecurity,
		}, cfg.Labels)
	}
	return b.newResource(model.KindNamespace, Meta{Name: cfg.Name, Labels: labels, Annotations: cfg.Annotations})
}

// Service builds a Service. The selector defaults to
// app.kubernetes.io/name=<name>; Headless sets clusterIP None.
func (b *Builder) Service(cfg ServiceConfig) model.Resource {
	r := b.newResource(model.KindService, cfg.Meta)
	spec := corev1.ServiceSpec{Type: corev1.ServiceType(cfg.Type)}
	if cfg.Type == string(corev1.ServiceTypeExternalName) {
		spec.ExternalName = cfg.ExternalName
	} else {
		spec.Selector = selectorFor(cfg.Name, cfg.Selector)
	}
	if cfg.Headless {
		spec.ClusterIP = corev1.ClusterIPNone
	}
	for _, p := range cfg.Ports {
		target := p.TargetPort
		if target == 0 {
			target = p.Port
		}
		proto := corev1.ProtocolTCP
		if p.Protocol != "" {
			proto = corev1.Protocol(p.Protocol)
		}
		spec.Ports = append(spec.Ports, corev1.ServicePort{
			Name:       p.Name,
			Port:       p.Port,
			TargetPort: intstr.FromInt32(target),
			Protocol:   proto,
			NodePort:   p.NodePort,
		})
	}
	r.Spec = toMap(&spec)
	return r
}

// ConfigMap builds a ConfigMap. The content hash of its data is recorded in
// an annotation so that pod templates can roll on change.
func (b *Builder) ConfigMap(cfg ConfigMapConfig) model.Resource {
	r := b.newResource(model.KindConfigMap, cfg.Meta)
	if cfg.Data != nil {
		r.Data = cloneOrNil(cfg.Data)
		if r.Data == nil {
			r.Data = map[string]string{}
		}
	}
	if len(cfg.BinaryData) > 0 {
		r.BinaryData = encodeBytes(cfg.BinaryData)
	}
	if cfg.Immutable {
		r.Extra = map[string]any{"immutable": true}
	}
	r.Metadata.Annotations = mergeLabels(r.Metadata.Annotations, map[string]string{
		AnnotationNixContentHash: ComputeContentHash(cfg.Data, cfg.BinaryData),
	})
	return r
}

// Secret builds a Secret. Type defaults to Opaque and StringData values are
// base64-encoded into data.
func (b *Builder) Secret(cfg SecretConfig) model.Resource {
	r := b.newResource(model.KindSecret, cfg.Meta)
	r.Type = string(corev1.SecretTypeOpaque)
	if cfg.Type != "" {
		r.Type = cfg.Type
	}
	if cfg.StringData != nil || cfg.Data != nil {
		r.Data = encodeBytes(cfg.Data)
		for k, v := range cfg.StringData {
			r.Data[k] = base64.StdEncoding.EncodeToString([]byte(v))
		}
	}
	r.Metadata.Annotations = mergeLabels(r.Metadata.Annotations, map[string]string{
		AnnotationNixContentHash: ComputeContentHash(cfg.StringData, cfg.Data),
	})
	return r
}

func encodeBytes(m map[string][]byte) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = base64.StdEncoding.EncodeToString(v)
	}
	return out
}

func accessModes(modes []string) []corev1.PersistentVolumeAccessMode {
	if len(modes) == 0 {
		return []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce}
	}
	out := make([]corev1.PersistentVolumeAccessMode, len(modes))
	for i, m := range modes {
		out[i] = corev1.PersistentVolumeAccessMode(m)
	}
	return out
}

// PersistentVolume builds a PersistentVolume backed by a CSI volume handle
// or, failing that, a host path. AccessModes defaults to ReadWriteOnce and
// ReclaimPolicy to Retain.
func (b *Builder) PersistentVolume(cfg PersistentVolumeConfig) model.Resource {
	r := b.newResource(model.KindPersistentVolume, Meta{Name: cfg.Name, Labels: cfg.Labels})
	policy := corev1.PersistentVolumeReclaimRetain
	if cfg.ReclaimPolicy != "" {
		policy = corev1.PersistentVolumeReclaimPolicy(cfg.ReclaimPolicy)
	}
	spec := corev1.PersistentVolumeSpec{
		AccessModes:                   accessModes(cfg.AccessModes),
		PersistentVolumeReclaimPolicy: policy,
		StorageClassName:              cfg.StorageClass,
	}
	switch {
	case cfg.CSIDriver != "":
		spec.CSI = &corev1.CSIPersistentVolumeSource{Driver: cfg.CSIDriver, VolumeHandle: cfg.VolumeHandle}
	case cfg.HostPath != "":
		spec.HostPath = &corev1.HostPathVolumeSource{Path: cfg.HostPath}
	}
	m := toMap(&spec)
	if cfg.Capacity != "" {
		m["capacity"] = map[string]any{"storage": cfg.Capacity}
	}
	r.Spec = m
	return r
}

// PersistentVolumeClaim builds a PersistentVolumeClaim requesting Size.
func (b *Builder) PersistentVolumeClaim(cfg PersistentVolumeClaimConfig) model.Resource {
	r := b.newResource(model.KindPersistentVolumeClaim, cfg.Meta)
	spec := corev1.PersistentVolumeClaimSpec{
		AccessModes: accessModes(cfg.AccessModes),
		VolumeName:  cfg.VolumeName,
	}
	if cfg.StorageClass != "" {
		spec.StorageClassName = &cfg.StorageClass
	}
	m := toMap(&spec)
	if cfg.Size != "" {
		m["resources"] = map[string]any{"requests": map[string]any{"storage": cfg.Size}}
	}
	r.Spec = m
	return r
}

// ResourceQuota builds a ResourceQuota with the given hard limits.
func (b *Builder) ResourceQuota(cfg ResourceQuotaConfig) model.Resource {
	r := b.newResource(model.KindResourceQuota, cfg.Meta)
	r.Spec = map[string]any{}
	if q := quantityMap(cfg.Hard); q != nil {
		r.Spec["hard"] = q
	}
	return r
}

// LimitRange builds a LimitRange with a single Container item.
func (b *Builder) LimitRange(cfg LimitRangeConfig) model.Resource {
	r := b.newResource(model.KindLimitRange, cfg.Meta)
	item := map[string]any{"type": string(corev1.LimitTypeContainer)}
	for key, m := range map[string]map[string]string{
		"default":        cfg.Default,
		"defaultRequest": cfg.DefaultRequest,
		"max":            cfg.Max,
		"min":            cfg.Min,
	} {
		if q := quantityMap(m); q != nil {
			item[key] = q
		}
	}
	r.Spec = map[string]any{"limits": []any{item}}
	return r
}

package kube

import (
	"fmt"
	"maps"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"github.com/shift/nixernetes-sub005/domain/model"
	"github.com/shift/nixernetes-sub005/internal/schema"
)

// DefaultNamespace is stamped on namespaced resources built without one.
const DefaultNamespace = "default"

// Builder constructs resources for one Kubernetes release.
//
// Design:
//   - NewBuilder resolves the release's apiVersion table once.
//   - Each builder method assembles typed k8s.io/api structs from a config
//     record and converts the body into a model.Resource.
//   - Builders never validate and never mutate their input; the validation
//     package checks the result downstream.
type Builder struct {
	version string
	apis    schema.APIMap
}

// NewBuilder returns a Builder for kubernetesVersion.
func NewBuilder(kubernetesVersion string) (*Builder, error) {
	apis, err := schema.APIMapFor(kubernetesVersion)
	if err != nil {
		return nil, err
	}
	return &Builder{version: kubernetesVersion, apis: apis}, nil
}

// KubernetesVersion returns the release this Builder targets.
func (b *Builder) KubernetesVersion() string { return b.version }

// newResource stamps apiVersion, kind, namespace and merged labels.
func (b *Builder) newResource(kind model.Kind, m Meta) model.Resource {
	ns := m.Namespace
	if schema.IsNamespaced(kind) {
		if ns == "" {
			ns = DefaultNamespace
		}
	} else {
		ns = ""
	}
	return model.Resource{
		APIVersion: b.apis[kind],
		Kind:       kind,
		Metadata: model.ObjectMeta{
			Name:        m.Name,
			Namespace:   ns,
			Labels:      mergeLabels(defaultLabels(m.Name), m.Labels),
			Annotations: cloneOrNil(m.Annotations),
		},
	}
}

func defaultLabels(name string) map[string]string {
	l := map[string]string{LabelAppK8sManagedBy: ManagedByValue}
	if name != "" {
		l[LabelAppK8sName] = name
	}
	return l
}

// mergeLabels returns a new map holding every entry of the inputs; later maps
// win on conflicting keys.
func mergeLabels(ms ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, m := range ms {
		maps.Copy(out, m)
	}
	return out
}

func cloneOrNil(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return maps.Clone(m)
}

// selectorFor returns the explicit selector or the default name selector.
func selectorFor(name string, sel map[string]string) map[string]string {
	if len(sel) > 0 {
		return maps.Clone(sel)
	}
	return map[string]string{LabelAppK8sName: name}
}

// toMap converts a typed API struct into its unstructured form and prunes
// empty values. The API types always convert, so an error is a programming
// error.
func toMap(v any) map[string]any {
	m, err := runtime.DefaultUnstructuredConverter.ToUnstructured(v)
	if err != nil {
		panic(fmt.Sprintf("kube: converting %T: %v", v, err))
	}
	pruneMap(m)
	return m
}

// quantityMap keeps quantity strings verbatim so malformed values surface in
// validation instead of being dropped.
func quantityMap(m map[string]string) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func resourcesMap(rc ResourcesConfig) map[string]any {
	out := map[string]any{}
	if q := quantityMap(rc.Requests); q != nil {
		out["requests"] = q
	}
	if q := quantityMap(rc.Limits); q != nil {
		out["limits"] = q
	}
	return out
}

func container(cc ContainerConfig) corev1.Container {
	c := corev1.Container{
		Name:            cc.Name,
		Image:           cc.Image,
		Command:         append([]string(nil), cc.Command...),
		Args:            append([]string(nil), cc.Args...),
		ImagePullPolicy: corev1.PullPolicy(cc.ImagePullPolicy),
	}
	for _, p := range cc.Ports {
		c.Ports = append(c.Ports, corev1.ContainerPort{ContainerPort: p, Protocol: corev1.ProtocolTCP})
	}
	for _, k := range model.SortedKeys(cc.Env) {
		c.Env = append(c.Env, corev1.EnvVar{Name: k, Value: cc.Env[k]})
	}
	for _, s := range cc.EnvFromSecrets {
		c.EnvFrom = append(c.EnvFrom, corev1.EnvFromSource{SecretRef: &corev1.SecretEnvSource{LocalObjectReference: corev1.LocalObjectReference{Name: s}}})
	}
	for _, s := range cc.EnvFromConfigs {
		c.EnvFrom = append(c.EnvFrom, corev1.EnvFromSource{ConfigMapRef: &corev1.ConfigMapEnvSource{LocalObjectReference: corev1.LocalObjectReference{Name: s}}})
	}
	for _, vm := range cc.VolumeMounts {
		c.VolumeMounts = append(c.VolumeMounts, corev1.VolumeMount{Name: vm.Name, MountPath: vm.MountPath, SubPath: vm.SubPath, ReadOnly: vm.ReadOnly})
	}
	c.LivenessProbe = probe(cc.LivenessProbe)
	c.ReadinessProbe = probe(cc.ReadinessProbe)
	if cc.RunAsNonRoot != nil || cc.RunAsUser != nil || cc.ReadOnlyRootFilesystem != nil || cc.AllowPrivilegeEscalation != nil || cc.Privileged != nil {
		c.SecurityContext = &corev1.SecurityContext{
			RunAsNonRoot:             cc.RunAsNonRoot,
			RunAsUser:                cc.RunAsUser,
			ReadOnlyRootFilesystem:   cc.ReadOnlyRootFilesystem,
			AllowPrivilegeEscalation: cc.AllowPrivilegeEscalation,
			Privileged:               cc.Privileged,
		}
	}
	return c
}

func probe(pc *ProbeConfig) *corev1.Probe {
	if pc == nil {
		return nil
	}
	p := &corev1.Probe{InitialDelaySeconds: pc.InitialDelaySeconds, PeriodSeconds: pc.PeriodSeconds}
	if pc.Path != "" {
		p.HTTPGet = &corev1.HTTPGetAction{Path: pc.Path, Port: intstr.FromInt32(pc.Port)}
	} else {
		p.TCPSocket = &corev1.TCPSocketAction{Port: intstr.FromInt32(pc.Port)}
	}
	return p
}

func volume(vc VolumeConfig) corev1.Volume {
	v := corev1.Volume{Name: vc.Name}
	switch {
	case vc.ConfigMap != "":
		v.ConfigMap = &corev1.ConfigMapVolumeSource{LocalObjectReference: corev1.LocalObjectReference{Name: vc.ConfigMap}}
	case vc.Secret != "":
		v.Secret = &corev1.SecretVolumeSource{SecretName: vc.Secret}
	case vc.Claim != "":
		v.PersistentVolumeClaim = &corev1.PersistentVolumeClaimVolumeSource{ClaimName: vc.Claim}
	case vc.HostPath != "":
		v.HostPath = &corev1.HostPathVolumeSource{Path: vc.HostPath}
	default:
		v.EmptyDir = &corev1.EmptyDirVolumeSource{}
	}
	return v
}

// podSpec assembles the pod spec. restartPolicy is left empty for the
// apiserver default unless set.
func podSpec(pc PodConfig, selector map[string]string, restartPolicy corev1.RestartPolicy) corev1.PodSpec {
	spec := corev1.PodSpec{
		ServiceAccountName: pc.ServiceAccountName,
		RestartPolicy:      restartPolicy,
		NodeSelector:       cloneOrNil(pc.Scheduling.NodeSelector),
		PriorityClassName:  pc.Scheduling.PriorityClassName,
	}
	for _, cc := range pc.InitContainers {
		spec.InitContainers = append(spec.InitContainers, container(cc))
	}
	for _, cc := range pc.Containers {
		spec.Containers = append(spec.Containers, container(cc))
	}
	for _, vc := range pc.Volumes {
		spec.Volumes = append(spec.Volumes, volume(vc))
	}
	for _, s := range pc.ImagePullSecrets {
		spec.ImagePullSecrets = append(spec.ImagePullSecrets, corev1.LocalObjectReference{Name: s})
	}
	for _, t := range pc.Scheduling.Tolerations {
		spec.Tolerations = append(spec.Tolerations, corev1.Toleration{
			Key:      t.Key,
			Operator: corev1.TolerationOperator(t.Operator),
			Value:    t.Value,
			Effect:   corev1.TaintEffect(t.Effect),
		})
	}
	if pc.Scheduling.SpreadByZone {
		spec.TopologySpreadConstraints = []corev1.TopologySpreadConstraint{{
			MaxSkew:           1,
			TopologyKey:       corev1.LabelTopologyZone,
			WhenUnsatisfiable: corev1.ScheduleAnyway,
			LabelSelector:     labelSelector(selector),
		}}
	}
	if pc.RunAsNonRoot != nil || pc.FSGroup != nil {
		spec.SecurityContext = &corev1.PodSecurityContext{RunAsNonRoot: pc.RunAsNonRoot, FSGroup: pc.FSGroup}
	}
	return spec
}

// podTemplate renders a pod template as a map. Container resources are
// inserted as raw quantity strings after conversion.
func podTemplate(pc PodConfig, labels map[string]string, selector map[string]string, restartPolicy corev1.RestartPolicy) map[string]any {
	tmpl := corev1.PodTemplateSpec{Spec: podSpec(pc, selector, restartPolicy)}
	tmpl.Labels = mergeLabels(labels, selector)
	tmpl.Annotations = cloneOrNil(pc.PodAnnotations)
	m := toMap(&tmpl)
	spec, _ := m["spec"].(map[string]any)
	injectResources(spec, "containers", pc.Containers)
	injectResources(spec, "initContainers", pc.InitContainers)
	return m
}

func injectResources(spec map[string]any, key string, ccs []ContainerConfig) {
	list, _ := spec[key].([]any)
	for i, cc := range ccs {
		if i >= len(list) {
			return
		}
		c, ok := list[i].(map[string]any)
		if !ok {
			continue
		}
		if r := resourcesMap(cc.Resources); len(r) > 0 {
			c["resources"] = r
		}
	}
}

func int32Ptr(p *int32, def int32) *int32 {
	if p != nil {
		return ptr.To(*p)
	}
	return ptr.To(def)
}

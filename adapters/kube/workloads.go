package kube

import (
	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	"github.com/shift/nixernetes-sub005/domain/model"
)

func labelSelector(m map[string]string) *metav1.LabelSelector {
	return &metav1.LabelSelector{MatchLabels: cloneOrNil(m)}
}

// Deployment builds a Deployment. Replicas defaults to 1 and the selector to
// app.kubernetes.io/name=<name>.
func (b *Builder) Deployment(cfg DeploymentConfig) model.Resource {
	r := b.newResource(model.KindDeployment, cfg.Meta)
	sel := selectorFor(cfg.Name, cfg.Selector)
	spec := appsv1.DeploymentSpec{
		Replicas: int32Ptr(cfg.Replicas, 1),
		Selector: labelSelector(sel),
	}
	if cfg.Strategy == string(appsv1.RecreateDeploymentStrategyType) {
		spec.Strategy = appsv1.DeploymentStrategy{Type: appsv1.RecreateDeploymentStrategyType}
	}
	m := toMap(&spec)
	m["template"] = podTemplate(cfg.PodConfig, r.Metadata.Labels, sel, "")
	r.Spec = m
	return r
}

// StatefulSet builds a StatefulSet. ServiceName defaults to the headless
// service name of the set.
func (b *Builder) StatefulSet(cfg StatefulSetConfig) model.Resource {
	r := b.newResource(model.KindStatefulSet, cfg.Meta)
	sel := selectorFor(cfg.Name, cfg.Selector)
	svc := cfg.ServiceName
	if svc == "" {
		svc = HeadlessServiceName(cfg.Name)
	}
	spec := appsv1.StatefulSetSpec{
		Replicas:    int32Ptr(cfg.Replicas, 1),
		Selector:    labelSelector(sel),
		ServiceName: svc,
	}
	m := toMap(&spec)
	m["template"] = podTemplate(cfg.PodConfig, r.Metadata.Labels, sel, "")
	if len(cfg.VolumeClaims) > 0 {
		var claims []any
		for _, vc := range cfg.VolumeClaims {
			claims = append(claims, claimTemplate(vc))
		}
		m["volumeClaimTemplates"] = claims
	}
	r.Spec = m
	return r
}

func claimTemplate(vc VolumeClaimConfig) map[string]any {
	modes := vc.AccessModes
	if len(modes) == 0 {
		modes = []string{string(corev1.ReadWriteOnce)}
	}
	spec := map[string]any{
		"accessModes": stringsToAny(modes),
		"resources":   map[string]any{"requests": map[string]any{"storage": vc.Size}},
	}
	if vc.StorageClass != "" {
		spec["storageClassName"] = vc.StorageClass
	}
	return map[string]any{
		"metadata": map[string]any{"name": vc.Name},
		"spec":     spec,
	}
}

// DaemonSet builds a DaemonSet.
func (b *Builder) DaemonSet(cfg DaemonSetConfig) model.Resource {
	r := b.newResource(model.KindDaemonSet, cfg.Meta)
	sel := selectorFor(cfg.Name, cfg.Selector)
	spec := appsv1.DaemonSetSpec{Selector: labelSelector(sel)}
	m := toMap(&spec)
	m["template"] = podTemplate(cfg.PodConfig, r.Metadata.Labels, sel, "")
	r.Spec = m
	return r
}

func (b *Builder) jobSpec(cfg JobConfig, labels map[string]string) map[string]any {
	spec := batchv1.JobSpec{
		Completions:             cfg.Completions,
		Parallelism:             cfg.Parallelism,
		BackoffLimit:            int32Ptr(cfg.BackoffLimit, 6),
		ActiveDeadlineSeconds:   cfg.ActiveDeadlineSeconds,
		TTLSecondsAfterFinished: cfg.TTLSecondsAfterFinished,
	}
	restart := corev1.RestartPolicyOnFailure
	if cfg.RestartPolicy == string(corev1.RestartPolicyNever) {
		restart = corev1.RestartPolicyNever
	}
	m := toMap(&spec)
	m["template"] = podTemplate(cfg.PodConfig, labels, nil, restart)
	return m
}

// Job builds a Job. RestartPolicy defaults to OnFailure and BackoffLimit to 6.
func (b *Builder) Job(cfg JobConfig) model.Resource {
	r := b.newResource(model.KindJob, cfg.Meta)
	r.Spec = b.jobSpec(cfg, r.Metadata.Labels)
	return r
}

// CronJob builds a CronJob. ConcurrencyPolicy defaults to Forbid.
func (b *Builder) CronJob(cfg CronJobConfig) model.Resource {
	r := b.newResource(model.KindCronJob, cfg.Meta)
	policy := batchv1.ForbidConcurrent
	if cfg.ConcurrencyPolicy != "" {
		policy = batchv1.ConcurrencyPolicy(cfg.ConcurrencyPolicy)
	}
	spec := batchv1.CronJobSpec{
		Schedule:          cfg.Schedule,
		ConcurrencyPolicy: policy,
		Suspend:           cfg.Suspend,
	}
	if cfg.TimeZone != "" {
		spec.TimeZone = ptr.To(cfg.TimeZone)
	}
	m := toMap(&spec)
	m["jobTemplate"] = map[string]any{
		"metadata": map[string]any{"labels": stringMapAny(r.Metadata.Labels)},
		"spec":     b.jobSpec(cfg.JobConfig, r.Metadata.Labels),
	}
	r.Spec = m
	return r
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func stringMapAny(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

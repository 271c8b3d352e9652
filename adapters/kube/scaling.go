package kube

import (
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	policyv1 "k8s.io/api/policy/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"github.com/shift/nixernetes-sub005/domain/model"
)

// HorizontalPodAutoscaler builds an autoscaling/v2 HPA. TargetKind defaults
// to Deployment, MinReplicas to 1 and, when no metric is given, CPU
// utilization to 80 percent.
func (b *Builder) HorizontalPodAutoscaler(cfg HorizontalPodAutoscalerConfig) model.Resource {
	r := b.newResource(model.KindHorizontalPodAutoscaler, cfg.Meta)
	kind := cfg.TargetKind
	if kind == "" {
		kind = string(model.KindDeployment)
	}
	spec := autoscalingv2.HorizontalPodAutoscalerSpec{
		ScaleTargetRef: autoscalingv2.CrossVersionObjectReference{
			APIVersion: b.apis[model.Kind(kind)],
			Kind:       kind,
			Name:       cfg.TargetName,
		},
		MinReplicas: int32Ptr(cfg.MinReplicas, 1),
		MaxReplicas: cfg.MaxReplicas,
	}
	cpu, mem := cfg.CPUUtilization, cfg.MemoryUtilization
	if cpu == nil && mem == nil {
		cpu = ptr.To(int32(80))
	}
	if cpu != nil {
		spec.Metrics = append(spec.Metrics, utilizationMetric(corev1.ResourceCPU, *cpu))
	}
	if mem != nil {
		spec.Metrics = append(spec.Metrics, utilizationMetric(corev1.ResourceMemory, *mem))
	}
	r.Spec = toMap(&spec)
	return r
}

func utilizationMetric(name corev1.ResourceName, pct int32) autoscalingv2.MetricSpec {
	return autoscalingv2.MetricSpec{
		Type: autoscalingv2.ResourceMetricSourceType,
		Resource: &autoscalingv2.ResourceMetricSource{
			Name: name,
			Target: autoscalingv2.MetricTarget{
				Type:               autoscalingv2.UtilizationMetricType,
				AverageUtilization: ptr.To(pct),
			},
		},
	}
}

// PodDisruptionBudget builds a PDB. When neither bound is set MinAvailable
// defaults to 1.
func (b *Builder) PodDisruptionBudget(cfg PodDisruptionBudgetConfig) model.Resource {
	r := b.newResource(model.KindPodDisruptionBudget, cfg.Meta)
	spec := policyv1.PodDisruptionBudgetSpec{Selector: labelSelector(selectorFor(cfg.Name, cfg.Selector))}
	switch {
	case cfg.MaxUnavailable != "":
		spec.MaxUnavailable = ptr.To(intstr.Parse(cfg.MaxUnavailable))
	case cfg.MinAvailable != "":
		spec.MinAvailable = ptr.To(intstr.Parse(cfg.MinAvailable))
	default:
		spec.MinAvailable = ptr.To(intstr.FromInt32(1))
	}
	r.Spec = toMap(&spec)
	return r
}

// PriorityClass builds a cluster scoped PriorityClass.
func (b *Builder) PriorityClass(cfg PriorityClassConfig) model.Resource {
	r := b.newResource(model.KindPriorityClass, Meta{Name: cfg.Name, Labels: cfg.Labels})
	r.Extra = map[string]any{"value": int64(cfg.Value)}
	if cfg.GlobalDefault {
		r.Extra["globalDefault"] = true
	}
	if cfg.Description != "" {
		r.Extra["description"] = cfg.Description
	}
	if cfg.PreemptionPolicy != "" {
		r.Extra["preemptionPolicy"] = cfg.PreemptionPolicy
	}
	return r
}

package kube

import (
	"maps"
	"strconv"

	corev1 "k8s.io/api/core/v1"

	"github.com/shift/nixernetes-sub005/domain/model"
)

// BatchJobConfig is the input of Builder.BatchJob. A non-empty Schedule
// turns the job into a CronJob.
type BatchJobConfig struct {
	JobConfig         `yaml:",inline"`
	Schedule          string `yaml:"schedule,omitempty" json:"schedule,omitempty"`
	ConcurrencyPolicy string `yaml:"concurrencyPolicy,omitempty" json:"concurrencyPolicy,omitempty"`
	TimeZone          string `yaml:"timeZone,omitempty" json:"timeZone,omitempty"`
}

// BatchJob builds a Job, or a CronJob when scheduled, labelled as a batch
// component.
func (b *Builder) BatchJob(cfg BatchJobConfig) []model.Resource {
	job := cfg.JobConfig
	job.Labels = mergeLabels(map[string]string{LabelAppK8sComponent: "batch"}, cfg.Labels)
	if cfg.Schedule == "" {
		return []model.Resource{b.Job(job)}
	}
	return []model.Resource{b.CronJob(CronJobConfig{
		JobConfig:         job,
		Schedule:          cfg.Schedule,
		ConcurrencyPolicy: cfg.ConcurrencyPolicy,
		TimeZone:          cfg.TimeZone,
	})}
}

// GPUResourceName is the extended resource requested by MLTrainingJob.
const GPUResourceName = "nvidia.com/gpu"

// GPUProductLabel is the node label matched by MLTrainingJobConfig.GPUProduct.
const GPUProductLabel = "nvidia.com/gpu.product"

// MLTrainingJobConfig is the input of Builder.MLTrainingJob.
type MLTrainingJobConfig struct {
	Meta    `yaml:",inline"`
	Image   string            `yaml:"image" json:"image"`
	Command []string          `yaml:"command,omitempty" json:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	// GPUs per worker; defaults to 1.
	GPUs         int32             `yaml:"gpus,omitempty" json:"gpus,omitempty"`
	GPUProduct   string            `yaml:"gpuProduct,omitempty" json:"gpuProduct,omitempty"`
	NodeSelector map[string]string `yaml:"nodeSelector,omitempty" json:"nodeSelector,omitempty"`
	// Workers sets both completions and parallelism.
	Workers               *int32          `yaml:"workers,omitempty" json:"workers,omitempty"`
	Resources             ResourcesConfig `yaml:"resources,omitempty" json:"resources,omitempty"`
	DataClaim             string          `yaml:"dataClaim,omitempty" json:"dataClaim,omitempty"`
	BackoffLimit          *int32          `yaml:"backoffLimit,omitempty" json:"backoffLimit,omitempty"`
	ActiveDeadlineSeconds *int64          `yaml:"activeDeadlineSeconds,omitempty" json:"activeDeadlineSeconds,omitempty"`
}

// MLTrainingJob builds a GPU Job. Every worker requests and is limited to
// GPUs devices, tolerates the GPU taint and, with GPUProduct, is pinned to
// matching nodes. Pods never restart in place.
func (b *Builder) MLTrainingJob(cfg MLTrainingJobConfig) []model.Resource {
	gpus := cfg.GPUs
	if gpus <= 0 {
		gpus = 1
	}
	n := strconv.Itoa(int(gpus))
	res := ResourcesConfig{
		Requests: mergeLabels(cfg.Resources.Requests, map[string]string{GPUResourceName: n}),
		Limits:   mergeLabels(cfg.Resources.Limits, map[string]string{GPUResourceName: n}),
	}
	nodeSel := maps.Clone(cfg.NodeSelector)
	if cfg.GPUProduct != "" {
		nodeSel = mergeLabels(nodeSel, map[string]string{GPUProductLabel: cfg.GPUProduct})
	}
	ctr := ContainerConfig{
		Name:      "trainer",
		Image:     cfg.Image,
		Command:   cfg.Command,
		Args:      cfg.Args,
		Env:       cfg.Env,
		Resources: res,
	}
	pod := PodConfig{
		Scheduling: SchedulingConfig{
			NodeSelector: nodeSel,
			Tolerations: []TolerationConfig{{
				Key:      GPUResourceName,
				Operator: string(corev1.TolerationOpExists),
				Effect:   string(corev1.TaintEffectNoSchedule),
			}},
		},
	}
	if cfg.DataClaim != "" {
		ctr.VolumeMounts = []VolumeMountConfig{{Name: "data", MountPath: "/data"}}
		pod.Volumes = []VolumeConfig{{Name: "data", Claim: cfg.DataClaim}}
	}
	pod.Containers = []ContainerConfig{ctr}
	return []model.Resource{b.Job(JobConfig{
		Meta: Meta{
			Name:        cfg.Name,
			Namespace:   cfg.Namespace,
			Labels:      mergeLabels(map[string]string{LabelAppK8sComponent: "ml-training"}, cfg.Labels),
			Annotations: cfg.Annotations,
		},
		Completions:           cfg.Workers,
		Parallelism:           cfg.Workers,
		BackoffLimit:          cfg.BackoffLimit,
		ActiveDeadlineSeconds: cfg.ActiveDeadlineSeconds,
		RestartPolicy:         string(corev1.RestartPolicyNever),
		PodConfig:             pod,
	})}
}

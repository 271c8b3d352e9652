package kube

// Configuration records accepted by the builders. Fields not listed here are
// ignored when records are decoded from YAML or JSON.

// Meta holds the identity shared by every builder input.
type Meta struct {
	Name        string            `yaml:"name" json:"name"`
	Namespace   string            `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty" json:"annotations,omitempty"`
}

// ResourcesConfig holds container requests and limits as quantity strings.
type ResourcesConfig struct {
	Requests map[string]string `yaml:"requests,omitempty" json:"requests,omitempty"`
	Limits   map[string]string `yaml:"limits,omitempty" json:"limits,omitempty"`
}

// ProbeConfig describes an HTTP probe, or a TCP probe when Path is empty.
type ProbeConfig struct {
	Path                string `yaml:"path,omitempty" json:"path,omitempty"`
	Port                int32  `yaml:"port" json:"port"`
	InitialDelaySeconds int32  `yaml:"initialDelaySeconds,omitempty" json:"initialDelaySeconds,omitempty"`
	PeriodSeconds       int32  `yaml:"periodSeconds,omitempty" json:"periodSeconds,omitempty"`
}

// VolumeMountConfig mounts a pod volume into a container.
type VolumeMountConfig struct {
	Name      string `yaml:"name" json:"name"`
	MountPath string `yaml:"mountPath" json:"mountPath"`
	SubPath   string `yaml:"subPath,omitempty" json:"subPath,omitempty"`
	ReadOnly  bool   `yaml:"readOnly,omitempty" json:"readOnly,omitempty"`
}

// ContainerConfig describes one container of a pod template.
type ContainerConfig struct {
	Name            string              `yaml:"name" json:"name"`
	Image           string              `yaml:"image" json:"image"`
	Command         []string            `yaml:"command,omitempty" json:"command,omitempty"`
	Args            []string            `yaml:"args,omitempty" json:"args,omitempty"`
	Ports           []int32             `yaml:"ports,omitempty" json:"ports,omitempty"`
	Env             map[string]string   `yaml:"env,omitempty" json:"env,omitempty"`
	EnvFromSecrets  []string            `yaml:"envFromSecrets,omitempty" json:"envFromSecrets,omitempty"`
	EnvFromConfigs  []string            `yaml:"envFromConfigMaps,omitempty" json:"envFromConfigMaps,omitempty"`
	Resources       ResourcesConfig     `yaml:"resources,omitempty" json:"resources,omitempty"`
	ImagePullPolicy string              `yaml:"imagePullPolicy,omitempty" json:"imagePullPolicy,omitempty"`
	VolumeMounts    []VolumeMountConfig `yaml:"volumeMounts,omitempty" json:"volumeMounts,omitempty"`
	LivenessProbe   *ProbeConfig        `yaml:"livenessProbe,omitempty" json:"livenessProbe,omitempty"`
	ReadinessProbe  *ProbeConfig        `yaml:"readinessProbe,omitempty" json:"readinessProbe,omitempty"`

	RunAsNonRoot             *bool  `yaml:"runAsNonRoot,omitempty" json:"runAsNonRoot,omitempty"`
	RunAsUser                *int64 `yaml:"runAsUser,omitempty" json:"runAsUser,omitempty"`
	ReadOnlyRootFilesystem   *bool  `yaml:"readOnlyRootFilesystem,omitempty" json:"readOnlyRootFilesystem,omitempty"`
	AllowPrivilegeEscalation *bool  `yaml:"allowPrivilegeEscalation,omitempty" json:"allowPrivilegeEscalation,omitempty"`
	Privileged               *bool  `yaml:"privileged,omitempty" json:"privileged,omitempty"`
}

// VolumeConfig declares a pod volume. Exactly one source should be set.
type VolumeConfig struct {
	Name      string `yaml:"name" json:"name"`
	ConfigMap string `yaml:"configMap,omitempty" json:"configMap,omitempty"`
	Secret    string `yaml:"secret,omitempty" json:"secret,omitempty"`
	Claim     string `yaml:"claim,omitempty" json:"claim,omitempty"`
	EmptyDir  bool   `yaml:"emptyDir,omitempty" json:"emptyDir,omitempty"`
	HostPath  string `yaml:"hostPath,omitempty" json:"hostPath,omitempty"`
}

// TolerationConfig mirrors a pod toleration.
type TolerationConfig struct {
	Key      string `yaml:"key,omitempty" json:"key,omitempty"`
	Operator string `yaml:"operator,omitempty" json:"operator,omitempty"`
	Value    string `yaml:"value,omitempty" json:"value,omitempty"`
	Effect   string `yaml:"effect,omitempty" json:"effect,omitempty"`
}

// SchedulingConfig carries pod placement knobs.
type SchedulingConfig struct {
	NodeSelector      map[string]string  `yaml:"nodeSelector,omitempty" json:"nodeSelector,omitempty"`
	Tolerations       []TolerationConfig `yaml:"tolerations,omitempty" json:"tolerations,omitempty"`
	PriorityClassName string             `yaml:"priorityClassName,omitempty" json:"priorityClassName,omitempty"`
	// SpreadByZone adds a zone topology spread constraint over the selector.
	SpreadByZone bool `yaml:"spreadByZone,omitempty" json:"spreadByZone,omitempty"`
}

// PodConfig is the pod template shared by every workload builder.
type PodConfig struct {
	Containers         []ContainerConfig `yaml:"containers" json:"containers"`
	InitContainers     []ContainerConfig `yaml:"initContainers,omitempty" json:"initContainers,omitempty"`
	Volumes            []VolumeConfig    `yaml:"volumes,omitempty" json:"volumes,omitempty"`
	ServiceAccountName string            `yaml:"serviceAccountName,omitempty" json:"serviceAccountName,omitempty"`
	ImagePullSecrets   []string          `yaml:"imagePullSecrets,omitempty" json:"imagePullSecrets,omitempty"`
	PodAnnotations     map[string]string `yaml:"podAnnotations,omitempty" json:"podAnnotations,omitempty"`
	Scheduling         SchedulingConfig  `yaml:"scheduling,omitempty" json:"scheduling,omitempty"`
	RunAsNonRoot       *bool             `yaml:"runAsNonRoot,omitempty" json:"runAsNonRoot,omitempty"`
	FSGroup            *int64            `yaml:"fsGroup,omitempty" json:"fsGroup,omitempty"`
}

// DeploymentConfig is the input of Builder.Deployment.
type DeploymentConfig struct {
	Meta     `yaml:",inline"`
	Replicas *int32            `yaml:"replicas,omitempty" json:"replicas,omitempty"`
	Selector map[string]string `yaml:"selector,omitempty" json:"selector,omitempty"`
	// Strategy is RollingUpdate (default) or Recreate.
	Strategy  string `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	PodConfig `yaml:",inline"`
}

// VolumeClaimConfig is a StatefulSet volumeClaimTemplate.
type VolumeClaimConfig struct {
	Name         string   `yaml:"name" json:"name"`
	Size         string   `yaml:"size" json:"size"`
	StorageClass string   `yaml:"storageClass,omitempty" json:"storageClass,omitempty"`
	AccessModes  []string `yaml:"accessModes,omitempty" json:"accessModes,omitempty"`
}

// StatefulSetConfig is the input of Builder.StatefulSet.
type StatefulSetConfig struct {
	Meta         `yaml:",inline"`
	Replicas     *int32              `yaml:"replicas,omitempty" json:"replicas,omitempty"`
	Selector     map[string]string   `yaml:"selector,omitempty" json:"selector,omitempty"`
	ServiceName  string              `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`
	VolumeClaims []VolumeClaimConfig `yaml:"volumeClaims,omitempty" json:"volumeClaims,omitempty"`
	PodConfig    `yaml:",inline"`
}

// DaemonSetConfig is the input of Builder.DaemonSet.
type DaemonSetConfig struct {
	Meta      `yaml:",inline"`
	Selector  map[string]string `yaml:"selector,omitempty" json:"selector,omitempty"`
	PodConfig `yaml:",inline"`
}

// JobConfig is the input of Builder.Job.
type JobConfig struct {
	Meta                    `yaml:",inline"`
	Completions             *int32 `yaml:"completions,omitempty" json:"completions,omitempty"`
	Parallelism             *int32 `yaml:"parallelism,omitempty" json:"parallelism,omitempty"`
	BackoffLimit            *int32 `yaml:"backoffLimit,omitempty" json:"backoffLimit,omitempty"`
	ActiveDeadlineSeconds   *int64 `yaml:"activeDeadlineSeconds,omitempty" json:"activeDeadlineSeconds,omitempty"`
	TTLSecondsAfterFinished *int32 `yaml:"ttlSecondsAfterFinished,omitempty" json:"ttlSecondsAfterFinished,omitempty"`
	// RestartPolicy is OnFailure (default) or Never.
	RestartPolicy string `yaml:"restartPolicy,omitempty" json:"restartPolicy,omitempty"`
	PodConfig     `yaml:",inline"`
}

// CronJobConfig is the input of Builder.CronJob.
type CronJobConfig struct {
	JobConfig         `yaml:",inline"`
	Schedule          string `yaml:"schedule" json:"schedule"`
	ConcurrencyPolicy string `yaml:"concurrencyPolicy,omitempty" json:"concurrencyPolicy,omitempty"`
	Suspend           *bool  `yaml:"suspend,omitempty" json:"suspend,omitempty"`
	TimeZone          string `yaml:"timeZone,omitempty" json:"timeZone,omitempty"`
}

// ServicePortConfig is one Service port. TargetPort defaults to Port.
type ServicePortConfig struct {
	Name       string `yaml:"name,omitempty" json:"name,omitempty"`
	Port       int32  `yaml:"port" json:"port"`
	TargetPort int32  `yaml:"targetPort,omitempty" json:"targetPort,omitempty"`
	Protocol   string `yaml:"protocol,omitempty" json:"protocol,omitempty"`
	NodePort   int32  `yaml:"nodePort,omitempty" json:"nodePort,omitempty"`
}

// ServiceConfig is the input of Builder.Service.
type ServiceConfig struct {
	Meta     `yaml:",inline"`
	Type     string              `yaml:"type,omitempty" json:"type,omitempty"`
	Selector map[string]string   `yaml:"selector,omitempty" json:"selector,omitempty"`
	Ports    []ServicePortConfig `yaml:"ports" json:"ports"`
	Headless bool                `yaml:"headless,omitempty" json:"headless,omitempty"`
	// ExternalName is used when Type is ExternalName.
	ExternalName string `yaml:"externalName,omitempty" json:"externalName,omitempty"`
}

// ConfigMapConfig is the input of Builder.ConfigMap.
type ConfigMapConfig struct {
	Meta       `yaml:",inline"`
	Data       map[string]string `yaml:"data,omitempty" json:"data,omitempty"`
	BinaryData map[string][]byte `yaml:"binaryData,omitempty" json:"binaryData,omitempty"`
	Immutable  bool              `yaml:"immutable,omitempty" json:"immutable,omitempty"`
	// EnvFiles are dotenv, YAML or JSON files merged under data by
	// LoadEnvFiles.
	EnvFiles []string `yaml:"envFiles,omitempty" json:"envFiles,omitempty"`
}

// SecretConfig is the input of Builder.Secret. StringData values are
// plaintext and are base64-encoded into data.
type SecretConfig struct {
	Meta       `yaml:",inline"`
	Type       string            `yaml:"type,omitempty" json:"type,omitempty"`
	StringData map[string]string `yaml:"stringData,omitempty" json:"stringData,omitempty"`
	Data       map[string][]byte `yaml:"data,omitempty" json:"data,omitempty"`
	EnvFiles   []string          `yaml:"envFiles,omitempty" json:"envFiles,omitempty"`
}

// NamespaceConfig is the input of Builder.Namespace.
type NamespaceConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Labels      map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty" json:"annotations,omitempty"`
	// PodSecurity sets the pod-security.kubernetes.io/enforce level.
	PodSecurity string `yaml:"podSecurity,omitempty" json:"podSecurity,omitempty"`
}

// PersistentVolumeConfig is the input of Builder.PersistentVolume.
type PersistentVolumeConfig struct {
	Name          string            `yaml:"name" json:"name"`
	Labels        map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Capacity      string            `yaml:"capacity" json:"capacity"`
	AccessModes   []string          `yaml:"accessModes,omitempty" json:"accessModes,omitempty"`
	ReclaimPolicy string            `yaml:"reclaimPolicy,omitempty" json:"reclaimPolicy,omitempty"`
	StorageClass  string            `yaml:"storageClass,omitempty" json:"storageClass,omitempty"`
	HostPath      string            `yaml:"hostPath,omitempty" json:"hostPath,omitempty"`
	CSIDriver     string            `yaml:"csiDriver,omitempty" json:"csiDriver,omitempty"`
	VolumeHandle  string            `yaml:"volumeHandle,omitempty" json:"volumeHandle,omitempty"`
}

// PersistentVolumeClaimConfig is the input of Builder.PersistentVolumeClaim.
type PersistentVolumeClaimConfig struct {
	Meta         `yaml:",inline"`
	Size         string   `yaml:"size" json:"size"`
	AccessModes  []string `yaml:"accessModes,omitempty" json:"accessModes,omitempty"`
	StorageClass string   `yaml:"storageClass,omitempty" json:"storageClass,omitempty"`
	VolumeName   string   `yaml:"volumeName,omitempty" json:"volumeName,omitempty"`
}

// ServiceAccountConfig is the input of Builder.ServiceAccount.
type ServiceAccountConfig struct {
	Meta                         `yaml:",inline"`
	AutomountServiceAccountToken *bool    `yaml:"automountServiceAccountToken,omitempty" json:"automountServiceAccountToken,omitempty"`
	ImagePullSecrets             []string `yaml:"imagePullSecrets,omitempty" json:"imagePullSecrets,omitempty"`
}

// PolicyRuleConfig is one RBAC rule.
type PolicyRuleConfig struct {
	APIGroups     []string `yaml:"apiGroups" json:"apiGroups"`
	Resources     []string `yaml:"resources" json:"resources"`
	Verbs         []string `yaml:"verbs" json:"verbs"`
	ResourceNames []string `yaml:"resourceNames,omitempty" json:"resourceNames,omitempty"`
}

// RoleConfig is the input of Builder.Role and Builder.ClusterRole.
type RoleConfig struct {
	Meta  `yaml:",inline"`
	Rules []PolicyRuleConfig `yaml:"rules" json:"rules"`
}

// SubjectConfig is an RBAC subject. Kind defaults to ServiceAccount.
type SubjectConfig struct {
	Kind      string `yaml:"kind,omitempty" json:"kind,omitempty"`
	Name      string `yaml:"name" json:"name"`
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`
}

// RoleBindingConfig is the input of Builder.RoleBinding and
// Builder.ClusterRoleBinding. RoleKind defaults to Role for RoleBinding and
// ClusterRole for ClusterRoleBinding.
type RoleBindingConfig struct {
	Meta     `yaml:",inline"`
	RoleKind string          `yaml:"roleKind,omitempty" json:"roleKind,omitempty"`
	RoleName string          `yaml:"roleName" json:"roleName"`
	Subjects []SubjectConfig `yaml:"subjects" json:"subjects"`
}

// IngressPathConfig routes one path to a Service port.
type IngressPathConfig struct {
	Path        string `yaml:"path,omitempty" json:"path,omitempty"`
	PathType    string `yaml:"pathType,omitempty" json:"pathType,omitempty"`
	ServiceName string `yaml:"serviceName" json:"serviceName"`
	ServicePort int32  `yaml:"servicePort" json:"servicePort"`
}

// IngressRuleConfig routes one host.
type IngressRuleConfig struct {
	Host  string              `yaml:"host,omitempty" json:"host,omitempty"`
	Paths []IngressPathConfig `yaml:"paths" json:"paths"`
}

// IngressTLSConfig terminates TLS for hosts with a certificate Secret.
type IngressTLSConfig struct {
	Hosts      []string `yaml:"hosts" json:"hosts"`
	SecretName string   `yaml:"secretName" json:"secretName"`
}

// IngressConfig is the input of Builder.Ingress.
type IngressConfig struct {
	Meta      `yaml:",inline"`
	ClassName string              `yaml:"className,omitempty" json:"className,omitempty"`
	Rules     []IngressRuleConfig `yaml:"rules" json:"rules"`
	TLS       []IngressTLSConfig  `yaml:"tls,omitempty" json:"tls,omitempty"`
}

// NetworkPolicyPeerRuleConfig allows traffic from/to pods and namespaces on ports.
// A nil selector matches nothing; an empty non-nil selector matches everything.
type NetworkPolicyPeerRuleConfig struct {
	Pods       map[string]string `yaml:"pods,omitempty" json:"pods,omitempty"`
	Namespaces map[string]string `yaml:"namespaces,omitempty" json:"namespaces,omitempty"`
	CIDR       string            `yaml:"cidr,omitempty" json:"cidr,omitempty"`
	Ports      []int32           `yaml:"ports,omitempty" json:"ports,omitempty"`
}

// NetworkPolicyConfig is the input of Builder.NetworkPolicy. PolicyTypes is
// derived from the rule lists when empty.
type NetworkPolicyConfig struct {
	Meta        `yaml:",inline"`
	PodSelector map[string]string             `yaml:"podSelector,omitempty" json:"podSelector,omitempty"`
	PolicyTypes []string                      `yaml:"policyTypes,omitempty" json:"policyTypes,omitempty"`
	Ingress     []NetworkPolicyPeerRuleConfig `yaml:"ingress,omitempty" json:"ingress,omitempty"`
	Egress      []NetworkPolicyPeerRuleConfig `yaml:"egress,omitempty" json:"egress,omitempty"`
}

// HorizontalPodAutoscalerConfig is the input of Builder.HorizontalPodAutoscaler.
type HorizontalPodAutoscalerConfig struct {
	Meta              `yaml:",inline"`
	TargetKind        string `yaml:"targetKind,omitempty" json:"targetKind,omitempty"`
	TargetName        string `yaml:"targetName" json:"targetName"`
	MinReplicas       *int32 `yaml:"minReplicas,omitempty" json:"minReplicas,omitempty"`
	MaxReplicas       int32  `yaml:"maxReplicas" json:"maxReplicas"`
	CPUUtilization    *int32 `yaml:"cpuUtilization,omitempty" json:"cpuUtilization,omitempty"`
	MemoryUtilization *int32 `yaml:"memoryUtilization,omitempty" json:"memoryUtilization,omitempty"`
}

// PodDisruptionBudgetConfig is the input of Builder.PodDisruptionBudget.
// MinAvailable and MaxUnavailable accept counts ("1") or percentages ("50%").
type PodDisruptionBudgetConfig struct {
	Meta           `yaml:",inline"`
	Selector       map[string]string `yaml:"selector" json:"selector"`
	MinAvailable   string            `yaml:"minAvailable,omitempty" json:"minAvailable,omitempty"`
	MaxUnavailable string            `yaml:"maxUnavailable,omitempty" json:"maxUnavailable,omitempty"`
}

// PriorityClassConfig is the input of Builder.PriorityClass.
type PriorityClassConfig struct {
	Name             string            `yaml:"name" json:"name"`
	Labels           map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Value            int32             `yaml:"value" json:"value"`
	GlobalDefault    bool              `yaml:"globalDefault,omitempty" json:"globalDefault,omitempty"`
	Description      string            `yaml:"description,omitempty" json:"description,omitempty"`
	PreemptionPolicy string            `yaml:"preemptionPolicy,omitempty" json:"preemptionPolicy,omitempty"`
}

// ResourceQuotaConfig is the input of Builder.ResourceQuota.
type ResourceQuotaConfig struct {
	Meta `yaml:",inline"`
	Hard map[string]string `yaml:"hard" json:"hard"`
}

// LimitRangeConfig is the input of Builder.LimitRange. The maps hold
// container defaults keyed by resource name.
type LimitRangeConfig struct {
	Meta           `yaml:",inline"`
	Default        map[string]string `yaml:"default,omitempty" json:"default,omitempty"`
	DefaultRequest map[string]string `yaml:"defaultRequest,omitempty" json:"defaultRequest,omitempty"`
	Max            map[string]string `yaml:"max,omitempty" json:"max,omitempty"`
	Min            map[string]string `yaml:"min,omitempty" json:"min,omitempty"`
}

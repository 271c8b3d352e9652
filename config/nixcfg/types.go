// Package nixcfg defines the nixernetes.yaml project file.
package nixcfg

import (
	"github.com/shift/nixernetes-sub005/adapters/kube"
	"github.com/shift/nixernetes-sub005/compliance"
	"github.com/shift/nixernetes-sub005/internal/schema"
)

// Version is the only project file version understood.
const Version = "v1"

// Root is the top-level structure of nixernetes.yaml.
type Root struct {
	Version string `yaml:"version"`
	// Name is the application name, recorded as app.kubernetes.io/part-of
	// on every generated resource.
	Name              string                          `yaml:"name,omitempty"`
	KubernetesVersion string                          `yaml:"kubernetesVersion,omitempty"`
	Environment       string                          `yaml:"environment,omitempty"`
	BuildID           string                          `yaml:"buildId,omitempty"`
	Compliance        compliance.LabelConfig          `yaml:"compliance,omitempty"`
	Namespaces        []kube.NamespaceConfig          `yaml:"namespaces,omitempty"`
	ConfigMaps        []kube.ConfigMapConfig          `yaml:"configMaps,omitempty"`
	Secrets           []kube.SecretConfig             `yaml:"secrets,omitempty"`
	Apps              []kube.WebAppConfig             `yaml:"apps,omitempty"`
	Databases         []kube.DatabaseConfig           `yaml:"databases,omitempty"`
	Brokers           []kube.EventBrokerConfig        `yaml:"brokers,omitempty"`
	Jobs              []kube.BatchJobConfig           `yaml:"jobs,omitempty"`
	HelmReleases      []kube.HelmReleaseConfig        `yaml:"helmReleases,omitempty"`
	Tenants           []kube.TenantConfig             `yaml:"tenants,omitempty"`
	Registries        []kube.ContainerRegistryConfig  `yaml:"registries,omitempty"`
	Runners           []kube.CIRunnerConfig           `yaml:"runners,omitempty"`
	TrainingJobs      []kube.MLTrainingJobConfig      `yaml:"trainingJobs,omitempty"`
	Meshes            []kube.ServiceMeshConfig        `yaml:"meshes,omitempty"`
	Gateways          []kube.GatewayConfig            `yaml:"gateways,omitempty"`
	Scheduling        []kube.SchedulingPoliciesConfig `yaml:"scheduling,omitempty"`
	Policies          []Policy                        `yaml:"policies,omitempty"`
	Environments      []compliance.EnvironmentConfig  `yaml:"environments,omitempty"`
	// Compose is a compose file whose services are imported as apps. A
	// relative path is resolved against the project file.
	Compose string `yaml:"compose,omitempty"`
}

// Policy selects a library policy set to emit.
type Policy struct {
	Set    string `yaml:"set"`
	Name   string `yaml:"name,omitempty"`
	Action string `yaml:"action,omitempty"`
	// Namespace, when set, emits a namespaced Policy instead of a
	// ClusterPolicy.
	Namespace string `yaml:"namespace,omitempty"`
}

// KubeVersion returns the configured Kubernetes version or the default.
func (r *Root) KubeVersion() string {
	if r.KubernetesVersion == "" {
		return schema.DefaultKubernetesVersion
	}
	return r.KubernetesVersion
}

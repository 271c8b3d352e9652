package kube

import (
	"cmp"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"

	"github.com/shift/nixernetes-sub005/domain/model"
)

// WebServiceConfig exposes a WebApp. Ports default to every container port.
type WebServiceConfig struct {
	Type  string              `yaml:"type,omitempty" json:"type,omitempty"`
	Ports []ServicePortConfig `yaml:"ports,omitempty" json:"ports,omitempty"`
}

// WebIngressConfig routes a host to the first Service port of a WebApp.
type WebIngressConfig struct {
	Host      string `yaml:"host" json:"host"`
	Path      string `yaml:"path,omitempty" json:"path,omitempty"`
	ClassName string `yaml:"className,omitempty" json:"className,omitempty"`
	TLSSecret string `yaml:"tlsSecret,omitempty" json:"tlsSecret,omitempty"`
}

// WebAppConfig is the input of Builder.WebApp.
type WebAppConfig struct {
	Meta `yaml:",inline"`
	// Kind is Deployment (default), StatefulSet or DaemonSet.
	Kind      string `yaml:"kind,omitempty" json:"kind,omitempty"`
	Replicas  *int32 `yaml:"replicas,omitempty" json:"replicas,omitempty"`
	PodConfig `yaml:",inline"`
	Service   *WebServiceConfig `yaml:"service,omitempty" json:"service,omitempty"`
	Ingress   *WebIngressConfig `yaml:"ingress,omitempty" json:"ingress,omitempty"`
	// Config becomes the <name>-config ConfigMap, loaded into every container
	// with envFrom.
	Config map[string]string `yaml:"config,omitempty" json:"config,omitempty"`
}

// WebApp builds a workload with its Service and, when requested, a ConfigMap
// and an Ingress. Resources come out as [ConfigMap] workload [Service] [Ingress].
func (b *Builder) WebApp(cfg WebAppConfig) ([]model.Resource, error) {
	var out []model.Resource
	pod := cfg.PodConfig
	pod.Containers = slices.Clone(cfg.Containers)
	if len(cfg.Config) > 0 {
		cm := ConfigMapName(cfg.Name)
		out = append(out, b.ConfigMap(ConfigMapConfig{
			Meta: Meta{Name: cm, Namespace: cfg.Namespace, Labels: cfg.Labels},
			Data: cfg.Config,
		}))
		for i := range pod.Containers {
			pod.Containers[i].EnvFromConfigs = append(slices.Clone(pod.Containers[i].EnvFromConfigs), cm)
		}
	}

	switch cfg.Kind {
	case "", string(model.KindDeployment):
		out = append(out, b.Deployment(DeploymentConfig{Meta: cfg.Meta, Replicas: cfg.Replicas, PodConfig: pod}))
	case string(model.KindStatefulSet):
		out = append(out, b.StatefulSet(StatefulSetConfig{Meta: cfg.Meta, Replicas: cfg.Replicas, ServiceName: cfg.Name, PodConfig: pod}))
	case string(model.KindDaemonSet):
		out = append(out, b.DaemonSet(DaemonSetConfig{Meta: cfg.Meta, PodConfig: pod}))
	default:
		return nil, fmt.Errorf("webapp %s: %w", cfg.Name, &model.UnknownKindError{Kind: model.Kind(cfg.Kind), Version: b.version})
	}

	svc := WebServiceConfig{}
	if cfg.Service != nil {
		svc = *cfg.Service
	}
	ports := svc.Ports
	if len(ports) == 0 {
		ports = containerServicePorts(cfg.Containers)
	}
	if len(ports) == 0 {
		if cfg.Ingress != nil {
			return nil, fmt.Errorf("webapp %s: ingress needs a service port", cfg.Name)
		}
		return out, nil
	}
	out = append(out, b.Service(ServiceConfig{Meta: cfg.Meta, Type: svc.Type, Ports: ports}))

	if ing := cfg.Ingress; ing != nil {
		ic := IngressConfig{
			Meta:      cfg.Meta,
			ClassName: ing.ClassName,
			Rules: []IngressRuleConfig{{
				Host:  ing.Host,
				Paths: []IngressPathConfig{{Path: ing.Path, ServiceName: cfg.Name, ServicePort: ports[0].Port}},
			}},
		}
		if ing.TLSSecret != "" {
			ic.TLS = []IngressTLSConfig{{Hosts: []string{ing.Host}, SecretName: ing.TLSSecret}}
		}
		out = append(out, b.Ingress(ic))
	}
	return out, nil
}

// containerServicePorts names ports only when there is more than one, as a
// Service requires.
func containerServicePorts(ccs []ContainerConfig) []ServicePortConfig {
	var ports []ServicePortConfig
	seen := map[int32]bool{}
	for _, cc := range ccs {
		for _, p := range cc.Ports {
			if seen[p] {
				continue
			}
			seen[p] = true
			ports = append(ports, ServicePortConfig{Port: p})
		}
	}
	if len(ports) > 1 {
		for i := range ports {
			ports[i].Name = fmt.Sprintf("tcp-%d", ports[i].Port)
		}
	}
	return ports
}

// RegistryCredentials renders a dockerconfigjson pull Secret.
type RegistryCredentials struct {
	Server   string `yaml:"server,omitempty" json:"server,omitempty"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// ContainerRegistryConfig is the input of Builder.ContainerRegistry.
type ContainerRegistryConfig struct {
	Meta         `yaml:",inline"`
	Image        string               `yaml:"image,omitempty" json:"image,omitempty"`
	StorageSize  string               `yaml:"storageSize,omitempty" json:"storageSize,omitempty"`
	StorageClass string               `yaml:"storageClass,omitempty" json:"storageClass,omitempty"`
	Resources    ResourcesConfig      `yaml:"resources,omitempty" json:"resources,omitempty"`
	Credentials  *RegistryCredentials `yaml:"credentials,omitempty" json:"credentials,omitempty"`
}

const registryPort = 5000

// ContainerRegistry builds an in-cluster registry: data PVC, Deployment,
// Service and, with Credentials, a pull Secret. The Deployment uses the
// Recreate strategy because the claim is ReadWriteOnce.
func (b *Builder) ContainerRegistry(cfg ContainerRegistryConfig) []model.Resource {
	image := cmp.Or(cfg.Image, "registry:2")
	size := cmp.Or(cfg.StorageSize, "10Gi")
	labels := mergeLabels(map[string]string{LabelAppK8sComponent: "registry"}, cfg.Labels)
	meta := Meta{Name: cfg.Name, Namespace: cfg.Namespace, Labels: labels, Annotations: cfg.Annotations}
	claim := DataClaimName(cfg.Name)

	out := []model.Resource{
		b.PersistentVolumeClaim(PersistentVolumeClaimConfig{
			Meta:         Meta{Name: claim, Namespace: cfg.Namespace, Labels: labels},
			Size:         size,
			StorageClass: cfg.StorageClass,
		}),
		b.Deployment(DeploymentConfig{
			Meta:     meta,
			Strategy: string(appsv1.RecreateDeploymentStrategyType),
			PodConfig: PodConfig{
				Containers: []ContainerConfig{{
					Name:           "registry",
					Image:          image,
					Ports:          []int32{registryPort},
					Resources:      cfg.Resources,
					VolumeMounts:   []VolumeMountConfig{{Name: "data", MountPath: "/var/lib/registry"}},
					ReadinessProbe: &ProbeConfig{Path: "/v2/", Port: registryPort},
					LivenessProbe:  &ProbeConfig{Path: "/v2/", Port: registryPort, InitialDelaySeconds: 10},
				}},
				Volumes: []VolumeConfig{{Name: "data", Claim: claim}},
			},
		}),
		b.Service(ServiceConfig{Meta: meta, Ports: []ServicePortConfig{{Name: "http", Port: registryPort}}}),
	}
	if c := cfg.Credentials; c != nil {
		server := c.Server
		if server == "" {
			server = fmt.Sprintf("%s.%s.svc:%d", cfg.Name, out[1].Metadata.Namespace, registryPort)
		}
		out = append(out, b.Secret(SecretConfig{
			Meta: Meta{Name: SecretPullName(cfg.Name), Namespace: cfg.Namespace, Labels: labels},
			Type: string(corev1.SecretTypeDockerConfigJson),
			Data: map[string][]byte{corev1.DockerConfigJsonKey: dockerConfigJSON(server, c.Username, c.Password)},
		}))
	}
	return out
}

func dockerConfigJSON(server, user, password string) []byte {
	type entry struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Auth     string `json:"auth"`
	}
	doc := map[string]map[string]entry{"auths": {server: {
		Username: user,
		Password: password,
		Auth:     base64.StdEncoding.EncodeToString([]byte(user + ":" + password)),
	}}}
	b, _ := json.Marshal(doc)
	return b
}

// statefulEngine describes the container of a Database or EventBroker engine.
type statefulEngine struct {
	image     string
	ports     []ServicePortConfig
	dataPath  string
	secretKey string
	args      []string
	env       map[string]string
}

var databaseEngines = map[string]statefulEngine{
	"postgres": {
		image:     "postgres:16",
		ports:     []ServicePortConfig{{Name: "postgres", Port: 5432}},
		dataPath:  "/var/lib/postgresql/data",
		secretKey: "POSTGRES_PASSWORD",
		env:       map[string]string{"PGDATA": "/var/lib/postgresql/data/pgdata"},
	},
	"mysql": {
		image:     "mysql:8.4",
		ports:     []ServicePortConfig{{Name: "mysql", Port: 3306}},
		dataPath:  "/var/lib/mysql",
		secretKey: "MYSQL_ROOT_PASSWORD",
	},
	"redis": {
		image:     "redis:7",
		ports:     []ServicePortConfig{{Name: "redis", Port: 6379}},
		dataPath:  "/data",
		secretKey: "REDIS_PASSWORD",
		args:      []string{"redis-server", "--appendonly", "yes", "--requirepass", "$(REDIS_PASSWORD)"},
	},
}

var brokerEngines = map[string]statefulEngine{
	"kafka": {
		image:    "apache/kafka:3.7.0",
		ports:    []ServicePortConfig{{Name: "client", Port: 9092}, {Name: "controller", Port: 9093}},
		dataPath: "/var/lib/kafka/data",
		env: map[string]string{
			"KAFKA_PROCESS_ROLES":                    "broker,controller",
			"KAFKA_LISTENERS":                        "PLAINTEXT://:9092,CONTROLLER://:9093",
			"KAFKA_CONTROLLER_LISTENER_NAMES":        "CONTROLLER",
			"KAFKA_LOG_DIRS":                         "/var/lib/kafka/data",
			"KAFKA_AUTO_CREATE_TOPICS_ENABLE":        "false",
			"KAFKA_OFFSETS_TOPIC_REPLICATION_FACTOR": "1",
		},
	},
	"nats": {
		image:    "nats:2.10",
		ports:    []ServicePortConfig{{Name: "client", Port: 4222}, {Name: "cluster", Port: 6222}, {Name: "monitor", Port: 8222}},
		dataPath: "/data",
		args:     []string{"--jetstream", "--store_dir=/data", "--http_port=8222"},
	},
	"rabbitmq": {
		image:    "rabbitmq:3.13-management",
		ports:    []ServicePortConfig{{Name: "amqp", Port: 5672}, {Name: "management", Port: 15672}},
		dataPath: "/var/lib/rabbitmq",
	},
}

// DatabaseEngines returns the engines accepted by Builder.Database.
func DatabaseEngines() []string { return model.SortedKeys(databaseEngines) }

// BrokerEngines returns the engines accepted by Builder.EventBroker.
func BrokerEngines() []string { return model.SortedKeys(brokerEngines) }

// DatabaseConfig is the input of Builder.Database.
type DatabaseConfig struct {
	Meta `yaml:",inline"`
	// Engine is postgres, mysql or redis.
	Engine string `yaml:"engine" json:"engine"`
	// Version replaces the tag of the engine's default image.
	Version      string          `yaml:"version,omitempty" json:"version,omitempty"`
	Replicas     *int32          `yaml:"replicas,omitempty" json:"replicas,omitempty"`
	StorageSize  string          `yaml:"storageSize,omitempty" json:"storageSize,omitempty"`
	StorageClass string          `yaml:"storageClass,omitempty" json:"storageClass,omitempty"`
	Resources    ResourcesConfig `yaml:"resources,omitempty" json:"resources,omitempty"`
	// Password is written to the <name>-credentials Secret. When empty the
	// Secret is not generated and must be supplied separately.
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
}

// Database builds a StatefulSet, its headless Service and the credentials
// Secret for one of the DatabaseEngines.
func (b *Builder) Database(cfg DatabaseConfig) ([]model.Resource, error) {
	eng, ok := databaseEngines[cfg.Engine]
	if !ok {
		return nil, fmt.Errorf("database %s: unsupported engine %q (supported: %s)", cfg.Name, cfg.Engine, strings.Join(DatabaseEngines(), ", "))
	}
	out := b.statefulComposite(cfg.Meta, "database", eng, cfg.Version, cfg.Replicas, cfg.StorageSize, cfg.StorageClass, cfg.Resources)
	if cfg.Password != "" {
		labels := mergeLabels(map[string]string{LabelAppK8sComponent: "database"}, cfg.Labels)
		out = append(out, b.Secret(SecretConfig{
			Meta:       Meta{Name: CredentialsSecretName(cfg.Name), Namespace: cfg.Namespace, Labels: labels},
			StringData: map[string]string{eng.secretKey: cfg.Password},
		}))
	}
	return out, nil
}

// EventBrokerConfig is the input of Builder.EventBroker.
type EventBrokerConfig struct {
	Meta `yaml:",inline"`
	// Engine is kafka, nats or rabbitmq.
	Engine       string          `yaml:"engine" json:"engine"`
	Version      string          `yaml:"version,omitempty" json:"version,omitempty"`
	Replicas     *int32          `yaml:"replicas,omitempty" json:"replicas,omitempty"`
	StorageSize  string          `yaml:"storageSize,omitempty" json:"storageSize,omitempty"`
	StorageClass string          `yaml:"storageClass,omitempty" json:"storageClass,omitempty"`
	Resources    ResourcesConfig `yaml:"resources,omitempty" json:"resources,omitempty"`
}

// EventBroker builds a StatefulSet, a headless Service for peer discovery and
// a client Service on the engine's first port.
func (b *Builder) EventBroker(cfg EventBrokerConfig) ([]model.Resource, error) {
	eng, ok := brokerEngines[cfg.Engine]
	if !ok {
		return nil, fmt.Errorf("event broker %s: unsupported engine %q (supported: %s)", cfg.Name, cfg.Engine, strings.Join(BrokerEngines(), ", "))
	}
	out := b.statefulComposite(cfg.Meta, "event-broker", eng, cfg.Version, cfg.Replicas, cfg.StorageSize, cfg.StorageClass, cfg.Resources)
	labels := mergeLabels(map[string]string{LabelAppK8sComponent: "event-broker"}, cfg.Labels)
	out = append(out, b.Service(ServiceConfig{
		Meta:  Meta{Name: cfg.Name, Namespace: cfg.Namespace, Labels: labels},
		Ports: eng.ports[:1],
	}))
	return out, nil
}

// statefulComposite returns the StatefulSet and its headless Service.
func (b *Builder) statefulComposite(m Meta, component string, eng statefulEngine, version string, replicas *int32, size, class string, res ResourcesConfig) []model.Resource {
	image := eng.image
	if version != "" {
		repo, _, _ := strings.Cut(image, ":")
		image = repo + ":" + version
	}
	labels := mergeLabels(map[string]string{LabelAppK8sComponent: component}, m.Labels)
	sel := selectorFor(m.Name, nil)
	ctr := ContainerConfig{
		Name:           component,
		Image:          image,
		Args:           eng.args,
		Env:            eng.env,
		Resources:      res,
		VolumeMounts:   []VolumeMountConfig{{Name: "data", MountPath: eng.dataPath}},
		ReadinessProbe: &ProbeConfig{Port: eng.ports[0].Port, PeriodSeconds: 10},
	}
	for _, p := range eng.ports {
		ctr.Ports = append(ctr.Ports, p.Port)
	}
	if eng.secretKey != "" {
		ctr.EnvFromSecrets = []string{CredentialsSecretName(m.Name)}
	}
	headless := HeadlessServiceName(m.Name)
	return []model.Resource{
		b.StatefulSet(StatefulSetConfig{
			Meta:         Meta{Name: m.Name, Namespace: m.Namespace, Labels: labels, Annotations: m.Annotations},
			Replicas:     replicas,
			Selector:     sel,
			ServiceName:  headless,
			VolumeClaims: []VolumeClaimConfig{{Name: "data", Size: cmp.Or(size, "10Gi"), StorageClass: class}},
			PodConfig:    PodConfig{Containers: []ContainerConfig{ctr}},
		}),
		b.Service(ServiceConfig{
			Meta:     Meta{Name: headless, Namespace: m.Namespace, Labels: labels},
			Selector: sel,
			Headless: true,
			Ports:    eng.ports,
		}),
	}
}

// CIRunnerConfig is the input of Builder.CIRunner.
type CIRunnerConfig struct {
	Meta     `yaml:",inline"`
	Image    string            `yaml:"image" json:"image"`
	Replicas *int32            `yaml:"replicas,omitempty" json:"replicas,omitempty"`
	Env      map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	// TokenSecret names a Secret holding the runner registration token; it
	// is loaded with envFrom.
	TokenSecret string             `yaml:"tokenSecret,omitempty" json:"tokenSecret,omitempty"`
	Rules       []PolicyRuleConfig `yaml:"rules,omitempty" json:"rules,omitempty"`
	Resources   ResourcesConfig    `yaml:"resources,omitempty" json:"resources,omitempty"`
}

// defaultRunnerRules lets a runner launch and inspect job pods in its own
// namespace.
var defaultRunnerRules = []PolicyRuleConfig{
	{Resources: []string{"pods", "pods/exec", "pods/log"}, Verbs: []string{"get", "list", "watch", "create", "delete"}},
	{Resources: []string{"secrets", "configmaps"}, Verbs: []string{"get", "create", "delete"}},
}

// CIRunner builds a ServiceAccount, a Role, the RoleBinding between them and
// the runner Deployment using that account.
func (b *Builder) CIRunner(cfg CIRunnerConfig) []model.Resource {
	labels := mergeLabels(map[string]string{LabelAppK8sComponent: "ci-runner"}, cfg.Labels)
	meta := Meta{Name: cfg.Name, Namespace: cfg.Namespace, Labels: labels, Annotations: cfg.Annotations}
	rules := cfg.Rules
	if len(rules) == 0 {
		rules = defaultRunnerRules
	}
	ctr := ContainerConfig{
		Name:      "runner",
		Image:     cfg.Image,
		Env:       cfg.Env,
		Resources: cfg.Resources,
	}
	if cfg.TokenSecret != "" {
		ctr.EnvFromSecrets = []string{cfg.TokenSecret}
	}
	return []model.Resource{
		b.ServiceAccount(ServiceAccountConfig{Meta: meta}),
		b.Role(RoleConfig{Meta: meta, Rules: rules}),
		b.RoleBinding(RoleBindingConfig{
			Meta:     meta,
			RoleName: cfg.Name,
			Subjects: []SubjectConfig{{Name: cfg.Name, Namespace: cfg.Namespace}},
		}),
		b.Deployment(DeploymentConfig{
			Meta:      meta,
			Replicas:  cfg.Replicas,
			PodConfig: PodConfig{Containers: []ContainerConfig{ctr}, ServiceAccountName: cfg.Name},
		}),
	}
}

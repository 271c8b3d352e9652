package kube

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"k8s.io/utils/ptr"

	"github.com/shift/nixernetes-sub005/domain/model"
)

func kindsOf(rs []model.Resource) []model.Kind {
	out := make([]model.Kind, len(rs))
	for i, r := range rs {
		out[i] = r.Kind
	}
	return out
}

func TestWebApp(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	web := WebAppConfig{
		Meta:      Meta{Name: "shop", Namespace: "prod"},
		PodConfig: PodConfig{Containers: []ContainerConfig{{Name: "shop", Image: "shop:1.0", Ports: []int32{8080, 9090}}}},
		Ingress:   &WebIngressConfig{Host: "shop.example.com", TLSSecret: "shop-tls"},
		Config:    map[string]string{"MODE": "prod"},
	}

	tests := []struct {
		name    string
		mutate  func(c *WebAppConfig)
		want    []model.Kind
		wantErr bool
	}{
		{
			name: "full",
			want: []model.Kind{model.KindConfigMap, model.KindDeployment, model.KindService, model.KindIngress},
		},
		{
			name:   "statefulset without extras",
			mutate: func(c *WebAppConfig) { c.Kind = "StatefulSet"; c.Config = nil; c.Ingress = nil },
			want:   []model.Kind{model.KindStatefulSet, model.KindService},
		},
		{
			name: "no ports",
			mutate: func(c *WebAppConfig) {
				c.Containers = []ContainerConfig{{Name: "w", Image: "worker"}}
				c.Config = nil
				c.Ingress = nil
			},
			want: []model.Kind{model.KindDeployment},
		},
		{
			name: "ingress without port",
			mutate: func(c *WebAppConfig) {
				c.Containers = []ContainerConfig{{Name: "w", Image: "worker"}}
			},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			mutate:  func(c *WebAppConfig) { c.Kind = "ReplicaSet" },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := web
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			got, err := b.WebApp(cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("WebApp() = %v, want error", kindsOf(got))
				}
				return
			}
			if err != nil {
				t.Fatalf("WebApp() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, kindsOf(got)); diff != "" {
				t.Errorf("kinds mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("wiring", func(t *testing.T) {
		got, err := b.WebApp(web)
		if err != nil {
			t.Fatal(err)
		}
		cm, dep, svc, ing := got[0], got[1], got[2], got[3]
		if cm.Metadata.Name != "shop-config" || cm.Data["MODE"] != "prod" {
			t.Errorf("configmap = %s %v", cm.Metadata.Name, cm.Data)
		}
		c := firstContainer(t, nested(t, dep.Spec, "template", "spec").(map[string]any))
		envFrom := c["envFrom"].([]any)
		if got := nested(t, envFrom[0].(map[string]any), "configMapRef", "name"); got != "shop-config" {
			t.Errorf("envFrom = %v", envFrom)
		}
		ports := nested(t, svc.Spec, "ports").([]any)
		if len(ports) != 2 || ports[0].(map[string]any)["name"] != "tcp-8080" {
			t.Errorf("service ports = %v", ports)
		}
		rules := nested(t, ing.Spec, "rules").([]any)
		path := nested(t, rules[0].(map[string]any), "http", "paths").([]any)[0].(map[string]any)
		if got := nested(t, path, "backend", "service", "port", "number"); got != int64(8080) {
			t.Errorf("ingress backend port = %v", got)
		}
		if len(web.Containers[0].EnvFromConfigs) != 0 {
			t.Error("input containers were modified")
		}
	})

	t.Run("unknown kind error", func(t *testing.T) {
		cfg := web
		cfg.Kind = "ReplicaSet"
		_, err := b.WebApp(cfg)
		var uk *model.UnknownKindError
		if !errors.As(err, &uk) || uk.Kind != "ReplicaSet" {
			t.Errorf("error = %v, want UnknownKindError", err)
		}
	})
}

func TestContainerRegistry(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	got := b.ContainerRegistry(ContainerRegistryConfig{
		Meta:        Meta{Name: "registry", Namespace: "infra"},
		Credentials: &RegistryCredentials{Username: "ci", Password: "s3cret"},
	})
	want := []model.Kind{model.KindPersistentVolumeClaim, model.KindDeployment, model.KindService, model.KindSecret}
	if diff := cmp.Diff(want, kindsOf(got)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if got[0].Metadata.Name != "registry-data" {
		t.Errorf("claim name = %s", got[0].Metadata.Name)
	}
	if s := nested(t, got[1].Spec, "strategy", "type"); s != "Recreate" {
		t.Errorf("strategy = %v", s)
	}
	sec := got[3]
	if sec.Type != "kubernetes.io/dockerconfigjson" || sec.Metadata.Name != "registry-pull" {
		t.Errorf("secret = %s %s", sec.Type, sec.Metadata.Name)
	}
	raw, err := base64.StdEncoding.DecodeString(sec.Data[".dockerconfigjson"])
	if err != nil {
		t.Fatal(err)
	}
	var cfg struct {
		Auths map[string]struct {
			Username string `json:"username"`
			Auth     string `json:"auth"`
		} `json:"auths"`
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		t.Fatal(err)
	}
	entry, ok := cfg.Auths["registry.infra.svc:5000"]
	if !ok || entry.Username != "ci" || entry.Auth != base64.StdEncoding.EncodeToString([]byte("ci:s3cret")) {
		t.Errorf("auths = %+v", cfg.Auths)
	}
}

func TestDatabase(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	got, err := b.Database(DatabaseConfig{Meta: Meta{Name: "orders", Namespace: "data"}, Engine: "postgres", Version: "15", Password: "pw"})
	if err != nil {
		t.Fatal(err)
	}
	want := []model.Kind{model.KindStatefulSet, model.KindService, model.KindSecret}
	if diff := cmp.Diff(want, kindsOf(got)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	ss, svc, sec := got[0], got[1], got[2]
	if got := nested(t, ss.Spec, "serviceName"); got != "orders-headless" {
		t.Errorf("serviceName = %v", got)
	}
	c := firstContainer(t, nested(t, ss.Spec, "template", "spec").(map[string]any))
	if c["image"] != "postgres:15" {
		t.Errorf("image = %v", c["image"])
	}
	if ss.Metadata.Labels[LabelAppK8sComponent] != "database" {
		t.Errorf("labels = %v", ss.Metadata.Labels)
	}
	if got := nested(t, svc.Spec, "clusterIP"); got != "None" {
		t.Errorf("clusterIP = %v", got)
	}
	if sec.Metadata.Name != "orders-credentials" || sec.Data["POSTGRES_PASSWORD"] == "" {
		t.Errorf("secret = %s %v", sec.Metadata.Name, sec.Data)
	}

	noPw, err := b.Database(DatabaseConfig{Meta: Meta{Name: "cache"}, Engine: "redis"})
	if err != nil {
		t.Fatal(err)
	}
	if len(noPw) != 2 {
		t.Errorf("without password got %v", kindsOf(noPw))
	}

	if _, err := b.Database(DatabaseConfig{Meta: Meta{Name: "x"}, Engine: "oracle"}); err == nil {
		t.Error("unsupported engine accepted")
	}
	if diff := cmp.Diff([]string{"mysql", "postgres", "redis"}, DatabaseEngines()); diff != "" {
		t.Errorf("DatabaseEngines mismatch (-want +got):\n%s", diff)
	}
}

func TestEventBroker(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	got, err := b.EventBroker(EventBrokerConfig{Meta: Meta{Name: "bus", Namespace: "msg"}, Engine: "nats", Replicas: ptr.To(int32(3))})
	if err != nil {
		t.Fatal(err)
	}
	want := []model.Kind{model.KindStatefulSet, model.KindService, model.KindService}
	if diff := cmp.Diff(want, kindsOf(got)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	client := got[2]
	if client.Metadata.Name != "bus" {
		t.Errorf("client service = %s", client.Metadata.Name)
	}
	ports := nested(t, client.Spec, "ports").([]any)
	if len(ports) != 1 || ports[0].(map[string]any)["port"] != int64(4222) {
		t.Errorf("client ports = %v", ports)
	}
	if _, err := b.EventBroker(EventBrokerConfig{Meta: Meta{Name: "x"}, Engine: "pulsar"}); err == nil {
		t.Error("unsupported engine accepted")
	}
}

func TestCIRunner(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	got := b.CIRunner(CIRunnerConfig{Meta: Meta{Name: "runner", Namespace: "ci"}, Image: "runner:latest", TokenSecret: "runner-token"})
	want := []model.Kind{model.KindServiceAccount, model.KindRole, model.KindRoleBinding, model.KindDeployment}
	if diff := cmp.Diff(want, kindsOf(got)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if got := nested(t, got[3].Spec, "template", "spec", "serviceAccountName"); got != "runner" {
		t.Errorf("serviceAccountName = %v", got)
	}
	subj := got[2].Extra["subjects"].([]any)[0].(map[string]any)
	if subj["name"] != "runner" || subj["namespace"] != "ci" {
		t.Errorf("subject = %v", subj)
	}
}

func TestBatchJob(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	job := JobConfig{Meta: Meta{Name: "report"}, PodConfig: PodConfig{Containers: []ContainerConfig{{Name: "r", Image: "report"}}}}
	once := b.BatchJob(BatchJobConfig{JobConfig: job})
	if len(once) != 1 || once[0].Kind != model.KindJob {
		t.Fatalf("unscheduled = %v", kindsOf(once))
	}
	cron := b.BatchJob(BatchJobConfig{JobConfig: job, Schedule: "0 3 * * *", TimeZone: "Etc/UTC"})
	if len(cron) != 1 || cron[0].Kind != model.KindCronJob {
		t.Fatalf("scheduled = %v", kindsOf(cron))
	}
	if got := nested(t, cron[0].Spec, "timeZone"); got != "Etc/UTC" {
		t.Errorf("timeZone = %v", got)
	}
	if cron[0].Metadata.Labels[LabelAppK8sComponent] != "batch" {
		t.Errorf("labels = %v", cron[0].Metadata.Labels)
	}
}

func TestMLTrainingJob(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	got := b.MLTrainingJob(MLTrainingJobConfig{
		Meta:       Meta{Name: "train", Namespace: "ml"},
		Image:      "trainer:1",
		GPUs:       2,
		GPUProduct: "A100",
		Workers:    ptr.To(int32(4)),
		DataClaim:  "datasets",
	})
	if len(got) != 1 {
		t.Fatalf("got %v", kindsOf(got))
	}
	spec := got[0].Spec
	if nested(t, spec, "completions") != int64(4) || nested(t, spec, "parallelism") != int64(4) {
		t.Errorf("completions/parallelism = %v/%v", spec["completions"], spec["parallelism"])
	}
	pod := nested(t, spec, "template", "spec").(map[string]any)
	if pod["restartPolicy"] != "Never" {
		t.Errorf("restartPolicy = %v", pod["restartPolicy"])
	}
	if got := nested(t, pod, "nodeSelector", GPUProductLabel); got != "A100" {
		t.Errorf("nodeSelector = %v", got)
	}
	tol := pod["tolerations"].([]any)[0].(map[string]any)
	if tol["key"] != GPUResourceName || tol["operator"] != "Exists" {
		t.Errorf("toleration = %v", tol)
	}
	c := firstContainer(t, pod)
	if got := nested(t, c, "resources", "limits", GPUResourceName); got != "2" {
		t.Errorf("gpu limit = %v", got)
	}
	if got := nested(t, c, "resources", "requests", GPUResourceName); got != "2" {
		t.Errorf("gpu request = %v", got)
	}
	vols := pod["volumes"].([]any)
	if got := nested(t, vols[0].(map[string]any), "persistentVolumeClaim", "claimName"); got != "datasets" {
		t.Errorf("claim = %v", got)
	}
}

func TestTenant(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	got := b.Tenant(TenantConfig{
		Name:                "team-a",
		AllowIntraNamespace: true,
		Admins:              []SubjectConfig{{Kind: "Group", Name: "team-a-admins"}},
	})
	want := []model.Kind{
		model.KindNamespace, model.KindResourceQuota, model.KindLimitRange,
		model.KindNetworkPolicy, model.KindNetworkPolicy, model.KindRoleBinding,
	}
	if diff := cmp.Diff(want, kindsOf(got)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	for _, r := range got {
		if r.Metadata.Labels[LabelNixTenant] != "team-a" {
			t.Errorf("%s missing tenant label: %v", r.Key(), r.Metadata.Labels)
		}
		if r.Kind != model.KindNamespace && r.Metadata.Namespace != "team-a" {
			t.Errorf("%s namespace = %q", r.Key(), r.Metadata.Namespace)
		}
	}
	if got[0].Metadata.Labels["pod-security.kubernetes.io/enforce"] != "restricted" {
		t.Errorf("pod security = %v", got[0].Metadata.Labels)
	}
	if got := nested(t, got[1].Spec, "hard", "pods"); got != "50" {
		t.Errorf("quota pods = %v", got)
	}
	allow := nested(t, got[4].Spec, "ingress").([]any)[0].(map[string]any)
	from := allow["from"].([]any)[0].(map[string]any)
	if !cmp.Equal(from["podSelector"], map[string]any{}) {
		t.Errorf("allow rule = %v", allow)
	}
	if got := nested(t, got[5].Extra, "roleRef", "name"); got != "admin" {
		t.Errorf("roleRef = %v", got)
	}
}

func TestServiceMesh(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	got := b.ServiceMesh(ServiceMeshConfig{Meta: Meta{Name: "mesh", Namespace: "shop"}, MaxConnections: 100})
	if diff := cmp.Diff([]model.Kind{model.KindPeerAuthentication, model.KindDestinationRule}, kindsOf(got)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if got := nested(t, got[0].Spec, "mtls", "mode"); got != "STRICT" {
		t.Errorf("mtls mode = %v", got)
	}
	dr := got[1].Spec
	if dr["host"] != "*.shop.svc.cluster.local" {
		t.Errorf("host = %v", dr["host"])
	}
	if got := nested(t, dr, "trafficPolicy", "connectionPool", "tcp", "maxConnections"); got != int64(100) {
		t.Errorf("maxConnections = %v", got)
	}
}

func TestGateway(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	got := b.Gateway(GatewayConfig{
		Meta:      Meta{Name: "edge", Namespace: "shop"},
		ClassName: "istio",
		Hostnames: []string{"shop.example.com"},
		TLSSecret: "shop-tls",
		Routes:    []GatewayRouteConfig{{PathPrefix: "/api", ServiceName: "api", ServicePort: 8080}, {ServiceName: "web", ServicePort: 80}},
	})
	if diff := cmp.Diff([]model.Kind{model.KindGateway, model.KindHTTPRoute}, kindsOf(got)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if listeners := got[0].Spec["listeners"].([]any); len(listeners) != 2 {
		t.Errorf("listeners = %v", listeners)
	}
	rules := got[1].Spec["rules"].([]any)
	match := rules[1].(map[string]any)["matches"].([]any)[0].(map[string]any)
	if got := nested(t, match, "path", "value"); got != "/" {
		t.Errorf("default prefix = %v", got)
	}
	parent := got[1].Spec["parentRefs"].([]any)[0].(map[string]any)
	if parent["name"] != "edge" {
		t.Errorf("parentRefs = %v", parent)
	}
}

func TestSchedulingPolicies(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	only := b.SchedulingPolicies(SchedulingPoliciesConfig{Meta: Meta{Name: "api"}})
	if diff := cmp.Diff([]model.Kind{model.KindPodDisruptionBudget}, kindsOf(only)); diff != "" {
		t.Errorf("minimal kinds mismatch (-want +got):\n%s", diff)
	}
	all := b.SchedulingPolicies(SchedulingPoliciesConfig{
		Meta:        Meta{Name: "api", Namespace: "shop"},
		Priority:    ptr.To(int32(1000)),
		MaxReplicas: 10,
	})
	want := []model.Kind{model.KindPriorityClass, model.KindPodDisruptionBudget, model.KindHorizontalPodAutoscaler}
	if diff := cmp.Diff(want, kindsOf(all)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if all[0].Metadata.Name != "api-priority" || all[0].Extra["value"] != int64(1000) {
		t.Errorf("priority class = %s %v", all[0].Metadata.Name, all[0].Extra)
	}
	if got := nested(t, all[2].Spec, "scaleTargetRef", "name"); got != "api" {
		t.Errorf("scaleTargetRef = %v", got)
	}
}

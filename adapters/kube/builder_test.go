package kube

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/utils/ptr"

	"github.com/shift/nixernetes-sub005/domain/model"
)

func mustBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder("1.30")
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	return b
}

func nested(t *testing.T, m map[string]any, fields ...string) any {
	t.Helper()
	v, ok, err := unstructured.NestedFieldNoCopy(m, fields...)
	if err != nil || !ok {
		t.Fatalf("field %v: found=%v err=%v in %v", fields, ok, err, m)
	}
	return v
}

func firstContainer(t *testing.T, podSpec map[string]any) map[string]any {
	t.Helper()
	ctns, _ := podSpec["containers"].([]any)
	if len(ctns) == 0 {
		t.Fatalf("no containers in %v", podSpec)
	}
	return ctns[0].(map[string]any)
}

func TestNewBuilderUnsupportedVersion(t *testing.T) {
	t.Parallel()
	_, err := NewBuilder("1.99")
	if !errors.Is(err, model.ErrUnsupportedVersion) {
		t.Fatalf("NewBuilder(1.99) error = %v, want ErrUnsupportedVersion", err)
	}
}

func TestDeployment(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	cfg := DeploymentConfig{
		Meta: Meta{Name: "web", Labels: map[string]string{"team": "a", LabelAppK8sManagedBy: "me"}},
		PodConfig: PodConfig{Containers: []ContainerConfig{{
			Name:      "web",
			Image:     "nginx:1.27",
			Ports:     []int32{80},
			Env:       map[string]string{"B": "2", "A": "1"},
			Resources: ResourcesConfig{Requests: map[string]string{"cpu": "250m"}, Limits: map[string]string{"memory": "bogus"}},
		}}},
	}
	r := b.Deployment(cfg)

	if r.APIVersion != "apps/v1" || r.Kind != model.KindDeployment {
		t.Errorf("type = %s %s", r.APIVersion, r.Kind)
	}
	if r.Metadata.Namespace != DefaultNamespace {
		t.Errorf("namespace = %q, want %q", r.Metadata.Namespace, DefaultNamespace)
	}
	wantLabels := map[string]string{LabelAppK8sName: "web", LabelAppK8sManagedBy: "me", "team": "a"}
	if diff := cmp.Diff(wantLabels, r.Metadata.Labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if got := nested(t, r.Spec, "replicas"); got != int64(1) {
		t.Errorf("replicas = %v, want 1", got)
	}
	if got := nested(t, r.Spec, "selector", "matchLabels", LabelAppK8sName); got != "web" {
		t.Errorf("selector = %v", got)
	}
	if got := nested(t, r.Spec, "template", "metadata", "labels", "team"); got != "a" {
		t.Errorf("template label team = %v", got)
	}
	c := firstContainer(t, nested(t, r.Spec, "template", "spec").(map[string]any))
	if c["image"] != "nginx:1.27" {
		t.Errorf("image = %v", c["image"])
	}
	env := c["env"].([]any)
	if env[0].(map[string]any)["name"] != "A" {
		t.Errorf("env not sorted: %v", env)
	}
	// Quantities are carried verbatim, even malformed ones.
	if got := nested(t, c, "resources", "limits", "memory"); got != "bogus" {
		t.Errorf("limits.memory = %v", got)
	}
	if _, ok := r.Spec["strategy"]; ok {
		t.Errorf("empty strategy kept: %v", r.Spec["strategy"])
	}
	// The input must not be modified.
	if len(cfg.Labels) != 2 || cfg.Namespace != "" {
		t.Errorf("config mutated: %+v", cfg.Meta)
	}
}

func TestStatefulSetAndDaemonSet(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	pod := PodConfig{Containers: []ContainerConfig{{Name: "db", Image: "postgres:16"}}}
	ss := b.StatefulSet(StatefulSetConfig{
		Meta:         Meta{Name: "db", Namespace: "data"},
		Replicas:     ptr.To(int32(3)),
		VolumeClaims: []VolumeClaimConfig{{Name: "data", Size: "5Gi"}},
		PodConfig:    pod,
	})
	if got := nested(t, ss.Spec, "serviceName"); got != "db-headless" {
		t.Errorf("serviceName = %v", got)
	}
	if got := nested(t, ss.Spec, "replicas"); got != int64(3) {
		t.Errorf("replicas = %v", got)
	}
	claims := nested(t, ss.Spec, "volumeClaimTemplates").([]any)
	if got := nested(t, claims[0].(map[string]any), "spec", "resources", "requests", "storage"); got != "5Gi" {
		t.Errorf("claim storage = %v", got)
	}

	ds := b.DaemonSet(DaemonSetConfig{Meta: Meta{Name: "agent", Namespace: "ops"}, PodConfig: pod})
	if _, ok := ds.Spec["replicas"]; ok {
		t.Error("DaemonSet has replicas")
	}
	if got := nested(t, ds.Spec, "selector", "matchLabels", LabelAppK8sName); got != "agent" {
		t.Errorf("selector = %v", got)
	}
}

func TestJobAndCronJob(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	pod := PodConfig{Containers: []ContainerConfig{{Name: "task", Image: "busybox"}}}
	job := b.Job(JobConfig{Meta: Meta{Name: "once"}, PodConfig: pod})
	if got := nested(t, job.Spec, "backoffLimit"); got != int64(6) {
		t.Errorf("backoffLimit = %v", got)
	}
	if got := nested(t, job.Spec, "template", "spec", "restartPolicy"); got != "OnFailure" {
		t.Errorf("restartPolicy = %v", got)
	}
	cron := b.CronJob(CronJobConfig{Schedule: "*/5 * * * *", JobConfig: JobConfig{Meta: Meta{Name: "tick"}, RestartPolicy: "Never", PodConfig: pod}})
	if cron.APIVersion != "batch/v1" {
		t.Errorf("apiVersion = %s", cron.APIVersion)
	}
	if got := nested(t, cron.Spec, "concurrencyPolicy"); got != "Forbid" {
		t.Errorf("concurrencyPolicy = %v", got)
	}
	if got := nested(t, cron.Spec, "jobTemplate", "spec", "template", "spec", "restartPolicy"); got != "Never" {
		t.Errorf("restartPolicy = %v", got)
	}
}

func TestServiceVariants(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	svc := b.Service(ServiceConfig{Meta: Meta{Name: "web"}, Ports: []ServicePortConfig{{Port: 80}}})
	ports := nested(t, svc.Spec, "ports").([]any)
	p := ports[0].(map[string]any)
	if p["targetPort"] != int64(80) || p["protocol"] != "TCP" {
		t.Errorf("port = %v", p)
	}
	if got := nested(t, svc.Spec, "selector", LabelAppK8sName); got != "web" {
		t.Errorf("selector = %v", got)
	}

	headless := b.Service(ServiceConfig{Meta: Meta{Name: "db"}, Headless: true, Ports: []ServicePortConfig{{Port: 5432}}})
	if got := nested(t, headless.Spec, "clusterIP"); got != "None" {
		t.Errorf("clusterIP = %v", got)
	}

	ext := b.Service(ServiceConfig{Meta: Meta{Name: "mail"}, Type: "ExternalName", ExternalName: "smtp.example.com"})
	if _, ok := ext.Spec["selector"]; ok {
		t.Error("ExternalName service has a selector")
	}
	if got := nested(t, ext.Spec, "externalName"); got != "smtp.example.com" {
		t.Errorf("externalName = %v", got)
	}
}

func TestConfigMapAndSecret(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	cm := b.ConfigMap(ConfigMapConfig{Meta: Meta{Name: "cfg"}, Data: map[string]string{"k": "v"}, BinaryData: map[string][]byte{"bin": {1, 2}}, Immutable: true})
	if cm.Data["k"] != "v" || cm.BinaryData["bin"] != base64.StdEncoding.EncodeToString([]byte{1, 2}) {
		t.Errorf("configmap data = %v / %v", cm.Data, cm.BinaryData)
	}
	if cm.Extra["immutable"] != true {
		t.Errorf("immutable = %v", cm.Extra["immutable"])
	}
	if len(cm.Metadata.Annotations[AnnotationNixContentHash]) != 6 {
		t.Errorf("content hash = %v", cm.Metadata.Annotations)
	}

	sec := b.Secret(SecretConfig{Meta: Meta{Name: "s"}, StringData: map[string]string{"pw": "hunter2"}})
	if sec.Type != "Opaque" {
		t.Errorf("type = %q", sec.Type)
	}
	if sec.Data["pw"] != base64.StdEncoding.EncodeToString([]byte("hunter2")) {
		t.Errorf("data = %v", sec.Data)
	}
}

func TestClusterScopedKindsHaveNoNamespace(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	for _, r := range []model.Resource{
		b.Namespace(NamespaceConfig{Name: "shop", PodSecurity: "restricted"}),
		b.ClusterRole(RoleConfig{Meta: Meta{Name: "reader", Namespace: "ignored"}}),
		b.ClusterRoleBinding(RoleBindingConfig{Meta: Meta{Name: "reader"}, RoleName: "reader", Subjects: []SubjectConfig{{Name: "sa", Namespace: "x"}}}),
		b.PersistentVolume(PersistentVolumeConfig{Name: "pv", Capacity: "1Gi", HostPath: "/data"}),
		b.PriorityClass(PriorityClassConfig{Name: "high", Value: 1000}),
	} {
		if r.Metadata.Namespace != "" {
			t.Errorf("%s namespace = %q, want empty", r.Kind, r.Metadata.Namespace)
		}
	}
	ns := b.Namespace(NamespaceConfig{Name: "shop", PodSecurity: "restricted"})
	if ns.Metadata.Labels["pod-security.kubernetes.io/enforce"] != "restricted" {
		t.Errorf("namespace labels = %v", ns.Metadata.Labels)
	}
}

func TestRBAC(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	role := b.Role(RoleConfig{Meta: Meta{Name: "pods", Namespace: "app"}, Rules: []PolicyRuleConfig{{Resources: []string{"pods"}, Verbs: []string{"get"}}}})
	rules := role.Extra["rules"].([]any)
	if got := rules[0].(map[string]any)["apiGroups"]; !cmp.Equal(got, []any{""}) {
		t.Errorf("apiGroups = %v", got)
	}

	rb := b.RoleBinding(RoleBindingConfig{
		Meta:     Meta{Name: "pods", Namespace: "app"},
		RoleName: "pods",
		Subjects: []SubjectConfig{{Name: "runner"}, {Kind: "User", Name: "alice"}},
	})
	if got := nested(t, rb.Extra, "roleRef", "kind"); got != "Role" {
		t.Errorf("roleRef.kind = %v", got)
	}
	subjects := rb.Extra["subjects"].([]any)
	sa := subjects[0].(map[string]any)
	if sa["kind"] != "ServiceAccount" || sa["namespace"] != "app" {
		t.Errorf("service account subject = %v", sa)
	}
	if user := subjects[1].(map[string]any); user["apiGroup"] != "rbac.authorization.k8s.io" {
		t.Errorf("user subject = %v", user)
	}

	sa2 := b.ServiceAccount(ServiceAccountConfig{Meta: Meta{Name: "bot"}, AutomountServiceAccountToken: ptr.To(false)})
	if sa2.Extra["automountServiceAccountToken"] != false {
		t.Errorf("serviceaccount extra = %v", sa2.Extra)
	}
}

func TestNetworkPolicy(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	deny := b.DefaultDenyNetworkPolicy("shop", nil)
	if got := nested(t, deny.Spec, "podSelector"); !cmp.Equal(got, map[string]any{}) {
		t.Errorf("podSelector = %v", got)
	}
	if got := nested(t, deny.Spec, "policyTypes"); !cmp.Equal(got, []any{"Ingress", "Egress"}) {
		t.Errorf("policyTypes = %v", got)
	}

	np := b.NetworkPolicy(NetworkPolicyConfig{
		Meta:        Meta{Name: "web", Namespace: "shop"},
		PodSelector: map[string]string{"app": "web"},
		Ingress:     []NetworkPolicyPeerRuleConfig{{Namespaces: map[string]string{"team": "edge"}, Ports: []int32{80}}},
		Egress:      []NetworkPolicyPeerRuleConfig{{CIDR: "10.0.0.0/8"}},
	})
	if got := nested(t, np.Spec, "policyTypes"); !cmp.Equal(got, []any{"Ingress", "Egress"}) {
		t.Errorf("policyTypes = %v", got)
	}
	ingress := nested(t, np.Spec, "ingress").([]any)
	from := ingress[0].(map[string]any)["from"].([]any)
	if got := nested(t, from[0].(map[string]any), "namespaceSelector", "matchLabels", "team"); got != "edge" {
		t.Errorf("namespaceSelector = %v", got)
	}
}

func TestIngress(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	ing := b.Ingress(IngressConfig{
		Meta:      Meta{Name: "web", Namespace: "shop"},
		ClassName: "nginx",
		Rules:     []IngressRuleConfig{{Host: "shop.example.com", Paths: []IngressPathConfig{{ServiceName: "web", ServicePort: 80}}}},
		TLS:       []IngressTLSConfig{{Hosts: []string{"shop.example.com"}, SecretName: "tls"}},
	})
	rules := nested(t, ing.Spec, "rules").([]any)
	path := nested(t, rules[0].(map[string]any), "http", "paths").([]any)[0].(map[string]any)
	if path["path"] != "/" || path["pathType"] != "Prefix" {
		t.Errorf("path = %v", path)
	}
	if got := nested(t, path, "backend", "service", "port", "number"); got != int64(80) {
		t.Errorf("backend port = %v", got)
	}
	if got := nested(t, ing.Spec, "ingressClassName"); got != "nginx" {
		t.Errorf("ingressClassName = %v", got)
	}
}

func TestScaling(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	hpa := b.HorizontalPodAutoscaler(HorizontalPodAutoscalerConfig{Meta: Meta{Name: "web"}, TargetName: "web", MaxReplicas: 5})
	if hpa.APIVersion != "autoscaling/v2" {
		t.Errorf("apiVersion = %s", hpa.APIVersion)
	}
	if got := nested(t, hpa.Spec, "scaleTargetRef", "apiVersion"); got != "apps/v1" {
		t.Errorf("scaleTargetRef.apiVersion = %v", got)
	}
	metrics := nested(t, hpa.Spec, "metrics").([]any)
	if got := nested(t, metrics[0].(map[string]any), "resource", "target", "averageUtilization"); got != int64(80) {
		t.Errorf("averageUtilization = %v", got)
	}

	pdb := b.PodDisruptionBudget(PodDisruptionBudgetConfig{Meta: Meta{Name: "web"}, MaxUnavailable: "25%"})
	if got := nested(t, pdb.Spec, "maxUnavailable"); got != "25%" {
		t.Errorf("maxUnavailable = %v", got)
	}
	if _, ok := pdb.Spec["minAvailable"]; ok {
		t.Error("both PDB bounds set")
	}
	def := b.PodDisruptionBudget(PodDisruptionBudgetConfig{Meta: Meta{Name: "web"}})
	if got := nested(t, def.Spec, "minAvailable"); got != int64(1) {
		t.Errorf("minAvailable = %v", got)
	}
}

func TestStorageAndQuota(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	pvc := b.PersistentVolumeClaim(PersistentVolumeClaimConfig{Meta: Meta{Name: "data"}, Size: "1Gi"})
	if got := nested(t, pvc.Spec, "accessModes"); !cmp.Equal(got, []any{"ReadWriteOnce"}) {
		t.Errorf("accessModes = %v", got)
	}
	if got := nested(t, pvc.Spec, "resources", "requests", "storage"); got != "1Gi" {
		t.Errorf("storage = %v", got)
	}
	rq := b.ResourceQuota(ResourceQuotaConfig{Meta: Meta{Name: "q"}, Hard: map[string]string{"pods": "10"}})
	if got := nested(t, rq.Spec, "hard", "pods"); got != "10" {
		t.Errorf("hard.pods = %v", got)
	}
	lr := b.LimitRange(LimitRangeConfig{Meta: Meta{Name: "l"}, Default: map[string]string{"cpu": "500m"}})
	items := nested(t, lr.Spec, "limits").([]any)
	if got := nested(t, items[0].(map[string]any), "default", "cpu"); got != "500m" {
		t.Errorf("default.cpu = %v", got)
	}
}

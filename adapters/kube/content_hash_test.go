package kube

import (
	"testing"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/shift/nixernetes-sub005/domain/model"
	"github.com/shift/nixernetes-sub005/internal/naming"
)

func TestComputeContentHash(t *testing.T) {
	t.Parallel()
	if h := ComputeContentHash(nil, nil); len(h) != 6 {
		t.Errorf("ComputeContentHash(nil) = %q, want 6 hex chars", h)
	}
	if got, want := ComputeContentHash(map[string]string{"k": "v"}, nil), naming.DefaultLengthHash("k=v\x00"); got != want {
		t.Errorf("ComputeContentHash(k=v) = %q, want %q", got, want)
	}
	a := ComputeContentHash(map[string]string{"k1": "v1", "k2": "v2", "k3": "v3"}, nil)
	b := ComputeContentHash(map[string]string{"k3": "v3", "k1": "v1", "k2": "v2"}, nil)
	if a != b {
		t.Errorf("hash depends on key order: %s != %s", a, b)
	}
	if c := ComputeContentHash(map[string]string{"k1": "v1", "k2": "v2", "k3": "changed"}, nil); c == a {
		t.Errorf("hash did not change with content: %s", c)
	}
	// The same bytes as text and as binary data must not collide.
	if ComputeContentHash(map[string]string{"k": "v"}, nil) == ComputeContentHash(nil, map[string][]byte{"k": []byte("v")}) {
		t.Error("text and binary data hash equal")
	}
}

func podTemplateHash(t *testing.T, r model.Resource) (string, bool) {
	t.Helper()
	tmpl := PodTemplateOf(r)
	if tmpl == nil {
		t.Fatalf("PodTemplateOf(%s) = nil", r.Key())
	}
	h, ok, _ := unstructured.NestedString(tmpl, "metadata", "annotations", AnnotationNixContentHash)
	return h, ok
}

func TestWithPodContentHash(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	cm := b.ConfigMap(ConfigMapConfig{Meta: Meta{Name: "cfg", Namespace: "app"}, Data: map[string]string{"A": "1"}})
	sec := b.Secret(SecretConfig{Meta: Meta{Name: "sec", Namespace: "app"}, StringData: map[string]string{"P": "x"}})
	pod := PodConfig{
		Containers: []ContainerConfig{{Name: "web", Image: "nginx", EnvFromConfigs: []string{"cfg"}}},
		Volumes:    []VolumeConfig{{Name: "s", Secret: "sec"}},
	}
	dep := b.Deployment(DeploymentConfig{Meta: Meta{Name: "web", Namespace: "app"}, PodConfig: pod})
	plain := b.Deployment(DeploymentConfig{Meta: Meta{Name: "plain", Namespace: "app"}, PodConfig: PodConfig{Containers: []ContainerConfig{{Name: "c", Image: "busybox"}}}})
	cron := b.CronJob(CronJobConfig{Schedule: "0 * * * *", JobConfig: JobConfig{Meta: Meta{Name: "job", Namespace: "app"}, PodConfig: pod}})

	out := WithPodContentHash([]model.Resource{cm, sec, dep, plain, cron})
	if len(out) != 5 {
		t.Fatalf("len = %d, want 5", len(out))
	}
	h1, ok := podTemplateHash(t, out[2])
	if !ok || len(h1) != 6 {
		t.Fatalf("deployment hash = %q, %v", h1, ok)
	}
	if h, _ := podTemplateHash(t, out[4]); h != h1 {
		t.Errorf("cronjob hash = %q, want %q", h, h1)
	}
	if _, ok := podTemplateHash(t, out[3]); ok {
		t.Error("template without references got a hash")
	}
	if _, ok := podTemplateHash(t, dep); ok {
		t.Error("input resource was mutated")
	}

	cm2 := b.ConfigMap(ConfigMapConfig{Meta: Meta{Name: "cfg", Namespace: "app"}, Data: map[string]string{"A": "2"}})
	out2 := WithPodContentHash([]model.Resource{cm2, sec, dep})
	if h2, _ := podTemplateHash(t, out2[2]); h2 == h1 {
		t.Errorf("hash unchanged after config change: %s", h2)
	}
}

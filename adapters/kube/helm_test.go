package kube

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCoalesceValues(t *testing.T) {
	t.Parallel()
	defaults := HelmValues{
		"replicaCount": int64(1),
		"image":        map[string]any{"repository": "nginx", "tag": "1.25"},
		"service":      map[string]any{"type": "ClusterIP", "port": int64(80)},
	}
	overrides := HelmValues{
		"image":   map[string]any{"tag": "1.27"},
		"ingress": map[string]any{"enabled": true},
	}
	got := CoalesceValues(defaults, overrides)
	want := HelmValues{
		"replicaCount": int64(1),
		"image":        map[string]any{"repository": "nginx", "tag": "1.27"},
		"service":      map[string]any{"type": "ClusterIP", "port": int64(80)},
		"ingress":      map[string]any{"enabled": true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CoalesceValues mismatch (-want +got):\n%s", diff)
	}
	if defaults["image"].(map[string]any)["tag"] != "1.25" {
		t.Error("defaults were modified")
	}
	if _, ok := overrides["service"]; ok {
		t.Error("overrides were modified")
	}
	if got := CoalesceValues(nil, nil); len(got) != 0 {
		t.Errorf("CoalesceValues(nil, nil) = %v", got)
	}
}

func TestHelmValuesYAML(t *testing.T) {
	t.Parallel()
	out, err := HelmValues{"image": map[string]any{"tag": "1.27"}}.YAML()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "tag: \"1.27\"") {
		t.Errorf("YAML() = %q", out)
	}
}

func TestHelmRelease(t *testing.T) {
	t.Parallel()
	b := mustBuilder(t)
	got := b.HelmRelease(HelmReleaseConfig{
		Meta:            Meta{Name: "ingress", Namespace: "flux-system"},
		Chart:           "ingress-nginx",
		Version:         "4.10.0",
		Repository:      "ingress-nginx",
		TargetNamespace: "ingress",
		Defaults:        HelmValues{"controller": map[string]any{"replicaCount": int64(1)}},
		Values:          HelmValues{"controller": map[string]any{"replicaCount": int64(3)}},
	})
	if len(got) != 1 {
		t.Fatalf("got %d resources", len(got))
	}
	r := got[0]
	if r.APIVersion == "" || r.Kind != "HelmRelease" {
		t.Errorf("type = %s %s", r.APIVersion, r.Kind)
	}
	if got := nested(t, r.Spec, "chart", "spec", "sourceRef", "namespace"); got != "flux-system" {
		t.Errorf("sourceRef.namespace = %v", got)
	}
	if got := nested(t, r.Spec, "interval"); got != "10m" {
		t.Errorf("interval = %v", got)
	}
	if got := nested(t, r.Spec, "install", "createNamespace"); got != true {
		t.Errorf("createNamespace = %v", got)
	}
	if got := nested(t, r.Spec, "values", "controller", "replicaCount"); got != int64(3) {
		t.Errorf("replicaCount = %v", got)
	}
}

package nixcfg

import (
	"errors"
	"strings"
	"testing"

	"github.com/shift/nixernetes-sub005/adapters/kube"
	"github.com/shift/nixernetes-sub005/compliance"
	"github.com/shift/nixernetes-sub005/domain/model"
	"k8s.io/utils/ptr"
)

func validApp(name string) kube.WebAppConfig {
	return kube.WebAppConfig{
		Meta: kube.Meta{Name: name, Namespace: "shop"},
		PodConfig: kube.PodConfig{
			Containers: []kube.ContainerConfig{{Name: "web", Image: "nginx:1.27"}},
		},
	}
}

func TestRootValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(r *Root)
		wantErr []string
	}{
		{
			name:   "valid",
			mutate: func(r *Root) {},
		},
		{
			name:    "wrong version",
			mutate:  func(r *Root) { r.Version = "v2" },
			wantErr: []string{`version: must be "v1", got "v2"`},
		},
		{
			name:    "unsupported kubernetes version",
			mutate:  func(r *Root) { r.KubernetesVersion = "1.99" },
			wantErr: []string{"kubernetesVersion:"},
		},
		{
			name:    "unknown environment",
			mutate:  func(r *Root) { r.Environment = "qa" },
			wantErr: []string{"environment:"},
		},
		{
			name:    "bad compliance framework",
			mutate:  func(r *Root) { r.Compliance.Framework = "FOO" },
			wantErr: []string{`compliance: framework "FOO"`},
		},
		{
			name:    "bad namespace name",
			mutate:  func(r *Root) { r.Namespaces = []kube.NamespaceConfig{{Name: "Shop"}} },
			wantErr: []string{"namespaces[0].name:"},
		},
		{
			name: "missing image",
			mutate: func(r *Root) {
				r.Apps[0].Containers[0].Image = ""
			},
			wantErr: []string{"apps[0].containers[0].image: is required"},
		},
		{
			name: "duplicate app",
			mutate: func(r *Root) {
				r.Apps = append(r.Apps, validApp("web"))
			},
			wantErr: []string{`apps[1].name: duplicate app name "web"`},
		},
		{
			name: "replicas out of range",
			mutate: func(r *Root) {
				r.Apps[0].Replicas = ptr.To[int32](101)
			},
			wantErr: []string{"apps[0].replicas: must be between 0 and 100, got 101"},
		},
		{
			name: "unknown kind",
			mutate: func(r *Root) {
				r.Apps[0].Kind = "ReplicaSet"
			},
			wantErr: []string{"apps[0].kind:"},
		},
		{
			name: "no containers",
			mutate: func(r *Root) {
				r.Apps[0].Containers = nil
			},
			wantErr: []string{"apps[0].containers: at least one container is required"},
		},
		{
			name: "ingress without host",
			mutate: func(r *Root) {
				r.Apps[0].Ingress = &kube.WebIngressConfig{Path: "/"}
			},
			wantErr: []string{"apps[0].ingress.host: is required"},
		},
		{
			name: "unknown policy set and action",
			mutate: func(r *Root) {
				r.Policies = []Policy{{Set: "nope", Action: "Block"}}
			},
			wantErr: []string{
				`policies[0].set: unknown policy set "nope"`,
				`policies[0].action: must be Audit or Enforce, got "Block"`,
			},
		},
		{
			name: "environments",
			mutate: func(r *Root) {
				r.Environments = []compliance.EnvironmentConfig{{Name: "dev"}, {Name: "dev"}, {Name: "qa"}}
			},
			wantErr: []string{
				`environments[1].name: duplicate environment "dev"`,
				"environments[2].name:",
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root := Root{Version: Version, Apps: []kube.WebAppConfig{validApp("web")}}
			tt.mutate(&root)
			err := root.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("Validate() error = %q, want substring %q", err.Error(), want)
				}
			}
		})
	}
}

func TestRootValidate_TypedErrors(t *testing.T) {
	root := Root{
		Version:           Version,
		KubernetesVersion: "1.99",
		Environment:       "qa",
		Policies:          []Policy{{Set: "nope"}},
	}
	err := root.Validate()
	if !errors.Is(err, model.ErrUnsupportedVersion) {
		t.Errorf("errors.Is(err, ErrUnsupportedVersion) = false: %v", err)
	}
	if !errors.Is(err, model.ErrUnknownProfile) {
		t.Errorf("errors.Is(err, ErrUnknownProfile) = false: %v", err)
	}
	if !errors.Is(err, model.ErrUnknownPolicySet) {
		t.Errorf("errors.Is(err, ErrUnknownPolicySet) = false: %v", err)
	}
	var uv *model.UnsupportedVersionError
	if !errors.As(err, &uv) || uv.Version != "1.99" {
		t.Errorf("errors.As UnsupportedVersionError = %+v", uv)
	}
}

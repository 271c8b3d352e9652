package kube

import (
	"cmp"

	"helm.sh/helm/v3/pkg/chartutil"

	"github.com/shift/nixernetes-sub005/domain/model"
)

// HelmValues represents Helm chart values as a generic map.
// Keep it simple to interop with Helm SDK (chartutil.Values).
type HelmValues map[string]any

// YAML renders the values the way helm writes a values file.
func (v HelmValues) YAML() (string, error) {
	return chartutil.Values(v).YAML()
}

// CoalesceValues merges defaults under overrides: keys set in overrides win,
// nested tables are merged key by key. Neither input is modified.
func CoalesceValues(defaults, overrides HelmValues) HelmValues {
	dst, _ := model.DeepCopyValue(map[string]any(overrides)).(map[string]any)
	if dst == nil {
		dst = map[string]any{}
	}
	src, _ := model.DeepCopyValue(map[string]any(defaults)).(map[string]any)
	return HelmValues(chartutil.CoalesceTables(dst, src))
}

// HelmReleaseConfig is the input of Builder.HelmRelease.
type HelmReleaseConfig struct {
	Meta    `yaml:",inline"`
	Chart   string `yaml:"chart" json:"chart"`
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
	// Repository names the Flux HelmRepository source; RepositoryNamespace
	// defaults to flux-system.
	Repository          string `yaml:"repository" json:"repository"`
	RepositoryNamespace string `yaml:"repositoryNamespace,omitempty" json:"repositoryNamespace,omitempty"`
	// Interval is the reconcile interval; defaults to 10m.
	Interval        string     `yaml:"interval,omitempty" json:"interval,omitempty"`
	TargetNamespace string     `yaml:"targetNamespace,omitempty" json:"targetNamespace,omitempty"`
	Defaults        HelmValues `yaml:"defaults,omitempty" json:"defaults,omitempty"`
	Values          HelmValues `yaml:"values,omitempty" json:"values,omitempty"`
}

// HelmRelease builds a Flux HelmRelease. Its values are Values coalesced over
// Defaults.
func (b *Builder) HelmRelease(cfg HelmReleaseConfig) []model.Resource {
	r := b.newResource(model.KindHelmRelease, cfg.Meta)
	chart := map[string]any{
		"chart": cfg.Chart,
		"sourceRef": map[string]any{
			"kind":      "HelmRepository",
			"name":      cfg.Repository,
			"namespace": cmp.Or(cfg.RepositoryNamespace, "flux-system"),
		},
	}
	if cfg.Version != "" {
		chart["version"] = cfg.Version
	}
	r.Spec = map[string]any{
		"interval": cmp.Or(cfg.Interval, "10m"),
		"chart":    map[string]any{"spec": chart},
	}
	if cfg.TargetNamespace != "" {
		r.Spec["targetNamespace"] = cfg.TargetNamespace
		r.Spec["install"] = map[string]any{"createNamespace": true}
	}
	if vals := CoalesceValues(cfg.Defaults, cfg.Values); len(vals) > 0 {
		r.Spec["values"] = map[string]any(vals)
	}
	return []model.Resource{r}
}

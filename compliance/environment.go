package compliance

import (
	"fmt"

	"github.com/shift/nixernetes-sub005/adapters/kube"
	"github.com/shift/nixernetes-sub005/domain/model"
	"github.com/shift/nixernetes-sub005/internal/schema"
)

// ApplyEnvironment returns a copy of r carrying the labels and annotations
// of the profile named env.
func ApplyEnvironment(r model.Resource, env string) (model.Resource, error) {
	p, err := GetProfile(env)
	if err != nil {
		return model.Resource{}, err
	}
	return ApplyProfile(r, p), nil
}

// ApplyProfile returns a copy of r carrying the labels and annotations of p.
func ApplyProfile(r model.Resource, p Profile) model.Resource {
	return withAnnotations(WithLabels(r, p.Labels), p.Annotations)
}

// EnvironmentConfig selects one environment of a multi-environment
// deployment.
type EnvironmentConfig struct {
	Name string `yaml:"name" json:"name"`
	// Enabled defaults to true.
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	// Namespace, when set, replaces the namespace of namespaced resources
	// and the name of Namespace resources.
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`
}

// IsEnabled reports whether the environment takes part in the fan-out.
func (e EnvironmentConfig) IsEnabled() bool { return e.Enabled == nil || *e.Enabled }

// MultiEnvironmentConfig is the input of MultiEnvironment.
type MultiEnvironmentConfig struct {
	AppName      string
	Resources    []model.Resource
	Environments []EnvironmentConfig
}

// MultiEnvironment copies the resources once per enabled environment and
// applies that environment's profile to each copy. The result is keyed by
// environment name; disabled environments are absent.
func MultiEnvironment(cfg MultiEnvironmentConfig) (map[string][]model.Resource, error) {
	out := map[string][]model.Resource{}
	for i, env := range cfg.Environments {
		if !env.IsEnabled() {
			continue
		}
		if _, dup := out[env.Name]; dup {
			return nil, fmt.Errorf("environments[%d]: duplicate environment %q", i, env.Name)
		}
		p, err := GetProfile(env.Name)
		if err != nil {
			return nil, fmt.Errorf("environments[%d]: %w", i, err)
		}
		list := make([]model.Resource, 0, len(cfg.Resources))
		namespaces := map[string]bool{}
		for _, r := range cfg.Resources {
			c := r.DeepCopy()
			if env.Namespace != "" {
				switch {
				case c.Kind == model.KindNamespace:
					if namespaces[env.Namespace] {
						continue
					}
					namespaces[env.Namespace] = true
					c.Metadata.Name = env.Namespace
				case schema.IsNamespaced(c.Kind):
					c.Metadata.Namespace = env.Namespace
				}
			}
			if cfg.AppName != "" && c.Metadata.Labels[kube.LabelAppK8sPartOf] == "" {
				c = WithLabels(c, map[string]string{kube.LabelAppK8sPartOf: cfg.AppName})
			}
			list = append(list, ApplyProfile(c, p))
		}
		out[env.Name] = list
	}
	return out, nil
}

package policy

import (
	"fmt"
	"maps"

	"k8s.io/apimachinery/pkg/runtime"

	"github.com/shift/nixernetes-sub005/domain/model"
	"github.com/shift/nixernetes-sub005/internal/schema"
)

// AnnotationDescription carries a policy's description.
const AnnotationDescription = "policies.kyverno.io/description"

// Config is the input of NewClusterPolicy and NewPolicy.
type Config struct {
	Name        string
	Namespace   string
	Description string
	Labels      map[string]string
	Rules       []Rule
	// ValidationFailureAction defaults to Audit.
	ValidationFailureAction Action
}

func newPolicy(kind model.Kind, cfg Config) Policy {
	action := cfg.ValidationFailureAction
	if action == "" {
		action = Audit
	}
	return Policy{
		Kind:        kind,
		Name:        cfg.Name,
		Namespace:   cfg.Namespace,
		Description: cfg.Description,
		Labels:      maps.Clone(cfg.Labels),
		Rules:       append([]Rule(nil), cfg.Rules...),
		Action:      action,
	}
}

// NewClusterPolicy assembles a cluster-wide policy. cfg.Namespace is ignored.
func NewClusterPolicy(cfg Config) Policy {
	cfg.Namespace = ""
	return newPolicy(model.KindClusterPolicy, cfg)
}

// NewPolicy assembles a namespaced policy. The namespace defaults to
// "default".
func NewPolicy(cfg Config) Policy {
	if cfg.Namespace == "" {
		cfg.Namespace = "default"
	}
	return newPolicy(model.KindPolicy, cfg)
}

// Resource renders p as a kyverno.io/v1 document.
func (p Policy) Resource() (model.Resource, error) {
	spec, err := runtime.DefaultUnstructuredConverter.ToUnstructured(&Spec{
		Rules:                   p.Rules,
		ValidationFailureAction: p.Action,
		Background:              p.Background,
	})
	if err != nil {
		return model.Resource{}, fmt.Errorf("policy %s: %w", p.Name, err)
	}
	r := model.Resource{
		APIVersion: schema.KyvernoAPIVersion,
		Kind:       p.Kind,
		Metadata: model.ObjectMeta{
			Name:   p.Name,
			Labels: maps.Clone(p.Labels),
		},
		Spec: spec,
	}
	if p.Kind == model.KindPolicy {
		r.Metadata.Namespace = p.Namespace
	}
	if p.Description != "" {
		r.Metadata.Annotations = map[string]string{AnnotationDescription: p.Description}
	}
	return r, nil
}

// FromResource parses a ClusterPolicy or Policy document.
func FromResource(r model.Resource) (Policy, error) {
	if r.Kind != model.KindClusterPolicy && r.Kind != model.KindPolicy {
		return Policy{}, fmt.Errorf("%w: %s is not a policy", model.ErrInvalidResource, r.Key())
	}
	src := map[string]any{}
	if r.Spec != nil {
		src = model.DeepCopyValue(r.Spec).(map[string]any)
	}
	var spec Spec
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(src, &spec); err != nil {
		return Policy{}, fmt.Errorf("%w: %s: %v", model.ErrInvalidResource, r.Key(), err)
	}
	return Policy{
		Kind:        r.Kind,
		Name:        r.Metadata.Name,
		Namespace:   r.Metadata.Namespace,
		Description: r.Metadata.Annotations[AnnotationDescription],
		Labels:      maps.Clone(r.Metadata.Labels),
		Rules:       spec.Rules,
		Action:      spec.ValidationFailureAction,
		Background:  spec.Background,
	}, nil
}

package kube

import (
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"

	"github.com/shift/nixernetes-sub005/domain/model"
)

// ServiceAccount builds a ServiceAccount.
func (b *Builder) ServiceAccount(cfg ServiceAccountConfig) model.Resource {
	r := b.newResource(model.KindServiceAccount, cfg.Meta)
	sa := corev1.ServiceAccount{AutomountServiceAccountToken: cfg.AutomountServiceAccountToken}
	for _, s := range cfg.ImagePullSecrets {
		sa.ImagePullSecrets = append(sa.ImagePullSecrets, corev1.LocalObjectReference{Name: s})
	}
	body := toMap(&sa)
	delete(body, "metadata")
	if len(body) > 0 {
		r.Extra = body
	}
	return r
}

func policyRules(rules []PolicyRuleConfig) []any {
	out := make([]any, 0, len(rules))
	for _, rc := range rules {
		pr := rbacv1.PolicyRule{
			APIGroups:     append([]string(nil), rc.APIGroups...),
			Resources:     append([]string(nil), rc.Resources...),
			Verbs:         append([]string(nil), rc.Verbs...),
			ResourceNames: append([]string(nil), rc.ResourceNames...),
		}
		if pr.APIGroups == nil {
			pr.APIGroups = []string{""}
		}
		out = append(out, toMap(&pr))
	}
	return out
}

// Role builds a namespaced Role.
func (b *Builder) Role(cfg RoleConfig) model.Resource {
	r := b.newResource(model.KindRole, cfg.Meta)
	r.Extra = map[string]any{"rules": policyRules(cfg.Rules)}
	return r
}

// ClusterRole builds a ClusterRole; any namespace in cfg is ignored.
func (b *Builder) ClusterRole(cfg RoleConfig) model.Resource {
	r := b.newResource(model.KindClusterRole, cfg.Meta)
	r.Extra = map[string]any{"rules": policyRules(cfg.Rules)}
	return r
}

func (b *Builder) binding(kind model.Kind, defaultRoleKind string, cfg RoleBindingConfig) model.Resource {
	r := b.newResource(kind, cfg.Meta)
	roleKind := cfg.RoleKind
	if roleKind == "" {
		roleKind = defaultRoleKind
	}
	ref := rbacv1.RoleRef{APIGroup: rbacv1.GroupName, Kind: roleKind, Name: cfg.RoleName}
	var subjects []any
	for _, s := range cfg.Subjects {
		subj := rbacv1.Subject{Kind: s.Kind, Name: s.Name, Namespace: s.Namespace}
		switch subj.Kind {
		case "", rbacv1.ServiceAccountKind:
			subj.Kind = rbacv1.ServiceAccountKind
			if subj.Namespace == "" {
				subj.Namespace = r.Metadata.Namespace
				if subj.Namespace == "" {
					subj.Namespace = DefaultNamespace
				}
			}
		case rbacv1.UserKind, rbacv1.GroupKind:
			subj.APIGroup = rbacv1.GroupName
		}
		subjects = append(subjects, toMap(&subj))
	}
	r.Extra = map[string]any{"roleRef": toMap(&ref), "subjects": subjects}
	return r
}

// RoleBinding binds a Role (or, with RoleKind, a ClusterRole) to subjects.
// ServiceAccount subjects default to the binding's namespace.
func (b *Builder) RoleBinding(cfg RoleBindingConfig) model.Resource {
	return b.binding(model.KindRoleBinding, "Role", cfg)
}

// ClusterRoleBinding binds a ClusterRole to subjects.
func (b *Builder) ClusterRoleBinding(cfg RoleBindingConfig) model.Resource {
	return b.binding(model.KindClusterRoleBinding, "ClusterRole", cfg)
}

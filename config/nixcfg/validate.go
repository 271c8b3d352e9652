package nixcfg

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shift/nixernetes-sub005/adapters/kube"
	"github.com/shift/nixernetes-sub005/compliance"
	"github.com/shift/nixernetes-sub005/domain/model"
	"github.com/shift/nixernetes-sub005/internal/naming"
	"github.com/shift/nixernetes-sub005/internal/schema"
	"github.com/shift/nixernetes-sub005/policy"
)

// MaxReplicas bounds apps[].replicas.
const MaxReplicas = 100

// Validate performs semantic validation on the configuration tree. Every
// problem is reported, joined into one error.
func (r *Root) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if r.Version != Version {
		add("version: must be %q, got %q", Version, r.Version)
	}
	if r.Name != "" {
		if err := naming.ValidateLabelName(r.Name); err != nil {
			add("name: %w", err)
		}
	}
	if r.KubernetesVersion != "" && !schema.IsSupportedVersion(r.KubernetesVersion) {
		add("kubernetesVersion: %w", &model.UnsupportedVersionError{Version: r.KubernetesVersion, Supported: schema.SupportedVersions()})
	}
	if r.Environment != "" && !compliance.IsProfile(r.Environment) {
		add("environment: %w", &model.UnknownProfileError{Name: r.Environment})
	}
	if err := compliance.ValidateLabels(r.Compliance); err != nil {
		add("compliance: %w", err)
	}

	for i, ns := range r.Namespaces {
		if err := naming.ValidateLabelName(ns.Name); err != nil {
			add("namespaces[%d].name: %w", i, err)
		}
	}
	for i, cm := range r.ConfigMaps {
		if err := naming.ValidateResourceName(cm.Name); err != nil {
			add("configMaps[%d].name: %w", i, err)
		}
	}
	for i, s := range r.Secrets {
		if err := naming.ValidateResourceName(s.Name); err != nil {
			add("secrets[%d].name: %w", i, err)
		}
	}

	errs = append(errs, r.validateApps()...)

	for i, d := range r.Databases {
		if err := naming.ValidateLabelName(d.Name); err != nil {
			add("databases[%d].name: %w", i, err)
		}
		if !slices.Contains(kube.DatabaseEngines(), d.Engine) {
			add("databases[%d].engine: must be one of %s, got %q", i, strings.Join(kube.DatabaseEngines(), ", "), d.Engine)
		}
	}
	for i, b := range r.Brokers {
		if err := naming.ValidateLabelName(b.Name); err != nil {
			add("brokers[%d].name: %w", i, err)
		}
		if !slices.Contains(kube.BrokerEngines(), b.Engine) {
			add("brokers[%d].engine: must be one of %s, got %q", i, strings.Join(kube.BrokerEngines(), ", "), b.Engine)
		}
	}
	for i, j := range r.Jobs {
		if err := naming.ValidateLabelName(j.Name); err != nil {
			add("jobs[%d].name: %w", i, err)
		}
		if len(j.Containers) == 0 {
			add("jobs[%d].containers: at least one container is required", i)
		}
		for k, c := range j.Containers {
			if c.Image == "" {
				add("jobs[%d].containers[%d].image: is required", i, k)
			}
		}
	}
	for i, h := range r.HelmReleases {
		if err := naming.ValidateResourceName(h.Name); err != nil {
			add("helmReleases[%d].name: %w", i, err)
		}
		if h.Chart == "" {
			add("helmReleases[%d].chart: is required", i)
		}
		if h.Repository == "" {
			add("helmReleases[%d].repository: is required", i)
		}
	}

	for i, t := range r.Tenants {
		if err := naming.ValidateLabelName(t.Name); err != nil {
			add("tenants[%d].name: %w", i, err)
		}
	}
	checkNames := func(section string, names []string) {
		for i, n := range names {
			if err := naming.ValidateResourceName(n); err != nil {
				add("%s[%d].name: %w", section, i, err)
			}
		}
	}
	checkNames("registries", metaNames(r.Registries, func(c kube.ContainerRegistryConfig) string { return c.Name }))
	checkNames("runners", metaNames(r.Runners, func(c kube.CIRunnerConfig) string { return c.Name }))
	checkNames("trainingJobs", metaNames(r.TrainingJobs, func(c kube.MLTrainingJobConfig) string { return c.Name }))
	checkNames("meshes", metaNames(r.Meshes, func(c kube.ServiceMeshConfig) string { return c.Name }))
	checkNames("gateways", metaNames(r.Gateways, func(c kube.GatewayConfig) string { return c.Name }))
	checkNames("scheduling", metaNames(r.Scheduling, func(c kube.SchedulingPoliciesConfig) string { return c.Name }))
	for i, c := range r.Runners {
		if c.Image == "" {
			add("runners[%d].image: is required", i)
		}
	}
	for i, j := range r.TrainingJobs {
		if j.Image == "" {
			add("trainingJobs[%d].image: is required", i)
		}
	}
	for i, g := range r.Gateways {
		if g.ClassName == "" {
			add("gateways[%d].className: is required", i)
		}
	}

	for i, p := range r.Policies {
		if !policy.IsSet(p.Set) {
			add("policies[%d].set: %w %q", i, model.ErrUnknownPolicySet, p.Set)
		}
		switch policy.Action(p.Action) {
		case "", policy.Audit, policy.Enforce:
		default:
			add("policies[%d].action: must be %s or %s, got %q", i, policy.Audit, policy.Enforce, p.Action)
		}
		if p.Name != "" {
			if err := naming.ValidateResourceName(p.Name); err != nil {
				add("policies[%d].name: %w", i, err)
			}
		}
	}

	seenEnv := map[string]bool{}
	for i, e := range r.Environments {
		if !compliance.IsProfile(e.Name) {
			add("environments[%d].name: %w", i, &model.UnknownProfileError{Name: e.Name})
		}
		if seenEnv[e.Name] {
			add("environments[%d].name: duplicate environment %q", i, e.Name)
		}
		seenEnv[e.Name] = true
		if e.Namespace != "" {
			if err := naming.ValidateLabelName(e.Namespace); err != nil {
				add("environments[%d].namespace: %w", i, err)
			}
		}
	}
	return errors.Join(errs...)
}

func metaNames[T any](items []T, name func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = name(it)
	}
	return out
}

func (r *Root) validateApps() []error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}
	seen := make(map[string]struct{}, len(r.Apps))
	for i, a := range r.Apps {
		if err := naming.ValidateLabelName(a.Name); err != nil {
			add("apps[%d].name: %w", i, err)
		}
		key := a.Namespace + "/" + a.Name
		if _, exists := seen[key]; exists {
			add("apps[%d].name: duplicate app name %q", i, a.Name)
		}
		seen[key] = struct{}{}
		if a.Namespace != "" {
			if err := naming.ValidateLabelName(a.Namespace); err != nil {
				add("apps[%d].namespace: %w", i, err)
			}
		}
		switch model.Kind(a.Kind) {
		case "", model.KindDeployment, model.KindStatefulSet, model.KindDaemonSet:
		default:
			add("apps[%d].kind: must be Deployment, StatefulSet or DaemonSet, got %q", i, a.Kind)
		}
		if a.Replicas != nil && (*a.Replicas < 0 || *a.Replicas > MaxReplicas) {
			add("apps[%d].replicas: must be between 0 and %d, got %d", i, MaxReplicas, *a.Replicas)
		}
		if len(a.Containers) == 0 {
			add("apps[%d].containers: at least one container is required", i)
		}
		for j, c := range a.Containers {
			if err := naming.ValidateLabelName(c.Name); err != nil {
				add("apps[%d].containers[%d].name: %w", i, j, err)
			}
			if c.Image == "" {
				add("apps[%d].containers[%d].image: is required", i, j)
			}
		}
		for _, msg := range naming.ValidateLabels(a.Labels) {
			add("apps[%d].labels: %s", i, msg)
		}
		if a.Ingress != nil && a.Ingress.Host == "" {
			add("apps[%d].ingress.host: is required", i)
		}
	}
	return errs
}

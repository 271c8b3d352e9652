package manifest

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/shift/nixernetes-sub005/adapters/kube"
	"github.com/shift/nixernetes-sub005/compliance"
	"github.com/shift/nixernetes-sub005/config/nixcfg"
	"github.com/shift/nixernetes-sub005/domain/model"
	"github.com/shift/nixernetes-sub005/internal/logging"
	"github.com/shift/nixernetes-sub005/policy"
	"github.com/shift/nixernetes-sub005/validation"
)

// GenerateInput is the input of Generate.
type GenerateInput struct {
	// Config is the decoded project file.
	Config *nixcfg.Root
	// BaseDir resolves a relative compose path.
	BaseDir string
	// Environment overrides Config.Environment.
	Environment string
	// BuildID overrides Config.BuildID.
	BuildID string
	// PerEnvironment also produces one resource list per enabled entry of
	// Config.Environments.
	PerEnvironment bool
	// ComposeEnv is the interpolation environment of the compose file.
	ComposeEnv map[string]string
}

// ComplianceIssue is a resource that still misses a profile requirement
// after enforcement.
type ComplianceIssue struct {
	Resource string `json:"resource"`
	compliance.CheckResult
}

// GenerateOutput is the result of Generate.
type GenerateOutput struct {
	BuildID string
	// Environment is the applied compliance profile, empty for none.
	Environment string
	// Resources are in apply order.
	Resources []model.Resource
	// Validation reports structural problems of the built resources. It
	// does not fail the call.
	Validation      validation.BatchResult
	NamespaceIssues []*validation.Error
	Compliance      []ComplianceIssue
	// Environments holds the per-environment fan-out keyed by environment
	// name, in apply order.
	Environments map[string][]model.Resource
}

// Generate builds every resource of a project file, then applies content
// hashes, compliance labels, traceability annotations and the environment
// profile, and orders the result for apply.
func (u *UseCase) Generate(ctx context.Context, in *GenerateInput) (*GenerateOutput, error) {
	if in == nil || in.Config == nil {
		return nil, fmt.Errorf("missing project config")
	}
	logger := logging.FromContext(ctx)
	cfg := in.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project file: %w", err)
	}

	resources, err := u.build(ctx, cfg, in)
	if err != nil {
		return nil, err
	}
	resources = kube.WithPodContentHash(resources)

	out := &GenerateOutput{
		BuildID:     u.buildID(in.BuildID, cfg.BuildID),
		Environment: cmp.Or(in.Environment, cfg.Environment),
	}
	out.Validation = validation.ValidateManifests(resources, validation.WithKubernetesVersion(cfg.KubeVersion()))
	out.NamespaceIssues = validation.CheckNamespaceReferences(resources)

	var labels map[string]string
	if cfg.Compliance != (compliance.LabelConfig{}) {
		labels = compliance.Labels(cfg.Compliance)
	}
	if cfg.Name != "" {
		if labels == nil {
			labels = map[string]string{}
		}
		labels[kube.LabelAppK8sPartOf] = cfg.Name
	}
	for i, r := range resources {
		if labels != nil {
			r = compliance.WithLabels(r, labels)
		}
		resources[i] = compliance.WithTraceability(r, out.BuildID, u.generatedBy())
	}

	if out.Environment != "" {
		p, err := compliance.GetProfile(out.Environment)
		if err != nil {
			return nil, err
		}
		out.Resources, out.Compliance = enforceProfile(resources, p, labels)
	} else {
		out.Resources = resources
	}
	out.Resources = kube.OrderResourcesForApply(out.Resources)

	if in.PerEnvironment && len(cfg.Environments) > 0 {
		envs, err := compliance.MultiEnvironment(compliance.MultiEnvironmentConfig{
			AppName:      cfg.Name,
			Resources:    resources,
			Environments: cfg.Environments,
		})
		if err != nil {
			return nil, err
		}
		out.Environments = make(map[string][]model.Resource, len(envs))
		for name, list := range envs {
			p, err := compliance.GetProfile(name)
			if err != nil {
				return nil, err
			}
			enforced, issues := enforceProfile(list, p, labels)
			for _, is := range issues {
				logger.Warn(ctx, "compliance requirement not met", "environment", name, "resource", is.Resource, "missing", is.Missing)
			}
			out.Environments[name] = kube.OrderResourcesForApply(enforced)
		}
	}

	logger.Info(ctx, "generate success",
		"resources", len(out.Resources),
		"buildId", out.BuildID,
		"environment", out.Environment,
		"valid", out.Validation.Valid,
	)
	return out, nil
}

// enforceProfile applies p, then the explicit labels so they override the
// profile defaults, then fills what the profile still requires.
func enforceProfile(resources []model.Resource, p compliance.Profile, labels map[string]string) ([]model.Resource, []ComplianceIssue) {
	out := make([]model.Resource, 0, len(resources))
	var issues []ComplianceIssue
	for _, r := range resources {
		r = compliance.ApplyProfile(r, p)
		if labels != nil {
			r = compliance.WithLabels(r, labels)
		}
		r, res := compliance.EnforceCompliance(r, p)
		if !res.Pass {
			issues = append(issues, ComplianceIssue{Resource: r.Key(), CheckResult: res})
		}
		out = append(out, r)
	}
	return out, issues
}

// build runs the builders over the project file in declaration order.
func (u *UseCase) build(ctx context.Context, cfg *nixcfg.Root, in *GenerateInput) ([]model.Resource, error) {
	b, err := kube.NewBuilder(cfg.KubeVersion())
	if err != nil {
		return nil, err
	}
	var out []model.Resource
	for _, ns := range cfg.Namespaces {
		out = append(out, b.Namespace(ns))
	}
	for _, t := range cfg.Tenants {
		out = append(out, b.Tenant(t)...)
	}
	for i, cm := range cfg.ConfigMaps {
		cm, err := cm.LoadEnvFiles(in.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("configMaps[%d]: %w", i, err)
		}
		out = append(out, b.ConfigMap(cm))
	}
	for i, s := range cfg.Secrets {
		s, err := s.LoadEnvFiles(in.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("secrets[%d]: %w", i, err)
		}
		out = append(out, b.Secret(s))
	}

	apps := cfg.Apps
	if cfg.Compose != "" {
		imported, err := u.composeApps(ctx, cfg, in)
		if err != nil {
			return nil, err
		}
		apps = slices.Concat(apps, imported)
	}
	for i, a := range apps {
		rs, err := b.WebApp(a)
		if err != nil {
			return nil, fmt.Errorf("apps[%d]: %w", i, err)
		}
		out = append(out, rs...)
	}
	for i, d := range cfg.Databases {
		rs, err := b.Database(d)
		if err != nil {
			return nil, fmt.Errorf("databases[%d]: %w", i, err)
		}
		out = append(out, rs...)
	}
	for i, br := range cfg.Brokers {
		rs, err := b.EventBroker(br)
		if err != nil {
			return nil, fmt.Errorf("brokers[%d]: %w", i, err)
		}
		out = append(out, rs...)
	}
	for _, j := range cfg.Jobs {
		out = append(out, b.BatchJob(j)...)
	}
	for _, h := range cfg.HelmReleases {
		out = append(out, b.HelmRelease(h)...)
	}
	for _, reg := range cfg.Registries {
		out = append(out, b.ContainerRegistry(reg)...)
	}
	for _, rn := range cfg.Runners {
		out = append(out, b.CIRunner(rn)...)
	}
	for _, j := range cfg.TrainingJobs {
		out = append(out, b.MLTrainingJob(j)...)
	}
	for _, m := range cfg.Meshes {
		out = append(out, b.ServiceMesh(m)...)
	}
	for _, g := range cfg.Gateways {
		out = append(out, b.Gateway(g)...)
	}
	for _, sp := range cfg.Scheduling {
		out = append(out, b.SchedulingPolicies(sp)...)
	}

	sets := cfg.Policies
	if len(sets) == 0 {
		if env := cmp.Or(in.Environment, cfg.Environment); env != "" {
			p, err := compliance.GetProfile(env)
			if err != nil {
				return nil, err
			}
			sets = profilePolicies(p)
		}
	}
	for i, ps := range sets {
		pol, err := policy.LibraryPolicy(policy.Set(ps.Set), ps.Name, policy.Action(ps.Action), ps.Namespace)
		if err != nil {
			return nil, fmt.Errorf("policies[%d]: %w", i, err)
		}
		r, err := pol.Resource()
		if err != nil {
			return nil, fmt.Errorf("policies[%d]: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// profilePolicies selects the library sets of a profile's level. Strict and
// restricted levels enforce, lower levels audit.
func profilePolicies(p compliance.Profile) []nixcfg.Policy {
	action := policy.Audit
	if compliance.LevelRank(p.Level) >= compliance.LevelRank("strict") {
		action = policy.Enforce
	}
	var out []nixcfg.Policy
	for _, s := range p.PolicySets {
		out = append(out, nixcfg.Policy{Set: string(s), Action: string(action)})
	}
	return out
}

func (u *UseCase) composeApps(ctx context.Context, cfg *nixcfg.Root, in *GenerateInput) ([]kube.WebAppConfig, error) {
	path := cfg.Compose
	if !filepath.IsAbs(path) && in.BaseDir != "" {
		path = filepath.Join(in.BaseDir, path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read compose file %s: %w", path, err)
	}
	var ns string
	if len(cfg.Namespaces) > 0 {
		ns = cfg.Namespaces[0].Name
	}
	out, err := u.Import(ctx, &ImportInput{Filename: path, Content: content, Namespace: ns, Env: in.ComposeEnv})
	if err != nil {
		return nil, err
	}
	return out.Apps, nil
}

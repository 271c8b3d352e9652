package governance

import (
	"context"
	"errors"
	"fmt"

	"github.com/shift/nixernetes-sub005/adapters/kube"
	"github.com/shift/nixernetes-sub005/domain/model"
	"github.com/shift/nixernetes-sub005/internal/logging"
	"github.com/shift/nixernetes-sub005/policy"
)

// CheckPoliciesInput holds the manifests and the policies to evaluate them
// against.
type CheckPoliciesInput struct {
	// Data is one or more YAML or JSON documents. Policy documents found
	// here are used as policies, not checked.
	Data []byte
	// PolicyData holds further ClusterPolicy or Policy documents.
	PolicyData []byte
	// Sets adds library policy sets in Audit mode.
	Sets []policy.Set
}

// PolicyResult is one applied rule against one resource.
type PolicyResult struct {
	Resource string `json:"resource"`
	Policy   string `json:"policy"`
	policy.RuleResult
}

// CheckPoliciesOutput lists the rules that applied to each resource.
type CheckPoliciesOutput struct {
	Policies   int            `json:"policies"`
	Resources  int            `json:"resources"`
	Results    []PolicyResult `json:"results"`
	Violations int            `json:"violations"`
}

// Passed reports whether no applied rule failed.
func (o *CheckPoliciesOutput) Passed() bool { return o.Violations == 0 }

// CheckPolicies evaluates every resource against every policy. Rules that
// do not apply to a resource are left out of the results.
func (u *UseCase) CheckPolicies(ctx context.Context, in *CheckPoliciesInput) (*CheckPoliciesOutput, error) {
	if in == nil {
		return nil, fmt.Errorf("missing input")
	}
	logger := logging.FromContext(ctx)
	docs, err := kube.DecodeManifests(in.Data)
	if err != nil {
		return nil, err
	}
	var policies []policy.Policy
	var resources []model.Resource
	for _, r := range docs {
		if isPolicy(r) {
			p, err := policy.FromResource(r)
			if err != nil {
				return nil, err
			}
			policies = append(policies, p)
			continue
		}
		resources = append(resources, r)
	}
	if len(in.PolicyData) > 0 {
		pdocs, err := kube.DecodeManifests(in.PolicyData)
		if err != nil {
			return nil, fmt.Errorf("policies: %w", err)
		}
		for _, r := range pdocs {
			if !isPolicy(r) {
				logger.Warn(ctx, "skipping non-policy document", "resource", r.Key())
				continue
			}
			p, err := policy.FromResource(r)
			if err != nil {
				return nil, err
			}
			policies = append(policies, p)
		}
	}
	for _, set := range in.Sets {
		p, err := policy.LibraryPolicy(set, "", policy.Audit, "")
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	if len(policies) == 0 {
		return nil, errors.New("no policies to check against")
	}

	out := &CheckPoliciesOutput{Policies: len(policies), Resources: len(resources)}
	for _, r := range resources {
		for _, p := range policies {
			for _, res := range policy.Evaluate(r, p) {
				if !res.Applied {
					continue
				}
				if !res.Passed {
					out.Violations++
				}
				out.Results = append(out.Results, PolicyResult{Resource: r.Key(), Policy: p.Name, RuleResult: res})
			}
		}
	}
	logger.Info(ctx, "policy check done",
		"policies", out.Policies,
		"resources", out.Resources,
		"violations", out.Violations,
	)
	return out, nil
}

func isPolicy(r model.Resource) bool {
	return r.Kind == model.KindClusterPolicy || r.Kind == model.KindPolicy
}

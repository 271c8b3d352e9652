package compliance

import (
	"fmt"

	"github.com/shift/nixernetes-sub005/adapters/kube"
	"github.com/shift/nixernetes-sub005/domain/model"
	"github.com/shift/nixernetes-sub005/policy"
)

// ResourceReport is the compliance outcome of one resource. Policies lists
// the library rules that applied to it, named "set/rule".
type ResourceReport struct {
	Resource  string     `json:"resource"`
	Kind      model.Kind `json:"kind"`
	Name      string     `json:"name"`
	Namespace string     `json:"namespace,omitempty"`
	CheckResult
	Policies []policy.RuleResult `json:"policies,omitempty"`
}

// Report aggregates the compliance of a batch against one profile.
type Report struct {
	Environment string `json:"environment"`
	Framework   string `json:"framework"`
	Level       string `json:"level"`
	Total       int    `json:"total"`
	Passed      int    `json:"passed"`
	Failed      int    `json:"failed"`
	// Missing counts the resources missing each required entry.
	Missing   map[string]int   `json:"missing,omitempty"`
	Resources []ResourceReport `json:"resources"`
}

// Compliant reports whether every resource passed.
func (r Report) Compliant() bool { return r.Failed == 0 }

// GenerateReport checks every resource against p. Workloads are also
// evaluated against the policy sets of the profile; a failed rule fails the
// resource.
func GenerateReport(resources []model.Resource, p Profile) (Report, error) {
	policies := make([]policy.Policy, 0, len(p.PolicySets))
	for _, set := range p.PolicySets {
		pol, err := policy.LibraryPolicy(set, "", policy.Audit, "")
		if err != nil {
			return Report{}, fmt.Errorf("profile %s: %w", p.Name, err)
		}
		policies = append(policies, pol)
	}
	rep := Report{
		Environment: p.Name,
		Framework:   p.Framework,
		Level:       p.Level,
		Total:       len(resources),
		Resources:   make([]ResourceReport, 0, len(resources)),
	}
	for _, r := range resources {
		rr := ResourceReport{
			Resource:    r.Key(),
			Kind:        r.Kind,
			Name:        r.Metadata.Name,
			Namespace:   r.Metadata.Namespace,
			CheckResult: CheckCompliance(r, p),
		}
		if isWorkload(r) {
			for i, pol := range policies {
				for _, res := range policy.Evaluate(r, pol) {
					if !res.Applied {
						continue
					}
					res.Rule = string(p.PolicySets[i]) + "/" + res.Rule
					rr.Policies = append(rr.Policies, res)
					if !res.Passed {
						rr.Pass = false
					}
				}
			}
		}
		for _, m := range rr.Missing {
			if rep.Missing == nil {
				rep.Missing = map[string]int{}
			}
			rep.Missing[m]++
		}
		if rr.Pass {
			rep.Passed++
		} else {
			rep.Failed++
		}
		rep.Resources = append(rep.Resources, rr)
	}
	return rep, nil
}

func isWorkload(r model.Resource) bool {
	return r.Kind == model.KindPod || kube.PodTemplateOf(r) != nil
}

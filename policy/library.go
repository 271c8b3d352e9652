package policy

import (
	"fmt"

	"github.com/shift/nixernetes-sub005/adapters/kube"
	"github.com/shift/nixernetes-sub005/domain/model"
)

// Set names a curated group of rule fragments.
type Set string

const (
	SecurityBaseline Set = "securityBaseline"
	ComplianceSuite  Set = "complianceSuite"
	CostOptimization Set = "costOptimization"
	BestPractices    Set = "bestPractices"
)

var complianceLabelKeys = []string{
	kube.LabelNixFramework,
	kube.LabelNixComplianceLevel,
	kube.LabelNixOwner,
}

var library = map[Set]func() []Rule{
	SecurityBaseline: func() []Rule {
		return []Rule{
			BlockPrivilegedContainers(),
			RequireSecurityContext(),
			DisallowHostNamespaces(),
			DisallowLatestTag(),
		}
	},
	ComplianceSuite: func() []Rule {
		return []Rule{
			RequireLabels(complianceLabelKeys...),
			RequireResourceLimits(),
			GenerateNetworkPolicy(),
		}
	},
	CostOptimization: func() []Rule {
		return []Rule{
			RequireResourceRequests(),
			RequireResourceLimits(),
			LimitCPURequests("4"),
			LimitReplicas(50),
		}
	},
	BestPractices: func() []Rule {
		return []Rule{
			RequireProbes(),
			RequireLabels(kube.LabelAppK8sName),
			AddDefaultLabels(map[string]string{kube.LabelAppK8sManagedBy: kube.ManagedByValue}),
			AddImagePullPolicy(),
		}
	},
}

// Sets returns the library set names in a fixed order.
func Sets() []Set {
	return []Set{SecurityBaseline, ComplianceSuite, CostOptimization, BestPractices}
}

// IsSet reports whether name is a library set.
func IsSet(name string) bool {
	_, ok := library[Set(name)]
	return ok
}

// Library returns a fresh copy of the fragments of set.
func Library(set Set) ([]Rule, error) {
	f, ok := library[set]
	if !ok {
		return nil, fmt.Errorf("%w %q", model.ErrUnknownPolicySet, set)
	}
	return f(), nil
}

// LibraryPolicy assembles the fragments of set into a ClusterPolicy, or a
// Policy when namespace is not empty. name defaults to the set name in
// kebab case.
func LibraryPolicy(set Set, name string, action Action, namespace string) (Policy, error) {
	rules, err := Library(set)
	if err != nil {
		return Policy{}, err
	}
	if name == "" {
		name = kebab(string(set))
	}
	cfg := Config{
		Name:                    name,
		Namespace:               namespace,
		Description:             fmt.Sprintf("nixernetes %s policy set", set),
		Rules:                   rules,
		ValidationFailureAction: action,
	}
	if namespace != "" {
		return NewPolicy(cfg), nil
	}
	return NewClusterPolicy(cfg), nil
}

func kebab(s string) string {
	var out []rune
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				out = append(out, '-')
			}
			r += 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}

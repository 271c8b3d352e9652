package compliance

import (
	"maps"
	"slices"

	"github.com/shift/nixernetes-sub005/adapters/kube"
	"github.com/shift/nixernetes-sub005/domain/model"
	"github.com/shift/nixernetes-sub005/policy"
)

// Profile is the compliance posture of one environment.
type Profile struct {
	Name               string `json:"name"`
	Framework          string `json:"framework"`
	Level              string `json:"level"`
	Owner              string `json:"owner"`
	DataClassification string `json:"dataClassification"`
	// NetworkPolicy and SecurityPolicy name the network isolation mode and
	// the pod security standard of the environment.
	NetworkPolicy  string `json:"networkPolicy"`
	SecurityPolicy string `json:"securityPolicy"`
	// Labels and Annotations are stamped by ApplyEnvironment.
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations,omitempty"`
	// RequiredLabels and RequiredAnnotations map keys to the value the
	// profile demands. An empty value requires presence only.
	RequiredLabels      map[string]string `json:"requiredLabels"`
	RequiredAnnotations map[string]string `json:"requiredAnnotations,omitempty"`
	PolicySets          []policy.Set      `json:"policySets,omitempty"`
}

// LabelConfig returns the label inputs of the profile.
func (p Profile) LabelConfig() LabelConfig {
	return LabelConfig{Framework: p.Framework, Level: p.Level, Owner: p.Owner, DataClassification: p.DataClassification}
}

func (p Profile) clone() Profile {
	p.Labels = maps.Clone(p.Labels)
	p.Annotations = maps.Clone(p.Annotations)
	p.RequiredLabels = maps.Clone(p.RequiredLabels)
	p.RequiredAnnotations = maps.Clone(p.RequiredAnnotations)
	p.PolicySets = slices.Clone(p.PolicySets)
	return p
}

// Network isolation modes and pod security standards used by the profiles.
const (
	NetworkAllowAll          = "allow-all"
	NetworkNamespaceIsolated = "namespace-isolated"
	NetworkDefaultDeny       = "default-deny"

	SecurityPrivileged = "privileged"
	SecurityBaseline   = "baseline"
	SecurityRestricted = "restricted"
)

// levelPolicySets picks the library policy sets evaluated for each level.
var levelPolicySets = map[string][]policy.Set{
	"unrestricted": nil,
	"permissive":   {policy.BestPractices},
	"standard":     {policy.SecurityBaseline, policy.BestPractices},
	"strict":       {policy.SecurityBaseline, policy.ComplianceSuite, policy.CostOptimization, policy.BestPractices},
	"restricted":   {policy.SecurityBaseline, policy.ComplianceSuite, policy.CostOptimization, policy.BestPractices},
}

// PolicySetsForLevel returns the library sets evaluated at level.
func PolicySetsForLevel(level string) []policy.Set {
	return slices.Clone(levelPolicySets[level])
}

func newProfile(name string, lc LabelConfig, network, security string, required, requiredAnn map[string]string) Profile {
	labels := Labels(lc)
	labels[kube.LabelNixEnvironment] = name
	return Profile{
		Name:               name,
		Framework:          lc.Framework,
		Level:              lc.Level,
		Owner:              lc.Owner,
		DataClassification: labels[kube.LabelNixDataClassification],
		NetworkPolicy:      network,
		SecurityPolicy:     security,
		Labels:             labels,
		Annotations: map[string]string{
			kube.AnnotationNixNetworkPolicy:  network,
			kube.AnnotationNixSecurityPolicy: security,
		},
		RequiredLabels:      required,
		RequiredAnnotations: requiredAnn,
		PolicySets:          PolicySetsForLevel(lc.Level),
	}
}

var profiles = map[string]Profile{
	"dev": newProfile("dev",
		LabelConfig{Framework: "SOC2", Level: "permissive", Owner: "platform"},
		NetworkAllowAll, SecurityPrivileged,
		map[string]string{
			kube.LabelNixFramework:       "",
			kube.LabelNixComplianceLevel: "",
		},
		nil,
	),
	"staging": newProfile("staging",
		LabelConfig{Framework: "SOC2", Level: "standard", Owner: "platform"},
		NetworkNamespaceIsolated, SecurityBaseline,
		map[string]string{
			kube.LabelNixFramework:       "",
			kube.LabelNixComplianceLevel: "",
			kube.LabelNixOwner:           "",
			kube.LabelNixEnvironment:     "staging",
		},
		map[string]string{
			kube.AnnotationNixBuildID: "",
		},
	),
	"prod": newProfile("prod",
		LabelConfig{Framework: "SOC2", Level: "strict", Owner: "platform", DataClassification: "confidential"},
		NetworkDefaultDeny, SecurityRestricted,
		map[string]string{
			kube.LabelNixFramework:          "SOC2",
			kube.LabelNixComplianceLevel:    "strict",
			kube.LabelNixOwner:              "",
			kube.LabelNixDataClassification: "",
			kube.LabelNixEnvironment:        "prod",
		},
		map[string]string{
			kube.AnnotationNixBuildID:        "",
			kube.AnnotationNixNetworkPolicy:  NetworkDefaultDeny,
			kube.AnnotationNixSecurityPolicy: SecurityRestricted,
		},
	),
}

var profileAliases = map[string]string{
	"development": "dev",
	"production":  "prod",
}

// Profiles returns the canonical profile names.
func Profiles() []string { return model.SortedKeys(profiles) }

// IsProfile reports whether name or its alias names a profile.
func IsProfile(name string) bool {
	_, err := GetProfile(name)
	return err == nil
}

// GetProfile returns a copy of the profile for the environment name.
func GetProfile(name string) (Profile, error) {
	if canonical, ok := profileAliases[name]; ok {
		name = canonical
	}
	p, ok := profiles[name]
	if !ok {
		return Profile{}, &model.UnknownProfileError{Name: name}
	}
	return p.clone(), nil
}

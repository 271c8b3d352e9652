// Package policy generates Kyverno policies from reusable rule fragments and
// evaluates resources against them without a cluster.
package policy

import (
	"slices"

	"github.com/shift/nixernetes-sub005/domain/model"
)

// Action is the validationFailureAction of a policy.
type Action string

const (
	Audit   Action = "Audit"
	Enforce Action = "Enforce"
)

// Rule is one policy rule fragment. Exactly one of Validate, Mutate and
// Generate is set.
type Rule struct {
	Name     string      `json:"name"`
	Match    Match       `json:"match"`
	Validate *Validation `json:"validate,omitempty"`
	Mutate   *Mutation   `json:"mutate,omitempty"`
	Generate *Generation `json:"generate,omitempty"`
}

// Match selects the resources a rule applies to. A resource matches when
// the legacy Resources description or any entry of Any matches it, or when
// every entry of All does.
type Match struct {
	Any       []ResourceFilter     `json:"any,omitempty"`
	All       []ResourceFilter     `json:"all,omitempty"`
	Resources *ResourceDescription `json:"resources,omitempty"`
}

// ResourceFilter is one entry of match.any or match.all.
type ResourceFilter struct {
	Resources ResourceDescription `json:"resources"`
}

// ResourceDescription filters by kind and, optionally, namespace.
type ResourceDescription struct {
	Kinds      []string `json:"kinds,omitempty"`
	Namespaces []string `json:"namespaces,omitempty"`
}

// Validation checks a resource. Pattern, AnyPattern and CEL are combined:
// every one that is set must pass.
type Validation struct {
	Message    string           `json:"message,omitempty"`
	Pattern    map[string]any   `json:"pattern,omitempty"`
	AnyPattern []map[string]any `json:"anyPattern,omitempty"`
	CEL        *CEL             `json:"cel,omitempty"`
}

// CEL holds expressions evaluated with the resource bound to object.
type CEL struct {
	Expressions []CELExpression `json:"expressions"`
}

// CELExpression must evaluate to true.
type CELExpression struct {
	Expression string `json:"expression"`
	Message    string `json:"message,omitempty"`
}

// Mutation is a strategic merge patch with +() anchors.
type Mutation struct {
	PatchStrategicMerge map[string]any `json:"patchStrategicMerge,omitempty"`
}

// Generation creates a companion resource.
type Generation struct {
	APIVersion  string         `json:"apiVersion"`
	Kind        string         `json:"kind"`
	Name        string         `json:"name"`
	Namespace   string         `json:"namespace,omitempty"`
	Synchronize bool           `json:"synchronize,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// Policy is a Kyverno ClusterPolicy or namespaced Policy.
type Policy struct {
	Kind        model.Kind
	Name        string
	Namespace   string
	Description string
	Labels      map[string]string
	Rules       []Rule
	Action      Action
	Background  *bool
}

// Spec is the serialized spec of a Policy.
type Spec struct {
	Rules                   []Rule `json:"rules"`
	ValidationFailureAction Action `json:"validationFailureAction,omitempty"`
	Background              *bool  `json:"background,omitempty"`
}

// RuleResult is the outcome of one rule against one resource.
type RuleResult struct {
	Rule    string `json:"rule"`
	Applied bool   `json:"applied"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

// Kinds returns the kinds a rule matches, in declaration order.
func (r Rule) Kinds() []string {
	var out []string
	if r.Match.Resources != nil {
		out = append(out, r.Match.Resources.Kinds...)
	}
	for _, f := range slices.Concat(r.Match.Any, r.Match.All) {
		out = append(out, f.Resources.Kinds...)
	}
	return out
}

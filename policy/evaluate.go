package policy

import (
	"fmt"
	"slices"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/shift/nixernetes-sub005/domain/model"
)

// podTemplatePaths locates the pod template of each pod controller. Rules
// written for Pods are applied to these templates.
var podTemplatePaths = map[model.Kind][]string{
	model.KindDeployment:  {"spec", "template"},
	model.KindStatefulSet: {"spec", "template"},
	model.KindDaemonSet:   {"spec", "template"},
	model.KindReplicaSet:  {"spec", "template"},
	model.KindJob:         {"spec", "template"},
	model.KindCronJob:     {"spec", "jobTemplate", "spec", "template"},
}

// Evaluate runs every rule of p against r. Rules that do not apply to r and
// mutate or generate rules pass without being applied.
func Evaluate(r model.Resource, p Policy) []RuleResult {
	obj := r.Object()
	out := make([]RuleResult, 0, len(p.Rules))
	for _, rule := range p.Rules {
		res := RuleResult{Rule: rule.Name, Passed: true}
		doc, ok := target(rule, r, obj)
		switch {
		case !ok:
			res.Message = "not applicable"
		case rule.Validate == nil:
			res.Message = "not a validate rule"
		default:
			res.Applied = true
			res.Passed, res.Message = validateDoc(rule.Validate, doc)
		}
		out = append(out, res)
	}
	return out
}

// ValidateAgainstPolicy reports whether r satisfies every rule of p.
func ValidateAgainstPolicy(r model.Resource, p Policy) bool {
	for _, res := range Evaluate(r, p) {
		if !res.Passed {
			return false
		}
	}
	return true
}

// target returns the document a rule is matched against: the resource
// itself, or the pod template of a pod controller for Pod rules.
func target(rule Rule, r model.Resource, obj map[string]any) (map[string]any, bool) {
	m := rule.Match
	if m.Resources != nil {
		if doc, ok := describes(*m.Resources, r, obj); ok {
			return doc, true
		}
	}
	for _, f := range m.Any {
		if doc, ok := describes(f.Resources, r, obj); ok {
			return doc, true
		}
	}
	if len(m.All) == 0 {
		return nil, false
	}
	var doc map[string]any
	for _, f := range m.All {
		d, ok := describes(f.Resources, r, obj)
		if !ok {
			return nil, false
		}
		if doc == nil {
			doc = d
		}
	}
	return doc, true
}

// describes matches one resource description against r.
func describes(d ResourceDescription, r model.Resource, obj map[string]any) (map[string]any, bool) {
	if len(d.Namespaces) > 0 && !slices.Contains(d.Namespaces, r.Metadata.Namespace) {
		return nil, false
	}
	if slices.Contains(d.Kinds, string(r.Kind)) || slices.Contains(d.Kinds, "*") {
		return obj, true
	}
	if path, ok := podTemplatePaths[r.Kind]; ok && slices.Contains(d.Kinds, string(model.KindPod)) {
		return podDocument(obj, path)
	}
	return nil, false
}

func podDocument(obj map[string]any, path []string) (map[string]any, bool) {
	v, ok, err := unstructured.NestedFieldNoCopy(obj, path...)
	if err != nil || !ok {
		return nil, false
	}
	tmpl, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	doc := map[string]any{"apiVersion": "v1", "kind": string(model.KindPod)}
	if m, ok := tmpl["metadata"]; ok {
		doc["metadata"] = m
	} else {
		doc["metadata"] = map[string]any{}
	}
	if s, ok := tmpl["spec"]; ok {
		doc["spec"] = s
	}
	return doc, true
}

func validateDoc(v *Validation, doc map[string]any) (bool, string) {
	msg := v.Message
	if msg == "" {
		msg = "validation failed"
	}
	if v.Pattern != nil {
		ok, err := MatchPattern(v.Pattern, doc)
		if err != nil {
			return false, fmt.Sprintf("invalid pattern: %v", err)
		}
		if !ok {
			return false, msg
		}
	}
	if len(v.AnyPattern) > 0 {
		matched := false
		for i, ap := range v.AnyPattern {
			ok, err := MatchPattern(ap, doc)
			if err != nil {
				return false, fmt.Sprintf("invalid anyPattern[%d]: %v", i, err)
			}
			if ok {
				matched = true
				break
			}
		}
		if !matched {
			return false, msg
		}
	}
	if v.CEL != nil {
		for _, e := range v.CEL.Expressions {
			ok, err := EvalCEL(e.Expression, doc)
			if err != nil {
				return false, err.Error()
			}
			if !ok {
				if e.Message != "" {
					return false, e.Message
				}
				return false, msg
			}
		}
	}
	return true, ""
}

package compliance

import (
	"cmp"
	"slices"

	"github.com/shift/nixernetes-sub005/domain/model"
	"github.com/shift/nixernetes-sub005/policy"
)

// CheckResult is the outcome of checking one resource against a profile.
// Missing and Mismatched hold field paths such as
// "metadata.labels.nixernetes.io/owner".
type CheckResult struct {
	Pass       bool     `json:"pass"`
	Missing    []string `json:"missing,omitempty"`
	Mismatched []string `json:"mismatched,omitempty"`
}

type requirement struct {
	field string // labels or annotations
	key   string
	value string
}

func (rq requirement) path() string {
	return "metadata." + rq.field + "." + rq.key
}

// pattern requires the key to be present, and to hold the required value
// when exact is set and the requirement names one.
func (rq requirement) pattern(exact bool) policy.Pattern {
	var leaf policy.Pattern = policy.Wildcard{Scalar: true}
	if exact && rq.value != "" {
		leaf = policy.Exact{Value: rq.value}
	}
	return policy.Object{Fields: []policy.Field{{
		Key: "metadata",
		Pattern: policy.Object{Fields: []policy.Field{{
			Key:     rq.field,
			Pattern: policy.Object{Fields: []policy.Field{{Key: rq.key, Pattern: leaf}}},
		}}},
	}}}
}

func requirements(p Profile) []requirement {
	var out []requirement
	for k, v := range p.RequiredLabels {
		out = append(out, requirement{field: "labels", key: k, value: v})
	}
	for k, v := range p.RequiredAnnotations {
		out = append(out, requirement{field: "annotations", key: k, value: v})
	}
	slices.SortFunc(out, func(a, b requirement) int {
		return cmp.Or(cmp.Compare(a.field, b.field), cmp.Compare(a.key, b.key))
	})
	return out
}

// CheckCompliance compares the labels and annotations of r with the
// requirements of p.
func CheckCompliance(r model.Resource, p Profile) CheckResult {
	doc := r.Object()
	res := CheckResult{Pass: true}
	for _, rq := range requirements(p) {
		switch {
		case !policy.MatchValue(rq.pattern(false), doc):
			res.Missing = append(res.Missing, rq.path())
		case !policy.MatchValue(rq.pattern(true), doc):
			res.Mismatched = append(res.Mismatched, rq.path())
		}
	}
	res.Pass = len(res.Missing) == 0 && len(res.Mismatched) == 0
	return res
}

// EnforceCompliance returns a copy of r carrying every required entry of p
// and the check result of that copy. Missing or mismatched entries take the
// required value, or the profile default when the requirement is presence
// only. Entries with neither, such as the build id, stay missing.
func EnforceCompliance(r model.Resource, p Profile) (model.Resource, CheckResult) {
	labels := map[string]string{}
	ann := map[string]string{}
	doc := r.Object()
	for _, rq := range requirements(p) {
		if policy.MatchValue(rq.pattern(true), doc) {
			continue
		}
		switch rq.field {
		case "labels":
			if v := cmp.Or(rq.value, p.Labels[rq.key]); v != "" {
				labels[rq.key] = v
			}
		case "annotations":
			if v := cmp.Or(rq.value, p.Annotations[rq.key]); v != "" {
				ann[rq.key] = v
			}
		}
	}
	out := withAnnotations(WithLabels(r, labels), ann)
	return out, CheckCompliance(out, p)
}

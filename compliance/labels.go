// Package compliance stamps compliance labels and traceability annotations on
// built resources and checks resources against per-environment profiles.
//
// Every function returns new resources; inputs are never modified.
package compliance

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/shift/nixernetes-sub005/adapters/kube"
	"github.com/shift/nixernetes-sub005/domain/model"
)

// DefaultDataClassification is stamped when a label config leaves the data
// classification empty.
const DefaultDataClassification = "internal"

var frameworks = []string{"PCI-DSS", "HIPAA", "SOC2", "ISO27001", "GDPR", "NIST"}

// levels are ordered from least to most strict.
var levels = []string{"unrestricted", "permissive", "standard", "strict", "restricted"}

// Frameworks returns the recognized compliance frameworks.
func Frameworks() []string { return slices.Clone(frameworks) }

// Levels returns the compliance levels from least to most strict.
func Levels() []string { return slices.Clone(levels) }

// LevelRank returns the position of level in Levels, or -1.
func LevelRank(level string) int { return slices.Index(levels, level) }

// LabelConfig is the input of Labels and EnforcedLabels.
type LabelConfig struct {
	Framework          string `yaml:"framework,omitempty" json:"framework,omitempty"`
	Level              string `yaml:"level,omitempty" json:"level,omitempty"`
	Owner              string `yaml:"owner,omitempty" json:"owner,omitempty"`
	DataClassification string `yaml:"dataClassification,omitempty" json:"dataClassification,omitempty"`
}

// ValidateLabels checks the framework and level against the recognized
// values and every value against the Kubernetes label value syntax. Empty
// fields are accepted.
func ValidateLabels(cfg LabelConfig) error {
	var errs []error
	if cfg.Framework != "" && !slices.Contains(frameworks, cfg.Framework) {
		errs = append(errs, fmt.Errorf("framework %q is not one of %s", cfg.Framework, strings.Join(frameworks, ", ")))
	}
	if cfg.Level != "" && LevelRank(cfg.Level) < 0 {
		errs = append(errs, fmt.Errorf("level %q is not one of %s", cfg.Level, strings.Join(levels, ", ")))
	}
	for _, f := range []struct{ name, value string }{
		{"owner", cfg.Owner},
		{"dataClassification", cfg.DataClassification},
	} {
		if msgs := validation.IsValidLabelValue(f.value); len(msgs) > 0 {
			errs = append(errs, fmt.Errorf("%s %q: %s", f.name, f.value, strings.Join(msgs, "; ")))
		}
	}
	return errors.Join(errs...)
}

// Labels returns the canonical compliance label set. Empty fields are left
// out, except the data classification which defaults to
// DefaultDataClassification.
func Labels(cfg LabelConfig) map[string]string {
	out := map[string]string{}
	if cfg.Framework != "" {
		out[kube.LabelNixFramework] = cfg.Framework
	}
	if cfg.Level != "" {
		out[kube.LabelNixComplianceLevel] = cfg.Level
	}
	if cfg.Owner != "" {
		out[kube.LabelNixOwner] = cfg.Owner
	}
	out[kube.LabelNixDataClassification] = cmp.Or(cfg.DataClassification, DefaultDataClassification)
	return out
}

// EnforcedLabels is Labels for profiles that mandate strict compliance: an
// empty level becomes "strict".
func EnforcedLabels(cfg LabelConfig) map[string]string {
	cfg.Level = cmp.Or(cfg.Level, "strict")
	return Labels(cfg)
}

// WithLabels returns a copy of r whose labels are the union of its labels and
// labels, with labels winning on conflict. Workload pod templates receive
// the same labels, except keys used by the workload selector.
func WithLabels(r model.Resource, labels map[string]string) model.Resource {
	out := r.DeepCopy()
	if len(labels) == 0 {
		return out
	}
	out.Metadata.Labels = union(out.Metadata.Labels, labels)
	tmpl := kube.PodTemplateOf(out)
	if tmpl == nil {
		return out
	}
	sel := selectorLabels(out)
	tl := nestedStringAnyMap(tmpl, "metadata", "labels")
	for k, v := range labels {
		if _, ok := sel[k]; ok {
			continue
		}
		tl[k] = v
	}
	return out
}

// WithTraceability returns a copy of r annotated with the build id and, when
// generatedBy is not empty, the generator name.
func WithTraceability(r model.Resource, buildID, generatedBy string) model.Resource {
	ann := map[string]string{kube.AnnotationNixBuildID: buildID}
	if generatedBy != "" {
		ann[kube.AnnotationNixGeneratedBy] = generatedBy
	}
	return withAnnotations(r, ann)
}

func withAnnotations(r model.Resource, ann map[string]string) model.Resource {
	out := r.DeepCopy()
	if len(ann) > 0 {
		out.Metadata.Annotations = union(out.Metadata.Annotations, ann)
	}
	return out
}

func union(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	maps.Copy(out, base)
	maps.Copy(out, over)
	return out
}

func selectorLabels(r model.Resource) map[string]any {
	sel, _ := r.Spec["selector"].(map[string]any)
	ml, _ := sel["matchLabels"].(map[string]any)
	return ml
}

// nestedStringAnyMap walks path in m, creating missing maps.
func nestedStringAnyMap(m map[string]any, path ...string) map[string]any {
	cur := m
	for _, p := range path {
		next, _ := cur[p].(map[string]any)
		if next == nil {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
	return cur
}

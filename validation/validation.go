// Package validation checks resource documents for structural completeness
// before they are rendered or applied.
//
// Problems are returned as data: a Result lists every error found and
// validators never stop at the first one.
package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shift/nixernetes-sub005/domain/model"
	"github.com/shift/nixernetes-sub005/internal/schema"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// AtLeast reports whether s ranks at or above o.
func (s Severity) AtLeast(o Severity) bool {
	return severityRank[s] >= severityRank[o]
}

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityError:    2,
	SeverityCritical: 3,
}

// Code classifies a finding.
type Code string

const (
	CodeRequired            Code = "V001"
	CodeInvalidType         Code = "V002"
	CodeInvalidValue        Code = "V003"
	CodeUnsupportedKind     Code = "V004"
	CodeAPIVersion          Code = "V005"
	CodeSchema              Code = "V006"
	CodeUndeclaredNamespace Code = "V007"
)

// Error is one problem found in a manifest.
type Error struct {
	// Index is the 1-based position of the manifest in a batch, 0 when the
	// manifest was validated on its own.
	Index int        `json:"index,omitempty"`
	Kind  model.Kind `json:"kind,omitempty"`
	Name  string     `json:"name,omitempty"`
	// Field is the dotted path of the offending field, empty for problems
	// that concern the whole document.
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	// Suggestion is a hint for fixing the problem.
	Suggestion string `json:"suggestion,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Index > 0 {
		name := e.Name
		if name == "" {
			name = "<unnamed>"
		}
		return fmt.Sprintf("manifest %d %s/%s: %s", e.Index, e.Kind, name, msg)
	}
	return msg
}

func suggest(code Code, field string) string {
	switch code {
	case CodeRequired:
		if field == "" {
			return ""
		}
		return "set " + field
	case CodeInvalidType:
		return "check the YAML type of " + field + " against the Kubernetes API reference"
	case CodeInvalidValue:
		if field == "metadata.namespace" || strings.HasSuffix(field, ".name") {
			return "use lowercase alphanumerics and '-', starting and ending with an alphanumeric"
		}
		return "correct the value of " + field
	case CodeUnsupportedKind:
		return "run 'nixernetes schema kinds' to list the supported kinds"
	case CodeAPIVersion:
		return "run 'nixernetes schema kinds --kubernetes-version <version>' to see the served apiVersion"
	case CodeSchema:
		return "remove unknown fields and check field types"
	}
	return ""
}

// Result is the outcome of validating one manifest.
type Result struct {
	Valid  bool
	Errors []*Error
}

// BatchResult is the outcome of validating a list of manifests. Valid holds
// only if every manifest passed.
type BatchResult struct {
	Valid  bool
	Errors []*Error
	Count  int
}

// HasErrors returns true if there are any validation errors.
func (r *BatchResult) HasErrors() bool {
	return len(r.Errors) > 0
}

type options struct {
	version string
}

// Option tunes validation.
type Option func(*options)

// WithKubernetesVersion pins the apiVersion check to the version served by
// the given Kubernetes release. Without it any apiVersion served by some
// supported release is accepted.
func WithKubernetesVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// SupportedKinds returns every kind the engine knows, sorted.
func SupportedKinds() []model.Kind { return schema.SupportedKinds() }

// IsKindSupported reports whether kind has a schema mapping.
func IsKindSupported(kind model.Kind) bool { return schema.IsKindSupported(kind) }

// ValidateManifestStrict checks r and reports every problem found.
func ValidateManifestStrict(r model.Resource, opts ...Option) Result {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	errs := validate(r, o)
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// ValidateManifests validates every manifest in resources. Errors carry the
// 1-based index, kind and name of the manifest they belong to.
func ValidateManifests(resources []model.Resource, opts ...Option) BatchResult {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	out := BatchResult{Valid: true, Count: len(resources)}
	for i, r := range resources {
		errs := validate(r, o)
		if len(errs) == 0 {
			continue
		}
		out.Valid = false
		for _, e := range errs {
			e.Index = i + 1
			out.Errors = append(out.Errors, e)
		}
	}
	return out
}

func validate(r model.Resource, o options) []*Error {
	c := newChecker(r)
	if r.APIVersion == "" {
		c.add(CodeRequired, SeverityCritical, "apiVersion", "is required")
	}
	if r.Kind == "" {
		c.add(CodeRequired, SeverityCritical, "kind", "is required")
	}
	c.metadata()
	if r.Kind == "" {
		return c.errs
	}
	if !schema.IsKindSupported(r.Kind) {
		c.add(CodeUnsupportedKind, SeverityCritical, "kind", "unsupported kind %q", r.Kind)
		return c.errs
	}
	apiOK := r.APIVersion != "" && c.apiVersion(o.version)
	if rule, ok := kindRules[r.Kind]; ok {
		rule(c)
	}
	if apiOK && schema.IsBuiltin(r.Kind) {
		if err := strictDecode(c.obj, r.APIVersion, r.Kind); err != nil {
			c.add(CodeSchema, SeverityError, "", "%v", err)
		}
	}
	return c.errs
}

func (c *checker) apiVersion(version string) bool {
	r := c.r
	if version != "" {
		want, err := schema.ResolveAPIVersion(r.Kind, version)
		if err != nil {
			c.add(CodeAPIVersion, SeverityError, "apiVersion", "%v", err)
			return false
		}
		if r.APIVersion != want {
			c.add(CodeAPIVersion, SeverityError, "apiVersion", "%q does not match %q served by kubernetes %s", r.APIVersion, want, version)
			return false
		}
		return true
	}
	known := schema.KnownAPIVersions(r.Kind)
	if !slices.Contains(known, r.APIVersion) {
		c.add(CodeAPIVersion, SeverityError, "apiVersion", "%q is not served for %s (known: %s)", r.APIVersion, r.Kind, strings.Join(known, ", "))
		return false
	}
	return true
}

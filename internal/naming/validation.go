package naming

import (
	"fmt"
	"strings"

	utilvalidation "k8s.io/apimachinery/pkg/util/validation"
)

// ValidateResourceName checks name as a DNS-1123 subdomain, the rule most
// kinds apply to metadata.name.
func ValidateResourceName(name string) error {
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if errs := utilvalidation.IsDNS1123Subdomain(name); len(errs) > 0 {
		return fmt.Errorf("invalid name %q: %s", name, strings.Join(errs, ", "))
	}
	return nil
}

// ValidateLabelName checks name as a DNS-1123 label, the rule for
// Namespaces, Services and container names.
func ValidateLabelName(name string) error {
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if errs := utilvalidation.IsDNS1123Label(name); len(errs) > 0 {
		return fmt.Errorf("invalid name %q: %s", name, strings.Join(errs, ", "))
	}
	return nil
}

// ValidateLabels checks label keys and values and returns one message per
// problem, in key order.
func ValidateLabels(labels map[string]string) []string {
	var out []string
	for _, k := range sortedKeys(labels) {
		for _, e := range utilvalidation.IsQualifiedName(k) {
			out = append(out, fmt.Sprintf("label key %q: %s", k, e))
		}
		for _, e := range utilvalidation.IsValidLabelValue(labels[k]) {
			out = append(out, fmt.Sprintf("label %q value %q: %s", k, labels[k], e))
		}
	}
	return out
}

// ValidateAnnotationKeys checks annotation keys only; values are free form.
func ValidateAnnotationKeys(annotations map[string]string) []string {
	var out []string
	for _, k := range sortedKeys(annotations) {
		for _, e := range utilvalidation.IsQualifiedName(strings.ToLower(k)) {
			out = append(out, fmt.Sprintf("annotation key %q: %s", k, e))
		}
	}
	return out
}

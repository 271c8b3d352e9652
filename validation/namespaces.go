package validation

import (
	"fmt"
	"strings"

	"github.com/shift/nixernetes-sub005/domain/model"
	"github.com/shift/nixernetes-sub005/internal/schema"
)

// CheckNamespaceReferences reports namespaced resources placed in a namespace
// that is neither "default", a kube-* system namespace, nor declared by a
// Namespace in the same batch. A resource without a namespace lands in
// "default" and is never reported. Findings are warnings: the namespace may
// already exist in the cluster.
func CheckNamespaceReferences(resources []model.Resource) []*Error {
	declared := map[string]bool{"default": true}
	for _, r := range resources {
		if r.Kind == model.KindNamespace && r.Metadata.Name != "" {
			declared[r.Metadata.Name] = true
		}
	}
	var out []*Error
	for i, r := range resources {
		ns := r.Metadata.Namespace
		if ns == "" || !schema.IsNamespaced(r.Kind) || declared[ns] || strings.HasPrefix(ns, "kube-") {
			continue
		}
		out = append(out, &Error{
			Index:      i + 1,
			Kind:       r.Kind,
			Name:       r.Metadata.Name,
			Field:      "metadata.namespace",
			Message:    fmt.Sprintf("namespace %q is not declared in this batch", ns),
			Severity:   SeverityWarning,
			Code:       CodeUndeclaredNamespace,
			Suggestion: fmt.Sprintf("add a Namespace %q to the batch or create it before applying", ns),
		})
	}
	return out
}

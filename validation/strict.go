package validation

import (
	"k8s.io/apimachinery/pkg/runtime"
	k8sschema "k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/kubernetes/scheme"

	"github.com/shift/nixernetes-sub005/domain/model"
)

// strictDecode decodes obj into the typed object registered for its
// group/version/kind. Unknown fields and type mismatches are errors. Kinds
// the client-go scheme does not know are skipped.
func strictDecode(obj map[string]any, apiVersion string, kind model.Kind) error {
	gvk := k8sschema.FromAPIVersionAndKind(apiVersion, string(kind))
	typed, err := scheme.Scheme.New(gvk)
	if err != nil {
		return nil
	}
	return runtime.DefaultUnstructuredConverter.FromUnstructuredWithValidation(obj, typed, true)
}

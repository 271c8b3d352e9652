package manifest

import (
	"context"
	"fmt"

	"github.com/shift/nixernetes-sub005/adapters/kube"
	"github.com/shift/nixernetes-sub005/internal/logging"
	"github.com/shift/nixernetes-sub005/validation"
)

// ValidateInput holds the manifests to validate.
type ValidateInput struct {
	// Data is one or more YAML or JSON documents.
	Data []byte
	// KubernetesVersion pins the accepted apiVersions. Empty accepts any
	// supported release.
	KubernetesVersion string
}

// ValidateOutput reports every problem found.
type ValidateOutput struct {
	Result          validation.BatchResult
	NamespaceIssues []*validation.Error
	// OrderIssues are warnings: the manifests apply in the wrong order.
	OrderIssues []string
}

// Valid reports whether no manifest has a structural problem and no
// namespace finding is an error. Namespace warnings do not count.
func (o *ValidateOutput) Valid() bool {
	if !o.Result.Valid {
		return false
	}
	for _, e := range o.NamespaceIssues {
		if e.Severity.AtLeast(validation.SeverityError) {
			return false
		}
	}
	return true
}

// Validate decodes manifests and checks their structure, their namespace
// references and their apply order.
func (u *UseCase) Validate(ctx context.Context, in *ValidateInput) (*ValidateOutput, error) {
	if in == nil {
		return nil, fmt.Errorf("missing input")
	}
	resources, err := kube.DecodeManifests(in.Data)
	if err != nil {
		return nil, err
	}
	var opts []validation.Option
	if in.KubernetesVersion != "" {
		opts = append(opts, validation.WithKubernetesVersion(in.KubernetesVersion))
	}
	out := &ValidateOutput{
		Result:          validation.ValidateManifests(resources, opts...),
		NamespaceIssues: validation.CheckNamespaceReferences(resources),
		OrderIssues:     kube.CheckApplyOrder(resources),
	}
	logging.FromContext(ctx).Info(ctx, "validate done",
		"manifests", out.Result.Count,
		"errors", len(out.Result.Errors),
		"namespaceIssues", len(out.NamespaceIssues),
		"orderIssues", len(out.OrderIssues),
	)
	return out, nil
}

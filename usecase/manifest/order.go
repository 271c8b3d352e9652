package manifest

import (
	"context"
	"fmt"

	"github.com/shift/nixernetes-sub005/adapters/kube"
	"github.com/shift/nixernetes-sub005/domain/model"
	"github.com/shift/nixernetes-sub005/internal/logging"
)

// OrderInput holds the manifests to reorder.
type OrderInput struct {
	Data []byte
}

// OrderOutput holds the manifests in apply order.
type OrderOutput struct {
	Resources []model.Resource
	// Violations counts the adjacent input pairs that were out of order.
	Violations int
}

// Order sorts manifests by apply tier, keeping the input order within a
// tier.
func (u *UseCase) Order(ctx context.Context, in *OrderInput) (*OrderOutput, error) {
	if in == nil {
		return nil, fmt.Errorf("missing input")
	}
	resources, err := kube.DecodeManifests(in.Data)
	if err != nil {
		return nil, err
	}
	out := &OrderOutput{
		Resources:  kube.OrderResourcesForApply(resources),
		Violations: len(kube.CheckApplyOrder(resources)),
	}
	logging.FromContext(ctx).Debug(ctx, "order done", "manifests", len(out.Resources), "violations", out.Violations)
	return out, nil
}

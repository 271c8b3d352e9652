package governance

import (
	"context"
	"errors"
	"fmt"

	"github.com/shift/nixernetes-sub005/domain/model"
	"github.com/shift/nixernetes-sub005/internal/logging"
	"github.com/shift/nixernetes-sub005/policy"
)

// PoliciesInput selects library policy sets to emit.
type PoliciesInput struct {
	// Sets defaults to every library set.
	Sets []policy.Set
	// Name overrides the policy name; only valid with a single set.
	Name string
	// Action defaults to Audit.
	Action policy.Action
	// Namespace, when set, emits namespaced Policies.
	Namespace string
}

// PoliciesOutput holds one policy document per set.
type PoliciesOutput struct {
	Resources []model.Resource
}

// Policies renders library policy sets as Kyverno documents.
func (u *UseCase) Policies(ctx context.Context, in *PoliciesInput) (*PoliciesOutput, error) {
	if in == nil {
		in = &PoliciesInput{}
	}
	sets := in.Sets
	if len(sets) == 0 {
		sets = policy.Sets()
	}
	if in.Name != "" && len(sets) > 1 {
		return nil, errors.New("a policy name needs exactly one set")
	}
	switch in.Action {
	case "", policy.Audit, policy.Enforce:
	default:
		return nil, fmt.Errorf("action must be %s or %s, got %q", policy.Audit, policy.Enforce, in.Action)
	}
	out := &PoliciesOutput{}
	for _, set := range sets {
		p, err := policy.LibraryPolicy(set, in.Name, in.Action, in.Namespace)
		if err != nil {
			return nil, err
		}
		r, err := p.Resource()
		if err != nil {
			return nil, err
		}
		out.Resources = append(out.Resources, r)
	}
	logging.FromContext(ctx).Debug(ctx, "policies generated", "sets", len(sets))
	return out, nil
}

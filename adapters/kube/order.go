package kube

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/shift/nixernetes-sub005/domain/model"
)

// applyTiers is the apply precedence by kind: namespaces first, then RBAC and
// configuration, workloads, services, and finally policies and routing.
var applyTiers = map[model.Kind]int{
	model.KindNamespace: 0,

	model.KindRole:               1,
	model.KindRoleBinding:        1,
	model.KindServiceAccount:     1,
	model.KindClusterRole:        1,
	model.KindClusterRoleBinding: 1,
	model.KindConfigMap:          1,
	model.KindSecret:             1,

	model.KindDeployment:  2,
	model.KindStatefulSet: 2,
	model.KindDaemonSet:   2,
	model.KindJob:         2,
	model.KindCronJob:     2,

	model.KindService: 3,

	model.KindNetworkPolicy: 4,
	model.KindIngress:       4,
}

// MaxApplyTier is the tier of NetworkPolicy and Ingress, also given to every
// kind missing from the table.
const MaxApplyTier = 4

// ApplyTier returns the apply tier of kind.
func ApplyTier(kind model.Kind) int {
	if t, ok := applyTiers[kind]; ok {
		return t
	}
	return MaxApplyTier
}

// OrderResourcesForApply returns a copy of resources stably sorted by apply
// tier. Resources of the same tier keep their input order.
func OrderResourcesForApply(resources []model.Resource) []model.Resource {
	out := slices.Clone(resources)
	slices.SortStableFunc(out, func(a, b model.Resource) int {
		return cmp.Compare(ApplyTier(a.Kind), ApplyTier(b.Kind))
	})
	return out
}

// CheckApplyOrder reports each adjacent pair whose tiers decrease.
func CheckApplyOrder(resources []model.Resource) []string {
	var issues []string
	for i := 1; i < len(resources); i++ {
		prev, cur := resources[i-1], resources[i]
		if ApplyTier(cur.Kind) < ApplyTier(prev.Kind) {
			issues = append(issues, fmt.Sprintf("%s (index %d) must be applied before %s (index %d)", cur.Key(), i, prev.Key(), i-1))
		}
	}
	return issues
}

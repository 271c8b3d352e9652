// Package quantity converts Kubernetes quantity strings into the units the
// cost model prices in.
package quantity

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/shift/nixernetes-sub005/domain/model"
)

const bytesPerGB = 1 << 30

// ParseCPU returns the number of cores in s ("2", "0.5", "500m").
func ParseCPU(s string) (float64, error) {
	q, err := parse("cpu", s)
	if err != nil {
		return 0, err
	}
	return float64(q.MilliValue()) / 1000, nil
}

// ParseMemoryGB returns s in GB, counting 1Gi as one GB ("512Mi" is 0.5).
func ParseMemoryGB(s string) (float64, error) {
	q, err := parse("memory", s)
	if err != nil {
		return 0, err
	}
	return q.AsApproximateFloat64() / bytesPerGB, nil
}

// Parse returns the quantity in s. It is exported for comparisons that do
// not care about units, such as policy relational operators.
func Parse(s string) (resource.Quantity, error) {
	return parse("quantity", s)
}

func parse(field, s string) (resource.Quantity, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return resource.Quantity{}, &model.InvalidResourceQuantityError{Field: field, Value: s, Err: fmt.Errorf("empty quantity")}
	}
	q, err := resource.ParseQuantity(trimmed)
	if err != nil {
		return resource.Quantity{}, &model.InvalidResourceQuantityError{Field: field, Value: s, Err: err}
	}
	if q.Sign() < 0 {
		return resource.Quantity{}, &model.InvalidResourceQuantityError{Field: field, Value: s, Err: fmt.Errorf("negative quantity")}
	}
	return q, nil
}

// FromBytes renders a byte count with the largest exact binary suffix.
func FromBytes(b int64) string {
	const (
		Ki = 1024
		Mi = Ki * 1024
		Gi = Mi * 1024
		Ti = Gi * 1024
	)
	switch {
	case b >= Ti && b%Ti == 0:
		return fmt.Sprintf("%dTi", b/Ti)
	case b >= Gi && b%Gi == 0:
		return fmt.Sprintf("%dGi", b/Gi)
	case b >= Mi && b%Mi == 0:
		return fmt.Sprintf("%dMi", b/Mi)
	case b >= Ki && b%Ki == 0:
		return fmt.Sprintf("%dKi", b/Ki)
	default:
		return fmt.Sprintf("%d", b)
	}
}

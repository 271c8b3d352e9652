package cost

import (
	"fmt"

	"github.com/shift/nixernetes-sub005/internal/quantity"
)

// RecommendationType classifies a Recommendation.
type RecommendationType string

const (
	CPUOversizing RecommendationType = "cpu_oversizing"
	MissingLimit  RecommendationType = "missing_limit"
	TightLimits   RecommendationType = "tight_limits"
)

// Severity of a Recommendation.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
)

const (
	// CPUHighWater is the CPU request in cores above which a container is
	// considered oversized.
	CPUHighWater = 2.0
	// MinLimitRatio is the smallest limit/request ratio that leaves headroom.
	MinLimitRatio = 1.1
	// savingsHoursPerMonth is the month length used for savings estimates.
	savingsHoursPerMonth = 730
)

// Recommendation is one sizing finding for a container.
type Recommendation struct {
	Type     RecommendationType `json:"type"`
	Target   string             `json:"target"`
	Severity string             `json:"severity"`
	Reason   string             `json:"reason"`
	Action   string             `json:"action"`
	// EstimatedMonthlySavings is in USD at AWS rates.
	EstimatedMonthlySavings float64 `json:"estimatedMonthlySavings,omitempty"`
}

// Recommendations scans the containers of ws. Quantities that do not parse
// are skipped; Summary reports them.
func Recommendations(ws []Workload) []Recommendation {
	var out []Recommendation
	awsCPU := defaultPricing[AWS].CPUPerCoreHour
	for _, w := range ws {
		for _, c := range w.Containers {
			target := w.Key() + "/" + c.Name
			cpu, cpuErr := quantity.ParseCPU(c.Requests["cpu"])
			if cpuErr == nil && cpu > CPUHighWater {
				out = append(out, Recommendation{
					Type:                    CPUOversizing,
					Target:                  target,
					Severity:                SeverityMedium,
					Reason:                  fmt.Sprintf("CPU request is %.1f cores", cpu),
					Action:                  "Consider reducing CPU to 1-2 cores for most workloads",
					EstimatedMonthlySavings: (cpu - 1) * awsCPU * savingsHoursPerMonth * float64(w.Replicas),
				})
			}
			if len(c.Requests) > 0 && c.Limits["memory"] == "" {
				out = append(out, Recommendation{
					Type:     MissingLimit,
					Target:   target,
					Severity: SeverityLow,
					Reason:   "No memory limit specified",
					Action:   "Set memory limit based on request + safety margin",
				})
			}
			for _, res := range []string{"cpu", "memory"} {
				ratio, ok := limitRatio(c, res)
				if !ok || ratio >= MinLimitRatio {
					continue
				}
				out = append(out, Recommendation{
					Type:     TightLimits,
					Target:   target,
					Severity: SeverityLow,
					Reason:   fmt.Sprintf("%s limit is %.2fx the request", res, ratio),
					Action:   "Set limits 2-3x requests for headroom",
				})
			}
		}
	}
	return out
}

func limitRatio(c Container, res string) (float64, bool) {
	req, lim := c.Requests[res], c.Limits[res]
	if req == "" || lim == "" {
		return 0, false
	}
	rq, err := quantity.Parse(req)
	if err != nil {
		return 0, false
	}
	lq, err := quantity.Parse(lim)
	if err != nil {
		return 0, false
	}
	r := rq.AsApproximateFloat64()
	if r <= 0 {
		return 0, false
	}
	return lq.AsApproximateFloat64() / r, true
}

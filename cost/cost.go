// Package cost estimates the cloud cost of workloads from their container
// resource requests and flags sizing problems.
package cost

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/shift/nixernetes-sub005/domain/model"
	"github.com/shift/nixernetes-sub005/internal/quantity"
)

// Requests assumed for containers that declare none.
const (
	DefaultCPURequest    = "100m"
	DefaultMemoryRequest = "128Mi"
)

// Hours used to project an hourly rate.
const (
	HoursPerDay   = 24
	HoursPerMonth = 24 * 30
	HoursPerYear  = 24 * 365
)

// Report projects an hourly cost over longer periods.
type Report struct {
	Hourly  float64 `json:"hourly"`
	Daily   float64 `json:"daily"`
	Monthly float64 `json:"monthly"`
	Annual  float64 `json:"annual"`
}

// NewReport derives a Report from an hourly cost.
func NewReport(hourly float64) Report {
	return Report{
		Hourly:  hourly,
		Daily:   hourly * HoursPerDay,
		Monthly: hourly * HoursPerMonth,
		Annual:  hourly * HoursPerYear,
	}
}

// Add returns the sum of r and o.
func (r Report) Add(o Report) Report {
	return Report{
		Hourly:  r.Hourly + o.Hourly,
		Daily:   r.Daily + o.Daily,
		Monthly: r.Monthly + o.Monthly,
		Annual:  r.Annual + o.Annual,
	}
}

// Container holds the resources of one container as quantity strings.
type Container struct {
	Name     string            `json:"name"`
	Requests map[string]string `json:"requests,omitempty"`
	Limits   map[string]string `json:"limits,omitempty"`
}

// Workload is a replicated set of identical pods.
type Workload struct {
	Kind       model.Kind  `json:"kind"`
	Name       string      `json:"name"`
	Namespace  string      `json:"namespace,omitempty"`
	Replicas   int32       `json:"replicas"`
	Containers []Container `json:"containers"`
}

// Key returns "Kind/namespace/name", or "Kind/name" without a namespace.
func (w Workload) Key() string {
	return model.Resource{Kind: w.Kind, Metadata: model.ObjectMeta{Name: w.Name, Namespace: w.Namespace}}.Key()
}

// Calculator prices workloads with a pricing table.
type Calculator struct {
	pricing PricingTable
}

// NewCalculator returns a Calculator over t, or the shipped table when t is
// nil.
func NewCalculator(t PricingTable) *Calculator {
	if t == nil {
		t = DefaultPricing()
	}
	return &Calculator{pricing: t}
}

// Providers returns the providers the calculator can price, in name order.
func (c *Calculator) Providers() []Provider {
	return slices.Sorted(maps.Keys(c.pricing))
}

// ContainerCost returns the hourly cost of one container from its CPU and
// memory requests.
func (c *Calculator) ContainerCost(ctn Container, p Provider) (float64, error) {
	pr, err := c.pricing.Lookup(p)
	if err != nil {
		return 0, err
	}
	cpu, mem, err := requests(ctn)
	if err != nil {
		return 0, err
	}
	return cpu*pr.CPUPerCoreHour + mem*pr.MemPerGBHour, nil
}

// requests parses the CPU cores and memory GB requested by ctn.
func requests(ctn Container) (cpu, mem float64, err error) {
	cpuQ := ctn.Requests["cpu"]
	if cpuQ == "" {
		cpuQ = DefaultCPURequest
	}
	memQ := ctn.Requests["memory"]
	if memQ == "" {
		memQ = DefaultMemoryRequest
	}
	if cpu, err = quantity.ParseCPU(cpuQ); err != nil {
		return 0, 0, withField(err, ctn.Name, "requests.cpu")
	}
	if mem, err = quantity.ParseMemoryGB(memQ); err != nil {
		return 0, 0, withField(err, ctn.Name, "requests.memory")
	}
	return cpu, mem, nil
}

func withField(err error, container, field string) error {
	var qe *model.InvalidResourceQuantityError
	if errors.As(err, &qe) {
		qe.Field = fmt.Sprintf("container %s resources.%s", container, field)
	}
	return err
}

// WorkloadCost sums the container costs of w and multiplies them by its
// replicas.
func (c *Calculator) WorkloadCost(w Workload, p Provider) (Report, error) {
	var hourly float64
	for _, ctn := range w.Containers {
		h, err := c.ContainerCost(ctn, p)
		if err != nil {
			return Report{}, fmt.Errorf("%s: %w", w.Key(), err)
		}
		hourly += h
	}
	return NewReport(hourly * float64(w.Replicas)), nil
}

// Failure records a workload left out of a Summary.
type Failure struct {
	Workload string `json:"workload"`
	Error    string `json:"error"`
}

// Summary is the cost of a batch of workloads on one provider.
type Summary struct {
	Provider   Provider          `json:"provider"`
	Currency   string            `json:"currency"`
	Total      Report            `json:"total"`
	ByWorkload map[string]Report `json:"byWorkload"`
	Failures   []Failure         `json:"failures,omitempty"`
}

// Summary prices every workload on p. Workloads with malformed quantities
// are listed in Failures and excluded from Total; only an unknown provider
// fails the call.
func (c *Calculator) Summary(ws []Workload, p Provider) (Summary, error) {
	if _, err := c.pricing.Lookup(p); err != nil {
		return Summary{}, err
	}
	s := Summary{Provider: p, Currency: "USD", ByWorkload: make(map[string]Report, len(ws))}
	for _, w := range ws {
		r, err := c.WorkloadCost(w, p)
		if err != nil {
			s.Failures = append(s.Failures, Failure{Workload: w.Key(), Error: err.Error()})
			continue
		}
		s.ByWorkload[w.Key()] = r
		s.Total = s.Total.Add(r)
	}
	return s, nil
}

// ProviderCost is the total of a batch on one provider.
type ProviderCost struct {
	Provider Provider `json:"provider"`
	Total    Report   `json:"total"`
}

// CompareProviders prices ws on every provider, cheapest first.
func (c *Calculator) CompareProviders(ws []Workload) ([]ProviderCost, error) {
	var out []ProviderCost
	for _, p := range c.Providers() {
		s, err := c.Summary(ws, p)
		if err != nil {
			return nil, err
		}
		out = append(out, ProviderCost{Provider: p, Total: s.Total})
	}
	slices.SortStableFunc(out, func(a, b ProviderCost) int {
		return cmp.Compare(a.Total.Monthly, b.Total.Monthly)
	})
	return out, nil
}

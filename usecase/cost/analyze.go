// Package cost implements the cost analysis use case.
package cost

import (
	"context"
	"fmt"

	"github.com/shift/nixernetes-sub005/adapters/kube"
	costpkg "github.com/shift/nixernetes-sub005/cost"
	"github.com/shift/nixernetes-sub005/internal/logging"
)

// UseCase prices manifests with a fixed pricing table.
type UseCase struct {
	Calculator *costpkg.Calculator
}

// New returns a UseCase over t; a nil table uses the shipped rates.
func New(t costpkg.PricingTable) *UseCase {
	return &UseCase{Calculator: costpkg.NewCalculator(t)}
}

// AnalyzeInput holds the manifests to price.
type AnalyzeInput struct {
	// Data is one or more YAML or JSON documents.
	Data []byte
	// Provider defaults to aws.
	Provider costpkg.Provider
	// Compare adds the cost of the batch on every provider.
	Compare bool
}

// AnalyzeOutput is the result of Analyze.
type AnalyzeOutput struct {
	Analysis  costpkg.Analysis
	Workloads int
}

// Analyze extracts the workloads of the manifests, prices them on the
// requested provider and lists sizing recommendations.
func (u *UseCase) Analyze(ctx context.Context, in *AnalyzeInput) (*AnalyzeOutput, error) {
	if in == nil {
		return nil, fmt.Errorf("missing input")
	}
	logger := logging.FromContext(ctx)
	resources, err := kube.DecodeManifests(in.Data)
	if err != nil {
		return nil, err
	}
	calc := u.Calculator
	if calc == nil {
		calc = costpkg.NewCalculator(nil)
	}
	provider := in.Provider
	if provider == "" {
		provider = costpkg.AWS
	}

	ws := costpkg.WorkloadsFromResources(resources)
	summary, err := calc.Summary(ws, provider)
	if err != nil {
		return nil, err
	}
	out := &AnalyzeOutput{
		Workloads: len(ws),
		Analysis: costpkg.Analysis{
			Summary:         summary,
			Recommendations: costpkg.Recommendations(ws),
		},
	}
	if in.Compare {
		comparison, err := calc.CompareProviders(ws)
		if err != nil {
			return nil, err
		}
		out.Analysis.Comparison = comparison
	}
	for _, f := range summary.Failures {
		logger.Warn(ctx, "workload not priced", "workload", f.Workload, "error", f.Error)
	}
	logger.Info(ctx, "cost analysis done",
		"provider", provider,
		"workloads", out.Workloads,
		"monthly", summary.Total.Monthly,
		"recommendations", len(out.Analysis.Recommendations),
	)
	return out, nil
}

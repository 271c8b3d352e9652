package governance

import (
	"context"
	"fmt"

	"github.com/shift/nixernetes-sub005/adapters/kube"
	"github.com/shift/nixernetes-sub005/compliance"
	"github.com/shift/nixernetes-sub005/internal/logging"
)

// ReportInput holds the manifests to check and the profile to check them
// against.
type ReportInput struct {
	Data        []byte
	Environment string
}

// ReportOutput wraps the compliance report.
type ReportOutput struct {
	Report compliance.Report
}

// Report checks every manifest against the named environment profile.
func (u *UseCase) Report(ctx context.Context, in *ReportInput) (*ReportOutput, error) {
	if in == nil || in.Environment == "" {
		return nil, fmt.Errorf("missing environment")
	}
	p, err := compliance.GetProfile(in.Environment)
	if err != nil {
		return nil, err
	}
	resources, err := kube.DecodeManifests(in.Data)
	if err != nil {
		return nil, err
	}
	rep, err := compliance.GenerateReport(resources, p)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info(ctx, "compliance report done",
		"environment", rep.Environment,
		"total", rep.Total,
		"passed", rep.Passed,
		"failed", rep.Failed,
	)
	return &ReportOutput{Report: rep}, nil
}

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/shift/nixernetes-sub005/cost"
	costuc "github.com/shift/nixernetes-sub005/usecase/cost"
)

// newCmdCost returns a command that estimates the running cost of
// manifests.
func newCmdCost() *cobra.Command {
	provider := cost.AWS
	format := cost.FormatText
	c := &cobra.Command{
		Use:   "cost [FILE...]",
		Short: "Estimate workload cost and list sizing recommendations",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			v := settingsFromContext(cmd.Context())
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "cost", strings.Join(args, ","))
			defer func() { cleanup(err) }()

			// Re-parse so that environment and settings file values are
			// checked like flag values.
			var p cost.Provider
			if err := p.Set(v.GetString("provider")); err != nil {
				return err
			}
			var f cost.Format
			if err := f.Set(v.GetString("format")); err != nil {
				return err
			}

			var table cost.PricingTable
			if path := v.GetString("pricing"); path != "" {
				if table, err = cost.LoadPricingTable(path); err != nil {
					return err
				}
			}
			data, err := readManifests(cmd, args)
			if err != nil {
				return err
			}
			out, err := costuc.New(table).Analyze(ctx, &costuc.AnalyzeInput{
				Data:     data,
				Provider: p,
				Compare:  v.GetBool("compare"),
			})
			if err != nil {
				return err
			}
			return cost.Render(cmd.OutOrStdout(), out.Analysis, f)
		},
	}
	fs := c.Flags()
	fs.Var(&provider, "provider", "Cloud provider (aws|azure|gcp) (env NIXERNETES_PROVIDER)")
	fs.Var(&format, "format", "Output format (text|json|yaml)")
	fs.String("pricing", "", "Pricing override file (env NIXERNETES_PRICING)")
	fs.Bool("compare", false, "Also price the manifests on every provider")
	return c
}

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/shift/nixernetes-sub005/usecase/manifest"
)

// newCmdOrder returns a command that reorders manifests for apply.
func newCmdOrder() *cobra.Command {
	c := &cobra.Command{
		Use:   "order [FILE...]",
		Short: "Reorder manifests for kubectl apply",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			v := settingsFromContext(cmd.Context())
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "order", strings.Join(args, ","))
			defer func() { cleanup(err) }()

			data, err := readManifests(cmd, args)
			if err != nil {
				return err
			}
			out, err := manifest.New().Order(ctx, &manifest.OrderInput{Data: data})
			if err != nil {
				return err
			}
			b, err := renderResources(out.Resources, v.GetString("format"))
			if err != nil {
				return err
			}
			return writeOutput(cmd, v.GetString("output"), b)
		},
	}
	f := c.Flags()
	f.StringP("output", "o", "-", "Output file (- for stdout)")
	f.String("format", "yaml", "Output format (yaml|json)")
	return c
}

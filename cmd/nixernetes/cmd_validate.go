package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shift/nixernetes-sub005/usecase/manifest"
	"github.com/shift/nixernetes-sub005/validation"
)

// newCmdValidate returns a command that validates manifest files.
func newCmdValidate() *cobra.Command {
	c := &cobra.Command{
		Use:   "validate [FILE...]",
		Short: "Validate manifests",
		Long:  "Validate manifests for structural completeness, namespace references and apply order. Exits 1 when a manifest is invalid.",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			v := settingsFromContext(cmd.Context())
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "validate", strings.Join(args, ","))
			defer func() { cleanup(err) }()

			data, err := readManifests(cmd, args)
			if err != nil {
				return err
			}
			out, err := manifest.New().Validate(ctx, &manifest.ValidateInput{
				Data:              data,
				KubernetesVersion: v.GetString("kubernetes-version"),
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			findings := slices.Concat(out.Result.Errors, out.NamespaceIssues)
			switch format := v.GetString("format"); format {
			case "text", "":
				errs, warns := 0, len(out.OrderIssues)
				for _, e := range findings {
					fmt.Fprintf(w, "%s: %s [%s]\n", e.Severity, e, e.Code)
					if e.Suggestion != "" {
						fmt.Fprintf(w, "  hint: %s\n", e.Suggestion)
					}
					if e.Severity.AtLeast(validation.SeverityError) {
						errs++
					} else {
						warns++
					}
				}
				for _, s := range out.OrderIssues {
					fmt.Fprintf(w, "warning: %s\n", s)
				}
				fmt.Fprintf(w, "%d manifests, %d errors, %d warnings\n", out.Result.Count, errs, warns)
			case "json":
				b, err := json.MarshalIndent(struct {
					Valid       bool                `json:"valid"`
					Count       int                 `json:"count"`
					Findings    []*validation.Error `json:"findings"`
					OrderIssues []string            `json:"orderIssues,omitempty"`
				}{
					Valid:       out.Valid(),
					Count:       out.Result.Count,
					Findings:    append([]*validation.Error{}, findings...),
					OrderIssues: out.OrderIssues,
				}, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\n", b)
			default:
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}
			if !out.Valid() {
				return ExitCodeError{Code: 1}
			}
			return nil
		},
	}
	f := c.Flags()
	f.String("kubernetes-version", "", "Accept only apiVersions served by this Kubernetes release (env NIXERNETES_KUBERNETES_VERSION)")
	f.String("format", "text", "Output format (text|json)")
	return c
}

package main

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/shift/nixernetes-sub005/compliance"
	"github.com/shift/nixernetes-sub005/usecase/governance"
)

func newCmdCompliance() *cobra.Command {
	c := &cobra.Command{
		Use:   "compliance",
		Short: "Compliance profiles and reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	c.AddCommand(newCmdComplianceReport())
	c.AddCommand(newCmdComplianceProfiles())
	return c
}

var reportTemplate = template.Must(template.New("report").Parse(`Compliance report: {{.Environment}} ({{.Framework}}, {{.Level}})
{{range .Resources}}  {{if .Pass}}PASS{{else}}FAIL{{end}} {{.Resource}}
{{- range .Missing}}
      missing {{.}}{{end}}
{{- range .Mismatched}}
      mismatched {{.}}{{end}}
{{- range .Policies}}{{if not .Passed}}
      policy {{.Rule}}: {{.Message}}{{end}}{{end}}
{{end}}Total {{.Total}}, passed {{.Passed}}, failed {{.Failed}}
`))

func newCmdComplianceReport() *cobra.Command {
	c := &cobra.Command{
		Use:   "report [FILE...]",
		Short: "Check manifests against an environment profile",
		Long:  "Check manifests against the labels, annotations and policy sets of an environment profile. Exits 1 when a resource fails.",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			v := settingsFromContext(cmd.Context())
			env := v.GetString("env")
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "compliance.report", env)
			defer func() { cleanup(err) }()

			data, err := readManifests(cmd, args)
			if err != nil {
				return err
			}
			out, err := governance.New().Report(ctx, &governance.ReportInput{Data: data, Environment: env})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			switch format := v.GetString("format"); format {
			case "text", "":
				if err := reportTemplate.Execute(w, out.Report); err != nil {
					return err
				}
			case "yaml", "json":
				b, err := yaml.Marshal(out.Report)
				if err == nil && format == "json" {
					b, err = yaml.YAMLToJSON(b)
					b = append(b, '\n')
				}
				if err != nil {
					return err
				}
				if _, err := w.Write(b); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
			}
			if !out.Report.Compliant() {
				return ExitCodeError{Code: 1}
			}
			return nil
		},
	}
	f := c.Flags()
	f.String("env", "", "Environment profile: "+strings.Join(compliance.Profiles(), ", ")+" (env NIXERNETES_ENV)")
	f.String("format", "text", "Output format (text|json|yaml)")
	return c
}

func newCmdComplianceProfiles() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "Show the environment profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ps []compliance.Profile
			for _, name := range compliance.Profiles() {
				p, err := compliance.GetProfile(name)
				if err != nil {
					return err
				}
				ps = append(ps, p)
			}
			b, err := yaml.Marshal(ps)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/shift/nixernetes-sub005/policy"
	"github.com/shift/nixernetes-sub005/usecase/governance"
)

func newCmdPolicy() *cobra.Command {
	c := &cobra.Command{
		Use:   "policy",
		Short: "Generate Kyverno policies and check manifests against them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	c.AddCommand(newCmdPolicyGenerate())
	c.AddCommand(newCmdPolicyCheck())
	return c
}

func toSets(names []string) ([]policy.Set, error) {
	var out []policy.Set
	for _, n := range names {
		if !policy.IsSet(n) {
			return nil, fmt.Errorf("unknown policy set %q (want one of %s)", n, setNames())
		}
		out = append(out, policy.Set(n))
	}
	return out, nil
}

func setNames() string {
	var names []string
	for _, s := range policy.Sets() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func newCmdPolicyGenerate() *cobra.Command {
	c := &cobra.Command{
		Use:   "generate",
		Short: "Emit library policy sets as ClusterPolicy or Policy documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			v := settingsFromContext(cmd.Context())
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "policy.generate", strings.Join(v.GetStringSlice("set"), ","))
			defer func() { cleanup(err) }()

			sets, err := toSets(v.GetStringSlice("set"))
			if err != nil {
				return err
			}
			out, err := governance.New().Policies(ctx, &governance.PoliciesInput{
				Sets:      sets,
				Name:      v.GetString("name"),
				Action:    policy.Action(v.GetString("action")),
				Namespace: v.GetString("namespace"),
			})
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
	f.StringSlice("set", nil, "Library policy set, repeatable (default all): "+setNames())
	f.String("name", "", "Policy name (single set only)")
	f.String("action", string(policy.Audit), "validationFailureAction (Audit|Enforce)")
	f.String("namespace", "", "Emit a namespaced Policy in this namespace")
	f.StringP("output", "o", "-", "Output file (- for stdout)")
	f.String("format", "yaml", "Output format (yaml|json)")
	return c
}

func newCmdPolicyCheck() *cobra.Command {
	c := &cobra.Command{
		Use:   "check [FILE...]",
		Short: "Evaluate manifests against policies",
		Long:  "Evaluate manifests against policy documents and library sets. Policy documents in the manifests are used too. Exits 1 when a rule fails.",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			v := settingsFromContext(cmd.Context())
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "policy.check", strings.Join(args, ","))
			defer func() { cleanup(err) }()

			sets, err := toSets(v.GetStringSlice("set"))
			if err != nil {
				return err
			}
			var policyData []byte
			for i, p := range v.GetStringSlice("policy") {
				b, err := os.ReadFile(p)
				if err != nil {
					return fmt.Errorf("failed to read file %s: %w", p, err)
				}
				if i > 0 {
					policyData = append(policyData, "\n---\n"...)
				}
				policyData = append(policyData, b...)
			}
			data, err := readManifests(cmd, args)
			if err != nil {
				return err
			}
			out, err := governance.New().CheckPolicies(ctx, &governance.CheckPoliciesInput{
				Data:       data,
				PolicyData: policyData,
				Sets:       sets,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch format := v.GetString("format"); format {
			case "text", "":
				for _, r := range out.Results {
					status := "PASS"
					if !r.Passed {
						status = "FAIL"
					}
					fmt.Fprintf(w, "%s %s %s/%s", status, r.Resource, r.Policy, r.Rule)
					if !r.Passed && r.Message != "" {
						fmt.Fprintf(w, ": %s", r.Message)
					}
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "%d resources, %d policies, %d violations\n", out.Resources, out.Policies, out.Violations)
			case "yaml", "json":
				b, err := yaml.Marshal(out)
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
			if !out.Passed() {
				return ExitCodeError{Code: 1}
			}
			return nil
		},
	}
	f := c.Flags()
	f.StringSliceP("policy", "p", nil, "Policy file, repeatable")
	f.StringSlice("set", nil, "Library policy set to check against, repeatable")
	f.String("format", "text", "Output format (text|json|yaml)")
	return c
}

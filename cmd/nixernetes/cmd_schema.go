package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shift/nixernetes-sub005/domain/model"
	"github.com/shift/nixernetes-sub005/internal/schema"
)

func newCmdSchema() *cobra.Command {
	c := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the Kubernetes version and kind registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	c.AddCommand(newCmdSchemaVersions())
	c.AddCommand(newCmdSchemaKinds())
	return c
}

func newCmdSchemaVersions() *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List the supported Kubernetes versions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, v := range schema.SupportedVersions() {
				mark := ""
				if v == schema.DefaultKubernetesVersion {
					mark = " (default)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", v, mark)
			}
		},
	}
}

func newCmdSchemaKinds() *cobra.Command {
	c := &cobra.Command{
		Use:   "kinds",
		Short: "List the kinds and their apiVersion for a Kubernetes version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := settingsFromContext(cmd.Context())
			version := v.GetString("kubernetes-version")
			if !schema.IsSupportedVersion(version) {
				return &model.UnsupportedVersionError{Version: version, Supported: schema.SupportedVersions()}
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tAPIVERSION\tNAMESPACED")
			for _, k := range schema.SupportedKinds() {
				api, err := schema.ResolveAPIVersion(k, version)
				if errors.Is(err, model.ErrUnknownKind) {
					api = "-"
				} else if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%t\n", k, api, schema.IsNamespaced(k))
			}
			return tw.Flush()
		},
	}
	c.Flags().String("kubernetes-version", schema.DefaultKubernetesVersion, "Kubernetes version (env NIXERNETES_KUBERNETES_VERSION)")
	return c
}

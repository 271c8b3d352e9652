package main

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/shift/nixernetes-sub005/config/nixcfg"
	"github.com/shift/nixernetes-sub005/internal/logging"
	"github.com/shift/nixernetes-sub005/internal/naming"
	"github.com/shift/nixernetes-sub005/usecase/manifest"
)

const defaultProjectFile = "nixernetes.yaml"

// newCmdGenerate returns a command that renders a project file to manifests.
func newCmdGenerate() *cobra.Command {
	c := &cobra.Command{
		Use:   "generate",
		Short: "Generate manifests from a project file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			v := settingsFromContext(cmd.Context())
			file := v.GetString("file")
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "generate", file)
			defer func() { cleanup(err) }()
			logger := logging.FromContext(ctx)

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read file %s: %w", file, err)
			}
			cfg, err := nixcfg.LoadBytes(data)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			buildID := v.GetString("build-id")
			if buildID == "" && v.GetBool("reproducible") {
				buildID = naming.ContentBuildID(data)
			}
			perEnv := v.GetString("per-env")

			out, err := manifest.New().Generate(ctx, &manifest.GenerateInput{
				Config:         cfg,
				BaseDir:        filepath.Dir(file),
				Environment:    v.GetString("env"),
				BuildID:        buildID,
				PerEnvironment: perEnv != "",
			})
			if err != nil {
				return err
			}
			for _, e := range out.Validation.Errors {
				logger.Warn(ctx, "validation", "error", e.Error())
			}
			for _, e := range out.NamespaceIssues {
				logger.Warn(ctx, "namespace", "error", e.Error())
			}
			for _, is := range out.Compliance {
				logger.Warn(ctx, "compliance", "resource", is.Resource, "missing", is.Missing, "mismatched", is.Mismatched)
			}

			format := v.GetString("format")
			b, err := renderResources(out.Resources, format)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd, v.GetString("output"), b); err != nil {
				return err
			}

			if perEnv == "" {
				return nil
			}
			if err := os.MkdirAll(perEnv, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", perEnv, err)
			}
			ext := ".yaml"
			if format == "json" {
				ext = ".json"
			}
			for _, env := range slices.Sorted(maps.Keys(out.Environments)) {
				b, err := renderResources(out.Environments[env], format)
				if err != nil {
					return err
				}
				path := filepath.Join(perEnv, naming.EnvironmentName(cfg.Name, env)+ext)
				if err := writeOutput(cmd, path, b); err != nil {
					return err
				}
				logger.Info(ctx, "environment written", "environment", env, "path", path, "resources", len(out.Environments[env]))
			}
			return nil
		},
	}
	f := c.Flags()
	f.StringP("file", "f", defaultProjectFile, "Path to the project file")
	f.StringP("output", "o", "-", "Output file (- for stdout)")
	f.String("format", "yaml", "Output format (yaml|json)")
	f.String("env", "", "Environment profile, overrides the project file (env NIXERNETES_ENV)")
	f.String("build-id", "", "Build id for the traceability annotation (default from buildId, else a random UUID)")
	f.Bool("reproducible", false, "Derive the build id from the project file content")
	f.String("per-env", "", "Also write one manifest per environment into this directory")
	return c
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shift/nixernetes-sub005/adapters/kube"
	"github.com/shift/nixernetes-sub005/config/nixcfg"
	"github.com/shift/nixernetes-sub005/usecase/manifest"
)

// newCmdImport returns a command that converts a compose file into the apps
// section of a project file.
func newCmdImport() *cobra.Command {
	c := &cobra.Command{
		Use:   "import COMPOSE_FILE",
		Short: "Convert a compose file into a project file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			v := settingsFromContext(cmd.Context())
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "import", args[0])
			defer func() { cleanup(err) }()

			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file %s: %w", args[0], err)
			}
			out, err := manifest.New().Import(ctx, &manifest.ImportInput{
				Filename:  args[0],
				Content:   content,
				Namespace: v.GetString("namespace"),
			})
			if err != nil {
				return err
			}
			root := nixcfg.Root{Version: nixcfg.Version, Name: v.GetString("name"), Apps: out.Apps}
			if ns := v.GetString("namespace"); ns != "" {
				root.Namespaces = []kube.NamespaceConfig{{Name: ns}}
			}
			b, err := yaml.Marshal(&root)
			if err != nil {
				return fmt.Errorf("failed to marshal project file: %w", err)
			}
			return writeOutput(cmd, v.GetString("output"), b)
		},
	}
	f := c.Flags()
	f.StringP("output", "o", "-", "Output file (- for stdout)")
	f.String("namespace", "", "Namespace of the imported apps")
	f.String("name", "", "Application name of the project")
	return c
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/shift/nixernetes-sub005/internal/logging"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "nixernetes",
		Short:   "Nixernetes manifest generator",
		Long:    "Nixernetes builds, validates, orders and audits Kubernetes manifests.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help by default when no subcommand is provided.
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.String("settings", "", "Settings file (default $HOME/.nixernetes.yaml)")
	pf.String("log-format", "human", "Log format (human|text|json) (env NIXERNETES_LOG_FORMAT)")
	pf.String("log-level", "info", "Log level (debug|info|warn|error) (env NIXERNETES_LOG_LEVEL)")
	pf.String("log-output", "-", "Log output (-|none|auto|PATH) (env NIXERNETES_LOG_OUTPUT)")
	pf.String("log-dir", "", "Directory for auto and relative log outputs (env NIXERNETES_LOG_DIR)")
	pf.Int("log-retention-days", 7, "Days to keep auto log files, 0 keeps all (env NIXERNETES_LOG_RETENTION_DAYS)")

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		v, err := loadSettings(c)
		if err != nil {
			return err
		}
		l, err := newLogger(c, v)
		if err != nil {
			return err
		}
		klog.SetSlogLogger(logging.Slog(l))
		ctx := logging.WithLogger(c.Context(), l)
		ctx = withSettings(ctx, v)
		c.SetContext(ctx)
		return nil
	}

	cmd.AddCommand(newCmdVersion())
	cmd.AddCommand(newCmdGenerate())
	cmd.AddCommand(newCmdImport())
	cmd.AddCommand(newCmdValidate())
	cmd.AddCommand(newCmdOrder())
	cmd.AddCommand(newCmdCost())
	cmd.AddCommand(newCmdPolicy())
	cmd.AddCommand(newCmdCompliance())
	cmd.AddCommand(newCmdSchema())
	return cmd
}

func main() {
	root := newRootCmd()
	root.SetContext(context.Background())
	executed, err := root.ExecuteC()
	if err != nil {
		var exitErr ExitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		ctx := root.Context()
		if executed != nil && executed.Context() != nil {
			ctx = executed.Context()
		}
		logging.FromContext(ctx).Debugf(ctx, "Failed: %s", err)
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

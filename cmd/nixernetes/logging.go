package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shift/nixernetes-sub005/internal/logging"
)

// ExitCodeError ends the process with Code without reporting a failure. The
// check commands return it when the checked manifests are not compliant.
type ExitCodeError struct {
	Code int
}

func (e ExitCodeError) Error() string { return fmt.Sprintf("exit code %d", e.Code) }

// newLogger builds the command logger from the log-* settings. Every logger
// carries a runId so the lines of one invocation can be grouped.
func newLogger(cmd *cobra.Command, v *viper.Viper) (logging.Logger, error) {
	cfg := logging.LogConfig{
		Format:        v.GetString("log-format"),
		Level:         v.GetString("log-level"),
		Output:        v.GetString("log-output"),
		Dir:           v.GetString("log-dir"),
		RetentionDays: v.GetInt("log-retention-days"),
	}
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var w io.Writer = cmd.ErrOrStderr()
	if cfg.Output != "" && cfg.Output != "-" {
		lf, err := logging.OpenLogFile(cfg)
		if err != nil {
			return nil, err
		}
		cobra.OnFinalize(func() { _ = lf.Close() })
		w = lf.Writer()
		if cfg.Output == "auto" && cfg.RetentionDays > 0 {
			if err := logging.CleanupOldLogFiles(cfg.Dir, cfg.RetentionDays); err != nil {
				return nil, err
			}
		}
	}
	l, err := logging.NewWithWriter(cfg.Format, level, w)
	if err != nil {
		return nil, err
	}
	return l.With("runId", uuid.NewString()), nil
}

// withCmdRunLogger implements the Span pattern for CLI command logging.
// It emits a start log line and returns a context with logger attributes attached,
// plus a cleanup function to emit the success or failure log line.
//
// Usage:
//
//	ctx, cleanup := withCmdRunLogger(ctx, "generate", file)
//	defer func() { cleanup(err) }()
//
// Log message format:
// - Start:   CMD:<operation>/S (with resourceId in logger attributes)
// - Success: CMD:<operation>/EOK (with err, elapsed in logger attributes)
// - Failure: CMD:<operation>/EFAIL (with err, elapsed in logger attributes)
//
// ExitCodeError is logged as EOK: the command ran and reported a negative
// result.
func withCmdRunLogger(ctx context.Context, operation, resourceID string) (context.Context, func(err error)) {
	startAt := time.Now()

	logger := logging.FromContext(ctx).With("resourceId", resourceID)
	ctx = logging.WithLogger(ctx, logger)

	logger.Info(ctx, "CMD:"+operation+"/S")

	cleanup := func(err error) {
		elapsed := time.Since(startAt).Seconds()
		var msg, errStr string

		var exitCodeErr ExitCodeError
		isExitCodeErr := errors.As(err, &exitCodeErr)

		if err == nil || isExitCodeErr {
			msg = "CMD:" + operation + "/EOK"
		} else {
			msg = "CMD:" + operation + "/EFAIL"
			errStr = err.Error()
			if len(errStr) > 32 {
				errStr = errStr[:32] + "..."
			}
		}

		if isExitCodeErr {
			logger.Info(ctx, msg, "err", errStr, "exitCode", exitCodeErr.Code, "elapsed", elapsed)
		} else {
			logger.Info(ctx, msg, "err", errStr, "elapsed", elapsed)
		}
	}

	return ctx, cleanup
}

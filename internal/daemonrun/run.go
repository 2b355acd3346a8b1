// Package daemonrun wires configuration, logging and the pass processor into
// the long-running watch process.
package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"autocombine/internal/config"
	"autocombine/internal/daemon"
	"autocombine/internal/logging"
	"autocombine/internal/pipeline"
	"autocombine/internal/preflight"
)

// Options configures watch process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Stdout mirrors the session log to the terminal.
	Stdout bool
}

// Run starts the watch loop and blocks until SIGINT/SIGTERM or ctx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, logPath, err := logging.NewSessionLogger(cfg, logging.SessionOptions{
		Level:       opts.LogLevel,
		Development: opts.Development,
		Stdout:      opts.Stdout,
		SessionID:   uuid.NewString(),
		Started:     time.Now(),
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := logging.PointCurrentLog(cfg.Paths.LogDir, logPath); err != nil {
		logging.WarnWithContext(signalCtx, logger, "current log pointer not updated", "log_pointer_failed",
			logging.Error(err),
			logging.String("pointer", logging.CurrentLogName),
			logging.String(logging.FieldImpact, "tail the timestamped session log instead"),
		)
	}
	logging.PruneSessionLogs(logger, cfg, logPath)
	logPreflight(signalCtx, logger, cfg)

	processor, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}
	d, err := daemon.New(daemon.OptionsFromConfig(cfg), processor, logger)
	if err != nil {
		return err
	}

	logger.Info("autocombine watch starting",
		logging.String(logging.FieldEventType, "watch_starting"),
		logging.String("log_path", logPath),
		logging.Any("run_parent_dirs", cfg.Scan.RunParentDirs),
		logging.Bool("check_upload_complete", cfg.Scan.CheckUploadComplete),
	)
	if err := d.Run(signalCtx); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return fmt.Errorf("%w (lock %s)", err, cfg.LockPath())
		}
		return err
	}
	logger.Info("autocombine watch shutting down")
	return nil
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.Failed(preflight.RunAll(cfg)) {
		logging.WarnWithContext(ctx, logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run `autocombine check` for details"),
			logging.String(logging.FieldImpact, "affected runs are not combined until fixed"),
		)
	}
}

package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"

	"autocombine/internal/config"
	"autocombine/internal/logging"
	"autocombine/internal/pipeline"
)

// ErrAlreadyRunning is returned when another process holds the lock.
var ErrAlreadyRunning = errors.New("another autocombine instance is already running")

// PassRunner executes one scan-and-combine pass.
type PassRunner interface {
	RunPass(ctx context.Context) (pipeline.Summary, error)
}

// Options configures a Daemon.
type Options struct {
	LockPath        string
	ParentDirs      []string
	Schedule        string
	WatchFilesystem bool
	Debounce        time.Duration
}

// OptionsFromConfig maps configuration onto daemon options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		LockPath:        cfg.LockPath(),
		ParentDirs:      cfg.Scan.RunParentDirs,
		Schedule:        cfg.Scan.Schedule,
		WatchFilesystem: cfg.Scan.WatchFilesystem,
		Debounce:        time.Duration(cfg.Scan.DebounceSeconds) * time.Second,
	}
}

// Daemon triggers passes and enforces single-instance execution.
type Daemon struct {
	opts     Options
	runner   PassRunner
	logger   *slog.Logger
	schedule cron.Schedule
	lock     *flock.Flock

	triggers chan string
	running  atomic.Bool
	passes   atomic.Int64
}

// New constructs a daemon. The schedule is validated here.
func New(opts Options, runner PassRunner, logger *slog.Logger) (*Daemon, error) {
	if runner == nil {
		return nil, errors.New("daemon requires a pass runner")
	}
	if opts.LockPath == "" {
		return nil, errors.New("daemon requires a lock path")
	}
	schedule, err := cron.ParseStandard(opts.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", opts.Schedule, err)
	}
	return &Daemon{
		opts:     opts,
		runner:   runner,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		schedule: schedule,
		lock:     flock.New(opts.LockPath),
		triggers: make(chan string, 1),
	}, nil
}

// Trigger requests a pass. It never blocks; a request made while another is
// pending is merged into it.
func (d *Daemon) Trigger(reason string) {
	select {
	case d.triggers <- reason:
	default:
	}
}

// Passes returns the number of passes started so far.
func (d *Daemon) Passes() int64 {
	return d.passes.Load()
}

// Run holds the lock and processes triggers until ctx is cancelled. A pass
// that is running when ctx is cancelled observes the cancellation itself.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	if d.opts.WatchFilesystem {
		watcher, err := newDirWatcher(d.opts.ParentDirs, d.opts.Debounce, d.logger, func() {
			d.Trigger("filesystem")
		})
		if err != nil {
			logging.WarnWithContext(ctx, d.logger, "filesystem watch unavailable; relying on schedule", "watch_unavailable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check inotify limits (fs.inotify.max_user_watches)"),
				logging.String(logging.FieldImpact, "new runs are picked up on the next scheduled pass"),
			)
		} else {
			watcher.Start(ctx)
			defer watcher.Stop()
		}
	}

	d.logger.Info("autocombine daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.opts.LockPath),
		logging.String("schedule", d.opts.Schedule),
		logging.Bool("watch_filesystem", d.opts.WatchFilesystem),
	)

	timer := time.NewTimer(time.Until(d.schedule.Next(time.Now())))
	defer timer.Stop()

	d.Trigger("startup")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("autocombine daemon stopped",
				logging.String(logging.FieldEventType, "daemon_stopped"),
				logging.Int64("passes", d.passes.Load()),
			)
			return nil
		case <-timer.C:
			d.Trigger("schedule")
			timer.Reset(time.Until(d.schedule.Next(time.Now())))
		case reason := <-d.triggers:
			d.runPass(ctx, reason)
		}
	}
}

func (d *Daemon) runPass(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	d.passes.Add(1)
	d.logger.Debug("pass triggered",
		logging.String(logging.FieldEventType, "pass_triggered"),
		logging.String("reason", reason),
	)
	summary, err := d.runner.RunPass(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.ErrorWithContext(ctx, d.logger, "pass finished with errors", "pass_failed",
			logging.String(logging.FieldPassID, summary.PassID),
			logging.String("reason", reason),
			logging.Int("failed", len(summary.Failed)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "see combine_fastq_failed and scan_parent_failed records for this pass"),
		)
	}
}

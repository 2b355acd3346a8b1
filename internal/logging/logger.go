package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"autocombine/internal/config"
)

// Log file names under logging's log_dir.
const (
	CurrentLogName   = "autocombine.log"
	CLILogName       = "autocombine-cli.log"
	sessionLogPrefix = "autocombine-"
	sessionLogSuffix = ".log"
	sessionStamp     = "20060102T150405.000Z"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Files receive every record. Parent directories are created.
	Files []string
	// Stdout mirrors records to the terminal. It is implied when Files is empty.
	Stdout      bool
	Development bool
	// SessionID, when set, is attached to every record under FieldSessionID.
	SessionID string
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	var build func(io.Writer, *slog.LevelVar, bool) slog.Handler
	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "json":
		build = newJSONHandler
	case "console":
		build = newPrettyHandler
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	sink, err := openSink(opts.Files, opts.Stdout || len(opts.Files) == 0)
	if err != nil {
		return nil, err
	}
	handler := build(sink, levelVar, opts.Development || level <= slog.LevelDebug)
	return slog.New(newCorrelationHandler(handler, strings.TrimSpace(opts.SessionID))), nil
}

// SessionOptions tunes the watch-process logger.
type SessionOptions struct {
	// Level overrides logging.level when set.
	Level       string
	Development bool
	Stdout      bool
	SessionID   string
	Started     time.Time
}

// NewSessionLogger opens a per-session log file named after the start time and
// returns the logger together with that file's path.
func NewSessionLogger(cfg *config.Config, opts SessionOptions) (*slog.Logger, string, error) {
	if cfg == nil {
		return nil, "", fmt.Errorf("config is required")
	}
	path := SessionLogPath(cfg.Paths.LogDir, opts.Started)
	logger, err := New(Options{
		Level:       firstNonEmpty(opts.Level, cfg.Logging.Level),
		Format:      cfg.Logging.Format,
		Files:       []string{path},
		Stdout:      opts.Stdout,
		Development: opts.Development,
		SessionID:   opts.SessionID,
	})
	if err != nil {
		return nil, "", err
	}
	return logger, path, nil
}

// NewCLILogger logs one-shot commands to the shared CLI log only, keeping
// stdout free for tables and JSON lines.
func NewCLILogger(cfg *config.Config, level string) (*slog.Logger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	return New(Options{
		Level:  firstNonEmpty(level, cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Files:  []string{filepath.Join(cfg.Paths.LogDir, CLILogName)},
	})
}

// SessionLogPath names the log for a watch session started at the given time.
// A zero time means now.
func SessionLogPath(logDir string, started time.Time) string {
	if started.IsZero() {
		started = time.Now()
	}
	return filepath.Join(logDir, sessionLogPrefix+started.UTC().Format(sessionStamp)+sessionLogSuffix)
}

// PointCurrentLog makes <logDir>/autocombine.log refer to target, falling back
// to a hard link where symlinks are unavailable.
func PointCurrentLog(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, CurrentLogName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func parseLevel(level string) slog.Level {
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return parsed
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// openSink opens each distinct file for appending. Files are never closed;
// loggers live for the whole process.
func openSink(files []string, stdout bool) (io.Writer, error) {
	var writers []io.Writer
	if stdout {
		writers = append(writers, os.Stdout)
	}
	var opened []string
	for _, path := range files {
		path = strings.TrimSpace(path)
		if path == "" || slices.Contains(opened, path) {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", path, err)
		}
		opened = append(opened, path)
		writers = append(writers, file)
	}
	switch len(writers) {
	case 0:
		return os.Stdout, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}

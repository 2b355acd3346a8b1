package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autocombine/internal/config"
)

// RetentionTarget specifies a directory and filename pattern to prune.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// SessionLogTarget selects expired watch-session logs in logDir. The CLI log,
// the current-log pointer and any active paths are never selected.
func SessionLogTarget(logDir string, active ...string) RetentionTarget {
	exclude := []string{filepath.Join(logDir, CLILogName), filepath.Join(logDir, CurrentLogName)}
	for _, path := range active {
		if strings.TrimSpace(path) != "" {
			exclude = append(exclude, path)
		}
	}
	return RetentionTarget{Dir: logDir, Pattern: sessionLogPrefix + "*" + sessionLogSuffix, Exclude: exclude}
}

// PruneSessionLogs applies logging.retention_days to the session logs in
// cfg.Paths.LogDir, keeping active.
func PruneSessionLogs(logger *slog.Logger, cfg *config.Config, active ...string) []string {
	if cfg == nil {
		return nil
	}
	return CleanupOldLogs(logger, cfg.Logging.RetentionDays, SessionLogTarget(cfg.Paths.LogDir, active...))
}

// CleanupOldLogs removes files matching the provided targets that were last
// written more than retentionDays ago. A retentionDays value of 0 disables
// pruning. It returns the paths it removed.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) []string {
	if retentionDays <= 0 {
		return nil
	}
	if logger == nil {
		logger = NewNop()
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	var removed []string
	for _, target := range targets {
		for _, path := range expiredLogs(target, cutoff) {
			if err := os.Remove(path); err != nil {
				WarnWithContext(context.Background(), logger, "log retention remove failed; file remains", "log_retention_failed",
					String("path", path),
					Error(err),
					String(FieldErrorHint, "check file permissions and log_dir ownership"),
					String(FieldImpact, "old log file remains on disk"),
				)
				continue
			}
			removed = append(removed, path)
			logger.Info("log pruned",
				String("path", path),
				Int("retention_days", retentionDays),
				String(FieldEventType, "log_pruned"),
			)
		}
	}
	return removed
}

// expiredLogs lists regular files in target.Dir matching target.Pattern that
// are older than cutoff and not excluded. Symlinks are skipped.
func expiredLogs(target RetentionTarget, cutoff time.Time) []string {
	dir := strings.TrimSpace(target.Dir)
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	excluded := make(map[string]bool, len(target.Exclude))
	for _, path := range target.Exclude {
		excluded[absPath(path)] = true
	}
	pattern := strings.TrimSpace(target.Pattern)

	var expired []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if pattern != "" {
			if ok, err := filepath.Match(pattern, entry.Name()); err != nil || !ok {
				continue
			}
		}
		path := absPath(filepath.Join(dir, entry.Name()))
		if excluded[path] {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		expired = append(expired, path)
	}
	return expired
}

func absPath(path string) string {
	path = strings.TrimSpace(path)
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// Package recovery finds runs whose combine was interrupted: the
// fastq_pass_combined directory exists but no completion record was written.
// The scanner refuses such runs forever, so they need an operator decision;
// Remove deletes the partial output so the next pass combines the run again.
package recovery

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autocombine/internal/fileutil"
	"autocombine/internal/logging"
	"autocombine/internal/runscan"
)

// Incomplete describes a partial output directory.
type Incomplete struct {
	Run     runscan.Run
	ModTime time.Time
	Files   int
	Size    int64
}

// FindIncomplete lists incomplete runs under every parent directory. A
// missing parent is ignored; other listing failures are returned.
func FindIncomplete(parentDirs []string) ([]Incomplete, []error) {
	var (
		found []Incomplete
		errs  []error
	)
	for _, parent := range parentDirs {
		parent = strings.TrimSpace(parent)
		if parent == "" {
			continue
		}
		entries, err := os.ReadDir(parent)
		if err != nil {
			if !os.IsNotExist(err) {
				errs = append(errs, &fileutil.FileSystemError{Op: "read directory", Path: parent, Err: err})
			}
			continue
		}
		for _, entry := range entries {
			run := runscan.NewRun(filepath.Join(parent, entry.Name()))
			info, err := os.Stat(run.OutputDir)
			if err != nil || !info.IsDir() {
				continue
			}
			if fileutil.Exists(run.CompletionRecordPath()) {
				continue
			}
			files, size := dirSize(run.OutputDir)
			found = append(found, Incomplete{
				Run:     run,
				ModTime: info.ModTime(),
				Files:   files,
				Size:    size,
			})
		}
	}
	return found, errs
}

// RemoveResult contains the outcome of a removal.
type RemoveResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// Remove deletes the partial output directories of items. Finalized
// directories are made writable first.
func Remove(ctx context.Context, items []Incomplete, logger *slog.Logger) RemoveResult {
	result := RemoveResult{}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: item.Run.OutputDir, Error: err})
			return result
		}
		dirPath := item.Run.OutputDir
		// Completed between listing and removal: leave it alone.
		if fileutil.Exists(item.Run.CompletionRecordPath()) {
			continue
		}

		_ = os.Chmod(dirPath, 0o755)
		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			logging.WarnWithContext(ctx, logger, "failed to remove incomplete output directory", logging.EventIncompleteOutputDir,
				logging.String(logging.FieldRunID, item.Run.ID),
				logging.String("path", dirPath),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check run directory permissions"),
				logging.String(logging.FieldImpact, "run stays blocked from combining"),
			)
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		if logger != nil {
			logger.InfoContext(ctx, "removed incomplete output directory",
				logging.String(logging.FieldRunID, item.Run.ID),
				logging.String("path", dirPath),
				logging.Duration("age", time.Since(item.ModTime)),
				logging.String(logging.FieldEventType, logging.EventIncompleteOutputDir),
			)
		}
	}
	return result
}

// dirSize counts regular files and their total size below path.
func dirSize(path string) (int, int64) {
	var (
		files int
		size  int64
	)
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // best effort
		}
		if !info.IsDir() {
			files++
			size += info.Size()
		}
		return nil
	})
	return files, size
}

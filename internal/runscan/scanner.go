package runscan

import (
	"context"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"autocombine/internal/fileutil"
	"autocombine/internal/logging"
	"autocombine/internal/samplesheet"
)

// Options configures a Scanner.
type Options struct {
	// ParentDirs are scanned in order; every direct entry is a candidate run.
	ParentDirs []string
	// CheckUploadComplete requires upload_complete.json in the run directory.
	CheckUploadComplete bool
}

// Scanner evaluates run directories. It never modifies the filesystem.
type Scanner struct {
	opts   Options
	logger *slog.Logger
}

// New constructs a scanner. A nil logger discards output.
func New(opts Options, logger *slog.Logger) *Scanner {
	return &Scanner{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "scanner"),
	}
}

// Scan walks every parent directory once. Each directory entry produces one
// Result. A parent that cannot be listed produces one error and the scan moves
// on to the next parent. Cancelling ctx ends the sequence with ctx.Err().
func (s *Scanner) Scan(ctx context.Context) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		s.logger.InfoContext(ctx, "scan started",
			logging.String(logging.FieldEventType, logging.EventScanStart),
			logging.Int("parent_dirs", len(s.opts.ParentDirs)),
		)
		for _, parent := range s.opts.ParentDirs {
			entries, err := os.ReadDir(parent)
			if err != nil {
				logging.WarnWithContext(ctx, s.logger, "run parent directory unreadable", logging.EventScanParentFailed,
					logging.String("parent_dir", parent),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check that the directory exists and is readable"),
					logging.String(logging.FieldImpact, "runs under this directory are not processed"),
				)
				if !yield(Result{}, &fileutil.FileSystemError{Op: "read directory", Path: parent, Err: err}) {
					return
				}
				continue
			}
			for _, entry := range entries {
				if err := ctx.Err(); err != nil {
					yield(Result{}, err)
					return
				}
				result := s.Evaluate(filepath.Join(parent, entry.Name()))
				s.logResult(ctx, result)
				if !yield(result, nil) {
					return
				}
			}
		}
	}
}

// Found collects the runs that are ready to combine, in scan order, together
// with any parent directory errors.
func (s *Scanner) Found(ctx context.Context) ([]Run, []error) {
	var (
		runs []Run
		errs []error
	)
	for result, err := range s.Scan(ctx) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if result.Kind == Found {
			runs = append(runs, result.Run)
		}
	}
	return runs, errs
}

// Evaluate checks the readiness conditions of a single directory.
func (s *Scanner) Evaluate(dir string) Result {
	run := NewRun(dir)

	isDir := fileutil.IsDir(run.Dir)
	ready := true
	if s.opts.CheckUploadComplete {
		ready = fileutil.Exists(filepath.Join(run.Dir, UploadCompleteMarker))
	}
	if isDir {
		if sheet, ok := samplesheet.Resolve(sampleSheetCandidates(run.Dir)); ok {
			run.SampleSheet = sheet
		}
	}

	conditions := Conditions{
		{Name: CondIsDirectory, Met: isDir},
		{Name: CondMatchesRunID, Met: MatchesRunID(run.ID)},
		{Name: CondReadyToAnalyze, Met: ready},
		{Name: CondHasFastqPass, Met: fileutil.IsDir(run.FastqInput)},
		{Name: CondNotAlreadyInitiated, Met: !fileutil.Exists(run.OutputDir)},
		{Name: CondSampleSheetExists, Met: run.SampleSheet != "" && fileutil.Exists(run.SampleSheet)},
	}

	kind := Skipped
	if conditions.AllMet() {
		kind = Found
	}
	return Result{Kind: kind, Run: run, Conditions: conditions}
}

// sampleSheetCandidates lists sample sheet files directly inside dir, custom
// sheets first, each group in directory enumeration order.
func sampleSheetCandidates(dir string) []string {
	matches, err := fileutil.MatchDir(dir, "*"+samplesheet.Extension)
	if err != nil {
		return nil
	}
	var custom, standard []string
	for _, path := range matches {
		name := filepath.Base(path)
		if !samplesheet.IsCandidate(name) {
			continue
		}
		if strings.HasPrefix(name, samplesheet.CustomPrefix) {
			custom = append(custom, path)
		} else {
			standard = append(standard, path)
		}
	}
	return append(custom, standard...)
}

func (s *Scanner) logResult(ctx context.Context, result Result) {
	if result.Kind == Found {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "fastq directory found",
			append(logging.Run(result.Run.ID, result.Run.Dir),
				logging.String(logging.FieldEventType, logging.EventDirectoryFound))...,
		)
		return
	}
	s.logger.DebugContext(ctx, "directory skipped",
		logging.String(logging.FieldEventType, logging.EventDirectorySkipped),
		logging.String(logging.FieldRunDirectory, result.Run.Dir),
		logging.Any(logging.FieldConditionsChecked, result.Conditions),
	)
}

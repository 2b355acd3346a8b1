package combine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"autocombine/internal/fastqstat"
	"autocombine/internal/fileutil"
	"autocombine/internal/logging"
	"autocombine/internal/runscan"
	"autocombine/internal/samplesheet"
)

const (
	// OutputDirMode is applied to fastq_pass_combined once the run is finalized.
	OutputDirMode os.FileMode = 0o550
	// DefaultFileMode applies when Options.FileMode is zero.
	DefaultFileMode os.FileMode = 0o664

	fragmentPattern = "*.fastq.gz"
	outputSuffix    = "_RL.fastq.gz"
)

// Options configures a Combiner.
type Options struct {
	// FileMode is applied to every combined output file.
	FileMode os.FileMode
	// CountReads decodes each output after writing and logs its read count.
	CountReads bool
	// Now overrides the completion timestamp clock.
	Now func() time.Time
}

// Result summarizes a successful combine. It is persisted as the completion
// record.
type Result struct {
	NumBarcodesProcessed int       `json:"num_barcodes_processed"`
	Timestamp            time.Time `json:"timestamp"`
}

// Combiner concatenates fragments for one run at a time.
type Combiner struct {
	opts   Options
	logger *slog.Logger
}

// New constructs a combiner. A nil logger discards output.
func New(opts Options, logger *slog.Logger) *Combiner {
	if opts.FileMode == 0 {
		opts.FileMode = DefaultFileMode
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Combiner{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "combiner"),
	}
}

// PadBarcode left-pads a barcode number with zeros to at least two digits.
func PadBarcode(barcode string) string {
	if len(barcode) >= 2 {
		return barcode
	}
	return strings.Repeat("0", 2-len(barcode)) + barcode
}

// OutputFileName returns the combined file name for a sample and padded barcode.
func OutputFileName(sampleID, paddedBarcode string) string {
	return sampleID + "_barcode" + paddedBarcode + outputSuffix
}

// Fragments lists the fragment files of a barcode in directory enumeration
// order, which fixes the byte order of the combined output. A missing barcode
// directory yields no fragments.
func Fragments(run runscan.Run, paddedBarcode string) ([]string, error) {
	return fileutil.MatchDir(filepath.Join(run.FastqInput, "barcode"+paddedBarcode), fragmentPattern)
}

// Combine consolidates every barcode listed in the run's sample sheet.
//
// The output directory must not exist. Failures while parsing the sheet or
// writing outputs abort the run and leave whatever was written in place.
// ctx is checked between barcodes.
func (c *Combiner) Combine(ctx context.Context, run runscan.Run) (Result, error) {
	logger := c.logger.With(logging.String(logging.FieldRunID, run.ID))

	sheet, err := samplesheet.Parse(run.SampleSheet)
	if err != nil {
		return Result{}, err
	}

	logger.InfoContext(ctx, "analysis started",
		logging.String(logging.FieldEventType, logging.EventAnalysisStarted),
		logging.String(logging.FieldRunDirectory, run.Dir),
		logging.String("samplesheet", run.SampleSheet),
		logging.Int("barcodes", sheet.Len()),
	)

	if err := os.Mkdir(run.OutputDir, 0o755); err != nil {
		return Result{}, &FileSystemError{Op: "create output directory", Path: run.OutputDir, Err: err}
	}

	var (
		result  Result
		written []string
	)
	for _, entry := range sheet.Entries() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		path, err := c.combineBarcode(ctx, logger, run, entry)
		if err != nil {
			return result, err
		}
		written = append(written, path)
		result.NumBarcodesProcessed++
	}

	result.Timestamp = c.opts.Now()
	if err := WriteCompletionRecord(run.CompletionRecordPath(), result); err != nil {
		return result, err
	}

	if err := c.finalize(run, written); err != nil {
		logging.ErrorWithContext(ctx, logger, "output permissions not applied", logging.EventPermissionsFailed,
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check ownership of the run directory"),
		)
		return result, err
	}

	logger.InfoContext(ctx, "combine fastq completed",
		logging.String(logging.FieldEventType, logging.EventCombineCompleted),
		logging.Int("num_barcodes_processed", result.NumBarcodesProcessed),
	)
	return result, nil
}

func (c *Combiner) combineBarcode(ctx context.Context, logger *slog.Logger, run runscan.Run, entry samplesheet.Entry) (string, error) {
	padded := PadBarcode(entry.Barcode)
	fragments, err := Fragments(run, padded)
	if err != nil {
		return "", err
	}
	if len(fragments) == 0 {
		logging.WarnWithContext(ctx, logger, "no fragments for barcode; writing empty output", "barcode_without_fragments",
			append(logging.Sample(padded, entry.SampleID),
				logging.String(logging.FieldErrorHint, "check the sample sheet barcode numbers against fastq_pass"),
				logging.String(logging.FieldImpact, "combined file for this sample is empty"),
			)...,
		)
	}

	output := filepath.Join(run.OutputDir, OutputFileName(entry.SampleID, padded))
	size, err := fileutil.ConcatFiles(output, fragments, c.opts.FileMode)
	if err != nil {
		return "", err
	}

	attrs := append(logging.Sample(padded, entry.SampleID),
		logging.String(logging.FieldEventType, logging.EventBarcodeCombined),
		logging.Int("fragments", len(fragments)),
		logging.Int64("bytes", size),
	)
	if c.opts.CountReads && size > 0 {
		stats, err := fastqstat.Count(output)
		if err != nil {
			logging.WarnWithContext(ctx, logger, "read count failed", "read_count_failed",
				logging.String("path", output),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "inspect the fragment files for truncation"),
				logging.String(logging.FieldImpact, "read counts missing from the log"),
			)
		} else {
			attrs = append(attrs, logging.Int64("reads", stats.Reads), logging.Int64("bases", stats.Bases))
		}
	}
	logger.LogAttrs(ctx, slog.LevelDebug, "barcode combined", attrs...)
	return output, nil
}

// finalize applies the configured mode to each output explicitly, then locks
// the output directory. All chmod failures are reported together.
func (c *Combiner) finalize(run runscan.Run, outputs []string) error {
	var errs *multierror.Error
	for _, path := range outputs {
		if err := os.Chmod(path, c.opts.FileMode); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := os.Chmod(run.OutputDir, OutputDirMode); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return &FileSystemError{Op: "chmod", Path: run.OutputDir, Err: err}
	}
	return nil
}

// WriteCompletionRecord writes result as indented JSON followed by a newline.
func WriteCompletionRecord(path string, result Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode completion record: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &FileSystemError{Op: "write completion record", Path: path, Err: err}
	}
	return nil
}

// ReadCompletionRecord loads a completion record written by Combine.
func ReadCompletionRecord(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, &FileSystemError{Op: "read completion record", Path: path, Err: err}
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("decode completion record %s: %w", path, err)
	}
	return result, nil
}

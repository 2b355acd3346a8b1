package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"autocombine/internal/combine"
	"autocombine/internal/config"
	"autocombine/internal/logging"
	"autocombine/internal/runscan"
)

// Scanner yields scan results for one pass.
type Scanner interface {
	Scan(ctx context.Context) iter.Seq2[runscan.Result, error]
}

// Combiner consolidates a single run.
type Combiner interface {
	Combine(ctx context.Context, run runscan.Run) (combine.Result, error)
}

// Outcome records what happened to one Found run.
type Outcome struct {
	Run    runscan.Run
	Result combine.Result
	Err    error
}

// Summary describes a completed pass.
type Summary struct {
	PassID     string
	Started    time.Time
	Finished   time.Time
	Evaluated  int
	Skipped    int
	Combined   []Outcome
	Failed     []Outcome
	ScanErrors []error
}

// Processor runs scan-and-combine passes.
type Processor struct {
	scanner  Scanner
	combiner Combiner
	logger   *slog.Logger
}

// NewProcessor wires a processor from its collaborators.
func NewProcessor(scanner Scanner, combiner Combiner, logger *slog.Logger) *Processor {
	return &Processor{
		scanner:  scanner,
		combiner: combiner,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}
}

// New builds a processor from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Processor, error) {
	if cfg == nil {
		return nil, errors.New("pipeline requires config")
	}
	mode, err := cfg.CombinedFileMode()
	if err != nil {
		return nil, err
	}
	scanner := runscan.New(runscan.Options{
		ParentDirs:          cfg.Scan.RunParentDirs,
		CheckUploadComplete: cfg.Scan.CheckUploadComplete,
	}, logger)
	combiner := combine.New(combine.Options{
		FileMode:   mode,
		CountReads: cfg.Combine.CountReads,
	}, logger)
	return NewProcessor(scanner, combiner, logger), nil
}

// RunPass scans once and combines every Found run in scan order. The returned
// error aggregates scan and combine failures; cancellation stops the pass and
// is returned as is.
func (p *Processor) RunPass(ctx context.Context) (Summary, error) {
	summary := Summary{PassID: uuid.NewString(), Started: time.Now()}
	ctx = logging.ContextWithPassID(ctx, summary.PassID)

	var errs *multierror.Error
	for result, err := range p.scanner.Scan(ctx) {
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				summary.Finished = time.Now()
				return summary, err
			}
			summary.ScanErrors = append(summary.ScanErrors, err)
			errs = multierror.Append(errs, err)
			continue
		}
		summary.Evaluated++
		if result.Kind != runscan.Found {
			summary.Skipped++
			continue
		}

		outcome := Outcome{Run: result.Run}
		outcome.Result, outcome.Err = p.combiner.Combine(ctx, result.Run)
		if outcome.Err != nil {
			summary.Failed = append(summary.Failed, outcome)
			if errors.Is(outcome.Err, context.Canceled) || errors.Is(outcome.Err, context.DeadlineExceeded) {
				logging.WarnWithContext(ctx, p.logger, "combine interrupted; output directory left incomplete", logging.EventCombineFailed,
					append(logging.Run(result.Run.ID, result.Run.Dir),
						logging.String(logging.FieldErrorHint, "run `autocombine recover --remove` before the next pass"),
						logging.String(logging.FieldImpact, "run is not reprocessed until the partial output is removed"),
					)...,
				)
				summary.Finished = time.Now()
				return summary, outcome.Err
			}
			logging.ErrorWithContext(ctx, p.logger, "combine failed", logging.EventCombineFailed,
				append(logging.Run(result.Run.ID, result.Run.Dir),
					logging.Error(outcome.Err),
					logging.String(logging.FieldErrorHint, "fix the cause, then remove fastq_pass_combined so the run is picked up again"),
				)...,
			)
			errs = multierror.Append(errs, fmt.Errorf("run %s: %w", result.Run.ID, outcome.Err))
			continue
		}
		summary.Combined = append(summary.Combined, outcome)
	}

	summary.Finished = time.Now()
	p.logger.InfoContext(ctx, "pass completed",
		logging.String(logging.FieldEventType, logging.EventPassCompleted),
		logging.Int("evaluated", summary.Evaluated),
		logging.Int("skipped", summary.Skipped),
		logging.Int("combined", len(summary.Combined)),
		logging.Int("failed", len(summary.Failed)),
		logging.Int("scan_errors", len(summary.ScanErrors)),
		logging.Duration("duration", summary.Finished.Sub(summary.Started)),
	)
	return summary, errs.ErrorOrNil()
}

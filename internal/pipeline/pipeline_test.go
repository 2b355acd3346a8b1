package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autocombine/internal/combine"
	"autocombine/internal/config"
	"autocombine/internal/logging"
	"autocombine/internal/pipeline"
	"autocombine/internal/runscan"
	"autocombine/internal/testsupport"
)

func newProcessor(t *testing.T, cfg *config.Config) *pipeline.Processor {
	t.Helper()
	proc, err := pipeline.New(cfg, nil)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return proc
}

func TestEndToEndWithoutUploadCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithUploadCheck(false))
	run := testsupport.ReadyRun(t, testsupport.ParentDir(cfg), testsupport.RunID)
	input, err := os.ReadFile(filepath.Join(run.Dir, "fastq_pass", "barcode01", "read1.fastq.gz"))
	if err != nil {
		t.Fatal(err)
	}

	summary, err := newProcessor(t, cfg).RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if len(summary.Combined) != 1 || summary.Combined[0].Run.ID != testsupport.RunID {
		t.Fatalf("expected one combined run, got %+v", summary.Combined)
	}
	if summary.PassID == "" {
		t.Fatal("expected a pass id")
	}

	output, err := os.ReadFile(filepath.Join(run.OutputDir(), "S1_barcode01_RL.fastq.gz"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(output, input) {
		t.Fatal("combined output must equal the single fragment")
	}
	record, err := combine.ReadCompletionRecord(filepath.Join(run.Dir, "combine_fastq_complete.json"))
	if err != nil {
		t.Fatalf("read completion record: %v", err)
	}
	if record.NumBarcodesProcessed != 1 {
		t.Fatalf("expected count 1, got %d", record.NumBarcodesProcessed)
	}

	// The output directory now guards against a second combine.
	again, err := newProcessor(t, cfg).RunPass(context.Background())
	if err != nil {
		t.Fatalf("second RunPass: %v", err)
	}
	if len(again.Combined) != 0 || again.Skipped != 1 {
		t.Fatalf("run must not be combined twice: %+v", again)
	}
}

func TestEndToEndUploadCheckWithoutMarker(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithUploadCheck(true))
	run := testsupport.ReadyRun(t, testsupport.ParentDir(cfg), testsupport.RunID)

	summary, err := newProcessor(t, cfg).RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if len(summary.Combined) != 0 || summary.Skipped != 1 {
		t.Fatalf("expected the run to be skipped, got %+v", summary)
	}
	if _, err := os.Stat(run.OutputDir()); !os.IsNotExist(err) {
		t.Fatal("skipped run must not get an output directory")
	}
}

func TestInterruptedCombineBlocksReprocessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	run := testsupport.ReadyRun(t, testsupport.ParentDir(cfg), testsupport.RunID)

	// Simulate a process killed after the output directory was created.
	run.CreateOutputDir()
	testsupport.WriteFile(t, filepath.Join(run.OutputDir(), "S1_barcode01_RL.fastq.gz"), []byte{0x1f})

	summary, err := newProcessor(t, cfg).RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if len(summary.Combined) != 0 || summary.Skipped != 1 {
		t.Fatalf("partial output must block reprocessing, got %+v", summary)
	}
}

func TestPassContinuesAfterCombineFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	parent := testsupport.ParentDir(cfg)
	bad := testsupport.ReadyRun(t, parent, "20230101_1200_X1_ABC12345_aaaaaaaa")
	bad.WriteSampleSheet("sample_sheet.csv", "barcode,name\n1,S1\n")
	good := testsupport.ReadyRun(t, parent, "20230101_1300_X2_ABC12345_bbbbbbbb")

	summary, err := newProcessor(t, cfg).RunPass(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if !strings.Contains(err.Error(), "20230101_1200_X1_ABC12345_aaaaaaaa") {
		t.Fatalf("error should name the failed run: %v", err)
	}
	if len(summary.Failed) != 1 || len(summary.Combined) != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(good.Dir, "combine_fastq_complete.json")); err != nil {
		t.Fatalf("later run should still be combined: %v", err)
	}
}

type fakeScanner struct {
	results []runscan.Result
	errs    []error
}

func (f fakeScanner) Scan(ctx context.Context) iter.Seq2[runscan.Result, error] {
	return func(yield func(runscan.Result, error) bool) {
		for _, err := range f.errs {
			if !yield(runscan.Result{}, err) {
				return
			}
		}
		for _, result := range f.results {
			if !yield(result, nil) {
				return
			}
		}
	}
}

type fakeCombiner struct {
	calls []string
	err   error
}

func (f *fakeCombiner) Combine(_ context.Context, run runscan.Run) (combine.Result, error) {
	f.calls = append(f.calls, run.ID)
	return combine.Result{NumBarcodesProcessed: 1}, f.err
}

func TestRunPassAggregatesScanErrors(t *testing.T) {
	scanErr := errors.New("parent unreadable")
	scanner := fakeScanner{
		errs: []error{scanErr},
		results: []runscan.Result{
			{Kind: runscan.Skipped, Run: runscan.Run{ID: "skip"}},
			{Kind: runscan.Found, Run: runscan.Run{ID: "one"}},
			{Kind: runscan.Found, Run: runscan.Run{ID: "two"}},
		},
	}
	combiner := &fakeCombiner{}

	summary, err := pipeline.NewProcessor(scanner, combiner, nil).RunPass(context.Background())
	if !errors.Is(err, scanErr) {
		t.Fatalf("expected scan error in result, got %v", err)
	}
	if strings.Join(combiner.calls, ",") != "one,two" {
		t.Fatalf("unexpected combine order %v", combiner.calls)
	}
	if summary.Evaluated != 3 || summary.Skipped != 1 || len(summary.ScanErrors) != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestRunPassStopsOnCancellation(t *testing.T) {
	scanner := fakeScanner{results: []runscan.Result{
		{Kind: runscan.Found, Run: runscan.Run{ID: "one"}},
		{Kind: runscan.Found, Run: runscan.Run{ID: "two"}},
	}}
	combiner := &fakeCombiner{err: context.Canceled}

	summary, err := pipeline.NewProcessor(scanner, combiner, nil).RunPass(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(combiner.calls) != 1 || len(summary.Failed) != 1 {
		t.Fatalf("pass must stop after the interrupted run: calls=%v", combiner.calls)
	}
}

func TestNewRejectsInvalidPermissions(t *testing.T) {
	for _, mode := range []string{"rw-r--r--", "0000"} {
		cfg := testsupport.NewConfig(t, testsupport.WithPermissions(mode))
		if _, err := pipeline.New(cfg, nil); err == nil {
			t.Fatalf("expected error for permissions %q", mode)
		}
	}
}

func TestPassRecordsCarryPassID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.ReadyRun(t, testsupport.ParentDir(cfg), testsupport.RunID)
	logPath := filepath.Join(t.TempDir(), "pass.log")
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Files: []string{logPath}})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	proc, err := pipeline.New(cfg, logger)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}

	summary, err := proc.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	events := map[string]bool{}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			t.Fatalf("log line is not json: %q", line)
		}
		if record[logging.FieldPassID] != summary.PassID {
			t.Fatalf("record without pass id %s: %s", summary.PassID, line)
		}
		if event, ok := record[logging.FieldEventType].(string); ok {
			events[event] = true
		}
	}
	for _, want := range []string{
		logging.EventScanStart,
		logging.EventDirectoryFound,
		logging.EventAnalysisStarted,
		logging.EventBarcodeCombined,
		logging.EventCombineCompleted,
		logging.EventPassCompleted,
	} {
		if !events[want] {
			t.Errorf("missing %s event in pass log", want)
		}
	}
}

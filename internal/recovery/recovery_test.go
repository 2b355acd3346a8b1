package recovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"autocombine/internal/runscan"
	"autocombine/internal/testsupport"
)

func TestFindIncomplete(t *testing.T) {
	parent := t.TempDir()

	partial := testsupport.ReadyRun(t, parent, "20230101_1200_X1_ABC12345_aaaaaaaa")
	partial.CreateOutputDir()
	testsupport.WriteFile(t, filepath.Join(partial.OutputDir(), "S1_barcode01_RL.fastq.gz"), []byte("12345"))

	done := testsupport.ReadyRun(t, parent, "20230101_1300_X1_ABC12345_bbbbbbbb")
	done.CreateOutputDir()
	testsupport.WriteFile(t, filepath.Join(done.Dir, "combine_fastq_complete.json"), []byte("{}\n"))

	testsupport.ReadyRun(t, parent, "20230101_1400_X1_ABC12345_cccccccc")

	found, errs := FindIncomplete([]string{parent, filepath.Join(parent, "missing")})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors %v", errs)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 incomplete run, got %+v", found)
	}
	if found[0].Run.ID != "20230101_1200_X1_ABC12345_aaaaaaaa" || found[0].Files != 1 || found[0].Size != 5 {
		t.Fatalf("unexpected entry %+v", found[0])
	}
}

func TestRemoveUnblocksRun(t *testing.T) {
	parent := t.TempDir()
	run := testsupport.ReadyRun(t, parent, testsupport.RunID)
	run.CreateOutputDir()
	testsupport.WriteFile(t, filepath.Join(run.OutputDir(), "partial.fastq.gz"), []byte{0x1f})
	if err := os.Chmod(run.OutputDir(), 0o550); err != nil {
		t.Fatal(err)
	}

	found, _ := FindIncomplete([]string{parent})
	result := Remove(context.Background(), found, nil)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors %+v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != run.OutputDir() {
		t.Fatalf("unexpected removed %v", result.Removed)
	}

	scanned := runscan.New(runscan.Options{ParentDirs: []string{parent}}, nil).Evaluate(run.Dir)
	if scanned.Kind != runscan.Found {
		t.Fatalf("run should be ready again, failed %v", scanned.Conditions.Failed())
	}
}

func TestRemoveSkipsRunsCompletedMeanwhile(t *testing.T) {
	parent := t.TempDir()
	run := testsupport.ReadyRun(t, parent, testsupport.RunID)
	run.CreateOutputDir()

	found, _ := FindIncomplete([]string{parent})
	testsupport.WriteFile(t, filepath.Join(run.Dir, "combine_fastq_complete.json"), []byte("{}\n"))

	result := Remove(context.Background(), found, nil)
	if len(result.Removed) != 0 {
		t.Fatalf("completed run must not be removed: %v", result.Removed)
	}
	if _, err := os.Stat(run.OutputDir()); err != nil {
		t.Fatalf("output dir should remain: %v", err)
	}
}

func TestRemoveStopsOnCancellation(t *testing.T) {
	parent := t.TempDir()
	run := testsupport.ReadyRun(t, parent, testsupport.RunID)
	run.CreateOutputDir()

	found, _ := FindIncomplete([]string{parent})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Remove(ctx, found, nil)
	if len(result.Removed) != 0 || len(result.Errors) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

package combine_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"autocombine/internal/combine"
	"autocombine/internal/runscan"
	"autocombine/internal/samplesheet"
	"autocombine/internal/testsupport"
)

var fixedNow = time.Date(2024, 3, 5, 14, 30, 0, 0, time.FixedZone("PST", -8*3600))

func newCombiner(opts combine.Options) *combine.Combiner {
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	return combine.New(opts, nil)
}

func runFor(t *testing.T, fixture *testsupport.RunFixture, sheet string) runscan.Run {
	t.Helper()
	run := runscan.NewRun(fixture.Dir)
	run.SampleSheet = filepath.Join(fixture.Dir, sheet)
	return run
}

func TestPadBarcode(t *testing.T) {
	for in, want := range map[string]string{"1": "01", "9": "09", "12": "12", "123": "123", "01": "01"} {
		if got := combine.PadBarcode(in); got != want {
			t.Errorf("PadBarcode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCombineConcatenatesFragmentsInDiscoveryOrder(t *testing.T) {
	fixture := testsupport.NewRun(t, t.TempDir(), testsupport.RunID)
	payloads := map[string][]byte{
		"c.fastq.gz": testsupport.GzipFastq(t, testsupport.Reads("c", 1, 8)...),
		"a.fastq.gz": testsupport.GzipFastq(t, testsupport.Reads("a", 2, 8)...),
		"b.fastq.gz": testsupport.GzipFastq(t, testsupport.Reads("b", 3, 8)...),
	}
	for _, name := range []string{"c.fastq.gz", "a.fastq.gz", "b.fastq.gz"} {
		fixture.AddFragment("01", name, payloads[name])
	}
	fixture.AddFragment("01", "ignored.fastq", []byte("not gzip"))
	fixture.WriteSampleSheet("sample_sheet.csv", "barcode,sample_id\n1,S1\n")

	dir, err := os.Open(filepath.Join(fixture.FastqPass(), "barcode01"))
	if err != nil {
		t.Fatal(err)
	}
	names, err := dir.Readdirnames(-1)
	dir.Close()
	if err != nil {
		t.Fatal(err)
	}
	var want []byte
	for _, name := range names {
		want = append(want, payloads[name]...)
	}

	result, err := newCombiner(combine.Options{}).Combine(context.Background(), runFor(t, fixture, "sample_sheet.csv"))
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if result.NumBarcodesProcessed != 1 {
		t.Fatalf("expected 1 barcode, got %d", result.NumBarcodesProcessed)
	}

	got, err := os.ReadFile(filepath.Join(fixture.OutputDir(), "S1_barcode01_RL.fastq.gz"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("output does not follow directory enumeration order %v (got %d bytes, want %d)", names, len(got), len(want))
	}
}

func TestCombineThreeBarcodesWritesCompletionRecord(t *testing.T) {
	fixture := testsupport.NewRun(t, t.TempDir(), testsupport.RunID)
	for _, bc := range []string{"01", "02", "10"} {
		fixture.AddFragment(bc, "part_0.fastq.gz", testsupport.GzipFastq(t, testsupport.Reads(bc, 1, 4)...))
	}
	fixture.WriteSampleSheet("sample_sheet.csv", "barcode,sample_id\n10,S10\n1,S1\n2,S2\n")

	run := runFor(t, fixture, "sample_sheet.csv")
	if _, err := newCombiner(combine.Options{}).Combine(context.Background(), run); err != nil {
		t.Fatalf("Combine: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(fixture.Dir, "combine_fastq_complete.json"))
	if err != nil {
		t.Fatalf("read completion record: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("completion record is not json: %v", err)
	}
	if raw["num_barcodes_processed"] != float64(3) {
		t.Fatalf("unexpected count %v", raw["num_barcodes_processed"])
	}
	stamp, ok := raw["timestamp"].(string)
	if !ok {
		t.Fatalf("timestamp missing: %v", raw)
	}
	parsed, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		t.Fatalf("timestamp %q is not ISO-8601: %v", stamp, err)
	}
	if !parsed.Equal(fixedNow) {
		t.Fatalf("unexpected timestamp %v", parsed)
	}
	if !bytes.HasSuffix(data, []byte("}\n")) || !bytes.Contains(data, []byte("\n  \"timestamp\"")) {
		t.Fatalf("expected indented record with trailing newline, got %q", data)
	}

	for _, name := range []string{"S1_barcode01_RL.fastq.gz", "S2_barcode02_RL.fastq.gz", "S10_barcode10_RL.fastq.gz"} {
		if _, err := os.Stat(filepath.Join(fixture.OutputDir(), name)); err != nil {
			t.Fatalf("missing output %s: %v", name, err)
		}
	}

	record, err := combine.ReadCompletionRecord(run.CompletionRecordPath())
	if err != nil || record.NumBarcodesProcessed != 3 {
		t.Fatalf("ReadCompletionRecord = %+v, %v", record, err)
	}
}

func TestCombineAppliesPermissions(t *testing.T) {
	fixture := testsupport.ReadyRun(t, t.TempDir(), testsupport.RunID)

	_, err := newCombiner(combine.Options{FileMode: 0o640}).Combine(context.Background(), runFor(t, fixture, "sample_sheet.csv"))
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}

	dirInfo, err := os.Stat(fixture.OutputDir())
	if err != nil {
		t.Fatal(err)
	}
	if dirInfo.Mode().Perm() != 0o550 {
		t.Fatalf("output dir mode = %o, want 550", dirInfo.Mode().Perm())
	}
	fileInfo, err := os.Stat(filepath.Join(fixture.OutputDir(), "S1_barcode01_RL.fastq.gz"))
	if err != nil {
		t.Fatal(err)
	}
	if fileInfo.Mode().Perm() != 0o640 {
		t.Fatalf("output file mode = %o, want 640", fileInfo.Mode().Perm())
	}
}

func TestCombineMissingBarcodeDirWritesEmptyOutput(t *testing.T) {
	fixture := testsupport.ReadyRun(t, t.TempDir(), testsupport.RunID)
	fixture.WriteSampleSheet("sample_sheet.csv", "barcode,sample_id\n1,S1\n7,S7\n")

	result, err := newCombiner(combine.Options{}).Combine(context.Background(), runFor(t, fixture, "sample_sheet.csv"))
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if result.NumBarcodesProcessed != 2 {
		t.Fatalf("expected both barcodes counted, got %d", result.NumBarcodesProcessed)
	}
	info, err := os.Stat(filepath.Join(fixture.OutputDir(), "S7_barcode07_RL.fastq.gz"))
	if err != nil {
		t.Fatalf("missing empty output: %v", err)
	}
	if info.Size() != 0 {
		t.Fatalf("expected empty output, got %d bytes", info.Size())
	}
}

func TestCombineFailsWhenOutputDirExists(t *testing.T) {
	fixture := testsupport.ReadyRun(t, t.TempDir(), testsupport.RunID)
	fixture.CreateOutputDir()

	_, err := newCombiner(combine.Options{}).Combine(context.Background(), runFor(t, fixture, "sample_sheet.csv"))
	var fsErr *combine.FileSystemError
	if !errors.As(err, &fsErr) {
		t.Fatalf("expected FileSystemError, got %v", err)
	}
	if !errors.Is(err, os.ErrExist) || fsErr.ErrorKind() != "filesystem" {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := os.Stat(filepath.Join(fixture.Dir, "combine_fastq_complete.json")); !os.IsNotExist(err) {
		t.Fatal("completion record must not be written on failure")
	}
}

func TestCombineParseErrorLeavesNoOutput(t *testing.T) {
	fixture := testsupport.ReadyRun(t, t.TempDir(), testsupport.RunID)
	fixture.WriteSampleSheet("sample_sheet.csv", "sample_id\nS1\n")

	_, err := newCombiner(combine.Options{}).Combine(context.Background(), runFor(t, fixture, "sample_sheet.csv"))
	var parseErr *samplesheet.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if _, err := os.Stat(fixture.OutputDir()); !os.IsNotExist(err) {
		t.Fatal("output directory must not be created when the sheet is invalid")
	}
}

func TestCombineRejectsSampleIDOutsideOutputDir(t *testing.T) {
	parent := t.TempDir()
	fixture := testsupport.ReadyRun(t, parent, testsupport.RunID)
	fixture.WriteSampleSheet("sample_sheet.csv", "barcode,sample_id\n1,../../escaped\n")

	_, err := newCombiner(combine.Options{}).Combine(context.Background(), runFor(t, fixture, "sample_sheet.csv"))
	if !errors.Is(err, samplesheet.ErrUnsafeSampleID) {
		t.Fatalf("expected ErrUnsafeSampleID, got %v", err)
	}
	if _, err := os.Stat(fixture.OutputDir()); !os.IsNotExist(err) {
		t.Fatal("output directory must not be created for an unsafe sample id")
	}
	matches, _ := filepath.Glob(filepath.Join(parent, "escaped*"))
	if len(matches) != 0 {
		t.Fatalf("file written outside the run: %v", matches)
	}
}

func TestCombineCancelledLeavesPartialOutput(t *testing.T) {
	fixture := testsupport.ReadyRun(t, t.TempDir(), testsupport.RunID)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newCombiner(combine.Options{}).Combine(ctx, runFor(t, fixture, "sample_sheet.csv"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(fixture.OutputDir()); err != nil {
		t.Fatalf("partial output directory should remain: %v", err)
	}
	if _, err := os.Stat(filepath.Join(fixture.Dir, "combine_fastq_complete.json")); !os.IsNotExist(err) {
		t.Fatal("completion record must not exist after an interrupted combine")
	}
}

func TestCombineWithReadCounting(t *testing.T) {
	fixture := testsupport.ReadyRun(t, t.TempDir(), testsupport.RunID)

	result, err := newCombiner(combine.Options{CountReads: true}).Combine(context.Background(), runFor(t, fixture, "sample_sheet.csv"))
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if result.NumBarcodesProcessed != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

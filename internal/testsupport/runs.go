package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// RunID is a well-formed GridION run identifier.
const RunID = "20230101_1200_X1_ABC12345_a1b2c3d4"

// RunFixture builds a sequencing run directory on disk.
type RunFixture struct {
	t   testing.TB
	Dir string
}

// NewRun creates an empty run directory named name under parent.
func NewRun(t testing.TB, parent, name string) *RunFixture {
	t.Helper()

	dir := filepath.Join(parent, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir run: %v", err)
	}
	run := &RunFixture{t: t, Dir: dir}
	// A finalized output directory is 0550; restore write access so the
	// temp dir can be removed.
	t.Cleanup(func() {
		_ = os.Chmod(run.OutputDir(), 0o755)
	})
	return run
}

// ReadyRun creates a run that satisfies every readiness condition except the
// upload marker: fastq_pass/barcode01/read1.fastq.gz and a sample_sheet.csv
// mapping barcode 1 to S1.
func ReadyRun(t testing.TB, parent, name string) *RunFixture {
	t.Helper()

	run := NewRun(t, parent, name)
	run.AddFragment("01", "read1.fastq.gz", GzipFastq(t, Reads("read1", 3, 12)...))
	run.WriteSampleSheet("sample_sheet.csv", "barcode,sample_id\n1,S1\n")
	return run
}

// FastqPass creates the fastq_pass directory and returns its path.
func (r *RunFixture) FastqPass() string {
	r.t.Helper()

	dir := filepath.Join(r.Dir, "fastq_pass")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.t.Fatalf("mkdir fastq_pass: %v", err)
	}
	return dir
}

// AddFragment writes fastq_pass/barcode<barcode>/<name> and returns its path.
func (r *RunFixture) AddFragment(barcode, name string, data []byte) string {
	r.t.Helper()

	path := filepath.Join(r.FastqPass(), "barcode"+barcode, name)
	WriteFile(r.t, path, data)
	return path
}

// WriteSampleSheet writes a sample sheet named name into the run directory.
func (r *RunFixture) WriteSampleSheet(name, body string) string {
	r.t.Helper()

	path := filepath.Join(r.Dir, name)
	WriteFile(r.t, path, []byte(body))
	return path
}

// MarkUploadComplete writes upload_complete.json.
func (r *RunFixture) MarkUploadComplete() {
	r.t.Helper()
	WriteFile(r.t, filepath.Join(r.Dir, "upload_complete.json"), []byte("{}\n"))
}

// OutputDir returns the fastq_pass_combined path without creating it.
func (r *RunFixture) OutputDir() string {
	return filepath.Join(r.Dir, "fastq_pass_combined")
}

// CreateOutputDir simulates a combine that already started.
func (r *RunFixture) CreateOutputDir() {
	r.t.Helper()

	if err := os.MkdirAll(r.OutputDir(), 0o755); err != nil {
		r.t.Fatalf("mkdir output dir: %v", err)
	}
}

package testsupport

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/pgzip"
)

// WriteFile writes data to path, creating parent directories as needed.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// FastqRecord is a single read used to build test FASTQ content.
type FastqRecord struct {
	ID   string
	Seq  string
	Qual string
}

// Reads generates n reads of the given length with Sanger quality 'I'.
func Reads(prefix string, n, length int) []FastqRecord {
	records := make([]FastqRecord, 0, n)
	for i := 0; i < n; i++ {
		seq := bytes.Repeat([]byte("ACGT"), length/4+1)[:length]
		records = append(records, FastqRecord{
			ID:   fmt.Sprintf("%s_%d", prefix, i),
			Seq:  string(seq),
			Qual: string(bytes.Repeat([]byte("I"), length)),
		})
	}
	return records
}

// GzipFastq encodes records as one gzip member, the shape the sequencer
// writes for each fragment file.
func GzipFastq(t testing.TB, records ...FastqRecord) []byte {
	t.Helper()

	var plain bytes.Buffer
	for _, rec := range records {
		fmt.Fprintf(&plain, "@%s\n%s\n+\n%s\n", rec.ID, rec.Seq, rec.Qual)
	}

	var out bytes.Buffer
	zw := pgzip.NewWriter(&out)
	if _, err := zw.Write(plain.Bytes()); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return out.Bytes()
}

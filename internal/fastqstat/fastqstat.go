// Package fastqstat summarizes gzip-compressed FASTQ files, including the
// multi-member files produced by concatenating fragments.
package fastqstat

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fastq"
	"github.com/biogo/biogo/seq/linear"
	gzip "github.com/klauspost/pgzip"
)

// Stats holds record counts for one FASTQ file.
type Stats struct {
	Reads     int64 `json:"reads"`
	Bases     int64 `json:"bases"`
	MinLength int   `json:"min_length"`
	MaxLength int   `json:"max_length"`
}

// MeanLength returns the average read length, or 0 for an empty file.
func (s Stats) MeanLength() float64 {
	if s.Reads == 0 {
		return 0
	}
	return float64(s.Bases) / float64(s.Reads)
}

// Count decodes the gzip FASTQ at path and tallies its records. Every gzip
// member is read in turn. An empty file has zero reads.
func Count(path string) (Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return Stats{}, err
	}
	defer file.Close()

	br := bufio.NewReader(file)
	if _, err := br.Peek(1); err == io.EOF {
		return Stats{}, nil
	}

	gr, err := gzip.NewReader(br)
	if err != nil {
		return Stats{}, fmt.Errorf("open gzip %s: %w", path, err)
	}
	defer gr.Close()

	stats, err := Read(gr)
	if err != nil {
		return stats, fmt.Errorf("read fastq %s: %w", path, err)
	}
	return stats, nil
}

// Read tallies the uncompressed FASTQ records in r.
func Read(r io.Reader) (Stats, error) {
	template := linear.NewQSeq("", nil, alphabet.DNAredundant, alphabet.Sanger)
	sc := seqio.NewScanner(fastq.NewReader(r, template))

	var stats Stats
	for sc.Next() {
		length := sc.Seq().Len()
		stats.Reads++
		stats.Bases += int64(length)
		if stats.Reads == 1 || length < stats.MinLength {
			stats.MinLength = length
		}
		if length > stats.MaxLength {
			stats.MaxLength = length
		}
	}
	return stats, sc.Error()
}

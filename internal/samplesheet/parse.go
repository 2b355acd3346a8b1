package samplesheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// ColumnBarcode holds the barcode number (e.g. "1" or "01").
	ColumnBarcode = "barcode"
	// ColumnSampleID holds the sample identifier used in output file names.
	ColumnSampleID = "sample_id"
)

var (
	// ErrMissingColumn is wrapped when a required header column is absent.
	ErrMissingColumn = errors.New("missing required column")
	// ErrEmptyValue is wrapped when a row leaves a required column blank.
	ErrEmptyValue = errors.New("empty required value")
	// ErrUnsafeSampleID is wrapped when a sample id would escape the output
	// directory once used as a file name.
	ErrUnsafeSampleID = errors.New("sample id must not contain a path separator or \"..\"")
)

// Entry is one sample sheet row.
type Entry struct {
	Barcode  string
	SampleID string
	// Extra holds every other column verbatim, keyed by header name.
	Extra map[string]string
}

// Sheet maps barcode numbers to entries. Iteration order is the order in
// which each barcode first appeared; a repeated barcode replaces the earlier
// entry without moving it.
type Sheet struct {
	order   []string
	entries map[string]Entry
}

// NewSheet returns an empty sheet.
func NewSheet() *Sheet {
	return &Sheet{entries: make(map[string]Entry)}
}

// Set stores entry under its barcode.
func (s *Sheet) Set(entry Entry) {
	if _, exists := s.entries[entry.Barcode]; !exists {
		s.order = append(s.order, entry.Barcode)
	}
	s.entries[entry.Barcode] = entry
}

// Get returns the entry for barcode.
func (s *Sheet) Get(barcode string) (Entry, bool) {
	entry, ok := s.entries[barcode]
	return entry, ok
}

// Len returns the number of distinct barcodes.
func (s *Sheet) Len() int {
	return len(s.order)
}

// Barcodes returns the barcode keys in sheet order.
func (s *Sheet) Barcodes() []string {
	return append([]string(nil), s.order...)
}

// Entries returns the entries in sheet order.
func (s *Sheet) Entries() []Entry {
	out := make([]Entry, 0, len(s.order))
	for _, barcode := range s.order {
		out = append(out, s.entries[barcode])
	}
	return out
}

// Parse reads the sample sheet at path. A UTF-8 byte-order mark written by
// spreadsheet tools is ignored.
func Parse(path string) (*Sheet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer file.Close()

	sheet, err := Read(transform.NewReader(file, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			parseErr.Path = path
			return nil, parseErr
		}
		return nil, &ParseError{Path: path, Err: err}
	}
	return sheet, nil
}

// Read parses sample sheet records from r. Errors are *ParseError values
// without a path.
//
// The dialect is forgiving the way spreadsheet exports need: rows may be
// shorter or longer than the header (missing cells read as empty, surplus
// cells are dropped) and a stray quote inside an unquoted cell is kept
// literally.
func Read(r io.Reader) (*Sheet, error) {
	reader := csv.NewReader(r)
	reader.Comma = ','
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Line: 1, Err: fmt.Errorf("%w: %s", ErrMissingColumn, ColumnBarcode)}
		}
		return nil, csvParseError(err)
	}

	barcodeIdx, sampleIdx := -1, -1
	for idx, name := range header {
		switch name {
		case ColumnBarcode:
			if barcodeIdx < 0 {
				barcodeIdx = idx
			}
		case ColumnSampleID:
			if sampleIdx < 0 {
				sampleIdx = idx
			}
		}
	}
	if barcodeIdx < 0 {
		return nil, &ParseError{Line: 1, Err: fmt.Errorf("%w: %s", ErrMissingColumn, ColumnBarcode)}
	}
	if sampleIdx < 0 {
		return nil, &ParseError{Line: 1, Err: fmt.Errorf("%w: %s", ErrMissingColumn, ColumnSampleID)}
	}

	sheet := NewSheet()
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvParseError(err)
		}
		line, _ := reader.FieldPos(0)

		entry := Entry{
			Barcode:  field(record, barcodeIdx),
			SampleID: field(record, sampleIdx),
		}
		if entry.Barcode == "" {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("%w: %s", ErrEmptyValue, ColumnBarcode)}
		}
		if entry.SampleID == "" {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("%w: %s", ErrEmptyValue, ColumnSampleID)}
		}
		if unsafeSampleID(entry.SampleID) {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("%w: %q", ErrUnsafeSampleID, entry.SampleID)}
		}
		for idx, name := range header {
			if idx == barcodeIdx || idx == sampleIdx {
				continue
			}
			if entry.Extra == nil {
				entry.Extra = make(map[string]string, len(header)-2)
			}
			entry.Extra[name] = field(record, idx)
		}
		sheet.Set(entry)
	}
	return sheet, nil
}

func field(record []string, idx int) string {
	if idx < len(record) {
		return record[idx]
	}
	return ""
}

func unsafeSampleID(id string) bool {
	return strings.ContainsAny(id, `/\`) || strings.Contains(id, "..")
}

func csvParseError(err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Line: csvErr.Line, Err: csvErr.Err}
	}
	return &ParseError{Err: err}
}

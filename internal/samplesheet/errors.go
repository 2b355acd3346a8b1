package samplesheet

import "fmt"

// ParseError reports a sample sheet that could not be opened or read, or that
// lacks the required columns.
type ParseError struct {
	Path string
	// Line is the 1-based line number of the offending record, or 0 when the
	// failure is not tied to a line.
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse sample sheet %s line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse sample sheet %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies the error; JSON logs render it as the error's kind.
func (e *ParseError) ErrorKind() string {
	return "parse"
}

package samplesheet

import (
	"path/filepath"
	"strings"
)

const (
	// CustomPrefix marks sample sheets prepared by the lab; they win over the
	// instrument's standard sheet.
	CustomPrefix = "SampleSheet"
	// StandardPrefix marks the sample sheet written by the sequencing software.
	StandardPrefix = "sample_sheet"
	// Extension is the only sample sheet file extension considered.
	Extension = ".csv"
)

// IsCandidate reports whether a file name looks like a sample sheet. Matching
// is case-sensitive.
func IsCandidate(name string) bool {
	if !strings.HasSuffix(name, Extension) {
		return false
	}
	return strings.HasPrefix(name, CustomPrefix) || strings.HasPrefix(name, StandardPrefix)
}

// Resolve selects at most one sample sheet from candidate paths.
//
// A single candidate is returned as-is (made absolute). With several
// candidates the first custom-prefixed path wins, then the first
// standard-prefixed path. Order within a group is the caller's order.
func Resolve(paths []string) (string, bool) {
	switch len(paths) {
	case 0:
		return "", false
	case 1:
		abs, err := filepath.Abs(paths[0])
		if err != nil {
			return paths[0], true
		}
		return abs, true
	}

	var standard string
	for _, path := range paths {
		base := filepath.Base(path)
		if strings.HasPrefix(base, CustomPrefix) {
			return path, true
		}
		if standard == "" && strings.HasPrefix(base, StandardPrefix) {
			standard = path
		}
	}
	if standard != "" {
		return standard, true
	}
	return "", false
}

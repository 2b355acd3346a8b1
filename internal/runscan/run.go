package runscan

import (
	"log/slog"
	"path/filepath"
	"regexp"

	"autocombine/internal/logging"
)

// File and directory names inside a run directory.
const (
	UploadCompleteMarker = "upload_complete.json"
	FastqPassDir         = "fastq_pass"
	CombinedDir          = "fastq_pass_combined"
	CompletionRecord     = "combine_fastq_complete.json"
)

// runIDPattern follows the GridION naming scheme:
// <yyyymmdd>_<hhmm>_<slot X1-X5>_<flow cell>_<8 char hash>. Only the prefix has
// to match.
var runIDPattern = regexp.MustCompile(`^\d{8}_\d{4}_X[1-5]_[A-Z0-9]+_[a-z0-9]{8}`)

// MatchesRunID reports whether name begins with a GridION run identifier.
func MatchesRunID(name string) bool {
	return runIDPattern.MatchString(name)
}

// Run describes one candidate run directory. All paths are absolute.
type Run struct {
	ID          string `json:"run_id"`
	Dir         string `json:"run_dir"`
	FastqInput  string `json:"fastq_input"`
	OutputDir   string `json:"outdir"`
	SampleSheet string `json:"samplesheet,omitempty"`
}

// NewRun derives the input and output paths of the run rooted at dir.
func NewRun(dir string) Run {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return Run{
		ID:         filepath.Base(dir),
		Dir:        dir,
		FastqInput: filepath.Join(dir, FastqPassDir),
		OutputDir:  filepath.Join(dir, CombinedDir),
	}
}

// CompletionRecordPath is where a finished combine records its summary.
func (r Run) CompletionRecordPath() string {
	return filepath.Join(r.Dir, CompletionRecord)
}

// Condition names, in evaluation order.
const (
	CondIsDirectory         = "is_directory"
	CondMatchesRunID        = "matches_gridion_run_id_format"
	CondReadyToAnalyze      = "ready_to_analyze"
	CondHasFastqPass        = "has_fastq_pass_dir"
	CondNotAlreadyInitiated = "analysis_not_already_initiated"
	CondSampleSheetExists   = "samplesheet_exists"
)

// Condition is one named readiness predicate outcome.
type Condition struct {
	Name string `json:"name"`
	Met  bool   `json:"met"`
}

// Conditions is the ordered set of readiness outcomes for a run.
type Conditions []Condition

// AllMet reports whether every condition holds. An empty set is not met.
func (c Conditions) AllMet() bool {
	if len(c) == 0 {
		return false
	}
	for _, cond := range c {
		if !cond.Met {
			return false
		}
	}
	return true
}

// Failed returns the names of the conditions that do not hold.
func (c Conditions) Failed() []string {
	var failed []string
	for _, cond := range c {
		if !cond.Met {
			failed = append(failed, cond.Name)
		}
	}
	return failed
}

// Get returns the outcome of the named condition.
func (c Conditions) Get(name string) (bool, bool) {
	for _, cond := range c {
		if cond.Name == name {
			return cond.Met, true
		}
	}
	return false, false
}

// LogValue renders the conditions as a group in evaluation order.
func (c Conditions) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(c))
	for _, cond := range c {
		attrs = append(attrs, logging.Bool(cond.Name, cond.Met))
	}
	return slog.GroupValue(attrs...)
}

// Kind discriminates scan results.
type Kind int

const (
	// Skipped means at least one readiness condition failed.
	Skipped Kind = iota
	// Found means the run is ready to combine.
	Found
)

func (k Kind) String() string {
	if k == Found {
		return "found"
	}
	return "skipped"
}

// Result is the evaluation of a single directory entry. Conditions is always
// populated; for Skipped results it explains which checks failed.
type Result struct {
	Kind       Kind
	Run        Run
	Conditions Conditions
}

package preflight

import (
	"fmt"

	"autocombine/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config: each run parent
// directory must be listable, and the state and log directories writable.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for idx, dir := range cfg.Scan.RunParentDirs {
		results = append(results, CheckDirectoryAccess(fmt.Sprintf("Run parent directory %d", idx+1), dir, ReadOnly))
	}
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir, ReadWrite))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir, ReadWrite))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}

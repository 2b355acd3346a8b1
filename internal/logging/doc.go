// Package logging assembles structured slog loggers and formatting helpers used
// across autocombine.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and defines the standardized field keys (event_type,
// sequencing_run_id, run_directory, ...) that scan and combine events carry.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail, a correlation handler that stamps records with the watch
// session id and the pass id carried by the context, and retention pruning
// for rotated log files.
//
// Loggers are always passed explicitly; nothing in this package installs a
// process-wide default.
package logging

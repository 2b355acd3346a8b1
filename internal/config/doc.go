// Package config loads, normalizes, and validates autocombine configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AUTOCOMBINE_RUN_PARENT_DIRS. The Config type centralizes every knob the
// scanner, combiner, watcher and CLI need so run parent directories, output
// permissions and log settings are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a parsed output file mode, and clear validation errors.
package config

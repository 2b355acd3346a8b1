// Package main hosts the autocombine CLI entrypoint and command graph.
//
// The Cobra-based command tree exposes one-shot passes (run), a dry run that
// reports readiness per directory (scan), the long-running watcher (watch),
// preflight checks, recovery of interrupted combines, FASTQ inspection and
// configuration scaffolding. Heavy lifting lives in the internal packages;
// commands here only wire configuration, logging and output.
package main

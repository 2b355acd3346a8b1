// Package runscan enumerates candidate sequencing run directories under the
// configured parent directories and decides which are ready to combine.
//
// Scan is read-only: it evaluates a fixed, ordered set of readiness
// conditions per directory entry and yields a Result whose Kind is Found when
// every condition holds and Skipped otherwise. The presence of the
// fastq_pass_combined output directory is the idempotency guard; once it
// exists a run is never reported as Found again.
package runscan

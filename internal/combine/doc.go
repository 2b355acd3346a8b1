// Package combine consolidates the per-barcode FASTQ fragments of a finished
// run into one file per sample.
//
// Fragments are raw gzip members; they are concatenated byte for byte (no
// decompression) which yields a valid multi-member gzip file. A run is
// finalized by writing combine_fastq_complete.json into the run directory,
// applying the configured mode to each output file, and making the
// fastq_pass_combined directory read-only (0550).
package combine

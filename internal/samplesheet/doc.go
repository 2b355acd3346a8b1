// Package samplesheet chooses and parses the per-run sample sheet that maps
// nanopore barcode numbers to sample identifiers.
//
// Resolve is a pure choice among candidate paths (custom SampleSheet*.csv
// beats standard sample_sheet*.csv). Parse reads a comma-separated sheet with
// a header row into a Sheet that preserves first-seen barcode order; repeated
// barcodes overwrite the earlier row in place.
package samplesheet

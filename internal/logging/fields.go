package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType names the domain event a record describes (scan_start, directory_skipped, ...).
	FieldEventType = "event_type"
	// FieldErrorHint tells an operator what to check when a warning or error is logged.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldRunID is the sequencing run identifier (the run directory name).
	FieldRunID = "sequencing_run_id"
	// FieldRunDirectory is the absolute run directory path.
	FieldRunDirectory = "run_directory"
	// FieldConditionsChecked groups the readiness condition outcomes of a skipped directory.
	FieldConditionsChecked = "conditions_checked"
	// FieldBarcode is the zero-padded barcode label (e.g. 01).
	FieldBarcode = "barcode"
	// FieldSampleID is the sample identifier taken from the sample sheet.
	FieldSampleID = "sample_id"
	// FieldPassID correlates every record emitted by one scan-and-combine pass.
	FieldPassID = "pass_id"
	// FieldSessionID is the standardized key for watch session identifiers.
	FieldSessionID = "session_id"
)

// Event types emitted by the scanner and combiner.
const (
	EventScanStart           = "scan_start"
	EventDirectoryFound      = "fastq_directory_found"
	EventDirectorySkipped    = "directory_skipped"
	EventAnalysisStarted     = "analysis_started"
	EventCombineCompleted    = "combine_fastq_completed"
	EventCombineFailed       = "combine_fastq_failed"
	EventBarcodeCombined     = "barcode_combined"
	EventPassCompleted       = "pass_completed"
	EventScanParentFailed    = "scan_parent_failed"
	EventPermissionsFailed   = "permissions_failed"
	EventIncompleteOutputDir = "incomplete_output_directory"
)

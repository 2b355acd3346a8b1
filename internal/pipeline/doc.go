// Package pipeline runs one sequential scan-and-combine pass: every run the
// scanner reports as Found is combined before the scan moves to the next
// directory entry. A failed combine is logged and the pass continues; all
// failures are returned together when the pass ends.
package pipeline

// Package preflight provides readiness checks for the filesystem paths
// autocombine depends on.
//
// These checks run in two contexts:
//   - The watcher calls RunAll at startup and logs every failed check.
//   - The CLI "autocombine check" command renders every result as a table.
package preflight

// Package preflight provides readiness checks for the filesystem queue and
// the external services inkflow depends on.
//
// The CLI "inkflow check" command runs RunAll before an operator enables the
// watcher; the queue checks also guard against a processing directory that
// lives on a different volume than intake, which would turn the atomic claim
// rename into a copy.
//
// Each service check is gated by its config toggle; disabled features are
// reported as skipped.
package preflight

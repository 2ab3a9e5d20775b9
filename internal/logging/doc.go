// Package logging assembles structured slog loggers and formatting helpers used
// across inkflow.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context-aware helpers that tag log lines with the document name, pipeline
// stage, and correlation ID. A no-op logger is provided for tests and wiring
// code that cannot fail. Retention pruning is shared by the log directory and
// the processed-document holding directory.
package logging

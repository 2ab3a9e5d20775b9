// Package services defines the error taxonomy and context helpers shared by
// the pipeline stages.
//
// Every failure a document can hit is tagged with one of the sentinel
// markers (ErrIO, ErrMalformedDocument, ErrViolation, ErrNotFound,
// ErrInternal) through Wrap, and Classify turns it back into a FailureKind
// the outcome router uses to pick a disposition. Context helpers stamp the
// document name, stage, and correlation identifier for logging.
package services

// Package pipeline drives coverage documents from the intake queue through
// parsing, reconciliation, and disposition.
//
// A Runner processes one batch at a time on a single goroutine. Each
// document is claimed, parsed, reconciled and committed inside one catalog
// transaction, then handed to the outcome router. Failures are contained
// per document: nothing one document does can stop the rest of the batch
// unless fail-fast debugging is enabled.
//
// Cancelling the batch context stops new claims; the document already in
// flight finishes on a detached context bounded by the per-document
// timeout so it is never abandoned mid-claim.
package pipeline

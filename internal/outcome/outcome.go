package outcome

import (
	"errors"

	"inkflow/internal/catalog"
	"inkflow/internal/coverage"
	"inkflow/internal/intake"
	"inkflow/internal/reconcile"
	"inkflow/internal/services"
)

// Disposition is the final state of one document.
type Disposition string

const (
	DispositionCommitted Disposition = "committed"
	DispositionCancelled Disposition = "cancelled"
	DispositionRejected  Disposition = "rejected"
	DispositionMalformed Disposition = "malformed"
	DispositionFailed    Disposition = "failed"
	DispositionRetry     Disposition = "retry"
)

// Outcome is everything the pipeline learned about one claimed document.
type Outcome struct {
	Claim     intake.Claim
	RequestID string
	// File is set when the file name could be decoded.
	File     *coverage.FileName
	Document *coverage.Document
	Job      *catalog.Job
	Item     *catalog.Item
	Result   *reconcile.Result
	// LogSeq is the job log sequence of the committed success entry.
	LogSeq int64
	Err    error
}

// Disposition classifies the outcome.
func (o Outcome) Disposition() Disposition {
	if o.Err != nil {
		switch services.Classify(o.Err) {
		case services.KindIO:
			return DispositionRetry
		case services.KindViolation:
			return DispositionRejected
		case services.KindMalformed, services.KindNotFound:
			return DispositionMalformed
		default:
			return DispositionFailed
		}
	}
	if o.Result != nil && !o.Result.OK() {
		return DispositionRejected
	}
	if o.Document != nil && o.Document.Cancelled {
		return DispositionCancelled
	}
	return DispositionCommitted
}

// Message is the operator-facing explanation for a failed outcome.
func (o Outcome) Message() string {
	if o.Result != nil && !o.Result.OK() {
		return o.Result.Message()
	}
	if o.Err == nil {
		return ""
	}
	_, msg := services.Details(o.Err)
	return msg
}

// JobID returns the job the document names, or zero.
func (o Outcome) JobID() int64 {
	switch {
	case o.Job != nil:
		return o.Job.ID
	case o.File != nil:
		return o.File.Job
	default:
		return 0
	}
}

// ItemID returns the catalog id of the item, when it was resolved.
func (o Outcome) ItemID() *int64 {
	if o.Item == nil {
		return nil
	}
	id := o.Item.ID
	return &id
}

// ErrPanic marks a recovered panic.
var ErrPanic = errors.New("panic while processing document")

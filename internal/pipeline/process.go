package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime/debug"

	"inkflow/internal/catalog"
	"inkflow/internal/coverage"
	"inkflow/internal/intake"
	"inkflow/internal/logging"
	"inkflow/internal/outcome"
	"inkflow/internal/reconcile"
	"inkflow/internal/services"
)

// process runs parse and reconcile for one claim. Every failure ends up in
// the returned Outcome; panics are recovered unless fail-fast is set.
func (r *Runner) process(ctx context.Context, claim intake.Claim) (o outcome.Outcome) {
	o = outcome.Outcome{Claim: claim, RequestID: r.newID()}
	ctx = services.WithRequestID(ctx, o.RequestID)
	ctx = services.WithDocument(ctx, claim.Name)
	logger := r.logger.With(
		logging.String(logging.FieldDocument, claim.Name),
		logging.String(logging.FieldCorrelationID, o.RequestID),
	)

	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if r.failFast {
			panic(rec)
		}
		o.Err = fmt.Errorf("%w: %v", outcome.ErrPanic, rec)
		logger.Error("recovered panic while processing document",
			logging.Any("panic", rec),
			logging.String("stack", string(debug.Stack())),
			logging.String(logging.FieldEventType, "document_panic"),
		)
	}()

	name := filepath.Base(claim.Source)
	if claim.Source == "" {
		name = claim.Name
	}
	file, err := coverage.ParseFileName(name, r.extension)
	if err != nil {
		o.Err = err
		return o
	}
	o.File = &file

	doc, err := r.parse(claim.Path)
	if err != nil {
		o.Err = err
		return o
	}
	doc.File = file
	o.Document = doc
	if doc.Cancelled {
		return o
	}

	ctx = services.WithStage(ctx, "reconcile")
	inks := coverage.ImportableInks(doc)
	logger.Debug("document parsed",
		logging.Int64(logging.FieldJob, file.Job),
		logging.Int(logging.FieldItem, file.Item),
		logging.Int("inks", len(doc.Inks)),
		logging.Int("importable", len(inks)),
	)

	err = r.store.InTx(ctx, func(tx *catalog.Tx) error {
		o.Job, o.Item, o.Result, o.LogSeq = nil, nil, nil, 0
		job, err := tx.Job(ctx, file.Job)
		if err != nil {
			return err
		}
		o.Job = &job
		item, err := tx.Item(ctx, file.Job, file.Item)
		if err != nil {
			return err
		}
		o.Item = &item
		existing, err := tx.ItemColors(ctx, item.ID)
		if err != nil {
			return err
		}
		result, err := r.reconciler.Reconcile(ctx, tx, reconcile.Input{
			Job:      job,
			Item:     item,
			Inks:     inks,
			Existing: existing,
		})
		if err != nil {
			return err
		}
		o.Result = &result
		if !result.OK() {
			return nil
		}
		if err := result.Apply(ctx, tx, item.ID); err != nil {
			return err
		}
		if err := tx.UpdateItemDocument(ctx, item.ID, doc.ArtworkPath, doc.Disclaimer); err != nil {
			return err
		}
		seq, err := tx.AppendLog(ctx, catalog.LogEntry{
			JobID:   job.ID,
			ItemID:  &item.ID,
			Type:    catalog.LogTypeCoverage,
			Message: fmt.Sprintf("Ink coverage for item %d completed.", item.Number),
		})
		if err != nil {
			return err
		}
		o.LogSeq = seq
		return nil
	})
	if err != nil {
		o.Err = err
		o.Result = nil
	}
	return o
}

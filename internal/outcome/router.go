package outcome

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"inkflow/internal/archive"
	"inkflow/internal/catalog"
	"inkflow/internal/config"
	"inkflow/internal/intake"
	"inkflow/internal/logging"
	"inkflow/internal/notifications"
	"inkflow/internal/proof"
	"inkflow/internal/services"
)

// Queue is the file movement surface the router needs.
type Queue interface {
	Delete(c intake.Claim) error
	MoveToProcessed(c intake.Claim) (string, error)
	MoveToInvalid(c intake.Claim) (string, error)
	Release(c intake.Claim) (string, error)
}

// JobLog appends entries to a job's history.
type JobLog interface {
	AppendLog(ctx context.Context, entry catalog.LogEntry) (int64, error)
}

// Archiver uploads a document before it is removed locally.
type Archiver interface {
	Store(ctx context.Context, obj archive.Object) (string, error)
}

// Router performs the side effects for each disposition.
type Router struct {
	queue         Queue
	jobLog        JobLog
	notifier      notifications.Service
	proof         proof.Trigger
	archiver      Archiver
	retainPolicy  string
	noProofMarker string
	logger        *slog.Logger
}

// Deps wires the router's collaborators. Archiver may be nil unless the
// retain policy is archive.
type Deps struct {
	Queue    Queue
	JobLog   JobLog
	Notifier notifications.Service
	Proof    proof.Trigger
	Archiver Archiver
	Logger   *slog.Logger
}

// NewRouter builds a router for the configured retain policy.
func NewRouter(cfg *config.Config, deps Deps) *Router {
	r := &Router{
		queue:         deps.Queue,
		jobLog:        deps.JobLog,
		notifier:      deps.Notifier,
		proof:         deps.Proof,
		archiver:      deps.Archiver,
		retainPolicy:  cfg.Intake.RetainPolicy,
		noProofMarker: cfg.Reconcile.NoProofMarker,
		logger:        deps.Logger,
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	if r.notifier == nil {
		r.notifier = notifications.NewService(nil)
	}
	if r.proof == nil {
		r.proof = proof.Noop{}
	}
	return r
}

// Route disposes of the document and returns its disposition. The error
// reports a failure to move the file; side effect failures are logged.
func (r *Router) Route(ctx context.Context, o Outcome) (Disposition, error) {
	disposition := o.Disposition()
	logger := r.logger.With(
		logging.String(logging.FieldDocument, o.Claim.Name),
		logging.String(logging.FieldCorrelationID, o.RequestID),
		logging.String("disposition", string(disposition)),
	)
	if job := o.JobID(); job != 0 {
		logger = logger.With(logging.Int64(logging.FieldJob, job))
	}

	var err error
	switch disposition {
	case DispositionCommitted:
		err = r.committed(ctx, logger, o)
	case DispositionCancelled:
		logger.Info("cancelled coverage document handled without changes",
			logging.String(logging.FieldEventType, "coverage_cancelled"))
		err = r.retain(ctx, logger, o)
	case DispositionRejected:
		err = r.rejected(ctx, logger, o)
	case DispositionMalformed:
		err = r.malformed(ctx, logger, o)
	case DispositionRetry:
		err = r.retry(logger, o)
	default:
		err = r.failed(ctx, logger, o)
	}
	return disposition, err
}

func (r *Router) committed(ctx context.Context, logger *slog.Logger, o Outcome) error {
	var records int
	var workflow string
	if o.Result != nil {
		records = len(o.Result.Records())
		workflow = string(o.Result.Workflow)
	}
	logger.Info("ink coverage committed",
		logging.Int64("log_seq", o.LogSeq),
		logging.Int("records", records),
		logging.String(logging.FieldWorkflow, workflow),
		logging.String(logging.FieldEventType, "coverage_committed"),
	)
	if err := r.retain(ctx, logger, o); err != nil {
		return err
	}
	if o.File != nil && o.File.HasMarker(r.noProofMarker) {
		logger.Info("proof trigger skipped by file name marker",
			logging.String("marker", r.noProofMarker),
			logging.String(logging.FieldEventType, "proof_skipped"))
		return nil
	}
	req := proof.Request{
		RequestID: o.RequestID,
		JobID:     o.JobID(),
		Document:  o.Claim.Name,
	}
	if o.File != nil {
		req.ItemNumber = o.File.Item
	}
	if o.Item != nil {
		req.ItemID = o.Item.ID
		req.ItemNumber = o.Item.Number
	}
	if o.Document != nil {
		req.Proofer = o.Document.Proofer
		req.ArtworkPath = o.Document.ArtworkPath
	}
	if err := r.proof.Trigger(ctx, req); err != nil {
		logging.WarnWithContext(logger, "proof trigger failed", "proof_trigger_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check proof.redis_addr and that the proofing workers are running"),
			logging.String(logging.FieldImpact, "proof must be requested manually"),
		)
	}
	return nil
}

// retain applies the configured policy to a successfully handled document.
func (r *Router) retain(ctx context.Context, logger *slog.Logger, o Outcome) error {
	switch r.retainPolicy {
	case config.RetainKeep:
		dst, err := r.queue.MoveToProcessed(o.Claim)
		if err != nil {
			return err
		}
		logger.Debug("document retained", logging.String("path", dst))
		return nil
	case config.RetainArchive:
		if r.archiver != nil {
			key, err := r.archiver.Store(ctx, archive.Object{JobID: o.JobID(), Document: o.Claim.Name, Path: o.Claim.Path, RequestID: o.RequestID})
			if err == nil {
				logger.Debug("document archived", logging.String("key", key))
				return r.queue.Delete(o.Claim)
			}
			logging.WarnWithContext(logger, "archive upload failed; retaining locally", "archive_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check archive endpoint and credentials"),
			)
		}
		_, err := r.queue.MoveToProcessed(o.Claim)
		return err
	default:
		return r.queue.Delete(o.Claim)
	}
}

func (r *Router) rejected(ctx context.Context, logger *slog.Logger, o Outcome) error {
	message := o.Message()
	logging.WarnWithContext(logger, "ink coverage rejected", "coverage_rejected",
		logging.String(logging.FieldErrorKind, string(services.KindViolation)),
		logging.String("violations", message),
		logging.String(logging.FieldImpact, "document quarantined; item colors unchanged"),
	)
	dst, err := r.queue.MoveToInvalid(o.Claim)
	if err != nil {
		return err
	}
	r.appendLog(ctx, logger, o, catalog.LogTypeError, message)
	r.notify(ctx, logger, notifications.EventCoverageRejected, o, message)
	logger.Debug("document quarantined", logging.String("path", dst))
	return nil
}

func (r *Router) malformed(ctx context.Context, logger *slog.Logger, o Outcome) error {
	message := o.Message()
	logging.WarnWithContext(logger, "coverage document unreadable", "coverage_malformed",
		logging.String(logging.FieldErrorKind, string(services.Classify(o.Err))),
		logging.String("reason", message),
		logging.String(logging.FieldErrorHint, "fix the document or catalog, then move it back to the intake directory"),
	)
	if _, err := r.queue.MoveToInvalid(o.Claim); err != nil {
		return err
	}
	r.appendLog(ctx, logger, o, catalog.LogTypeError, fmt.Sprintf("Ink coverage %s could not be processed: %s", o.Claim.Name, message))
	r.notify(ctx, logger, notifications.EventCoverageMalformed, o, message)
	return nil
}

func (r *Router) failed(ctx context.Context, logger *slog.Logger, o Outcome) error {
	logging.ErrorWithContext(logger, "unexpected error processing coverage document", "coverage_failed",
		logging.Error(o.Err),
		logging.String(logging.FieldErrorKind, string(services.Classify(o.Err))),
		logging.String(logging.FieldErrorHint, "inspect the quarantined document and the error above"),
	)
	if _, err := r.queue.MoveToInvalid(o.Claim); err != nil {
		return err
	}
	r.appendLog(ctx, logger, o, catalog.LogTypeError, fmt.Sprintf("An unexpected error occurred while processing ink coverage %s.", o.Claim.Name))
	if err := r.notifier.Publish(ctx, notifications.EventInternalError, notifications.Payload{
		"document": o.Claim.Name,
		"error":    o.Err,
	}); err != nil {
		logger.Warn("notification failed", logging.Error(err))
	}
	return nil
}

func (r *Router) retry(logger *slog.Logger, o Outcome) error {
	logging.WarnWithContext(logger, "i/o error; returning document to intake", "coverage_retry",
		logging.Error(o.Err),
		logging.String(logging.FieldErrorHint, "check intake directory permissions and free space"),
	)
	_, err := r.queue.Release(o.Claim)
	return err
}

// appendLog records a job log entry when the job is known. The catalog
// rejects entries for jobs it does not have, which is only logged.
func (r *Router) appendLog(ctx context.Context, logger *slog.Logger, o Outcome, kind, message string) {
	if r.jobLog == nil || o.JobID() == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := r.jobLog.AppendLog(ctx, catalog.LogEntry{
		JobID:   o.JobID(),
		ItemID:  o.ItemID(),
		Type:    kind,
		Message: message,
	}); err != nil {
		logger.Warn("job log entry not recorded",
			logging.Error(err),
			logging.String(logging.FieldEventType, "job_log_failed"),
			logging.String(logging.FieldImpact, "failure visible only in service logs"),
		)
	}
}

func (r *Router) notify(ctx context.Context, logger *slog.Logger, event notifications.Event, o Outcome, message string) {
	payload := notifications.Payload{
		"document": o.Claim.Name,
		"message":  message,
	}
	if o.File != nil {
		payload["job"] = o.File.Job
		payload["item"] = o.File.Item
	}
	if err := r.notifier.Publish(ctx, event, payload); err != nil {
		logger.Warn("notification failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "notification_failed"),
		)
	}
}

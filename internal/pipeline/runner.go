package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"inkflow/internal/catalog"
	"inkflow/internal/config"
	"inkflow/internal/coverage"
	"inkflow/internal/intake"
	"inkflow/internal/logging"
	"inkflow/internal/notifications"
	"inkflow/internal/outcome"
	"inkflow/internal/proof"
	"inkflow/internal/reconcile"
)

// Deps wires the runner's collaborators. Store and Queue are required.
type Deps struct {
	Store    *catalog.Store
	Queue    *intake.Queue
	Notifier notifications.Service
	Proof    proof.Trigger
	Archiver outcome.Archiver
	Logger   *slog.Logger
}

// Runner processes the intake queue.
type Runner struct {
	store      *catalog.Store
	queue      *intake.Queue
	router     *outcome.Router
	reconciler *reconcile.Reconciler
	notifier   notifications.Service
	logger     *slog.Logger

	extension    string
	timeout      time.Duration
	routeTimeout time.Duration
	failFast     bool

	newID func() string
	parse func(path string) (*coverage.Document, error)
}

// Summary counts what one batch did.
type Summary struct {
	Pending   int
	Committed int
	Cancelled int
	Rejected  int
	Malformed int
	Failed    int
	Retried   int
	Skipped   int
	// Drained is set when the batch stopped claiming because its context
	// was cancelled.
	Drained  bool
	Duration time.Duration
}

// Handled returns how many documents reached a terminal disposition.
func (s Summary) Handled() int {
	return s.Committed + s.Cancelled + s.Rejected + s.Malformed + s.Failed
}

func (s *Summary) record(d outcome.Disposition) {
	switch d {
	case outcome.DispositionCommitted:
		s.Committed++
	case outcome.DispositionCancelled:
		s.Cancelled++
	case outcome.DispositionRejected:
		s.Rejected++
	case outcome.DispositionMalformed:
		s.Malformed++
	case outcome.DispositionRetry:
		s.Retried++
	default:
		s.Failed++
	}
}

// New builds a Runner from configuration.
func New(cfg *config.Config, deps Deps) (*Runner, error) {
	if deps.Store == nil || deps.Queue == nil {
		return nil, errors.New("pipeline requires a catalog store and an intake queue")
	}
	opts, err := reconcile.OptionsFromConfig(cfg.Reconcile)
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "pipeline")
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	router := outcome.NewRouter(cfg, outcome.Deps{
		Queue:    deps.Queue,
		JobLog:   deps.Store,
		Notifier: notifier,
		Proof:    deps.Proof,
		Archiver: deps.Archiver,
		Logger:   logging.NewComponentLogger(deps.Logger, "outcome"),
	})
	parser := coverage.Parser{Extension: cfg.Intake.Extension}
	return &Runner{
		store:      deps.Store,
		queue:      deps.Queue,
		router:     router,
		reconciler: reconcile.New(opts),
		notifier:   notifier,
		logger:     logger,
		extension:  cfg.Intake.Extension,
		timeout:    time.Duration(cfg.Pipeline.DocumentTimeout) * time.Second,
		failFast:   cfg.Pipeline.FailFast,

		routeTimeout: defaultRouteTimeout,
		newID:        uuid.NewString,
		parse:        parser.ParseFile,
	}, nil
}

// Recover returns documents abandoned in processing to intake.
func (r *Runner) Recover() ([]string, error) {
	return r.queue.RecoverProcessing()
}

// RunOnce processes every document pending at the start of the batch.
// The error reports a failure to list the queue or, in fail-fast mode,
// the first unexpected document error.
func (r *Runner) RunOnce(ctx context.Context) (Summary, error) {
	start := time.Now()
	docs, err := r.queue.Pending()
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{Pending: len(docs)}
	if len(docs) == 0 {
		return summary, nil
	}
	r.logger.Info("processing coverage batch",
		logging.Int("pending", len(docs)),
		logging.String(logging.FieldEventType, "batch_started"),
	)

	var runErr error
	for _, doc := range docs {
		if ctx.Err() != nil {
			summary.Drained = true
			r.logger.Info("shutdown requested; leaving remaining documents in intake",
				logging.String(logging.FieldEventType, "batch_drained"))
			break
		}
		claim, err := r.queue.Claim(doc)
		if errors.Is(err, intake.ErrAlreadyClaimed) {
			summary.Skipped++
			continue
		}
		if err != nil {
			summary.Retried++
			logging.WarnWithContext(r.logger, "could not claim document; leaving it for the next run", "claim_failed",
				logging.String(logging.FieldDocument, doc.Name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the intake and processing directories"),
				logging.String(logging.FieldImpact, "document retried next run"),
			)
			continue
		}

		disposition, err := r.Handle(ctx, claim)
		if err != nil && r.failFast {
			runErr = err
			break
		}
		summary.record(disposition)
		if err != nil {
			logging.ErrorWithContext(r.logger, "document disposition failed; it stays in processing", "disposition_failed",
				logging.String(logging.FieldDocument, claim.Name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the document is returned to intake on the next start"),
			)
		}
	}

	summary.Duration = time.Since(start)
	r.logger.Info("coverage batch complete",
		logging.Int("committed", summary.Committed),
		logging.Int("cancelled", summary.Cancelled),
		logging.Int("rejected", summary.Rejected),
		logging.Int("malformed", summary.Malformed),
		logging.Int("failed", summary.Failed),
		logging.Int("retried", summary.Retried),
		logging.Duration("duration", summary.Duration),
		logging.String(logging.FieldEventType, "batch_completed"),
	)
	if err := r.notifier.Publish(context.WithoutCancel(ctx), notifications.EventBatchCompleted, notifications.Payload{
		"processed": summary.Committed + summary.Cancelled,
		"rejected":  summary.Rejected + summary.Malformed,
		"failed":    summary.Failed,
		"duration":  summary.Duration,
	}); err != nil {
		r.logger.Warn("batch notification failed", logging.Error(err))
	}
	return summary, runErr
}

// defaultRouteTimeout bounds the side effects of one disposition, archive
// upload included.
const defaultRouteTimeout = 30 * time.Second

// Handle processes one claimed document to its disposition. Parsing and
// reconciling run on a context detached from ctx's cancellation and bounded
// by the document timeout. Routing gets a fresh budget so a document that
// exhausted its own still has its outcome delivered.
func (r *Runner) Handle(ctx context.Context, claim intake.Claim) (outcome.Disposition, error) {
	docCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	o := r.process(docCtx, claim)
	cancel()
	if r.failFast && o.Disposition() == outcome.DispositionFailed {
		return outcome.DispositionFailed, o.Err
	}

	routeCtx, cancelRoute := context.WithTimeout(context.WithoutCancel(ctx), r.routeTimeout)
	defer cancelRoute()
	return r.router.Route(routeCtx, o)
}

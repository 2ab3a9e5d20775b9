package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"inkflow/internal/config"
	"inkflow/internal/intake"
	"inkflow/internal/logging"
	"inkflow/internal/pipeline"
)

const defaultCleanupInterval = time.Hour

// Batcher processes the intake queue one batch at a time.
type Batcher interface {
	Recover() ([]string, error)
	RunOnce(ctx context.Context) (pipeline.Summary, error)
}

// Cleaner prunes retained documents.
type Cleaner interface {
	CleanProcessed(ctx context.Context, maxAge time.Duration) intake.CleanResult
}

// Daemon schedules batches against the intake queue and enforces
// single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	runner  Batcher
	cleaner Cleaner

	lockPath        string
	lock            *flock.Flock
	pollInterval    time.Duration
	cleanupInterval time.Duration

	running atomic.Bool
	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	wake    chan struct{}
	failed  chan error

	statsMu sync.Mutex
	stats   Status
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	LockFilePath string
	Batches      int
	LastBatchAt  time.Time
	LastBatch    pipeline.Summary
	LastError    string
}

// New constructs a daemon around a batch runner.
func New(cfg *config.Config, runner Batcher, cleaner Cleaner, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || runner == nil {
		return nil, errors.New("daemon requires config and a batch runner")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	interval := time.Duration(cfg.Intake.PollInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Daemon{
		cfg:             cfg,
		logger:          logging.NewComponentLogger(logger, "daemon"),
		runner:          runner,
		cleaner:         cleaner,
		lockPath:        cfg.LockPath(),
		pollInterval:    interval,
		cleanupInterval: defaultCleanupInterval,
		wake:            make(chan struct{}, 1),
		failed:          make(chan error, 1),
	}, nil
}

// Start acquires the run lock, recovers abandoned documents when configured
// to, and launches the polling loop.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	lock, err := AcquireLock(d.lockPath)
	if err != nil {
		return err
	}
	d.lock = lock

	if d.cfg.Pipeline.RecoverOnStart {
		recovered, err := d.runner.Recover()
		if err != nil {
			logging.WarnWithContext(d.logger, "recovery incomplete", "recover_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the processing directory"),
				logging.String(logging.FieldImpact, "abandoned documents stay in processing until the next start"),
			)
		}
		if len(recovered) > 0 {
			d.logger.Info("returned abandoned documents to intake",
				logging.Int("count", len(recovered)),
				logging.String(logging.FieldEventType, "recovered"),
			)
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running.Store(true)
	d.wg.Add(1)
	go d.loop(loopCtx)

	d.logger.Info("inkflow daemon started",
		logging.String("lock", d.lockPath),
		logging.Duration("poll_interval", d.pollInterval),
	)
	return nil
}

// Stop cancels the polling loop, waits for the in-flight batch to drain, and
// releases the run lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if d.lock != nil {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
		d.lock = nil
	}
	d.running.Store(false)
	d.logger.Info("inkflow daemon stopped")
}

// Run starts the daemon and blocks until ctx is cancelled or, in fail-fast
// mode, a batch surfaces an error.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	defer d.Stop()
	select {
	case <-ctx.Done():
		return nil
	case err := <-d.failed:
		return err
	}
}

// Trigger requests a batch without waiting for the next poll.
func (d *Daemon) Trigger() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	status := d.stats
	status.Running = d.running.Load()
	status.LockFilePath = d.lockPath
	return status
}

func (d *Daemon) loop(ctx context.Context) {
	defer d.wg.Done()

	d.cleanup(ctx)
	lastCleanup := time.Now()
	if !d.batch(ctx) {
		return
	}

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-d.wake:
		}
		if time.Since(lastCleanup) >= d.cleanupInterval {
			d.cleanup(ctx)
			lastCleanup = time.Now()
		}
		if !d.batch(ctx) {
			return
		}
	}
}

// batch runs one pass and reports whether the loop should continue.
func (d *Daemon) batch(ctx context.Context) bool {
	summary, err := d.runner.RunOnce(ctx)

	d.statsMu.Lock()
	d.stats.Batches++
	d.stats.LastBatchAt = time.Now()
	d.stats.LastBatch = summary
	d.stats.LastError = ""
	if err != nil {
		d.stats.LastError = err.Error()
	}
	d.statsMu.Unlock()

	if err == nil {
		return true
	}
	if d.cfg.Pipeline.FailFast {
		logging.ErrorWithContext(d.logger, "batch failed; stopping", "batch_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the failing document is left in processing for inspection"),
		)
		select {
		case d.failed <- err:
		default:
		}
		return false
	}
	logging.WarnWithContext(d.logger, "batch failed; will retry", "batch_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the intake directory is readable"),
	)
	return true
}

func (d *Daemon) cleanup(ctx context.Context) {
	if d.cleaner != nil && d.cfg.Intake.ProcessedRetentionDays > 0 {
		maxAge := time.Duration(d.cfg.Intake.ProcessedRetentionDays) * 24 * time.Hour
		result := d.cleaner.CleanProcessed(ctx, maxAge)
		if len(result.Removed) > 0 {
			d.logger.Info("pruned retained documents",
				logging.Int("count", len(result.Removed)),
				logging.String(logging.FieldEventType, "processed_pruned"),
			)
		}
		for _, failure := range result.Errors {
			d.logger.Warn("failed to prune retained document",
				logging.String("path", failure.Path),
				logging.Error(failure.Error),
			)
		}
	}
	logging.CleanupOlderThan(d.logger, d.cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     d.cfg.Paths.LogDir,
		Pattern: "*.log*",
		Exclude: []string{d.cfg.LogPath()},
	})
}

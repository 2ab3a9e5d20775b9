package daemon_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"inkflow/internal/daemon"
	"inkflow/internal/intake"
	"inkflow/internal/logging"
	"inkflow/internal/pipeline"
	"inkflow/internal/testsupport"
)

type fakeBatcher struct {
	mu        sync.Mutex
	recovered int
	batches   int
	err       error
	ran       chan struct{}
}

func newFakeBatcher() *fakeBatcher {
	return &fakeBatcher{ran: make(chan struct{}, 16)}
}

func (f *fakeBatcher) Recover() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recovered++
	return []string{"12345-1.xml"}, nil
}

func (f *fakeBatcher) RunOnce(context.Context) (pipeline.Summary, error) {
	f.mu.Lock()
	f.batches++
	err := f.err
	f.mu.Unlock()
	select {
	case f.ran <- struct{}{}:
	default:
	}
	return pipeline.Summary{Committed: 1}, err
}

func (f *fakeBatcher) waitForBatch(t *testing.T) {
	t.Helper()
	select {
	case <-f.ran:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a batch")
	}
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := newFakeBatcher()
	d, err := daemon.New(cfg, runner, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	runner.waitForBatch(t)

	status := d.Status()
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.LockFilePath != cfg.LockPath() {
		t.Fatalf("unexpected lock path %q", status.LockFilePath)
	}
	if status.Batches < 1 || status.LastBatch.Committed != 1 {
		t.Fatalf("expected batch stats recorded, got %+v", status)
	}
	if runner.recovered != 1 {
		t.Fatalf("expected recovery on start, got %d", runner.recovered)
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestSecondInstanceCannotTakeLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := daemon.New(cfg, newFakeBatcher(), nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	second, err := daemon.New(cfg, newFakeBatcher(), nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := second.Start(ctx); !errors.Is(err, daemon.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	first.Stop()

	if err := second.Start(ctx); err != nil {
		t.Fatalf("expected lock to be free after stop: %v", err)
	}
	second.Stop()
}

func TestAcquireLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "inkflow.lock")
	lock, err := daemon.AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if _, err := daemon.AcquireLock(path); !errors.Is(err, daemon.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	again, err := daemon.AcquireLock(path)
	if err != nil {
		t.Fatalf("expected lock after release: %v", err)
	}
	_ = again.Unlock()
}

func TestRecoverOnStartDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Pipeline.RecoverOnStart = false
	runner := newFakeBatcher()
	d, err := daemon.New(cfg, runner, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	runner.waitForBatch(t)
	d.Stop()
	if runner.recovered != 0 {
		t.Fatalf("expected no recovery, got %d", runner.recovered)
	}
}

func TestTriggerRunsBatchBeforePoll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Intake.PollInterval = 3600
	runner := newFakeBatcher()
	d, err := daemon.New(cfg, runner, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	runner.waitForBatch(t)
	d.Trigger()
	runner.waitForBatch(t)
	if got := d.Status().Batches; got < 2 {
		t.Fatalf("expected triggered batch, got %d batches", got)
	}
}

func TestRunReturnsFailFastError(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFailFast())
	runner := newFakeBatcher()
	runner.err = errors.New("boom")
	d, err := daemon.New(cfg, runner, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Run(ctx); err == nil || err.Error() != "boom" {
		t.Fatalf("expected batch error from Run, got %v", err)
	}
	status := d.Status()
	if status.Running {
		t.Fatal("expected daemon stopped after fail-fast error")
	}
	if status.LastError != "boom" {
		t.Fatalf("unexpected last error %q", status.LastError)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := newFakeBatcher()
	runner.err = errors.New("transient")
	d, err := daemon.New(cfg, runner, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	runner.waitForBatch(t)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStartPrunesRetainedDocuments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Intake.ProcessedRetentionDays = 7
	queue := intake.NewFromConfig(cfg, nil)

	stale := filepath.Join(cfg.Intake.ProcessedDir, "12345-1.xml")
	fresh := filepath.Join(cfg.Intake.ProcessedDir, "12345-2.xml")
	for _, path := range []string{stale, fresh} {
		if err := os.WriteFile(path, []byte("<x/>"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	old := time.Now().Add(-30 * 24 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	runner := newFakeBatcher()
	d, err := daemon.New(cfg, runner, queue, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	runner.waitForBatch(t)
	d.Stop()

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale document pruned, stat err=%v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("expected fresh document kept: %v", err)
	}
}

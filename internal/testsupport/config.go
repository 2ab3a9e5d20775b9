package testsupport

import (
	"path/filepath"
	"testing"

	"inkflow/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The queue directories exist on return.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.IntakeDir = filepath.Join(base, "intake")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Intake.ProcessingDir = filepath.Join(cfgVal.Paths.IntakeDir, "processing")
	cfgVal.Intake.ProcessedDir = filepath.Join(cfgVal.Paths.IntakeDir, "processed")
	cfgVal.Intake.InvalidDir = filepath.Join(cfgVal.Paths.IntakeDir, "invalid")
	cfgVal.Database.Path = filepath.Join(cfgVal.Paths.StateDir, "catalog.db")
	cfgVal.Pipeline.DocumentTimeout = 10

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithRetainPolicy sets the disposition of successfully handled documents.
func WithRetainPolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Intake.RetainPolicy = policy
	}
}

// WithWorkflow maps a job workflow name onto a strategy.
func WithWorkflow(name, strategy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Reconcile.Workflows[name] = strategy
	}
}

// WithFailFast disables per-document error recovery.
func WithFailFast() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.FailFast = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

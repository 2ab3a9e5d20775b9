package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"inkflow/internal/archive"
	"inkflow/internal/catalog"
	"inkflow/internal/config"
	"inkflow/internal/intake"
	"inkflow/internal/logging"
	"inkflow/internal/notifications"
	"inkflow/internal/pipeline"
	"inkflow/internal/proof"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// runtime holds the collaborators a batch needs.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *catalog.Store
	queue    *intake.Queue
	notifier notifications.Service
	proof    proof.Trigger
	archiver *archive.Archiver
	runner   *pipeline.Runner
}

func (c *commandContext) openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	store, err := catalog.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		queue:    intake.NewFromConfig(cfg, logger),
		notifier: notifications.NewService(cfg),
		proof:    proof.New(cfg),
	}

	deps := pipeline.Deps{
		Store:    rt.store,
		Queue:    rt.queue,
		Notifier: rt.notifier,
		Proof:    rt.proof,
		Logger:   logger,
	}
	if cfg.Archive.Enabled {
		rt.archiver, err = archive.New(cfg)
		if err != nil {
			rt.Close()
			return nil, err
		}
		deps.Archiver = rt.archiver
	}

	rt.runner, err = pipeline.New(cfg, deps)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (r *runtime) Close() error {
	var errs []error
	if r.proof != nil {
		errs = append(errs, r.proof.Close())
	}
	if r.store != nil {
		errs = append(errs, r.store.Close())
	}
	return errors.Join(errs...)
}

func (c *commandContext) withRuntime(cmd *cobra.Command, fn func(*runtime) error) error {
	rt, err := c.openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

func (c *commandContext) withQueue(fn func(*intake.Queue) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	return fn(intake.NewFromConfig(cfg, logging.NewNop()))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

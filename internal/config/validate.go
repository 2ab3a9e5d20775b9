package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateIntake(); err != nil {
		return err
	}
	if err := c.validateReconcile(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateProof(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateIntake() error {
	if strings.TrimSpace(c.Paths.IntakeDir) == "" {
		return errors.New("paths.intake_dir must be set")
	}
	seen := make(map[string]string, 4)
	names := []string{"paths.intake_dir", "intake.processing_dir", "intake.processed_dir", "intake.invalid_dir"}
	for i, dir := range c.QueueDirs() {
		clean := filepath.Clean(dir)
		if other, ok := seen[clean]; ok {
			return fmt.Errorf("%s must differ from %s", names[i], other)
		}
		seen[clean] = names[i]
	}
	switch c.Intake.RetainPolicy {
	case RetainDelete, RetainKeep, RetainArchive:
	default:
		return fmt.Errorf("intake.retain_policy must be one of %s, %s, %s", RetainDelete, RetainKeep, RetainArchive)
	}
	if err := ensurePositiveMap(map[string]int{
		"intake.poll_interval":      c.Intake.PollInterval,
		"pipeline.document_timeout": c.Pipeline.DocumentTimeout,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateReconcile() error {
	if len(c.Reconcile.Workflows) == 0 {
		return errors.New("reconcile.workflows must map at least one workflow")
	}
	names := make([]string, 0, len(c.Reconcile.Workflows))
	for name := range c.Reconcile.Workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		switch c.Reconcile.Workflows[name] {
		case StrategyReplaceAll, StrategyStrictSimple, StrategyStrictAliased:
		default:
			return fmt.Errorf("reconcile.workflows.%s: unknown strategy %q", name, c.Reconcile.Workflows[name])
		}
	}
	if c.Reconcile.LPICeiling <= 0 {
		return errors.New("reconcile.lpi_ceiling must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			return errors.New("database.path must be set when database.driver is sqlite")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("database.url must be set when database.driver is postgres (or set INKFLOW_DATABASE_URL)")
		}
	default:
		return fmt.Errorf("database.driver: unsupported value %q", c.Database.Driver)
	}
	return nil
}

func (c *Config) validateProof() error {
	if !c.Proof.Enabled {
		return nil
	}
	if c.Proof.RedisDB < 0 {
		return errors.New("proof.redis_db must be >= 0")
	}
	return nil
}

func (c *Config) validateArchive() error {
	if c.Intake.RetainPolicy == RetainArchive && !c.Archive.Enabled {
		return errors.New("archive.enabled must be true when intake.retain_policy is archive")
	}
	if !c.Archive.Enabled {
		return nil
	}
	if c.Archive.Endpoint == "" {
		return errors.New("archive.endpoint must be set when archive.enabled is true")
	}
	if c.Archive.Bucket == "" {
		return errors.New("archive.bucket must be set when archive.enabled is true")
	}
	if c.Archive.AccessKey == "" || c.Archive.SecretKey == "" {
		return errors.New("archive.access_key and archive.secret_key must be set when archive.enabled is true")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

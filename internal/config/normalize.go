package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeIntake(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeReconcile()
	if err := c.normalizeDatabase(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeProof()
	c.normalizeArchive()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.IntakeDir) == "" {
		c.Paths.IntakeDir = defaultIntakeDir
	}
	if c.Paths.IntakeDir, err = expandPath(c.Paths.IntakeDir); err != nil {
		return fmt.Errorf("paths.intake_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

// normalizeIntake defaults the queue directories to siblings under the
// intake root so renames stay on one volume.
func (c *Config) normalizeIntake() error {
	var err error
	sub := map[string]*string{
		"processing": &c.Intake.ProcessingDir,
		"processed":  &c.Intake.ProcessedDir,
		"invalid":    &c.Intake.InvalidDir,
	}
	for name, target := range sub {
		if strings.TrimSpace(*target) == "" {
			*target = filepath.Join(c.Paths.IntakeDir, name)
		}
		if *target, err = expandPath(*target); err != nil {
			return fmt.Errorf("intake.%s_dir: %w", name, err)
		}
	}

	c.Intake.Extension = strings.ToLower(strings.TrimSpace(c.Intake.Extension))
	if c.Intake.Extension == "" {
		c.Intake.Extension = defaultExtension
	}
	if !strings.HasPrefix(c.Intake.Extension, ".") {
		c.Intake.Extension = "." + c.Intake.Extension
	}

	c.Intake.RetainPolicy = strings.ToLower(strings.TrimSpace(c.Intake.RetainPolicy))
	if c.Intake.RetainPolicy == "" {
		c.Intake.RetainPolicy = defaultRetainPolicy
	}
	if c.Intake.PollInterval <= 0 {
		c.Intake.PollInterval = defaultPollInterval
	}
	if c.Intake.ProcessedRetentionDays < 0 {
		c.Intake.ProcessedRetentionDays = 0
	}
	return nil
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.DocumentTimeout <= 0 {
		c.Pipeline.DocumentTimeout = defaultDocumentTimeout
	}
}

func (c *Config) normalizeReconcile() {
	if len(c.Reconcile.Workflows) == 0 {
		c.Reconcile.Workflows = defaultWorkflows()
	} else {
		normalized := make(map[string]string, len(c.Reconcile.Workflows))
		for name, strategy := range c.Reconcile.Workflows {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			normalized[name] = strings.ToLower(strings.TrimSpace(strategy))
		}
		c.Reconcile.Workflows = normalized
	}
	if c.Reconcile.LPICeiling <= 0 {
		c.Reconcile.LPICeiling = defaultLPICeiling
	}
	if c.Reconcile.ExcludedSizes == nil {
		c.Reconcile.ExcludedSizes = defaultExcludedSizes()
	}
	sizes := make([]string, 0, len(c.Reconcile.ExcludedSizes))
	for _, size := range c.Reconcile.ExcludedSizes {
		if trimmed := strings.ToLower(strings.TrimSpace(size)); trimmed != "" {
			sizes = append(sizes, trimmed)
		}
	}
	c.Reconcile.ExcludedSizes = sizes
	c.Reconcile.NoProofMarker = strings.ToLower(strings.TrimSpace(c.Reconcile.NoProofMarker))
	if c.Reconcile.NoProofMarker == "" {
		c.Reconcile.NoProofMarker = defaultNoProofMarker
	}
}

func (c *Config) normalizeDatabase() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case "", "sqlite3":
		c.Database.Driver = DriverSQLite
	case "pgx", "postgresql":
		c.Database.Driver = DriverPostgres
	}
	if c.Database.Driver == DriverSQLite {
		if strings.TrimSpace(c.Database.Path) == "" {
			c.Database.Path = filepath.Join(c.Paths.StateDir, defaultDatabaseFile)
		}
		var err error
		if c.Database.Path, err = expandPath(c.Database.Path); err != nil {
			return fmt.Errorf("database.path: %w", err)
		}
	}
	c.Database.URL = strings.TrimSpace(c.Database.URL)
	if c.Database.URL == "" {
		if value, ok := os.LookupEnv("INKFLOW_DATABASE_URL"); ok {
			c.Database.URL = strings.TrimSpace(value)
		}
	}
	if c.Database.PingTimeout <= 0 {
		c.Database.PingTimeout = defaultPingTimeout
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = defaultMaxOpenConns
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.Server = strings.TrimRight(strings.TrimSpace(c.Notifications.Server), "/")
	if c.Notifications.Server == "" {
		c.Notifications.Server = defaultNtfyServer
	}
	c.Notifications.Token = strings.TrimSpace(c.Notifications.Token)
	if c.Notifications.Token == "" {
		if value, ok := os.LookupEnv("INKFLOW_NTFY_TOKEN"); ok {
			c.Notifications.Token = strings.TrimSpace(value)
		}
	}
	lists := make(map[string]string, len(c.Notifications.Lists))
	for name, topic := range c.Notifications.Lists {
		name = strings.ToLower(strings.TrimSpace(name))
		topic = strings.TrimSpace(topic)
		if name == "" || topic == "" {
			continue
		}
		lists[name] = topic
	}
	c.Notifications.Lists = lists
	c.Notifications.FailureList = strings.ToLower(strings.TrimSpace(c.Notifications.FailureList))
	if c.Notifications.FailureList == "" {
		c.Notifications.FailureList = defaultFailureList
	}
	c.Notifications.ErrorList = strings.ToLower(strings.TrimSpace(c.Notifications.ErrorList))
	if c.Notifications.ErrorList == "" {
		c.Notifications.ErrorList = defaultErrorList
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeProof() {
	c.Proof.RedisAddr = strings.TrimSpace(c.Proof.RedisAddr)
	if c.Proof.RedisAddr == "" {
		c.Proof.RedisAddr = defaultRedisAddr
	}
	if c.Proof.RedisPassword == "" {
		if value, ok := os.LookupEnv("INKFLOW_REDIS_PASSWORD"); ok {
			c.Proof.RedisPassword = value
		}
	}
	c.Proof.ListKey = strings.TrimSpace(c.Proof.ListKey)
	if c.Proof.ListKey == "" {
		c.Proof.ListKey = defaultProofListKey
	}
}

func (c *Config) normalizeArchive() {
	c.Archive.Endpoint = strings.TrimSpace(c.Archive.Endpoint)
	c.Archive.Bucket = strings.TrimSpace(c.Archive.Bucket)
	c.Archive.Prefix = strings.Trim(strings.TrimSpace(c.Archive.Prefix), "/")
	c.Archive.AccessKey = strings.TrimSpace(c.Archive.AccessKey)
	if c.Archive.SecretKey == "" {
		if value, ok := os.LookupEnv("INKFLOW_ARCHIVE_SECRET_KEY"); ok {
			c.Archive.SecretKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the root directories used by the pipeline.
type Paths struct {
	IntakeDir string `toml:"intake_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// Intake contains the directory queue layout and file disposition policy.
type Intake struct {
	ProcessingDir          string `toml:"processing_dir"`
	ProcessedDir           string `toml:"processed_dir"`
	InvalidDir             string `toml:"invalid_dir"`
	Extension              string `toml:"extension"`
	RetainPolicy           string `toml:"retain_policy"`
	ProcessedRetentionDays int    `toml:"processed_retention_days"`
	PollInterval           int    `toml:"poll_interval"`
}

// Pipeline contains per-document processing limits and debug switches.
type Pipeline struct {
	DocumentTimeout int  `toml:"document_timeout"`
	FailFast        bool `toml:"fail_fast"`
	RecoverOnStart  bool `toml:"recover_on_start"`
}

// Reconcile contains the business-rule knobs for color reconciliation.
type Reconcile struct {
	// Workflows maps a job's workflow name onto a reconciliation strategy
	// (replace_all, strict_simple, strict_aliased).
	Workflows     map[string]string `toml:"workflows"`
	LPICeiling    float64           `toml:"lpi_ceiling"`
	ExcludedSizes []string          `toml:"excluded_sizes"`
	NoProofMarker string            `toml:"no_proof_marker"`
}

// Database contains connection settings for the color catalog.
type Database struct {
	Driver       string `toml:"driver"`
	Path         string `toml:"path"`
	URL          string `toml:"url"`
	PingTimeout  int    `toml:"ping_timeout"`
	MaxOpenConns int    `toml:"max_open_conns"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	Server         string            `toml:"server"`
	Token          string            `toml:"token"`
	Lists          map[string]string `toml:"lists"`
	FailureList    string            `toml:"failure_list"`
	ErrorList      string            `toml:"error_list"`
	RequestTimeout int               `toml:"request_timeout"`
	ParseFailures  bool              `toml:"parse_failures"`
}

// Proof contains the downstream proof trigger queue settings.
type Proof struct {
	Enabled       bool   `toml:"enabled"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	ListKey       string `toml:"list_key"`
}

// Archive contains object storage settings for the archive retain policy.
type Archive struct {
	Enabled   bool   `toml:"enabled"`
	Endpoint  string `toml:"endpoint"`
	Region    string `toml:"region"`
	Bucket    string `toml:"bucket"`
	Prefix    string `toml:"prefix"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for inkflow.
//
// Configuration sections by subsystem:
//   - Paths: intake root, state directory (lock + local catalog), logs
//   - Intake: processing/processed/invalid directories and retain policy
//   - Pipeline: per-document timeout and fail-fast debugging
//   - Reconcile: workflow strategy map, LPI ceiling, size exclusions
//   - Database: catalog driver (sqlite or postgres)
//   - Notifications: ntfy distribution lists
//   - Proof: Redis queue for downstream proof requests
//   - Archive: object storage for processed documents
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Intake        Intake        `toml:"intake"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Reconcile     Reconcile     `toml:"reconcile"`
	Database      Database      `toml:"database"`
	Notifications Notifications `toml:"notifications"`
	Proof         Proof         `toml:"proof"`
	Archive       Archive       `toml:"archive"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/inkflow/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// Decoding merges into existing maps; an explicit workflow table
		// replaces the defaults, which normalizeReconcile restores when absent.
		cfg.Reconcile.Workflows = nil
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("inkflow.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the intake queue layout plus state and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.IntakeDir,
		c.Intake.ProcessingDir,
		c.Intake.ProcessedDir,
		c.Intake.InvalidDir,
		c.Paths.StateDir,
		c.Paths.LogDir,
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// QueueDirs returns the four queue directories in intake, processing,
// processed, invalid order.
func (c *Config) QueueDirs() []string {
	return []string{c.Paths.IntakeDir, c.Intake.ProcessingDir, c.Intake.ProcessedDir, c.Intake.InvalidDir}
}

// LockPath returns the single-instance run lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "inkflow.lock")
}

// LogPath returns the main log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "inkflow.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}

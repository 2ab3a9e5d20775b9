package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"inkflow/internal/catalog"
	"inkflow/internal/config"
	"inkflow/internal/daemon"
	"inkflow/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, mutate ...func(*config.Config)) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	t.Setenv("HOME", filepath.Join(testsupport.BaseDir(cfg), "home"))
	t.Setenv("INKFLOW_DATABASE_URL", "")
	t.Setenv("INKFLOW_NTFY_TOKEN", "")
	for _, fn := range mutate {
		fn(cfg)
	}

	text, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(configPath, []byte(text), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func coverageDocument() testsupport.Coverage {
	return testsupport.Coverage{
		Proofer: "Epson 9900",
		Inks: []testsupport.Ink{
			{Book: "pantone+ solid coated", Name: "Warm Red", Type: "pantone", Angle: 15, LPI: 65, R: 1, HasCoverage: true, Percent: 12.5, MM2: 1000},
			{Book: "process", Name: "Black", Type: "process", Angle: 75, LPI: 150},
			{Name: "Die", R: 1, B: 1},
		},
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	env := setupCLITestEnv(t, func(cfg *config.Config) {
		cfg.Notifications.Token = "tk_supersecret"
	})

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "tk_supersecret") {
		t.Fatalf("expected token redacted, got:\n%s", out)
	}
	requireContains(t, out, redacted)
	requireContains(t, out, env.cfg.Paths.IntakeDir)
}

func TestRedactURL(t *testing.T) {
	got := redactURL("postgres://inkflow:pw@db:5432/production")
	if got != "postgres://"+redacted+"@db:5432/production" {
		t.Fatalf("unexpected redaction %q", got)
	}
}

func TestParseCommandPrintsInks(t *testing.T) {
	env := setupCLITestEnv(t)
	path := testsupport.WriteCoverage(t, t.TempDir(), "12345-2_nojdf.xml", coverageDocument())

	out, _, err := runCLI(t, []string{"parse", path}, env.configPath)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	requireContains(t, out, "Job:       12345")
	requireContains(t, out, "Marker:    nojdf")
	requireContains(t, out, "Warm Red")
	requireContains(t, out, "Process Black")
	requireContains(t, out, "#ff0000")
	requireContains(t, out, "1.550")
}

func TestParseCommandRejectsBadName(t *testing.T) {
	env := setupCLITestEnv(t)
	path := testsupport.WriteCoverage(t, t.TempDir(), "notes.xml", coverageDocument())
	if _, _, err := runCLI(t, []string{"parse", path}, env.configPath); err == nil {
		t.Fatal("expected malformed file name error")
	}
}

func TestRunCommandCommitsDocumentAndWritesJobLog(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenCatalog(t, env.cfg)
	testsupport.SeedItem(t, store, catalog.Job{ID: 12345, Workflow: "Foodservice"}, catalog.Item{
		Number:        2,
		Size:          "16oz Hot Cup",
		Coating:       catalog.CoatingCoated,
		PrintLocation: "Plant 1",
		NineDigit:     "111222333",
	})
	testsupport.WriteCoverage(t, env.cfg.Paths.IntakeDir, "12345-2.xml", coverageDocument())

	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Committed")
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.IntakeDir, "12345-2.xml")); !os.IsNotExist(err) {
		t.Fatalf("expected document consumed, stat err=%v", err)
	}

	out, _, err = runCLI(t, []string{"log", "12345"}, env.configPath)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	requireContains(t, out, "Ink coverage for item")

	out, _, err = runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	requireContains(t, out, "No pending coverage documents")
}

func TestRunCommandRefusesWhileLocked(t *testing.T) {
	env := setupCLITestEnv(t)
	lock, err := daemon.AcquireLock(env.cfg.LockPath())
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	defer lock.Unlock() //nolint:errcheck

	_, _, err = runCLI(t, []string{"run"}, env.configPath)
	if !errors.Is(err, daemon.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestQueueListRequeueAndRecover(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteCoverage(t, env.cfg.Intake.InvalidDir, "12345-1.xml", coverageDocument())
	testsupport.WriteCoverage(t, env.cfg.Intake.ProcessingDir, "12345-3.xml", coverageDocument())

	out, _, err := runCLI(t, []string{"queue", "list", "--invalid"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list --invalid: %v", err)
	}
	requireContains(t, out, "12345-1.xml")

	out, _, err = runCLI(t, []string{"queue", "requeue", "12345-1.xml"}, env.configPath)
	if err != nil {
		t.Fatalf("queue requeue: %v", err)
	}
	requireContains(t, out, "Requeued 12345-1.xml")

	out, _, err = runCLI(t, []string{"queue", "recover"}, env.configPath)
	if err != nil {
		t.Fatalf("queue recover: %v", err)
	}
	requireContains(t, out, "Recovered 12345-3.xml")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "12345-1.xml")
	requireContains(t, out, "12345-3.xml")

	if _, _, err := runCLI(t, []string{"queue", "requeue", "missing.xml"}, env.configPath); err == nil {
		t.Fatal("expected error requeueing a missing document")
	}
	if _, _, err := runCLI(t, []string{"queue", "requeue"}, env.configPath); err == nil {
		t.Fatal("expected error without names or --all")
	}
}

func TestCheckCommandReportsQueue(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "Queue volume")
	requireContains(t, out, "Catalog (sqlite)")
	requireContains(t, out, "[OK]")
}

func TestTestNotifyWithoutLists(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "nothing sent")
}

func TestTailCommandFiltersDocument(t *testing.T) {
	env := setupCLITestEnv(t)
	content := "INFO claimed document=12345-1.xml\nINFO claimed document=12345-2.xml\n"
	if err := os.WriteFile(env.cfg.LogPath(), []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"tail", "--document", "12345-2.xml"}, env.configPath)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	requireContains(t, out, "12345-2.xml")
	if strings.Contains(out, "12345-1.xml") {
		t.Fatalf("expected other documents filtered out, got %q", out)
	}
}

package preflight

import (
	"context"
	"time"

	"inkflow/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string
	Passed  bool
	Skipped bool
	Detail  string
}

// Deps supplies probes for the configured services. A nil probe reports the
// service as skipped.
type Deps struct {
	Catalog Probe
	Proof   Probe
	Archive Probe
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, deps Deps) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	names := []string{"Intake directory", "Processing directory", "Processed directory", "Invalid directory"}
	dirs := cfg.QueueDirs()
	for i, dir := range dirs {
		results = append(results, CheckDirectoryAccess(names[i], dir))
	}
	results = append(results, CheckSameVolume("Queue volume", dirs...))

	timeout := time.Duration(cfg.Database.PingTimeout) * time.Second
	results = append(results, CheckProbe(ctx, "Catalog ("+cfg.Database.Driver+")", timeout, deps.Catalog))

	if len(cfg.Notifications.Lists) > 0 {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.Server, cfg.Notifications.Token))
	} else {
		results = append(results, Result{Name: "ntfy", Skipped: true, Detail: "No lists configured"})
	}

	proofProbe := deps.Proof
	if !cfg.Proof.Enabled {
		proofProbe = nil
	}
	results = append(results, CheckProbe(ctx, "Proof queue", timeout, proofProbe))

	archiveProbe := deps.Archive
	if !cfg.Archive.Enabled {
		archiveProbe = nil
	}
	results = append(results, CheckProbe(ctx, "Archive bucket", timeout, archiveProbe))

	return results
}

// Failed reports whether any non-skipped check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Skipped {
			return true
		}
	}
	return false
}

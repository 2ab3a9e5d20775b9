package intake

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"inkflow/internal/logging"
)

// CleanResult contains the outcome of a retention sweep.
type CleanResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanProcessed removes retained documents older than maxAge from the
// processed directory. A non-positive maxAge keeps everything.
func (q *Queue) CleanProcessed(ctx context.Context, maxAge time.Duration) CleanResult {
	result := CleanResult{}
	dir := strings.TrimSpace(q.dirs.Processed)
	if dir == "" || maxAge <= 0 {
		return result
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
		}
		return result
	}

	cutoff := q.now().Add(-maxAge)
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			q.logger.Warn("failed to remove retained document",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "processed_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check intake.processed_dir permissions"),
				logging.String(logging.FieldImpact, "retained documents accumulate"),
			)
			continue
		}
		result.Removed = append(result.Removed, path)
		q.logger.Info("removed retained document",
			logging.String("path", path),
			logging.Duration("age", q.now().Sub(info.ModTime())),
			logging.String(logging.FieldEventType, "processed_cleanup"),
		)
	}
	return result
}

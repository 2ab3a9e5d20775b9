package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"inkflow/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inkflow.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

func TestLastReturnsTrailingLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	lines, offset, err := logs.Last(path, logs.Options{Lines: 2})
	if err != nil {
		t.Fatalf("Last returned error: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset != 6 {
		t.Fatalf("expected offset at end of file, got %d", offset)
	}
}

func TestLastFiltersByDocument(t *testing.T) {
	path := writeLog(t, "claimed document=12345-1.xml\nclaimed document=12345-2.xml\ncommitted document=12345-1.xml\n")

	lines, _, err := logs.Last(path, logs.Options{Lines: 10, Match: "12345-1.xml"})
	if err != nil {
		t.Fatalf("Last returned error: %v", err)
	}
	if len(lines) != 2 || lines[1] != "committed document=12345-1.xml" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
}

func TestLastMissingFile(t *testing.T) {
	lines, offset, err := logs.Last(filepath.Join(t.TempDir(), "absent.log"), logs.Options{Lines: 5})
	if err != nil || len(lines) != 0 || offset != 0 {
		t.Fatalf("expected empty result, got %v %d %v", lines, offset, err)
	}
}

type collector struct {
	mu    sync.Mutex
	lines []string
	seen  chan struct{}
}

func (c *collector) emit(line string) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
	select {
	case c.seen <- struct{}{}:
	default:
	}
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := writeLog(t, "start\n")
	_, offset, err := logs.Last(path, logs.Options{})
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &collector{seen: make(chan struct{}, 8)}
	done := make(chan error, 1)
	go func() { done <- logs.Follow(ctx, path, offset, "12345", 10*time.Millisecond, c.emit) }()

	appendLog(t, path, "other document\nbatch document=12345-2.xml\n")
	select {
	case <-c.seen:
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not emit")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow returned error: %v", err)
	}

	lines := c.snapshot()
	if len(lines) != 1 || lines[0] != "batch document=12345-2.xml" {
		t.Fatalf("unexpected followed lines: %#v", lines)
	}
}

func TestFollowRestartsAfterTruncation(t *testing.T) {
	path := writeLog(t, "a long line before rotation\n")
	_, offset, err := logs.Last(path, logs.Options{})
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if err := os.WriteFile(path, []byte("fresh\n"), 0o644); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &collector{seen: make(chan struct{}, 8)}
	done := make(chan error, 1)
	go func() { done <- logs.Follow(ctx, path, offset, "", 10*time.Millisecond, c.emit) }()

	select {
	case <-c.seen:
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not emit after truncation")
	}
	cancel()
	<-done

	if lines := c.snapshot(); len(lines) == 0 || lines[0] != "fresh" {
		t.Fatalf("unexpected lines after truncation: %#v", lines)
	}
}

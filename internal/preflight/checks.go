package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// Probe is a connectivity check against one dependency.
type Probe func(ctx context.Context) error

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSameVolume verifies every directory shares the first one's device so
// queue moves are atomic renames.
func CheckSameVolume(name string, dirs ...string) Result {
	if len(dirs) == 0 {
		return Result{Name: name, Passed: true, Detail: "no directories"}
	}
	var first unix.Stat_t
	if err := unix.Stat(dirs[0], &first); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", dirs[0], err)}
	}
	for _, dir := range dirs[1:] {
		var st unix.Stat_t
		if err := unix.Stat(dir, &st); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", dir, err)}
		}
		if st.Dev != first.Dev {
			return Result{Name: name, Detail: fmt.Sprintf("%s is on a different volume than %s", dir, dirs[0])}
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d directories on one volume", len(dirs))}
}

// CheckProbe runs probe under a timeout and summarizes its failure.
func CheckProbe(ctx context.Context, name string, timeout time.Duration, probe Probe) Result {
	if probe == nil {
		return Result{Name: name, Skipped: true, Detail: "Disabled"}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := probe(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckNtfy verifies the ntfy server answers its health endpoint and, when a
// token is set, that the token is accepted.
func CheckNtfy(ctx context.Context, server, token string) Result {
	const name = "ntfy"

	base := strings.TrimRight(strings.TrimSpace(server), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing server"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/v1/health", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%v)", err)}
	}
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid token)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%d)", resp.StatusCode)}
	}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (unreachable)"
	}
	return err.Error()
}

package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrExists reports that a rename target is already occupied.
var ErrExists = fs.ErrExist

// MoveDurable renames src to dst without replacing an existing dst, then
// fsyncs both parent directories so the move survives a crash. src and dst
// must live on the same volume.
func MoveDurable(src, dst string) error {
	if err := renameNoReplace(src, dst); err != nil {
		return err
	}
	dstDir := filepath.Dir(dst)
	if err := SyncDir(dstDir); err != nil {
		return fmt.Errorf("sync %s: %w", dstDir, err)
	}
	if srcDir := filepath.Dir(src); srcDir != dstDir {
		if err := SyncDir(srcDir); err != nil {
			return fmt.Errorf("sync %s: %w", srcDir, err)
		}
	}
	return nil
}

// SyncDir flushes directory metadata (entries added or removed) to disk.
func SyncDir(dir string) error {
	handle, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer handle.Close()
	if err := handle.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return err
	}
	return nil
}

// AvailableName returns a path in dir for name that does not collide with an
// existing entry. Collisions get a space-delimited " (n)" suffix before the
// extension so the result still reads as <stem> <suffix>.<ext>.
func AvailableName(dir, name string) string {
	candidate := filepath.Join(dir, name)
	if _, err := os.Lstat(candidate); errors.Is(err, fs.ErrNotExist) {
		return candidate
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		if _, err := os.Lstat(candidate); errors.Is(err, fs.ErrNotExist) {
			return candidate
		}
	}
}

// SHA256File returns the hex-encoded SHA256 digest of the file at path.
func SHA256File(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

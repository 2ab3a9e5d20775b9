//go:build linux

package fileutil

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func renameNoReplace(src, dst string) error {
	err := unix.Renameat2(unix.AT_FDCWD, src, unix.AT_FDCWD, dst, unix.RENAME_NOREPLACE)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EEXIST):
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: ErrExists}
	case errors.Is(err, unix.EINVAL), errors.Is(err, unix.ENOSYS):
		// Filesystem without RENAME_NOREPLACE support.
		return renameChecked(src, dst)
	case errors.Is(err, unix.EXDEV):
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: fmt.Errorf("cross-device move refused: %w", err)}
	default:
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: err}
	}
}

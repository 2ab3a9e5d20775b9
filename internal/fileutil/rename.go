package fileutil

import (
	"errors"
	"io/fs"
	"os"
)

// renameChecked is the portable fallback: a stat guard followed by a plain
// rename. The guard is best effort.
func renameChecked(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: ErrExists}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Rename(src, dst)
}

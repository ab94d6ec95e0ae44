//go:build !windows

package ops

import (
	"errors"
	"os"
	"syscall"

	stasherrors "github.com/hpungsan/stash/internal/errors"
)

// openFileNoFollow opens a file refusing to follow symlinks on the final
// path component.
func openFileNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	file, err := os.OpenFile(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, perm)
	if err != nil {
		if errors.Is(err, syscall.ELOOP) {
			return nil, stasherrors.NewInvalidRequest("path must not be a symlink")
		}
		return nil, err
	}
	return file, nil
}

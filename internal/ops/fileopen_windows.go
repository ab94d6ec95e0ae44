//go:build windows

package ops

import (
	"os"
)

// openFileNoFollow opens a file. Windows has no O_NOFOLLOW; the symlink
// checks in ValidateExportPath cover the common cases there.
func openFileNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag, perm)
}

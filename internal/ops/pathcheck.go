package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/stash/internal/config"
	"github.com/hpungsan/stash/internal/errors"
)

// DefaultExportsDir returns the default directory for export files:
// ~/.stash/exports
func DefaultExportsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to resolve home directory: %w", err))
	}
	return filepath.Join(home, ".stash", "exports"), nil
}

// ValidateExportPath checks that an export destination is safe to write:
// correct extension, no traversal, inside an allowed directory, and not a
// symlink (nor inside a symlinked parent). Skipped entirely when
// AllowUnsafePaths is set.
func ValidateExportPath(path, requiredExt string, cfg *config.Config) error {
	if cfg != nil && cfg.AllowUnsafePaths {
		return nil
	}

	if !strings.HasSuffix(strings.ToLower(path), requiredExt) {
		return errors.NewInvalidRequest(fmt.Sprintf("export path must end in %s", requiredExt))
	}

	if containsTraversal(path) {
		return errors.NewInvalidRequest("export path must not contain path traversal")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.NewInvalidRequest("invalid export path")
	}

	allowedDirs, err := getAllowedDirs(cfg)
	if err != nil {
		return err
	}
	if !isDirectlyInAllowedDir(absPath, allowedDirs) {
		return errors.NewInvalidRequest(
			"export path must be directly inside an allowed directory (home, cwd, temp, ~/.stash/exports, or a configured allowed_path)")
	}

	// Refuse to write through a symlink, either the file itself or its
	// parent directory.
	if info, err := os.Lstat(absPath); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			return errors.NewInvalidRequest("export path must not be a symlink")
		}
	}
	parent := filepath.Dir(absPath)
	if info, err := os.Lstat(parent); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			return errors.NewInvalidRequest("export path parent must not be a symlink")
		}
	}

	return nil
}

// containsTraversal reports whether any path segment is "..".
func containsTraversal(path string) bool {
	normalized := strings.ReplaceAll(path, "\\", "/")
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}

// getAllowedDirs returns the directories exports may be written into:
// home, cwd, system temp, the default exports dir, and any configured
// allowed paths.
func getAllowedDirs(cfg *config.Config) ([]string, error) {
	var dirs []string

	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	dirs = append(dirs, os.TempDir())

	if exportsDir, err := DefaultExportsDir(); err == nil {
		dirs = append(dirs, exportsDir)
	}

	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if abs, err := filepath.Abs(p); err == nil {
				dirs = append(dirs, abs)
			}
		}
	}

	if len(dirs) == 0 {
		return nil, errors.NewInternal(fmt.Errorf("could not determine any allowed export directories"))
	}
	return dirs, nil
}

// isDirectlyInAllowedDir reports whether absPath's parent is exactly one of
// the allowed directories. Nested subdirectories are rejected so a crafted
// filename cannot land an export somewhere surprising.
func isDirectlyInAllowedDir(absPath string, allowedDirs []string) bool {
	parent := filepath.Clean(filepath.Dir(absPath))
	for _, dir := range allowedDirs {
		if parent == filepath.Clean(dir) {
			return true
		}
	}
	return false
}

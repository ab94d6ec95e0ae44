// Package ops composes the document store and history log into the
// operations every entry point (HTTP, CLI, MCP) shares. It owns no state
// of its own.
package ops

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/stash/internal/errors"
	"github.com/hpungsan/stash/internal/project"
)

// History listing limits
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// ClampHistoryLimit clamps a history limit to [1, MaxHistoryLimit].
// Non-positive input (which is also where non-numeric caller input lands)
// falls back to the default of 20; input above the maximum is clamped
// to 100.
func ClampHistoryLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

// cleanProject validates and trims a project name.
func cleanProject(name string) (string, error) {
	cleaned := project.CleanName(name)
	if cleaned == "" {
		return "", errors.NewInvalidRequest("project name must not be empty")
	}
	return cleaned, nil
}

// writeTime resolves the timestamp for a write: the caller-provided
// instant when set, otherwise now. Tests inject fixed times this way.
func writeTime(at time.Time) time.Time {
	if at.IsZero() {
		return time.Now().UTC()
	}
	return at
}

// newULID generates a new ULID.
func newULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

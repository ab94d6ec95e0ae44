// Package store defines the two persisted collections of the sync service
// and their contracts: the document store (current merged state per
// project) and the history log (bounded snapshot sequence per project).
// Both are keyed by the same project-name namespace but are independent;
// a project may exist in one without the other.
package store

import (
	"context"
	"time"

	"github.com/hpungsan/stash/internal/project"
)

// HistoryCap bounds each project's history log. Exceeding it evicts the
// oldest entries first.
const HistoryCap = 50

// ProjectStore is the durable mapping from project name to its current
// state document.
type ProjectStore interface {
	// ListAll returns a minimal descriptor for every known project,
	// sorted by updated_at descending.
	ListAll(ctx context.Context) ([]project.Descriptor, error)

	// Get returns the full record for name, or NOT_FOUND if absent.
	Get(ctx context.Context, name string) (*project.Record, error)

	// Merge overlays each present field of the payload onto the existing
	// record (or an empty one), sets updated_at, persists, and returns the
	// merged record. It never fails because the key is absent.
	Merge(ctx context.Context, name string, p project.Payload, at time.Time) (*project.Record, error)

	// Delete removes the key entirely. Deleting an absent key is a no-op
	// success.
	Delete(ctx context.Context, name string) error
}

// HistoryStore is the durable mapping from project name to its ordered,
// length-capped snapshot sequence.
type HistoryStore interface {
	// Append pushes the entry onto the end of name's sequence in insertion
	// order, truncates to the newest HistoryCap entries, and persists.
	Append(ctx context.Context, name string, entry project.HistoryEntry) error

	// List returns name's entries sorted by synced_at descending,
	// truncated to the first limit elements. Callers clamp limit.
	List(ctx context.Context, name string, limit int) ([]project.HistoryEntry, error)

	// DeleteAll removes the entire sequence for name; no-op if absent.
	DeleteAll(ctx context.Context, name string) error
}

// Store bundles the two collections for injection into the ops layer.
type Store struct {
	Projects ProjectStore
	History  HistoryStore
}

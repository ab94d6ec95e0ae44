package ops

import (
	"context"

	"github.com/hpungsan/stash/internal/project"
	"github.com/hpungsan/stash/internal/store"
)

// HistoryInput contains parameters for the History operation.
type HistoryInput struct {
	Project string
	Limit   int // default: 20, max: 100
}

// HistoryOutput contains the result of the History operation.
type HistoryOutput struct {
	Project string                 `json:"project"`
	History []project.HistoryEntry `json:"history"`
}

// History lists a project's recorded write snapshots, newest first.
// An unknown project has an empty history, not an error.
func History(ctx context.Context, st *store.Store, input HistoryInput) (*HistoryOutput, error) {
	name, err := cleanProject(input.Project)
	if err != nil {
		return nil, err
	}

	entries, err := st.History.List(ctx, name, ClampHistoryLimit(input.Limit))
	if err != nil {
		return nil, err
	}

	// Ensure we return an empty array rather than nil
	if entries == nil {
		entries = []project.HistoryEntry{}
	}

	return &HistoryOutput{
		Project: name,
		History: entries,
	}, nil
}

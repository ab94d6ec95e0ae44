package ops

import (
	"context"
	"time"

	"github.com/hpungsan/stash/internal/errors"
	"github.com/hpungsan/stash/internal/project"
	"github.com/hpungsan/stash/internal/store"
)

// SyncInput contains parameters for the Sync operation.
type SyncInput struct {
	Project string
	Payload project.Payload
	Now     time.Time // optional; zero means time.Now
}

// SyncOutput contains the result of the Sync operation.
type SyncOutput struct {
	Success   bool      `json:"success"`
	Project   string    `json:"project"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sync performs a field-merge write of the payload onto the project's
// record and, when the payload carries a summary, appends a raw snapshot
// of the payload to the project's history. The record merge persists
// before the history append; an interruption between the two leaves the
// collections divergent, which is accepted.
func Sync(ctx context.Context, st *store.Store, input SyncInput) (*SyncOutput, error) {
	name, err := cleanProject(input.Project)
	if err != nil {
		return nil, err
	}

	at := writeTime(input.Now)

	merged, err := st.Projects.Merge(ctx, name, input.Payload, at)
	if err != nil {
		return nil, err
	}

	if input.Payload.HasSummary() {
		id, err := newULID()
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		entry := project.EntryFromPayload(id, input.Payload, at)
		if err := st.History.Append(ctx, name, entry); err != nil {
			return nil, err
		}
	}

	return &SyncOutput{
		Success:   true,
		Project:   name,
		UpdatedAt: merged.UpdatedAt,
	}, nil
}

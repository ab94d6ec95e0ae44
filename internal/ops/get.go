package ops

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hpungsan/stash/internal/project"
	"github.com/hpungsan/stash/internal/store"
)

// GetInput contains parameters for the Get operation.
type GetInput struct {
	Project        string
	IncludeFiles   bool
	IncludeHistory int // 0 omits history; >0 includes up to N entries (clamped)
}

// GetOutput contains the result of the Get operation.
type GetOutput struct {
	Project   string                     `json:"project"`
	Summary   *string                    `json:"summary,omitempty"`
	ClaudeMD  *string                    `json:"claude_md,omitempty"`
	Metadata  json.RawMessage            `json:"metadata,omitempty"`
	UpdatedAt time.Time                  `json:"updated_at"`
	Files     map[string]json.RawMessage `json:"files,omitempty"`
	History   []project.HistoryEntry     `json:"history,omitempty"`
}

// Get fetches one project's record, optionally with its file snapshot and
// recent history.
func Get(ctx context.Context, st *store.Store, input GetInput) (*GetOutput, error) {
	name, err := cleanProject(input.Project)
	if err != nil {
		return nil, err
	}

	r, err := st.Projects.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	out := &GetOutput{
		Project:   name,
		Summary:   r.Summary,
		ClaudeMD:  r.ClaudeMD,
		Metadata:  r.Metadata,
		UpdatedAt: r.UpdatedAt,
	}
	if input.IncludeFiles {
		out.Files = r.Files
	}
	if input.IncludeHistory > 0 {
		entries, err := st.History.List(ctx, name, ClampHistoryLimit(input.IncludeHistory))
		if err != nil {
			return nil, err
		}
		out.History = entries
	}

	return out, nil
}

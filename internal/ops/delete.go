package ops

import (
	"context"

	"github.com/hpungsan/stash/internal/store"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	Project string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Success bool   `json:"success"`
	Project string `json:"project"`
}

// Delete removes the project's record and its entire history.
// Deleting an unknown project succeeds.
func Delete(ctx context.Context, st *store.Store, input DeleteInput) (*DeleteOutput, error) {
	name, err := cleanProject(input.Project)
	if err != nil {
		return nil, err
	}

	if err := st.Projects.Delete(ctx, name); err != nil {
		return nil, err
	}
	if err := st.History.DeleteAll(ctx, name); err != nil {
		return nil, err
	}

	return &DeleteOutput{
		Success: true,
		Project: name,
	}, nil
}

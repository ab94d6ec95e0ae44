package ops

import (
	"context"

	"github.com/hpungsan/stash/internal/project"
	"github.com/hpungsan/stash/internal/store"
)

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Projects []project.Descriptor `json:"projects"`
}

// List retrieves a descriptor for every known project, most recently
// updated first. No pagination; the store returns everything.
func List(ctx context.Context, st *store.Store) (*ListOutput, error) {
	descriptors, err := st.Projects.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	// Ensure we return an empty array rather than nil
	if descriptors == nil {
		descriptors = []project.Descriptor{}
	}

	return &ListOutput{Projects: descriptors}, nil
}

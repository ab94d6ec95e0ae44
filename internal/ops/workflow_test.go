package ops

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/stash/internal/project"
)

// TestAssistantSessionWorkflow walks the end-to-end flow an assistant
// session produces: initial sync, read-back, partial update, read-back
// again, then a history check.
func TestAssistantSessionWorkflow(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	// Session start: save summary and instructions.
	out, err := Sync(ctx, st, SyncInput{
		Project: "demo",
		Payload: project.Payload{
			Summary:  strPtr("init"),
			ClaudeMD: strPtr("# rules"),
		},
	})
	require.NoError(t, err)
	require.True(t, out.Success)

	// Read back what was saved.
	got, err := Get(ctx, st, GetInput{Project: "demo"})
	require.NoError(t, err)
	require.NotNil(t, got.Summary)
	require.Equal(t, "init", *got.Summary)
	require.NotNil(t, got.ClaudeMD)
	require.Equal(t, "# rules", *got.ClaudeMD)

	// Later session: only metadata changes.
	_, err = Sync(ctx, st, SyncInput{
		Project: "demo",
		Payload: project.Payload{Metadata: json.RawMessage(`{"lang":"ts"}`)},
	})
	require.NoError(t, err)

	// Both the old fields and the new metadata are visible.
	got, err = Get(ctx, st, GetInput{Project: "demo"})
	require.NoError(t, err)
	require.NotNil(t, got.Summary)
	require.Equal(t, "init", *got.Summary)
	require.JSONEq(t, `{"lang":"ts"}`, string(got.Metadata))

	// Only the summary-bearing write made history.
	h, err := History(ctx, st, HistoryInput{Project: "demo", Limit: 1})
	require.NoError(t, err)
	require.Len(t, h.History, 1)
	require.NotNil(t, h.History[0].Summary)
	require.Equal(t, "init", *h.History[0].Summary)

	// The project shows up in the listing.
	l, err := List(ctx, st)
	require.NoError(t, err)
	require.Len(t, l.Projects, 1)
	require.Equal(t, "demo", l.Projects[0].Project)

	// Cleanup removes everything.
	_, err = Delete(ctx, st, DeleteInput{Project: "demo"})
	require.NoError(t, err)

	l, err = List(ctx, st)
	require.NoError(t, err)
	require.Empty(t, l.Projects)
}

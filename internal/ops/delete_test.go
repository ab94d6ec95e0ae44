package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/stash/internal/errors"
	"github.com/hpungsan/stash/internal/project"
)

func TestDeleteRemovesRecordAndHistory(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	if _, err := Sync(ctx, st, SyncInput{
		Project: "demo",
		Payload: project.Payload{Summary: strPtr("to be removed")},
	}); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	out, err := Delete(ctx, st, DeleteInput{Project: "demo"})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !out.Success {
		t.Error("expected success")
	}

	if _, err := Get(ctx, st, GetInput{Project: "demo"}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Get after delete = %v, want not found", err)
	}

	h, err := History(ctx, st, HistoryInput{Project: "demo"})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(h.History) != 0 {
		t.Errorf("history survived delete: %d entries", len(h.History))
	}
}

func TestDeleteUnknownProjectSucceeds(t *testing.T) {
	st := setupStore(t)

	out, err := Delete(context.Background(), st, DeleteInput{Project: "never-existed"})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !out.Success {
		t.Error("expected success for unknown project")
	}
}

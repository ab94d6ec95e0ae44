package ops

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hpungsan/stash/internal/errors"
	"github.com/hpungsan/stash/internal/project"
)

func TestGetUnknownProject(t *testing.T) {
	st := setupStore(t)

	_, err := Get(context.Background(), st, GetInput{Project: "nope"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestGetExcludesFilesByDefault(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	if _, err := Sync(ctx, st, SyncInput{
		Project: "demo",
		Payload: project.Payload{
			Summary: strPtr("with files"),
			Files: map[string]json.RawMessage{
				"main.go": json.RawMessage(`"package main"`),
			},
		},
	}); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	got, err := Get(ctx, st, GetInput{Project: "demo"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Files != nil {
		t.Errorf("files included without include_files: %v", got.Files)
	}

	got, err = Get(ctx, st, GetInput{Project: "demo", IncludeFiles: true})
	if err != nil {
		t.Fatalf("Get with files: %v", err)
	}
	if len(got.Files) != 1 {
		t.Fatalf("files = %v, want 1 entry", got.Files)
	}
}

func TestGetIncludeHistory(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	for _, s := range []string{"one", "two", "three"} {
		if _, err := Sync(ctx, st, SyncInput{
			Project: "demo",
			Payload: project.Payload{Summary: strPtr(s)},
		}); err != nil {
			t.Fatalf("Sync: %v", err)
		}
	}

	got, err := Get(ctx, st, GetInput{Project: "demo"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.History != nil {
		t.Errorf("history included without include_history: %v", got.History)
	}

	got, err = Get(ctx, st, GetInput{Project: "demo", IncludeHistory: 2})
	if err != nil {
		t.Fatalf("Get with history: %v", err)
	}
	if len(got.History) != 2 {
		t.Fatalf("history has %d entries, want 2", len(got.History))
	}
}

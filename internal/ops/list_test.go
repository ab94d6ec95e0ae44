package ops

import (
	"context"
	"testing"
	"time"

	"github.com/hpungsan/stash/internal/project"
)

func TestListEmpty(t *testing.T) {
	st := setupStore(t)

	out, err := List(context.Background(), st)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if out.Projects == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(out.Projects) != 0 {
		t.Fatalf("projects = %v, want none", out.Projects)
	}
}

func TestListNewestFirst(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	names := []string{"alpha", "beta", "gamma"}
	for i, name := range names {
		if _, err := Sync(ctx, st, SyncInput{
			Project: name,
			Payload: project.Payload{Summary: strPtr(name + " summary")},
			Now:     base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("Sync %s: %v", name, err)
		}
	}

	out, err := List(ctx, st)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out.Projects) != 3 {
		t.Fatalf("projects = %d, want 3", len(out.Projects))
	}
	want := []string{"gamma", "beta", "alpha"}
	for i, w := range want {
		if out.Projects[i].Project != w {
			t.Errorf("project %d = %q, want %q", i, out.Projects[i].Project, w)
		}
	}
	if out.Projects[0].Summary == nil || *out.Projects[0].Summary != "gamma summary" {
		t.Errorf("descriptor summary = %v", out.Projects[0].Summary)
	}
}

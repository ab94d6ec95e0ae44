package db

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/hpungsan/stash/internal/errors"
	"github.com/hpungsan/stash/internal/project"
	"github.com/hpungsan/stash/internal/store"
)

func stringPtr(s string) *string { return &s }

func setupStores(t *testing.T) *store.Store {
	t.Helper()
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStores(database)
}

func TestInitIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	database, err := Init(dir)
	if err != nil {
		t.Fatalf("first Init: %v", err)
	}
	database.Close()

	database, err = Init(dir)
	if err != nil {
		t.Fatalf("second Init: %v", err)
	}
	defer database.Close()

	version, err := GetUserVersion(database)
	if err != nil {
		t.Fatalf("GetUserVersion: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestMergePreservesOmittedFields(t *testing.T) {
	st := setupStores(t)
	ctx := context.Background()
	t1 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if _, err := st.Projects.Merge(ctx, "demo", project.Payload{Summary: stringPtr("x")}, t1); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	merged, err := st.Projects.Merge(ctx, "demo", project.Payload{
		Metadata: json.RawMessage(`{"lang":"ts"}`),
	}, t1.Add(time.Minute))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if merged.Summary == nil || *merged.Summary != "x" {
		t.Errorf("omitted summary regressed: %v", merged.Summary)
	}
	if string(merged.Metadata) != `{"lang":"ts"}` {
		t.Errorf("Metadata = %s", merged.Metadata)
	}

	got, err := st.Projects.Get(ctx, "demo")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Summary == nil || *got.Summary != "x" {
		t.Errorf("persisted summary = %v, want x", got.Summary)
	}
	if !got.UpdatedAt.Equal(t1.Add(time.Minute)) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, t1.Add(time.Minute))
	}
}

func TestGetUnknownProject(t *testing.T) {
	st := setupStores(t)

	_, err := st.Projects.Get(context.Background(), "nope")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Get should return NOT_FOUND, got: %v", err)
	}
}

func TestListAllSortedNewestFirst(t *testing.T) {
	st := setupStores(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, name := range []string{"old", "mid", "new"} {
		if _, err := st.Projects.Merge(ctx, name, project.Payload{}, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("Merge %s: %v", name, err)
		}
	}

	descriptors, err := st.Projects.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	want := []string{"new", "mid", "old"}
	if len(descriptors) != len(want) {
		t.Fatalf("len = %d, want %d", len(descriptors), len(want))
	}
	for i, d := range descriptors {
		if d.Project != want[i] {
			t.Errorf("descriptors[%d] = %q, want %q", i, d.Project, want[i])
		}
	}
}

func TestDeleteAbsentIsNoOp(t *testing.T) {
	st := setupStores(t)

	if err := st.Projects.Delete(context.Background(), "ghost"); err != nil {
		t.Errorf("Delete of absent key should succeed, got: %v", err)
	}
}

func TestHistoryCapEvictsOldestByInsertion(t *testing.T) {
	st := setupStores(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 60; i++ {
		e := project.HistoryEntry{
			ID:       fmt.Sprintf("%026d", i),
			Summary:  stringPtr(fmt.Sprintf("write-%d", i)),
			SyncedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := st.History.Append(ctx, "demo", e); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	entries, err := st.History.List(ctx, "demo", 100)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != store.HistoryCap {
		t.Fatalf("len = %d, want %d", len(entries), store.HistoryCap)
	}
	if *entries[0].Summary != "write-59" {
		t.Errorf("entries[0] = %q, want write-59 (newest first)", *entries[0].Summary)
	}
	if *entries[len(entries)-1].Summary != "write-10" {
		t.Errorf("oldest retained = %q, want write-10", *entries[len(entries)-1].Summary)
	}
}

func TestHistoryRoundTripsOpaqueFields(t *testing.T) {
	st := setupStores(t)
	ctx := context.Background()

	e := project.HistoryEntry{
		ID:       "01TESTENTRY000000000000001",
		Summary:  stringPtr("snap"),
		Files:    map[string]json.RawMessage{"main.go": json.RawMessage(`"package main"`)},
		Metadata: json.RawMessage(`{"lang":"go"}`),
		SyncedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := st.History.Append(ctx, "demo", e); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := st.History.List(ctx, "demo", 20)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len = %d, want 1", len(entries))
	}
	got := entries[0]
	if string(got.Files["main.go"]) != `"package main"` {
		t.Errorf("Files = %v", got.Files)
	}
	if string(got.Metadata) != `{"lang":"go"}` {
		t.Errorf("Metadata = %s", got.Metadata)
	}
	if !got.SyncedAt.Equal(e.SyncedAt) {
		t.Errorf("SyncedAt = %v, want %v", got.SyncedAt, e.SyncedAt)
	}
}

func TestHistoryDeleteAll(t *testing.T) {
	st := setupStores(t)
	ctx := context.Background()

	e := project.HistoryEntry{ID: "01TESTENTRY000000000000002", Summary: stringPtr("w"), SyncedAt: time.Now().UTC()}
	if err := st.History.Append(ctx, "demo", e); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := st.History.DeleteAll(ctx, "demo"); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}

	entries, err := st.History.List(ctx, "demo", 20)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len = %d, want 0 after DeleteAll", len(entries))
	}
}

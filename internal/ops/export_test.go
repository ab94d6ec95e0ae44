package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/stash/internal/config"
	"github.com/hpungsan/stash/internal/errors"
	"github.com/hpungsan/stash/internal/project"
)

func exportConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}
	return cfg
}

func TestExportJSONL(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	for _, name := range []string{"alpha", "beta"} {
		if _, err := Sync(ctx, st, SyncInput{
			Project: name,
			Payload: project.Payload{Summary: strPtr(name + " summary")},
		}); err != nil {
			t.Fatalf("Sync %s: %v", name, err)
		}
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")
	out, err := Export(ctx, st, exportConfig(dir), ExportInput{Path: path})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if out.Count != 2 {
		t.Errorf("count = %d, want 2", out.Count)
	}
	if out.Path != path {
		t.Errorf("path = %q, want %q", out.Path, path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("export file is empty")
	}
	var header ExportHeader
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		t.Fatalf("parse header: %v", err)
	}
	if !header.StashExport || header.SchemaVersion != "1.0" {
		t.Errorf("unexpected header: %+v", header)
	}

	var lines int
	names := map[string]bool{}
	for scanner.Scan() {
		lines++
		var rec struct {
			Project string `json:"project"`
			Summary string `json:"summary"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("parse record line: %v", err)
		}
		names[rec.Project] = true
	}
	if lines != 2 {
		t.Errorf("record lines = %d, want 2", lines)
	}
	if !names["alpha"] || !names["beta"] {
		t.Errorf("exported projects = %v", names)
	}
}

func TestExportHTML(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	if _, err := Sync(ctx, st, SyncInput{
		Project: "demo",
		Payload: project.Payload{
			Summary:  strPtr("a <b>summary</b>"),
			ClaudeMD: strPtr("# Rules\n\nAlways be testing."),
		},
	}); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "report.html")
	if _, err := Export(ctx, st, exportConfig(dir), ExportInput{Path: path, Format: ExportHTML}); err != nil {
		t.Fatalf("Export: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "<h2>demo</h2>") {
		t.Error("missing project heading")
	}
	// Markdown rendered, raw summary HTML escaped.
	if !strings.Contains(content, "<h1>Rules</h1>") {
		t.Error("claude_md was not rendered as markdown")
	}
	if strings.Contains(content, "a <b>summary</b>") {
		t.Error("summary was not HTML-escaped")
	}
}

func TestExportRejectsWrongExtension(t *testing.T) {
	st := setupStore(t)
	dir := t.TempDir()

	_, err := Export(context.Background(), st, exportConfig(dir), ExportInput{
		Path: filepath.Join(dir, "out.txt"),
	})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("error = %v, want invalid request", err)
	}
}

func TestExportRejectsTraversal(t *testing.T) {
	st := setupStore(t)
	dir := t.TempDir()

	// Raw path: filepath.Join would clean the ".." away.
	_, err := Export(context.Background(), st, exportConfig(dir), ExportInput{
		Path: dir + "/../escape.jsonl",
	})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("error = %v, want invalid request", err)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	st := setupStore(t)
	dir := t.TempDir()

	_, err := Export(context.Background(), st, exportConfig(dir), ExportInput{
		Path:   filepath.Join(dir, "out.xml"),
		Format: ExportFormat("xml"),
	})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("error = %v, want invalid request", err)
	}
}

func TestExportRejectsNestedDirectory(t *testing.T) {
	st := setupStore(t)
	dir := t.TempDir()

	nested := filepath.Join(dir, "deeper")
	if err := os.MkdirAll(nested, 0700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	_, err := Export(context.Background(), st, exportConfig(dir), ExportInput{
		Path: filepath.Join(nested, "out.jsonl"),
	})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("error = %v, want invalid request", err)
	}
}

func TestExportUnsafePathsBypassesChecks(t *testing.T) {
	st := setupStore(t)
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := Export(context.Background(), st, cfg, ExportInput{
		Path: filepath.Join(nested, "out.jsonl"),
	}); err != nil {
		t.Fatalf("Export with unsafe paths: %v", err)
	}
}

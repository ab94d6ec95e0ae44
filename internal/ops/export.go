package ops

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/stash/internal/config"
	"github.com/hpungsan/stash/internal/errors"
	"github.com/hpungsan/stash/internal/project"
	"github.com/hpungsan/stash/internal/store"
)

// ExportFormat selects the export file format.
type ExportFormat string

const (
	ExportJSONL ExportFormat = "jsonl" // default: one project per line
	ExportHTML  ExportFormat = "html"  // report with rendered claude_md
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path   string       // optional, default: ~/.stash/exports/projects-<timestamp>.<ext>
	Format ExportFormat // default: jsonl
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader is the header line in a JSONL export file.
type ExportHeader struct {
	StashExport   bool   `json:"_stash_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
}

// exportRecord is one project's full state in an export.
type exportRecord struct {
	Project string `json:"project"`
	project.Record
	History []project.HistoryEntry `json:"history,omitempty"`
}

// Export dumps every project (record plus retained history) to a file.
func Export(ctx context.Context, st *store.Store, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := time.Now()
	exportedAt := now.Unix()

	format := input.Format
	if format == "" {
		format = ExportJSONL
	}
	if format != ExportJSONL && format != ExportHTML {
		return nil, errors.NewInvalidRequest("format must be one of: jsonl, html")
	}
	ext := "." + string(format)

	exportPath := input.Path
	if exportPath == "" {
		var err error
		exportPath, err = defaultExportPath(now, ext)
		if err != nil {
			return nil, err
		}
	}

	// Validate all paths, including defaults, before touching the filesystem.
	if err := ValidateExportPath(exportPath, ext, cfg); err != nil {
		return nil, err
	}

	records, err := collectExportRecords(ctx, st)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case ExportJSONL:
		err = writeJSONL(&buf, records, exportedAt)
	case ExportHTML:
		err = writeHTMLReport(&buf, records, now)
	}
	if err != nil {
		return nil, err
	}

	if err := writeExportFile(exportPath, buf.Bytes()); err != nil {
		return nil, err
	}

	return &ExportOutput{
		Path:       exportPath,
		Count:      len(records),
		ExportedAt: exportedAt,
	}, nil
}

// collectExportRecords loads every project with its retained history.
func collectExportRecords(ctx context.Context, st *store.Store) ([]exportRecord, error) {
	descriptors, err := st.Projects.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]exportRecord, 0, len(descriptors))
	for _, d := range descriptors {
		r, err := st.Projects.Get(ctx, d.Project)
		if err != nil {
			// Raced with a delete between list and get; skip.
			if errors.Is(err, errors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		entries, err := st.History.List(ctx, d.Project, store.HistoryCap)
		if err != nil {
			return nil, err
		}
		records = append(records, exportRecord{
			Project: d.Project,
			Record:  *r,
			History: entries,
		})
	}
	return records, nil
}

// writeJSONL writes the header line followed by one record per line.
func writeJSONL(buf *bytes.Buffer, records []exportRecord, exportedAt int64) error {
	header := ExportHeader{
		StashExport:   true,
		SchemaVersion: "1.0",
		ExportedAt:    exportedAt,
	}
	enc := json.NewEncoder(buf)
	if err := enc.Encode(header); err != nil {
		return errors.NewInternal(err)
	}
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return errors.NewInternal(err)
		}
	}
	return nil
}

// writeHTMLReport writes a self-contained report with each project's
// claude_md rendered from markdown.
func writeHTMLReport(buf *bytes.Buffer, records []exportRecord, now time.Time) error {
	fmt.Fprintf(buf, "<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>Stash export</title></head>\n<body>\n")
	fmt.Fprintf(buf, "<h1>Stash export</h1>\n<p>%d projects, exported %s</p>\n",
		len(records), html.EscapeString(now.UTC().Format("2006-01-02 15:04 UTC")))

	for _, r := range records {
		fmt.Fprintf(buf, "<section>\n<h2>%s</h2>\n", html.EscapeString(r.Project))
		if r.Summary != nil {
			fmt.Fprintf(buf, "<p>%s</p>\n", html.EscapeString(*r.Summary))
		}
		fmt.Fprintf(buf, "<p><small>updated %s, %d history entries, %d files</small></p>\n",
			html.EscapeString(r.UpdatedAt.UTC().Format("2006-01-02 15:04 UTC")),
			len(r.History), len(r.Files))
		if r.ClaudeMD != nil {
			var rendered bytes.Buffer
			if err := goldmark.Convert([]byte(*r.ClaudeMD), &rendered); err != nil {
				fmt.Fprintf(buf, "<pre>%s</pre>\n", html.EscapeString(*r.ClaudeMD))
			} else {
				buf.Write(rendered.Bytes())
			}
		}
		fmt.Fprintf(buf, "</section>\n")
	}

	fmt.Fprintf(buf, "</body>\n</html>\n")
	return nil
}

// writeExportFile writes content to a temp file and renames it into place,
// preserving any existing file on failure.
func writeExportFile(exportPath string, content []byte) error {
	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"

	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(content); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink destination.
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}

	if err := os.Rename(tempPath, exportPath); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}

// defaultExportPath generates the default export path:
// ~/.stash/exports/projects-<timestamp>.<ext>
func defaultExportPath(now time.Time, ext string) (string, error) {
	exportsDir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("projects-%s%s", now.Format("2006-01-02T150405"), ext)
	return filepath.Join(exportsDir, filename), nil
}

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hpungsan/stash/internal/errors"
	"github.com/hpungsan/stash/internal/project"
	"github.com/hpungsan/stash/internal/store"
)

// NewStores wraps an initialized database in the store interfaces. Unlike
// the JSON backend, SQLite failures surface as internal errors: the
// swallow-and-log tradeoff exists for the whole-file medium, and a keyed
// backend that fails per-statement has nothing sensible to degrade to.
func NewStores(database *sql.DB) *store.Store {
	return &store.Store{
		Projects: &sqlProjects{db: database},
		History:  &sqlHistory{db: database},
	}
}

// sqlProjects implements store.ProjectStore on the projects table.
type sqlProjects struct {
	db *sql.DB
}

func (s *sqlProjects) ListAll(ctx context.Context) ([]project.Descriptor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, summary, updated_at FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var descriptors []project.Descriptor
	for rows.Next() {
		var d project.Descriptor
		var summary sql.NullString
		var updatedAt int64
		if err := rows.Scan(&d.Project, &summary, &updatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		if summary.Valid {
			d.Summary = &summary.String
		}
		d.UpdatedAt = time.Unix(0, updatedAt).UTC()
		descriptors = append(descriptors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return descriptors, nil
}

func (s *sqlProjects) Get(ctx context.Context, name string) (*project.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT summary, claude_md, files_json, metadata_json, updated_at
		 FROM projects WHERE name = ?`, name)

	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewProjectNotFound(name)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

func (s *sqlProjects) Merge(ctx context.Context, name string, p project.Payload, at time.Time) (*project.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT summary, claude_md, files_json, metadata_json, updated_at
		 FROM projects WHERE name = ?`, name)

	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		r = &project.Record{} // absent key merges onto an empty record
	} else if err != nil {
		return nil, errors.NewInternal(err)
	}

	r.Apply(p, at)

	filesJSON, metadataJSON, err := encodeOpaque(r)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (name, summary, claude_md, files_json, metadata_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
		  summary = excluded.summary,
		  claude_md = excluded.claude_md,
		  files_json = excluded.files_json,
		  metadata_json = excluded.metadata_json,
		  updated_at = excluded.updated_at`,
		name, nullString(r.Summary), nullString(r.ClaudeMD),
		filesJSON, metadataJSON, r.UpdatedAt.UnixNano())
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

func (s *sqlProjects) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE name = ?`, name); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// sqlHistory implements store.HistoryStore on the history table.
type sqlHistory struct {
	db *sql.DB
}

func (s *sqlHistory) Append(ctx context.Context, name string, entry project.HistoryEntry) error {
	filesJSON, metadataJSON, err := encodeOpaque(&project.Record{Files: entry.Files, Metadata: entry.Metadata})
	if err != nil {
		return errors.NewInternal(err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO history (id, project, summary, claude_md, files_json, metadata_json, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, name, nullString(entry.Summary), nullString(entry.ClaudeMD),
		filesJSON, metadataJSON, entry.SyncedAt.UnixNano())
	if err != nil {
		return errors.NewInternal(err)
	}

	// FIFO eviction on insertion order (rowid), not on synced_at.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM history WHERE project = ?1 AND rowid NOT IN (
		  SELECT rowid FROM history WHERE project = ?1 ORDER BY rowid DESC LIMIT ?2
		)`, name, store.HistoryCap)
	if err != nil {
		return errors.NewInternal(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func (s *sqlHistory) List(ctx context.Context, name string, limit int) ([]project.HistoryEntry, error) {
	if limit <= 0 {
		limit = store.HistoryCap
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, summary, claude_md, files_json, metadata_json, synced_at
		FROM history WHERE project = ? ORDER BY synced_at DESC LIMIT ?`,
		name, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	entries := make([]project.HistoryEntry, 0)
	for rows.Next() {
		var e project.HistoryEntry
		var summary, claudeMD, filesJSON, metadataJSON sql.NullString
		var syncedAt int64
		if err := rows.Scan(&e.ID, &summary, &claudeMD, &filesJSON, &metadataJSON, &syncedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		if summary.Valid {
			e.Summary = &summary.String
		}
		if claudeMD.Valid {
			e.ClaudeMD = &claudeMD.String
		}
		if filesJSON.Valid {
			if err := json.Unmarshal([]byte(filesJSON.String), &e.Files); err != nil {
				return nil, errors.NewInternal(fmt.Errorf("corrupt files_json for %s: %w", e.ID, err))
			}
		}
		if metadataJSON.Valid {
			e.Metadata = json.RawMessage(metadataJSON.String)
		}
		e.SyncedAt = time.Unix(0, syncedAt).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return entries, nil
}

func (s *sqlHistory) DeleteAll(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE project = ?`, name); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// scanner abstracts sql.Row / sql.Rows for scanRecord.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one projects row into a Record.
func scanRecord(row scanner) (*project.Record, error) {
	var summary, claudeMD, filesJSON, metadataJSON sql.NullString
	var updatedAt int64

	if err := row.Scan(&summary, &claudeMD, &filesJSON, &metadataJSON, &updatedAt); err != nil {
		return nil, err
	}

	r := &project.Record{UpdatedAt: time.Unix(0, updatedAt).UTC()}
	if summary.Valid {
		r.Summary = &summary.String
	}
	if claudeMD.Valid {
		r.ClaudeMD = &claudeMD.String
	}
	if filesJSON.Valid {
		if err := json.Unmarshal([]byte(filesJSON.String), &r.Files); err != nil {
			return nil, fmt.Errorf("corrupt files_json: %w", err)
		}
	}
	if metadataJSON.Valid {
		r.Metadata = json.RawMessage(metadataJSON.String)
	}
	return r, nil
}

// encodeOpaque serializes the opaque files and metadata fields for storage.
// Absent fields map to NULL so they stay distinguishable from empty ones.
func encodeOpaque(r *project.Record) (files, metadata sql.NullString, err error) {
	if r.Files != nil {
		b, err := json.Marshal(r.Files)
		if err != nil {
			return files, metadata, err
		}
		files = sql.NullString{String: string(b), Valid: true}
	}
	if r.Metadata != nil {
		metadata = sql.NullString{String: string(r.Metadata), Valid: true}
	}
	return files, metadata, nil
}

// nullString converts an optional string to its SQL representation.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

package project

import (
	"encoding/json"
	"strings"
	"time"
)

// Record is the current merged state document for one project. Fields
// omitted in a write keep their prior value; a project with no record is
// distinct from a project with an empty record.
type Record struct {
	// Summary is a human-readable description of current project state
	Summary *string `json:"summary,omitempty"`

	// ClaudeMD is the project's generated configuration/instructions document
	ClaudeMD *string `json:"claude_md,omitempty"`

	// Files maps file path to file content/metadata, opaque to the store
	Files map[string]json.RawMessage `json:"files,omitempty"`

	// Metadata is a free-form structured value, opaque to the store
	Metadata json.RawMessage `json:"metadata,omitempty"`

	// UpdatedAt is set to the time of the write that produced this record
	UpdatedAt time.Time `json:"updated_at"`
}

// Payload is the partial body of a sync write. Nil fields were omitted from
// the request and must not touch the stored record.
type Payload struct {
	Summary  *string                    `json:"summary,omitempty"`
	ClaudeMD *string                    `json:"claude_md,omitempty"`
	Files    map[string]json.RawMessage `json:"files,omitempty"`
	Metadata json.RawMessage            `json:"metadata,omitempty"`
}

// HasSummary reports whether the payload carries a summary. Only such
// writes are recorded in the history log.
func (p Payload) HasSummary() bool {
	return p.Summary != nil
}

// IsEmpty reports whether every field was omitted.
func (p Payload) IsEmpty() bool {
	return p.Summary == nil && p.ClaudeMD == nil && p.Files == nil && p.Metadata == nil
}

// Apply overlays each present field of the payload onto the record and
// stamps it with the write time. Field-level merge, not whole-record
// replacement.
func (r *Record) Apply(p Payload, at time.Time) {
	if p.Summary != nil {
		r.Summary = p.Summary
	}
	if p.ClaudeMD != nil {
		r.ClaudeMD = p.ClaudeMD
	}
	if p.Files != nil {
		r.Files = p.Files
	}
	if p.Metadata != nil {
		r.Metadata = p.Metadata
	}
	r.UpdatedAt = at
}

// HistoryEntry is an immutable snapshot of a write's payload: the values as
// submitted, not merged with prior state.
type HistoryEntry struct {
	// ID is a ULID that uniquely identifies this entry
	ID string `json:"id"`

	Summary  *string                    `json:"summary,omitempty"`
	ClaudeMD *string                    `json:"claude_md,omitempty"`
	Files    map[string]json.RawMessage `json:"files,omitempty"`
	Metadata json.RawMessage            `json:"metadata,omitempty"`

	// SyncedAt is the time the entry was recorded
	SyncedAt time.Time `json:"synced_at"`
}

// EntryFromPayload builds a history entry from a raw write payload.
func EntryFromPayload(id string, p Payload, at time.Time) HistoryEntry {
	return HistoryEntry{
		ID:       id,
		Summary:  p.Summary,
		ClaudeMD: p.ClaudeMD,
		Files:    p.Files,
		Metadata: p.Metadata,
		SyncedAt: at,
	}
}

// Descriptor is the minimal per-project listing entry.
type Descriptor struct {
	Project   string    `json:"project"`
	Summary   *string   `json:"summary,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CleanName trims a project name. The empty result means the name is
// invalid; names are otherwise user-chosen opaque strings.
func CleanName(name string) string {
	return strings.TrimSpace(name)
}

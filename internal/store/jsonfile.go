package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/hpungsan/stash/internal/errors"
	"github.com/hpungsan/stash/internal/project"
)

// The JSON backend keeps each collection as one human-readable JSON
// document, loaded whole and rewritten in full on every write. Durability
// is best-effort: an unreadable file degrades to an empty collection and an
// unwritable file loses the change on restart; both conditions are logged
// and neither fails the request.

const (
	projectsFile = "projects.json"
	historyFile  = "history.json"
)

// Open creates the default JSON-file stores under dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	_ = os.Chmod(dataDir, 0700)

	return &Store{
		Projects: &jsonProjects{path: filepath.Join(dataDir, projectsFile)},
		History:  &jsonHistory{path: filepath.Join(dataDir, historyFile)},
	}, nil
}

// jsonProjects persists name → Record as a single JSON object.
type jsonProjects struct {
	mu   sync.Mutex
	path string
}

func (s *jsonProjects) ListAll(_ context.Context) ([]project.Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := loadCollection[project.Record](s.path)

	descriptors := make([]project.Descriptor, 0, len(records))
	for name, r := range records {
		descriptors = append(descriptors, project.Descriptor{
			Project:   name,
			Summary:   r.Summary,
			UpdatedAt: r.UpdatedAt,
		})
	}

	// Most recently updated first; ties carry no secondary order.
	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].UpdatedAt.After(descriptors[j].UpdatedAt)
	})

	return descriptors, nil
}

func (s *jsonProjects) Get(_ context.Context, name string) (*project.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := loadCollection[project.Record](s.path)
	r, ok := records[name]
	if !ok {
		return nil, errors.NewProjectNotFound(name)
	}
	return &r, nil
}

func (s *jsonProjects) Merge(_ context.Context, name string, p project.Payload, at time.Time) (*project.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := loadCollection[project.Record](s.path)
	r := records[name] // zero record when absent
	r.Apply(p, at)
	records[name] = r

	saveCollection(s.path, records)
	return &r, nil
}

func (s *jsonProjects) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := loadCollection[project.Record](s.path)
	if _, ok := records[name]; !ok {
		return nil
	}
	delete(records, name)

	saveCollection(s.path, records)
	return nil
}

// jsonHistory persists name → []HistoryEntry as a single JSON object.
type jsonHistory struct {
	mu   sync.Mutex
	path string
}

func (s *jsonHistory) Append(_ context.Context, name string, entry project.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sequences := loadCollection[[]project.HistoryEntry](s.path)
	seq := append(sequences[name], entry)

	// Append-then-truncate: keep the newest HistoryCap entries.
	if len(seq) > HistoryCap {
		seq = seq[len(seq)-HistoryCap:]
	}
	sequences[name] = seq

	saveCollection(s.path, sequences)
	return nil
}

func (s *jsonHistory) List(_ context.Context, name string, limit int) ([]project.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sequences := loadCollection[[]project.HistoryEntry](s.path)
	seq := sequences[name]

	entries := make([]project.HistoryEntry, len(seq))
	copy(entries, seq)

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SyncedAt.After(entries[j].SyncedAt)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *jsonHistory) DeleteAll(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sequences := loadCollection[[]project.HistoryEntry](s.path)
	if _, ok := sequences[name]; !ok {
		return nil
	}
	delete(sequences, name)

	saveCollection(s.path, sequences)
	return nil
}

// loadCollection reads a whole collection file. A missing file is an empty
// collection; an unreadable or corrupt file degrades to empty rather than
// failing the request.
func loadCollection[T any](path string) map[string]T {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("%v", errors.NewStorageRead(err))
		}
		return make(map[string]T)
	}

	collection := make(map[string]T)
	if err := json.Unmarshal(data, &collection); err != nil {
		log.Printf("%v", errors.NewStorageRead(fmt.Errorf("corrupt collection %s: %w", filepath.Base(path), err)))
		return make(map[string]T)
	}
	return collection
}

// saveCollection rewrites a whole collection file, human-readable, via a
// temp file and atomic rename. A write failure is logged and swallowed:
// the in-memory result is still returned to the caller and the change is
// lost on restart.
func saveCollection[T any](path string, collection map[string]T) {
	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		log.Printf("%v", errors.NewStorageWrite(err))
		return
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		log.Printf("%v", errors.NewStorageWrite(err))
		return
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		log.Printf("%v", errors.NewStorageWrite(err))
		return
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		log.Printf("%v", errors.NewStorageWrite(err))
	}
}

// Package store persists finished benchmark runs in a single JSON
// document. The file is replaced atomically on every mutation so a crash
// mid-write never corrupts the history.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/koaf/server-benchmark/pkg/bench"
)

// Record is one persisted benchmark run: the envelope plus a stable id
// and the time it was saved.
type Record struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	bench.Envelope
}

// document is the on-disk layout.
type document struct {
	Servers []Record `json:"servers"`
}

// Store is a thread-safe append-mostly record collection backed by one
// JSON file.
type Store struct {
	mu      sync.Mutex
	path    string
	records []Record
}

// Open loads the store at path, creating an empty one if the file does
// not exist. A file that cannot be parsed is treated as empty rather
// than blocking startup; it is rewritten on the next mutation.
func Open(path string) (*Store, error) {
	s := &Store{path: path, records: []Record{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read result store %s: %w", path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		// Corrupt history is not worth refusing to start over.
		return s, nil
	}
	if doc.Servers != nil {
		s.records = doc.Servers
	}
	return s, nil
}

// Add appends a finished run and persists the store. It returns the
// record as stored, with its generated id and timestamp.
func (s *Store) Add(env bench.Envelope) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := Record{
		ID:        uuid.NewString(),
		Timestamp: time.Now().Format(time.RFC3339),
		Envelope:  env,
	}
	s.records = append(s.records, rec)

	if err := s.persist(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return Record{}, err
	}
	return rec, nil
}

// GetAll returns all records in insertion order. The slice is a copy and
// never nil, so callers can serialize it directly as a JSON array.
func (s *Store) GetAll() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Delete removes the record with the given id. Deleting an id that does
// not exist is not an error.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := lo.Filter(s.records, func(r Record, _ int) bool {
		return r.ID != id
	})
	if len(kept) == len(s.records) {
		return nil
	}
	s.records = kept
	return s.persist()
}

// ClearAll removes every record.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = []Record{}
	return s.persist()
}

// Count returns the number of stored records.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// persist writes the full document to a temp file in the target
// directory and renames it into place. Callers hold s.mu.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(document{Servers: s.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".results-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write result store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close result store temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace result store %s: %w", s.path, err)
	}
	return nil
}

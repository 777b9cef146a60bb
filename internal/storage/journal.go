package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JournalRecord describes one applied restructure.
type JournalRecord struct {
	Manifest      string            `json:"manifest"`
	GroupID       string            `json:"group_id"`
	GroupName     string            `json:"group_name"`
	CreatedGroups map[string]string `json:"created_groups,omitempty"`
	MergedGroups  map[string]string `json:"merged_groups,omitempty"`
	Relocated     int               `json:"relocated"`
	BackupPath    string            `json:"backup_path,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// JournalStore keeps applied restructures in a local JSON file.
type JournalStore struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

// NewJournalStore creates a journal store at the given directory.
func NewJournalStore(dir string) *JournalStore {
	return &JournalStore{dir: dir, now: time.Now}
}

// Path returns the journal file location.
func (s *JournalStore) Path() string {
	return filepath.Join(s.dir, "journal.json")
}

// Append adds a record, stamping its creation time.
func (s *JournalStore) Append(rec JournalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readUnsafe()
	if err != nil {
		if !isCorrupt(err) {
			return err
		}
		records = nil // Start fresh if file is corrupted
	}

	rec.CreatedAt = s.now()
	records = append(records, rec)

	return s.writeUnsafe(records)
}

// List returns all records, oldest first.
func (s *JournalStore) List() ([]JournalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readUnsafe()
}

// Recent returns the last n records. n <= 0 returns everything.
func (s *JournalStore) Recent(n int) ([]JournalRecord, error) {
	records, err := s.List()
	if err != nil {
		return nil, err
	}

	if n <= 0 || len(records) <= n {
		return records, nil
	}
	return records[len(records)-n:], nil
}

// Clear removes all records.
func (s *JournalStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeUnsafe(nil)
}

func (s *JournalStore) readUnsafe() ([]JournalRecord, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	var records []JournalRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse journal: %w", err)
	}
	return records, nil
}

// isCorrupt reports whether err came from decoding malformed journal JSON.
func isCorrupt(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

func (s *JournalStore) writeUnsafe(records []JournalRecord) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}

	return os.WriteFile(s.Path(), data, 0o644)
}

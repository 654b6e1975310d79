package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/carvesort/pkg/carvesort/logging"
)

var logger = logging.Get("history")

var (
	// ErrNotFound is returned by Get when no entry matches.
	ErrNotFound = errors.New("history entry not found")

	// ErrAmbiguous is returned by Get when a prefix matches several entries.
	ErrAmbiguous = errors.New("history entry ID is ambiguous")
)

// Store keeps run entries as JSON files in a directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New creates a Store rooted at dir.
// The directory is not created until EnsureDir is called.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("history directory cannot be empty")
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory entries are written to.
func (s *Store) Dir() string {
	return s.dir
}

// EnsureDir creates the history directory if it does not exist.
func (s *Store) EnsureDir() error {
	return os.MkdirAll(s.dir, 0o755)
}

// Record assigns e a fresh ID and timestamp and persists it.
func (s *Store) Record(e Entry) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = uuid.NewString()
	e.Timestamp = time.Now().UTC()
	if e.Files == nil {
		e.Files = []FileRecord{}
	}

	if err := s.writeEntry(&e); err != nil {
		return nil, fmt.Errorf("failed to write history entry: %w", err)
	}

	logger.Debug("run recorded", "id", e.ID, "files", len(e.Files))
	return &e, nil
}

func (s *Store) writeEntry(e *Entry) error {
	path := filepath.Join(s.dir, entryFilename(e))

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// entryFilename sorts chronologically in a directory listing.
func entryFilename(e *Entry) string {
	return fmt.Sprintf("%s-%s.json", e.Timestamp.Format("20060102T150405"), e.ID)
}

// List returns entries newest first. A limit of zero or less returns all.
func (s *Store) List(limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAll()
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry whose ID equals id or, failing that, the single
// entry whose ID starts with id.
func (s *Store) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAll()
	if err != nil {
		return nil, err
	}

	var matches []Entry
	for _, e := range entries {
		if e.ID == id {
			return &e, nil
		}
		if strings.HasPrefix(e.ID, id) {
			matches = append(matches, e)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s matches %d entries", ErrAmbiguous, id, len(matches))
	}
}

// Latest returns the most recent entry.
func (s *Store) Latest() (*Entry, error) {
	entries, err := s.List(1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return &entries[0], nil
}

// Cleanup removes entries recorded more than retentionDays ago and
// returns how many were removed.
func (s *Store) Cleanup(retentionDays int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	files, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read history directory: %w", err)
	}

	removed := 0
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}

		path := filepath.Join(s.dir, f.Name())
		e, err := readEntryFile(path)
		if err != nil {
			continue
		}
		if !e.Timestamp.Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			logger.Warn("could not remove history entry", "path", path, "error", err)
			continue
		}
		removed++
	}

	logger.Debug("history cleaned", "removed", removed, "retention_days", retentionDays)
	return removed, nil
}

func (s *Store) readAll() ([]Entry, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	entries := []Entry{}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		e, err := readEntryFile(filepath.Join(s.dir, f.Name()))
		if err != nil {
			logger.Warn("skipping unreadable history entry", "file", f.Name(), "error", err)
			continue
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

func readEntryFile(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return &e, nil
}

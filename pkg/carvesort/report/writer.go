package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jamesainslie/carvesort/pkg/carvesort/logging"
)

var logger = logging.Get("report")

// Writer renders a table to w.
type Writer interface {
	Write(w io.Writer, t *Table) error
}

// WriterFactory creates a new Writer instance.
type WriterFactory func() Writer

// Registry manages writer registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]WriterFactory
}

// NewRegistry creates a new writer registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]WriterFactory)}
}

// Register adds a writer factory, replacing any existing one with that name.
func (r *Registry) Register(name string, factory WriterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new writer by name.
func (r *Registry) Get(name string) (Writer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown report format: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of registered writer names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global writer registry.
var DefaultRegistry = NewRegistry()

// Register adds a writer factory to the default registry.
func Register(name string, factory WriterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new writer from the default registry.
func Get(name string) (Writer, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all writer names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// FormatForPath guesses a writer name from a file extension, returning
// fallback when the extension is not a registered format.
func FormatForPath(path, fallback string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "md":
		ext = "markdown"
	case "yml":
		ext = "yaml"
	}
	if _, err := Get(ext); err == nil {
		return ext
	}
	return fallback
}

// Save writes t to path using the named writer. Output goes to a temporary
// file in the same directory that is renamed over path only after a
// successful write, so a failure never leaves a truncated report behind.
// The temporary file is closed and removed on every error path.
func Save(path, format string, t *Table) (err error) {
	w, err := Get(format)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	tmpPath := tmp.Name()

	closed := false
	defer func() {
		if !closed {
			if closeErr := tmp.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("closing report: %w", closeErr)
			}
		}
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if err = w.Write(tmp, t); err != nil {
		return fmt.Errorf("writing %s report: %w", format, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing report: %w", err)
	}

	closed = true
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing report: %w", err)
	}
	if err = os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("setting report permissions: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("saving report: %w", err)
	}

	logger.Info("report saved", "path", path, "format", format, "rows", t.Len())
	return nil
}

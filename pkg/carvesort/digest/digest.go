// Package digest computes content fingerprints for recovered files.
//
// The default, md5, is a fast fingerprint for the report only; it is not
// collision resistant. Pick sha256 or sha512 when the report has to stand
// up as evidence that a file was not altered.
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Algorithm produces hash.Hash instances for one named digest.
type Algorithm struct {
	Name string
	New  func() hash.Hash
}

// File hashes the file at path and returns the lowercase hex digest.
func (a Algorithm) File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sum, err := a.Reader(f)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return sum, nil
}

// Reader hashes everything read from r.
func (a Algorithm) Reader(r io.Reader) (string, error) {
	h := a.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Registry holds algorithms by name.
type Registry struct {
	mu    sync.RWMutex
	algos map[string]Algorithm
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{algos: make(map[string]Algorithm)}
}

// Register adds or replaces an algorithm. Names are case-insensitive.
func (r *Registry) Register(name string, newHash func() hash.Hash) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(name)
	r.algos[key] = Algorithm{Name: key, New: newHash}
}

// Get returns the named algorithm.
func (r *Registry) Get(name string) (Algorithm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.algos[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Algorithm{}, fmt.Errorf("unknown hash algorithm: %s (available: %s)",
			name, strings.Join(r.namesLocked(), ", "))
	}
	return a, nil
}

// Available returns the registered names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.algos))
	for name := range r.algos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry carries the built-in algorithms.
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.Register("md5", md5.New)
	DefaultRegistry.Register("sha1", sha1.New)
	DefaultRegistry.Register("sha256", sha256.New)
	DefaultRegistry.Register("sha512", sha512.New)
	// xxhash is non-cryptographic; useful for very large carves.
	DefaultRegistry.Register("xxhash", func() hash.Hash { return xxhash.New() })
}

// Get returns an algorithm from the default registry.
func Get(name string) (Algorithm, error) {
	return DefaultRegistry.Get(name)
}

// Available returns the names in the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

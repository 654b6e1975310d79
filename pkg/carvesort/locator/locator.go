// Package locator maps the paths a carving report declares onto files that
// actually exist under the base directory.
//
// Resolution is two-step. The normalised declared path is tried as is; if
// nothing is there, the carver may have renamed the file to avoid a
// collision by inserting a suffix before the extension, so <stem>_*.<ext>
// is tried in the same directory. The fallback is a best-effort heuristic:
// when several candidates match, the lexicographically first name wins,
// which is deterministic but not guaranteed to be the file the report
// meant.
package locator

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jamesainslie/carvesort/pkg/carvesort/dfxml"
	"github.com/jamesainslie/carvesort/pkg/carvesort/logging"
)

var logger = logging.Get("locator")

// Match reports how a file was found.
type Match int

const (
	// MatchExact means the normalised declared path existed.
	MatchExact Match = iota
	// MatchFallback means a suffixed sibling was chosen.
	MatchFallback
)

// String returns the string representation of the match kind.
func (m Match) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Resolved is a manifest entry bound to a file on disk.
type Resolved struct {
	// Path is the file's current location.
	Path string

	// Ext is the extension of Path without the dot, in its original case.
	// Empty when the name has none.
	Ext string

	// OriginalName is the final segment of the declared path.
	OriginalName string

	Match Match
}

// Locator resolves declared paths relative to a base directory.
type Locator struct {
	base        string
	marker      string
	firstFolder string
}

// Option configures a Locator.
type Option func(*Locator)

// WithMarker sets the prefix identifying the carver's output folders.
func WithMarker(marker string) Option {
	return func(l *Locator) {
		if marker != "" {
			l.marker = marker
		}
	}
}

// WithFirstFolder sets the folder assumed for declared paths without a marker.
func WithFirstFolder(folder string) Option {
	return func(l *Locator) {
		if folder != "" {
			l.firstFolder = folder
		}
	}
}

// New creates a Locator for the given base directory.
func New(base string, opts ...Option) *Locator {
	l := &Locator{
		base:        base,
		marker:      "recup_dir",
		firstFolder: "recup_dir.1",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Locate resolves e to a file on disk. The boolean is false when neither the
// exact path nor a fallback candidate exists; that is an ordinary outcome,
// not an error.
func (l *Locator) Locate(e dfxml.Entry) (Resolved, bool) {
	target := l.Normalize(e.DeclaredPath)
	if target == "" {
		logger.Warn("declared path is empty or leaves the base", "declared", e.DeclaredPath)
		return Resolved{}, false
	}

	if isRegular(target) {
		logger.Debug("exact match", "path", target)
		return l.resolved(target, e, MatchExact), true
	}

	candidate, ok := fallback(target)
	if !ok {
		logger.Debug("no candidate", "path", target)
		return Resolved{}, false
	}

	logger.Info("fallback match", "declared", target, "chosen", candidate)
	return l.resolved(candidate, e, MatchFallback), true
}

// Normalize turns a declared path into a path under the base directory.
//
// When a segment starts with the marker, everything before that segment is
// the carver's own output prefix and is dropped. Without a marker the path
// is taken as relative to the first output folder. A path whose ".."
// segments climb out of the base normalizes to "".
func (l *Locator) Normalize(declared string) string {
	declared = strings.TrimSpace(strings.ReplaceAll(declared, `\`, "/"))
	if declared == "" {
		return ""
	}

	target := filepath.Join(l.base, l.firstFolder, filepath.FromSlash(declared))
	segments := strings.Split(declared, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, l.marker) {
			target = filepath.Join(l.base, filepath.FromSlash(strings.Join(segments[i:], "/")))
			break
		}
	}

	if !within(l.base, target) {
		return ""
	}
	return target
}

// within reports whether path is base itself or lies below it.
func within(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (l *Locator) resolved(path string, e dfxml.Entry, m Match) Resolved {
	return Resolved{
		Path:         path,
		Ext:          Ext(filepath.Base(path)),
		OriginalName: e.Name(),
		Match:        m,
	}
}

// Ext returns the text after the last dot of name, or "" when name has no
// dot or only a leading one (".bashrc").
func Ext(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i+1:]
}

// splitName splits name at its last dot. ok is false when there is no usable
// stem/extension pair.
func splitName(name string) (stem, ext string, ok bool) {
	ext = Ext(name)
	if ext == "" {
		return "", "", false
	}
	return name[:len(name)-len(ext)-1], ext, true
}

// fallback finds <stem>_*.<ext> next to target. Candidates are compared by
// name rather than by directory order so repeated runs pick the same file.
func fallback(target string) (string, bool) {
	dir, name := filepath.Split(target)
	stem, ext, ok := splitName(name)
	if !ok {
		return "", false
	}

	entries, err := os.ReadDir(filepath.Clean(dir))
	if err != nil {
		return "", false
	}

	prefix := stem + "_"
	suffix := "." + ext

	var candidates []string
	for _, entry := range entries {
		n := entry.Name()
		if len(n) < len(prefix)+len(suffix) {
			continue
		}
		if !strings.HasPrefix(n, prefix) || !strings.HasSuffix(n, suffix) {
			continue
		}
		full := filepath.Join(dir, n)
		if !isRegular(full) {
			continue
		}
		candidates = append(candidates, n)
	}

	if len(candidates) == 0 {
		return "", false
	}

	sort.Strings(candidates)
	if len(candidates) > 1 {
		logger.Warn("ambiguous fallback", "declared", target, "candidates", len(candidates), "chosen", candidates[0])
	}
	return filepath.Join(dir, candidates[0]), true
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

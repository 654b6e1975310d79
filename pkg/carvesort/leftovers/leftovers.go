// Package leftovers finds files still sitting in the carver's numbered
// output folders after a sorting run.
package leftovers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/carvesort/pkg/carvesort/locator"
	"github.com/jamesainslie/carvesort/pkg/carvesort/logging"
)

var logger = logging.Get("leftovers")

// Options configures a scan.
type Options struct {
	// Base is the directory holding the numbered output folders.
	Base string

	// Marker is the output folder prefix, "recup_dir" by default.
	Marker string

	// Ignore lists base names that are never reported, such as the
	// manifest itself.
	Ignore []string
}

// File is a file left in an output folder.
type File struct {
	Path string
	// Rel is Path relative to the base directory.
	Rel  string
	Ext  string
	Size int64
}

// WalkError records a path that could not be read.
type WalkError struct {
	Path string
	Err  error
}

// Result holds the files found, sorted by path.
type Result struct {
	Files      []File
	Folders    int
	TotalBytes int64
	Errors     []WalkError
}

// ByExt counts files per lower-cased extension. Files without one are
// counted under "".
func (r *Result) ByExt() map[string]int {
	counts := make(map[string]int)
	for _, f := range r.Files {
		counts[strings.ToLower(f.Ext)]++
	}
	return counts
}

type scan struct {
	base   string
	ignore map[string]bool

	bytes atomic.Int64

	mu     sync.Mutex
	files  []File
	errors []WalkError
}

// Scan walks every <Base>/<Marker>* folder and lists the regular files
// inside them.
func Scan(ctx context.Context, opts Options) (*Result, error) {
	if opts.Marker == "" {
		opts.Marker = "recup_dir"
	}
	base, err := filepath.Abs(opts.Base)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(base)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", base)
	}

	folders, err := outputFolders(base, opts.Marker)
	if err != nil {
		return nil, err
	}

	s := &scan{base: base, ignore: make(map[string]bool, len(opts.Ignore))}
	for _, name := range opts.Ignore {
		s.ignore[name] = true
	}

	walkCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	conf := fastwalk.Config{Follow: false}
	for _, dir := range folders {
		err := fastwalk.Walk(&conf, dir, s.callback(walkCtx))
		if err != nil && !errors.Is(err, fastwalk.ErrSkipFiles) {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(s.files, func(i, j int) bool { return s.files[i].Path < s.files[j].Path })
	sort.Slice(s.errors, func(i, j int) bool { return s.errors[i].Path < s.errors[j].Path })

	if s.files == nil {
		s.files = []File{}
	}

	logger.Debug("leftover scan finished", "base", base, "folders", len(folders), "files", len(s.files))
	return &Result{
		Files:      s.files,
		Folders:    len(folders),
		TotalBytes: s.bytes.Load(),
		Errors:     s.errors,
	}, nil
}

// outputFolders returns the marker-prefixed directories directly under base.
func outputFolders(base, marker string) ([]string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), marker) {
			dirs = append(dirs, filepath.Join(base, e.Name()))
		}
	}
	return dirs, nil
}

func (s *scan) callback(ctx context.Context) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fastwalk.ErrSkipFiles
		}
		if err != nil {
			s.addError(path, err)
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || s.ignore[d.Name()] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.addError(path, err)
			return nil
		}

		rel, err := filepath.Rel(s.base, path)
		if err != nil {
			rel = path
		}

		s.bytes.Add(info.Size())
		s.mu.Lock()
		s.files = append(s.files, File{
			Path: path,
			Rel:  rel,
			Ext:  locator.Ext(d.Name()),
			Size: info.Size(),
		})
		s.mu.Unlock()
		return nil
	}
}

func (s *scan) addError(path string, err error) {
	logger.Warn("cannot read", "path", path, "error", err)
	s.mu.Lock()
	s.errors = append(s.errors, WalkError{Path: path, Err: err})
	s.mu.Unlock()
}

// Package processor hashes a located file and moves it into the folder
// named after its upper-cased extension.
package processor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/carvesort/pkg/carvesort/digest"
	"github.com/jamesainslie/carvesort/pkg/carvesort/locator"
	"github.com/jamesainslie/carvesort/pkg/carvesort/logging"
	"github.com/jamesainslie/carvesort/pkg/carvesort/mover"
)

var logger = logging.Get("processor")

// Op names the step that failed.
type Op string

// Processing steps.
const (
	OpHash Op = "hash"
	OpMove Op = "move"
)

// ProcessingError is a hash or move failure. Either aborts the run, since
// continuing would leave the report out of step with the files on disk.
type ProcessingError struct {
	Op   Op
	Path string
	Err  error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Outcome describes a processed file.
type Outcome struct {
	// Path is where the file now lives.
	Path string

	// Name is the base name of Path.
	Name string

	// Hash is the lowercase hex digest of the file contents.
	Hash string

	// Size is the on-disk size at hashing time.
	Size int64
}

// Processor hashes and relocates files under a base directory.
type Processor struct {
	base     string
	algo     digest.Algorithm
	noExtDir string
	dryRun   bool
}

// Option configures a Processor.
type Option func(*Processor)

// WithNoExtDir sets the folder for files without an extension.
func WithNoExtDir(dir string) Option {
	return func(p *Processor) {
		if dir != "" {
			p.noExtDir = dir
		}
	}
}

// WithDryRun hashes without moving anything.
func WithDryRun(dryRun bool) Option {
	return func(p *Processor) {
		p.dryRun = dryRun
	}
}

// New creates a Processor.
func New(base string, algo digest.Algorithm, opts ...Option) *Processor {
	p := &Processor{
		base:     base,
		algo:     algo,
		noExtDir: "NOEXT",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Algorithm returns the digest in use.
func (p *Processor) Algorithm() digest.Algorithm {
	return p.algo
}

// DestDir returns <base>/<EXT> for ext, or the no-extension folder.
func (p *Processor) DestDir(ext string) string {
	if ext == "" {
		return filepath.Join(p.base, p.noExtDir)
	}
	return filepath.Join(p.base, strings.ToUpper(ext))
}

// Process hashes r and moves it into its destination folder.
// Errors are *ProcessingError.
func (p *Processor) Process(r locator.Resolved) (Outcome, error) {
	info, err := os.Stat(r.Path)
	if err != nil {
		return Outcome{}, &ProcessingError{Op: OpHash, Path: r.Path, Err: err}
	}

	sum, err := p.algo.File(r.Path)
	if err != nil {
		return Outcome{}, &ProcessingError{Op: OpHash, Path: r.Path, Err: err}
	}
	logger.Debug("hashed", "path", r.Path, "algo", p.algo.Name, "hash", sum)

	out := Outcome{
		Path: r.Path,
		Name: filepath.Base(r.Path),
		Hash: sum,
		Size: info.Size(),
	}

	if p.dryRun {
		logger.Info("dry run, not moving", "path", r.Path, "dest", p.DestDir(r.Ext))
		return out, nil
	}

	dir := p.DestDir(r.Ext)
	if err := mover.EnsureDir(dir); err != nil {
		return Outcome{}, &ProcessingError{Op: OpMove, Path: r.Path, Err: err}
	}

	dst, err := mover.Move(r.Path, dir)
	if err != nil {
		return Outcome{}, &ProcessingError{Op: OpMove, Path: r.Path, Err: err}
	}
	logger.Info("moved", "from", r.Path, "to", dst)

	out.Path = dst
	out.Name = filepath.Base(dst)
	return out, nil
}

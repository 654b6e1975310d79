// Package pipeline drives a sorting run: load the manifest, locate and
// process each entry in order, then write the report.
package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jamesainslie/carvesort/pkg/carvesort/config"
	"github.com/jamesainslie/carvesort/pkg/carvesort/dfxml"
	"github.com/jamesainslie/carvesort/pkg/carvesort/digest"
	"github.com/jamesainslie/carvesort/pkg/carvesort/locator"
	"github.com/jamesainslie/carvesort/pkg/carvesort/logging"
	"github.com/jamesainslie/carvesort/pkg/carvesort/mover"
	"github.com/jamesainslie/carvesort/pkg/carvesort/processor"
	"github.com/jamesainslie/carvesort/pkg/carvesort/report"
)

var logger = logging.Get("pipeline")

// ErrEntryNotFound marks a manifest entry with no file on disk. It is
// recorded per entry and never aborts a run.
var ErrEntryNotFound = errors.New("entry not found")

// ErrAlreadyClaimed marks an entry that resolved to a file an earlier entry
// of the same run already took. Only a dry run, where nothing moves, can
// produce it.
var ErrAlreadyClaimed = errors.New("file already claimed by an earlier entry")

// State is the terminal state of a run.
type State int

const (
	// Aborted means the run stopped on a fatal error.
	Aborted State = iota
	// Completed means every entry was either sorted or skipped.
	Completed
)

func (s State) String() string {
	switch s {
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Options configures a run. Relative Manifest and ReportPath values are
// resolved against Base; empty values take the configured defaults.
type Options struct {
	Base        string
	Manifest    string
	ReportPath  string
	Format      string
	Hash        string
	Marker      string
	FirstFolder string
	NoExtDir    string
	DryRun      bool
}

func (o Options) withDefaults() (Options, error) {
	if o.Base == "" {
		o.Base = "."
	}
	base, err := filepath.Abs(o.Base)
	if err != nil {
		return o, fmt.Errorf("resolving base directory: %w", err)
	}
	o.Base = base

	if o.Manifest == "" {
		o.Manifest = config.DefaultManifest
	}
	if o.ReportPath == "" {
		o.ReportPath = config.DefaultReportPath
	}
	if o.Format == "" {
		o.Format = report.FormatForPath(o.ReportPath, config.DefaultReportFormat)
	}
	if o.Hash == "" {
		o.Hash = config.DefaultHash
	}
	if o.Marker == "" {
		o.Marker = config.DefaultMarker
	}
	if o.FirstFolder == "" {
		o.FirstFolder = config.DefaultFirstFolder
	}
	if o.NoExtDir == "" {
		o.NoExtDir = config.DefaultNoExtDir
	}

	o.Manifest = o.resolve(o.Manifest)
	o.ReportPath = o.resolve(o.ReportPath)
	return o, nil
}

func (o Options) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(o.Base, p)
}

// SkippedEntry is a manifest entry that could not be located, or whose file
// was already taken by an earlier entry.
type SkippedEntry struct {
	// Index is the entry's zero-based position in the manifest.
	Index        int
	DeclaredPath string
	Err          error
}

// Sorted is a processed entry together with where its file ended up.
type Sorted struct {
	Record report.Record
	Path   string
	Size   int64
}

// Result describes a finished or aborted run.
type Result struct {
	State State

	// Options holds the resolved options the run used.
	Options Options

	// Entries is the number of entries in the manifest.
	Entries int
	Sorted  []Sorted
	Skipped []SkippedEntry

	// Creator and Image come from the manifest header.
	Creator string
	Image   string

	// ReportPath is empty when no report was written.
	ReportPath string

	// ManifestPath is the manifest's location after the run.
	ManifestPath string
}

// Records returns the report rows in serial order.
func (r *Result) Records() []report.Record {
	out := make([]report.Record, len(r.Sorted))
	for i, s := range r.Sorted {
		out[i] = s.Record
	}
	return out
}

// Summary condenses r for the log and terminal.
func (r *Result) Summary() report.Summary {
	var total int64
	for _, s := range r.Sorted {
		total += s.Record.DeclaredSize
	}
	return report.Summary{
		Entries:    r.Entries,
		Processed:  len(r.Sorted),
		Skipped:    len(r.Skipped),
		TotalBytes: total,
		Algorithm:  r.Options.Hash,
		Report:     r.ReportPath,
		Log:        logging.Path(),
		Manifest:   r.ManifestPath,
		DryRun:     r.Options.DryRun,
	}
}

// Run performs one sorting pass. The returned Result is never nil; on a
// fatal error its State is Aborted and the error says why.
//
// A missing or unparsable manifest aborts before anything is touched. A
// hash or move failure aborts the run after writing the rows sorted so
// far, so files that were already moved stay accounted for.
func Run(opts Options) (*Result, error) {
	res := &Result{State: Aborted, Options: opts}

	opts, err := opts.withDefaults()
	if err != nil {
		return res, err
	}
	res.Options = opts
	res.ManifestPath = opts.Manifest

	algo, err := digest.Get(opts.Hash)
	if err != nil {
		return res, err
	}
	opts.Hash = algo.Name
	res.Options = opts
	// Checked up front so an unknown format cannot strand moved files
	// without a report.
	if _, err := report.Get(opts.Format); err != nil {
		return res, err
	}

	log := logger.With("base", opts.Base)
	log.Info("run started", "manifest", opts.Manifest, "hash", algo.Name, "dry_run", opts.DryRun)

	doc, err := dfxml.LoadReport(opts.Manifest)
	if err != nil {
		log.Error("cannot load manifest", "error", err)
		return res, err
	}
	res.Entries = len(doc.Entries)
	res.Creator = creatorString(doc.Creator)
	res.Image = doc.Source.ImageFilename
	log.Debug("manifest loaded",
		"entries", res.Entries,
		"creator", res.Creator,
		"image", res.Image,
	)

	loc := locator.New(opts.Base,
		locator.WithMarker(opts.Marker),
		locator.WithFirstFolder(opts.FirstFolder),
	)
	proc := processor.New(opts.Base, algo,
		processor.WithNoExtDir(opts.NoExtDir),
		processor.WithDryRun(opts.DryRun),
	)
	table := report.NewTable()
	claimed := make(map[string]int)

	for i, entry := range doc.Entries {
		resolved, ok := loc.Locate(entry)
		if !ok {
			log.Warn("not found", "index", i, "declared", entry.DeclaredPath)
			res.Skipped = append(res.Skipped, SkippedEntry{
				Index:        i,
				DeclaredPath: entry.DeclaredPath,
				Err:          fmt.Errorf("%w: %s", ErrEntryNotFound, entry.DeclaredPath),
			})
			continue
		}
		if prev, ok := claimed[resolved.Path]; ok {
			log.Warn("already claimed", "index", i, "path", resolved.Path, "by", prev)
			res.Skipped = append(res.Skipped, SkippedEntry{
				Index:        i,
				DeclaredPath: entry.DeclaredPath,
				Err:          fmt.Errorf("%w (entry %d): %s", ErrAlreadyClaimed, prev, resolved.Path),
			})
			continue
		}
		claimed[resolved.Path] = i
		log.Debug("located", "index", i, "path", resolved.Path, "match", resolved.Match)

		out, err := proc.Process(resolved)
		if err != nil {
			log.Error("processing failed", "index", i, "error", err)
			if saveErr := saveReport(res, opts, table); saveErr != nil {
				log.Error("cannot save partial report", "error", saveErr)
			}
			return res, err
		}

		rec := table.Add(report.Record{
			FinalName:    out.Name,
			DeclaredName: resolved.OriginalName,
			Ext:          resolved.Ext,
			DeclaredSize: entry.DeclaredSize,
			Hash:         out.Hash,
			ByteRuns:     report.FormatByteRuns(entry.ByteRuns),
		})
		res.Sorted = append(res.Sorted, Sorted{Record: rec, Path: out.Path, Size: out.Size})
	}

	if err := saveReport(res, opts, table); err != nil {
		return res, err
	}

	if !opts.DryRun {
		res.ManifestPath = relocateManifest(opts.Manifest, opts.Base)
	}

	res.State = Completed
	for _, line := range res.Summary().Lines() {
		log.Info(line)
	}
	log.Info("run completed", "sorted", len(res.Sorted), "skipped", len(res.Skipped))
	return res, nil
}

func saveReport(res *Result, opts Options, table *report.Table) error {
	if err := report.Save(opts.ReportPath, opts.Format, table); err != nil {
		return err
	}
	res.ReportPath = opts.ReportPath
	return nil
}

// relocateManifest moves the manifest into base to mark it consumed and
// returns its resulting path. Failure leaves it in place with a warning;
// the run itself has already succeeded.
func relocateManifest(manifest, base string) string {
	if filepath.Dir(manifest) == base {
		return manifest
	}
	dst, err := mover.Move(manifest, base)
	if err != nil {
		logger.Warn("manifest left in place", "path", manifest, "error", err)
		return manifest
	}
	logger.Info("manifest moved", "from", manifest, "to", dst)
	return dst
}

func creatorString(c dfxml.Creator) string {
	switch {
	case c.Program == "":
		return ""
	case c.Version == "":
		return c.Program
	default:
		return c.Program + " " + c.Version
	}
}

package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jamesainslie/carvesort/pkg/carvesort/dfxml"
	"github.com/jamesainslie/carvesort/pkg/carvesort/digest"
	"github.com/jamesainslie/carvesort/pkg/carvesort/logging"
	"github.com/jamesainslie/carvesort/pkg/carvesort/mover"
	"github.com/jamesainslie/carvesort/pkg/carvesort/processor"
	"github.com/jamesainslie/carvesort/pkg/carvesort/report"
)

type fixtureEntry struct {
	declared string
	size     int64
	runs     string
}

// writeManifest writes a PhotoRec-style report.xml to path.
func writeManifest(t *testing.T, path string, entries []fixtureEntry) {
	t.Helper()

	var b strings.Builder
	b.WriteString("<?xml version='1.0' encoding='UTF-8'?>\n<dfxml version='1.0'>\n")
	b.WriteString("  <creator><program>PhotoRec</program><version>7.2</version></creator>\n")
	b.WriteString("  <source><image_filename>disk.dd</image_filename></source>\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "  <fileobject>\n    <filename>%s</filename>\n    <filesize>%d</filesize>\n", e.declared, e.size)
		if e.runs != "" {
			fmt.Fprintf(&b, "    <byte_runs>%s</byte_runs>\n", e.runs)
		}
		b.WriteString("  </fileobject>\n")
	}
	b.WriteString("</dfxml>\n")

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// carveTree builds a base directory with two locatable entries (one exact,
// one via the suffix fallback) and one missing entry.
func carveTree(t *testing.T) string {
	t.Helper()
	base := t.TempDir()

	writeFile(t, filepath.Join(base, "recup_dir.1", "f0000000.jpg"), "jpeg bytes")
	writeFile(t, filepath.Join(base, "recup_dir.2", "f0000100_1.pdf"), "pdf bytes")

	writeManifest(t, filepath.Join(base, "recup_dir.1", "report.xml"), []fixtureEntry{
		{
			declared: "/mnt/evidence/recup_dir.1/f0000000.jpg",
			size:     75,
			runs:     "<byte_run offset='0' img_offset='100' len='50'/><byte_run offset='50' img_offset='150' len='25'/>",
		},
		{
			declared: "recup_dir.2/f0000100.pdf",
			size:     4096,
			runs:     "<byte_run offset='0' img_offset='51200' len='4096'/>",
		},
		{
			declared: "recup_dir.2/f0000999.png",
			size:     10,
		},
	})
	return base
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRunSortsLocatableEntries(t *testing.T) {
	base := carveTree(t)

	res, err := Run(Options{Base: base, ReportPath: "carved.csv"})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, Completed, res.State)
	assert.Equal(t, 3, res.Entries)
	require.Len(t, res.Sorted, 2)
	require.Len(t, res.Skipped, 1)

	// Serials are 1..M with no gaps.
	for i, rec := range res.Records() {
		assert.Equal(t, i+1, rec.Serial)
	}

	jpg := res.Sorted[0]
	assert.Equal(t, filepath.Join(base, "JPG", "f0000000.jpg"), jpg.Path)
	assert.Equal(t, "f0000000.jpg", jpg.Record.DeclaredName)
	assert.Equal(t, "jpg", jpg.Record.Ext)
	assert.Equal(t, int64(75), jpg.Record.DeclaredSize)
	assert.Equal(t, "offset='0' img_offset='100' len='50'\noffset='50' img_offset='150' len='25'", jpg.Record.ByteRuns)

	pdf := res.Sorted[1]
	assert.Equal(t, filepath.Join(base, "PDF", "f0000100_1.pdf"), pdf.Path)
	assert.Equal(t, "f0000100_1.pdf", pdf.Record.FinalName)
	assert.Equal(t, "f0000100.pdf", pdf.Record.DeclaredName)

	assert.NoFileExists(t, filepath.Join(base, "recup_dir.1", "f0000000.jpg"))
	assert.NoFileExists(t, filepath.Join(base, "recup_dir.2", "f0000100_1.pdf"))

	skipped := res.Skipped[0]
	assert.Equal(t, 2, skipped.Index)
	assert.True(t, errors.Is(skipped.Err, ErrEntryNotFound))

	rows := readCSV(t, filepath.Join(base, "carved.csv"))
	require.Len(t, rows, 3)
	assert.Equal(t, report.Headers, rows[0])
	assert.Equal(t, []string{"1", "2"}, []string{rows[1][0], rows[2][0]})
	assert.Equal(t, filepath.Join(base, "carved.csv"), res.ReportPath)

	// The consumed manifest now sits in the base directory.
	assert.Equal(t, filepath.Join(base, "report.xml"), res.ManifestPath)
	assert.FileExists(t, filepath.Join(base, "report.xml"))
	assert.NoFileExists(t, filepath.Join(base, "recup_dir.1", "report.xml"))
}

func TestRunHashMatchesFinalLocation(t *testing.T) {
	for _, name := range []string{"md5", "sha256", "xxhash"} {
		t.Run(name, func(t *testing.T) {
			base := carveTree(t)
			res, err := Run(Options{Base: base, Hash: name, ReportPath: "r.csv"})
			require.NoError(t, err)

			algo, err := digest.Get(name)
			require.NoError(t, err)
			for _, s := range res.Sorted {
				got, err := algo.File(s.Path)
				require.NoError(t, err)
				assert.Equal(t, s.Record.Hash, got, "hash of %s", s.Path)
			}
		})
	}
}

func TestRunMissingManifestAborts(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "recup_dir.1", "f0000000.jpg"), "jpeg bytes")

	res, err := Run(Options{Base: base})
	require.Error(t, err)
	assert.True(t, errors.Is(err, dfxml.ErrManifestNotFound))
	assert.Equal(t, Aborted, res.State)
	assert.Empty(t, res.ReportPath)

	assert.NoFileExists(t, filepath.Join(base, "carved_files.xlsx"))
	assert.FileExists(t, filepath.Join(base, "recup_dir.1", "f0000000.jpg"))
	assert.NoDirExists(t, filepath.Join(base, "JPG"))
}

func TestRunMalformedManifestAborts(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "recup_dir.1", "report.xml"), "<dfxml><fileobject>")

	res, err := Run(Options{Base: base})
	require.Error(t, err)
	assert.True(t, errors.Is(err, dfxml.ErrManifestParse))
	assert.Equal(t, Aborted, res.State)
	assert.NoFileExists(t, filepath.Join(base, "carved_files.xlsx"))
}

func TestRunSingleMissingEntry(t *testing.T) {
	base := t.TempDir()
	logPath := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, logging.Init(logging.Config{Level: "info", Path: logPath}))
	t.Cleanup(func() { _ = logging.Close() })

	writeManifest(t, filepath.Join(base, "recup_dir.1", "report.xml"), []fixtureEntry{
		{declared: "recup_dir.1/f0000042.doc", size: 512},
	})

	res, err := Run(Options{Base: base})
	require.NoError(t, err)
	assert.Equal(t, Completed, res.State)
	assert.Empty(t, res.Sorted)
	assert.Len(t, res.Skipped, 1)

	// A header-only workbook is still written.
	f, err := excelize.OpenFile(filepath.Join(base, "carved_files.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(report.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, report.Headers, rows[0])

	require.NoError(t, logging.Close())
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	log := string(data)
	assert.Contains(t, log, "not found")
	assert.Contains(t, log, "f0000042.doc")
	assert.Contains(t, log, "skipped: 1")
	assert.Contains(t, log, "sorted: 0")
}

func TestRunDryRunMovesNothing(t *testing.T) {
	base := carveTree(t)

	res, err := Run(Options{Base: base, ReportPath: "dry.csv", DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, Completed, res.State)
	require.Len(t, res.Sorted, 2)

	assert.FileExists(t, filepath.Join(base, "recup_dir.1", "f0000000.jpg"))
	assert.FileExists(t, filepath.Join(base, "recup_dir.2", "f0000100_1.pdf"))
	assert.NoDirExists(t, filepath.Join(base, "JPG"))
	assert.FileExists(t, filepath.Join(base, "recup_dir.1", "report.xml"))
	assert.Equal(t, filepath.Join(base, "recup_dir.1", "report.xml"), res.ManifestPath)

	rows := readCSV(t, filepath.Join(base, "dry.csv"))
	require.Len(t, rows, 3)
	assert.Equal(t, "f0000100_1.pdf", rows[2][1])
}

func TestRunDryRunSkipsRepeatedFile(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "recup_dir.1", "f0000007_1.jpg"), "jpeg bytes")
	writeManifest(t, filepath.Join(base, "recup_dir.1", "report.xml"), []fixtureEntry{
		{declared: "recup_dir.1/f0000007.jpg", size: 10},
		{declared: "recup_dir.1/f0000007_1.jpg", size: 10},
	})

	res, err := Run(Options{Base: base, ReportPath: "dry.csv", DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, Completed, res.State)
	require.Len(t, res.Sorted, 1)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 1, res.Skipped[0].Index)
	assert.True(t, errors.Is(res.Skipped[0].Err, ErrAlreadyClaimed))

	rows := readCSV(t, filepath.Join(base, "dry.csv"))
	assert.Len(t, rows, 2)
}

func TestRunLeavesFilesOutsideBase(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "case")
	outside := filepath.Join(root, "secret.txt")
	writeFile(t, outside, "not carved")
	writeFile(t, filepath.Join(base, "recup_dir.1", "f0000000.jpg"), "jpeg bytes")
	writeManifest(t, filepath.Join(base, "recup_dir.1", "report.xml"), []fixtureEntry{
		{declared: "recup_dir.1/../../secret.txt", size: 10},
		{declared: "recup_dir.1/f0000000.jpg", size: 10},
	})

	res, err := Run(Options{Base: base, ReportPath: "r.csv"})
	require.NoError(t, err)
	assert.Equal(t, Completed, res.State)
	require.Len(t, res.Sorted, 1)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 0, res.Skipped[0].Index)
	assert.True(t, errors.Is(res.Skipped[0].Err, ErrEntryNotFound))

	assert.FileExists(t, outside)
	assert.NoDirExists(t, filepath.Join(base, "TXT"))
	assert.FileExists(t, filepath.Join(base, "JPG", "f0000000.jpg"))
}

func TestRunCollisionAbortsWithPartialReport(t *testing.T) {
	base := carveTree(t)
	// The PDF destination is already taken.
	writeFile(t, filepath.Join(base, "PDF", "f0000100_1.pdf"), "older pdf")

	res, err := Run(Options{Base: base, ReportPath: "partial.csv"})
	require.Error(t, err)
	assert.Equal(t, Aborted, res.State)

	var perr *processor.ProcessingError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, processor.OpMove, perr.Op)
	assert.True(t, errors.Is(err, mover.ErrDestinationExists))

	// The JPEG moved before the failure and is accounted for.
	rows := readCSV(t, filepath.Join(base, "partial.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, "f0000000.jpg", rows[1][1])

	// The colliding source is untouched and the manifest is not consumed.
	assert.FileExists(t, filepath.Join(base, "recup_dir.2", "f0000100_1.pdf"))
	assert.FileExists(t, filepath.Join(base, "recup_dir.1", "report.xml"))
}

func TestRunRejectsBadOptionsBeforeTouchingFiles(t *testing.T) {
	tests := []struct {
		name string
		opts func(base string) Options
	}{
		{"unknown hash", func(base string) Options { return Options{Base: base, Hash: "crc32"} }},
		{"unknown format", func(base string) Options { return Options{Base: base, Format: "ods"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := carveTree(t)
			res, err := Run(tt.opts(base))
			require.Error(t, err)
			assert.Equal(t, Aborted, res.State)
			assert.FileExists(t, filepath.Join(base, "recup_dir.1", "f0000000.jpg"))
			assert.NoDirExists(t, filepath.Join(base, "JPG"))
		})
	}
}

func TestRunManifestAlreadyInBase(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "recup_dir.1", "f0000000.jpg"), "jpeg bytes")
	writeManifest(t, filepath.Join(base, "report.xml"), []fixtureEntry{
		{declared: "f0000000.jpg", size: 10},
	})

	res, err := Run(Options{Base: base, Manifest: "report.xml", ReportPath: "r.csv"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "report.xml"), res.ManifestPath)
	assert.FileExists(t, filepath.Join(base, "report.xml"))
	assert.FileExists(t, filepath.Join(base, "JPG", "f0000000.jpg"))
}

func TestRunNoExtensionEntry(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "recup_dir.1", "f0000200"), "raw")
	writeManifest(t, filepath.Join(base, "recup_dir.1", "report.xml"), []fixtureEntry{
		{declared: "f0000200"},
	})

	res, err := Run(Options{Base: base, ReportPath: "r.csv", NoExtDir: "UNKNOWN"})
	require.NoError(t, err)
	require.Len(t, res.Sorted, 1)
	assert.Equal(t, filepath.Join(base, "UNKNOWN", "f0000200"), res.Sorted[0].Path)
	assert.Equal(t, "", res.Sorted[0].Record.Ext)
}

func TestResultHistoryEntry(t *testing.T) {
	base := carveTree(t)

	res, err := Run(Options{Base: base, ReportPath: "r.csv", Hash: "sha1"})
	require.NoError(t, err)

	e := res.HistoryEntry()
	assert.Equal(t, base, e.Base)
	assert.Equal(t, "sha1", e.Algorithm)
	assert.Equal(t, "PhotoRec 7.2", e.Creator)
	assert.Equal(t, "disk.dd", e.Image)
	assert.Equal(t, res.ReportPath, e.Report)
	require.Len(t, e.Files, 2)
	assert.Equal(t, res.Sorted[1].Path, e.Files[1].Path)
	assert.Equal(t, res.Sorted[1].Record.Hash, e.Files[1].Hash)
	assert.Equal(t, int64(len("pdf bytes")), e.Files[1].Size)
	assert.Equal(t, 2, e.Summary.Processed)
	assert.Equal(t, 1, e.Summary.Skipped)
	assert.Equal(t, int64(75+4096), e.Summary.TotalBytes)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "completed", Completed.String())
	assert.Equal(t, "aborted", Aborted.String())
	assert.Equal(t, "unknown", State(9).String())
}

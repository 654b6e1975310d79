package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummaryLines(t *testing.T) {
	s := Summary{
		Entries:    3,
		Processed:  2,
		Skipped:    1,
		TotalBytes: 2048,
		Algorithm:  "md5",
		Report:     "/cases/42/carved_files.xlsx",
		Log:        "/cases/42/carvesort.log",
	}

	lines := s.Lines()
	assert.Contains(t, lines, "entries: 3")
	assert.Contains(t, lines, "sorted: 2")
	assert.Contains(t, lines, "skipped: 1")
	assert.Contains(t, lines, "declared bytes: 2.0 KiB")
	assert.Contains(t, lines, "hash: md5")
	assert.Contains(t, lines, "report: /cases/42/carved_files.xlsx")
	assert.Contains(t, lines, "log: /cases/42/carvesort.log")
	for _, l := range lines {
		assert.NotContains(t, l, "manifest:")
	}
}

func TestSummaryRender(t *testing.T) {
	out := Summary{Processed: 1200, Entries: 1200, Algorithm: "sha256", Report: "r.xlsx"}.Render()
	assert.Contains(t, out, "Sorted 1,200 files")
	assert.Contains(t, out, "sha256")
	assert.NotContains(t, out, "dry run")

	dry := Summary{Processed: 1, Skipped: 2, DryRun: true}.Render()
	assert.Contains(t, dry, "(dry run)")
	assert.Contains(t, dry, "2 not found")
}

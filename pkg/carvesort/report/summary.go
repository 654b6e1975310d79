package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// ANSI 256-color palette shared by the terminal summary.
const (
	colorPrimary = lipgloss.Color("39")
	colorSuccess = lipgloss.Color("42")
	colorWarning = lipgloss.Color("214")
	colorMuted   = lipgloss.Color("245")
)

var (
	summaryBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	labelStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
)

// Summary describes a finished run.
type Summary struct {
	Entries    int
	Processed  int
	Skipped    int
	TotalBytes int64
	Algorithm  string
	Report     string
	Log        string
	Manifest   string
	DryRun     bool
}

// Lines returns the summary as plain "label: value" lines for the run log.
func (s Summary) Lines() []string {
	lines := []string{
		fmt.Sprintf("entries: %d", s.Entries),
		fmt.Sprintf("sorted: %d", s.Processed),
		fmt.Sprintf("skipped: %d", s.Skipped),
		fmt.Sprintf("declared bytes: %s", humanize.IBytes(uint64(s.TotalBytes))),
		fmt.Sprintf("hash: %s", s.Algorithm),
		fmt.Sprintf("report: %s", s.Report),
	}
	if s.Log != "" {
		lines = append(lines, fmt.Sprintf("log: %s", s.Log))
	}
	if s.Manifest != "" {
		lines = append(lines, fmt.Sprintf("manifest: %s", s.Manifest))
	}
	return lines
}

// Render returns the summary as a styled box for the terminal.
func (s Summary) Render() string {
	var b strings.Builder

	title := "Sorted " + humanize.Comma(int64(s.Processed)) + " files"
	if s.DryRun {
		title += " (dry run)"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-10s", label)))
		b.WriteString(" ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("Entries:", valueStyle.Render(humanize.Comma(int64(s.Entries))))
	row("Sorted:", successStyle.Render(humanize.Comma(int64(s.Processed))))
	skipped := valueStyle.Render("0")
	if s.Skipped > 0 {
		skipped = warningStyle.Render(humanize.Comma(int64(s.Skipped)) + " not found")
	}
	row("Skipped:", skipped)
	row("Size:", valueStyle.Render(humanize.IBytes(uint64(s.TotalBytes))))
	row("Hash:", valueStyle.Render(s.Algorithm))
	row("Report:", valueStyle.Render(s.Report))
	if s.Log != "" {
		row("Log:", valueStyle.Render(s.Log))
	}
	if s.Manifest != "" {
		row("Manifest:", valueStyle.Render(s.Manifest))
	}

	return summaryBox.Render(strings.TrimRight(b.String(), "\n"))
}

package report

import (
	"bufio"
	"encoding/csv"
	"io"
	"strings"
)

// CSVWriter writes RFC 4180 CSV. Byte runs keep their newlines inside a
// quoted field.
type CSVWriter struct{}

// Write renders t as CSV.
func (c *CSVWriter) Write(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return err
	}
	for _, rec := range t.records {
		if err := cw.Write(rec.Strings()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// TSVWriter writes tab-separated values. Tabs and newlines inside fields
// become "; " so each record stays on one line.
type TSVWriter struct{}

// Write renders t as TSV.
func (x *TSVWriter) Write(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	writeLine := func(fields []string) {
		for i, f := range fields {
			if i > 0 {
				bw.WriteByte('\t')
			}
			bw.WriteString(flatten(f, "; "))
		}
		bw.WriteByte('\n')
	}

	writeLine(Headers)
	for _, rec := range t.records {
		writeLine(rec.Strings())
	}
	return bw.Flush()
}

// MarkdownWriter writes a GitHub-flavored Markdown table. Byte runs are
// split with <br> so each record is one table row.
type MarkdownWriter struct{}

// Write renders t as Markdown.
func (m *MarkdownWriter) Write(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	writeRow := func(fields []string) {
		bw.WriteString("|")
		for _, f := range fields {
			bw.WriteString(" ")
			bw.WriteString(strings.ReplaceAll(flatten(f, "<br>"), "|", `\|`))
			bw.WriteString(" |")
		}
		bw.WriteString("\n")
	}

	writeRow(Headers)
	bw.WriteString("|")
	for range Headers {
		bw.WriteString("---|")
	}
	bw.WriteString("\n")

	for _, rec := range t.records {
		writeRow(rec.Strings())
	}
	return bw.Flush()
}

// flatten replaces line breaks and tabs with sep.
func flatten(s, sep string) string {
	r := strings.NewReplacer("\r\n", sep, "\n", sep, "\t", " ")
	return r.Replace(s)
}

func init() {
	Register("csv", func() Writer { return &CSVWriter{} })
	Register("tsv", func() Writer { return &TSVWriter{} })
	Register("markdown", func() Writer { return &MarkdownWriter{} })
}

// Ensure the delimited writers implement Writer.
var (
	_ Writer = (*CSVWriter)(nil)
	_ Writer = (*TSVWriter)(nil)
	_ Writer = (*MarkdownWriter)(nil)
)

package report

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// document is the shared shape of the JSON and YAML reports.
type document struct {
	Columns            []string `json:"columns" yaml:"columns"`
	Rows               int      `json:"rows" yaml:"rows"`
	TotalDeclaredBytes int64    `json:"total_declared_bytes" yaml:"total_declared_bytes"`
	Records            []Record `json:"records" yaml:"records"`
}

func newDocument(t *Table) document {
	return document{
		Columns:            Headers,
		Rows:               t.Len(),
		TotalDeclaredBytes: t.TotalDeclaredBytes(),
		Records:            t.Records(),
	}
}

// JSONWriter writes the table as an indented JSON document.
type JSONWriter struct{}

// Write renders t as JSON.
func (j *JSONWriter) Write(w io.Writer, t *Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newDocument(t))
}

// YAMLWriter writes the same document as JSONWriter in YAML. Byte runs
// become literal block scalars, one run per line.
type YAMLWriter struct{}

// Write renders t as YAML.
func (y *YAMLWriter) Write(w io.Writer, t *Table) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(t)); err != nil {
		return err
	}
	return enc.Close()
}

func init() {
	Register("json", func() Writer { return &JSONWriter{} })
	Register("yaml", func() Writer { return &YAMLWriter{} })
}

// Ensure the structured writers implement Writer.
var (
	_ Writer = (*JSONWriter)(nil)
	_ Writer = (*YAMLWriter)(nil)
)

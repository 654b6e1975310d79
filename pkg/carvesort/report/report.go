// Package report accumulates one row per sorted file and persists the
// table through a named writer (xlsx, csv, tsv, markdown, json, yaml).
//
// Basic usage:
//
//	table := report.NewTable()
//	table.Add(report.Record{FinalName: "f1.jpg", ...})
//	if err := report.Save("carved_files.xlsx", "xlsx", table); err != nil {
//	    return err
//	}
package report

import (
	"fmt"
	"strings"

	"github.com/jamesainslie/carvesort/pkg/carvesort/dfxml"
)

// Headers are the fixed column titles, in column order.
var Headers = []string{
	"S/N",
	"Filename",
	"Declared Filename",
	"File Ext",
	"File Size",
	"Content Hash",
	"Byte Runs",
}

// Record is one report row.
type Record struct {
	// Serial is 1-based and assigned by Table.Add.
	Serial int `json:"serial" yaml:"serial"`

	// FinalName is the file's name after sorting.
	FinalName string `json:"final_name" yaml:"final_name"`

	// DeclaredName is the name the carving report gave.
	DeclaredName string `json:"declared_name" yaml:"declared_name"`

	Ext string `json:"ext" yaml:"ext"`

	// DeclaredSize comes from the report, not from disk.
	DeclaredSize int64 `json:"declared_size" yaml:"declared_size"`

	Hash string `json:"hash" yaml:"hash"`

	// ByteRuns is the rendered FormatByteRuns string.
	ByteRuns string `json:"byte_runs" yaml:"byte_runs"`
}

// Values returns the row in Headers order.
func (r Record) Values() []interface{} {
	return []interface{}{r.Serial, r.FinalName, r.DeclaredName, r.Ext, r.DeclaredSize, r.Hash, r.ByteRuns}
}

// Strings returns the row in Headers order as text.
func (r Record) Strings() []string {
	return []string{
		fmt.Sprint(r.Serial),
		r.FinalName,
		r.DeclaredName,
		r.Ext,
		fmt.Sprint(r.DeclaredSize),
		r.Hash,
		r.ByteRuns,
	}
}

// Table is an ordered set of records. Serials run 1..Len with no gaps.
type Table struct {
	records []Record
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{records: []Record{}}
}

// Add appends r with the next serial number and returns the stored row.
// Any Serial already set on r is ignored.
func (t *Table) Add(r Record) Record {
	r.Serial = len(t.records) + 1
	t.records = append(t.records, r)
	return r
}

// Records returns a copy of the rows in insertion order.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.records)
}

// TotalDeclaredBytes sums DeclaredSize over all rows.
func (t *Table) TotalDeclaredBytes() int64 {
	var total int64
	for _, r := range t.records {
		total += r.DeclaredSize
	}
	return total
}

// FormatByteRuns renders runs one per line as
// offset='<o>' img_offset='<io>' len='<l>', with no trailing newline.
func FormatByteRuns(runs []dfxml.ByteRun) string {
	lines := make([]string, len(runs))
	for i, run := range runs {
		lines[i] = fmt.Sprintf("offset='%d' img_offset='%d' len='%d'", run.Offset, run.ImgOffset, run.Length)
	}
	return strings.Join(lines, "\n")
}

// Package history records completed sorting runs so they can be listed,
// inspected and verified later.
package history

import "time"

// Entry is one recorded run.
type Entry struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Base      string       `json:"base"`
	Manifest  string       `json:"manifest"`
	Report    string       `json:"report"`
	Algorithm string       `json:"algorithm"`
	DryRun    bool         `json:"dry_run"`
	Creator   string       `json:"creator,omitempty"`
	Image     string       `json:"image,omitempty"`
	Files     []FileRecord `json:"files"`
	Summary   Summary      `json:"summary"`
}

// FileRecord is a sorted file at its final location.
type FileRecord struct {
	Serial       int    `json:"serial"`
	Path         string `json:"path"`
	DeclaredName string `json:"declared_name"`
	Size         int64  `json:"size"`
	Hash         string `json:"hash"`
}

// Summary holds run totals.
type Summary struct {
	Processed  int   `json:"processed"`
	Skipped    int   `json:"skipped"`
	TotalBytes int64 `json:"total_bytes"`
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/carvesort/pkg/carvesort/digest"
	"github.com/jamesainslie/carvesort/pkg/carvesort/history"
)

func recordedEntry(t *testing.T, algo string, contents map[string]string) *history.Entry {
	t.Helper()
	a, err := digest.Get(algo)
	if err != nil {
		t.Fatalf("digest.Get(%q) error = %v", algo, err)
	}

	dir := t.TempDir()
	e := &history.Entry{Algorithm: algo}
	serial := 0
	for name, body := range contents {
		serial++
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		sum, err := a.File(path)
		if err != nil {
			t.Fatal(err)
		}
		e.Files = append(e.Files, history.FileRecord{Serial: serial, Path: path, Size: int64(len(body)), Hash: sum})
	}
	return e
}

func TestVerifyEntryClean(t *testing.T) {
	e := recordedEntry(t, "sha256", map[string]string{"a.jpg": "jpeg", "b.pdf": "pdf"})

	bad, err := verifyEntry(e)
	if err != nil {
		t.Fatalf("verifyEntry() error = %v", err)
	}
	if len(bad) != 0 {
		t.Errorf("verifyEntry() = %+v, want no mismatches", bad)
	}
}

func TestVerifyEntryDetectsModifiedFile(t *testing.T) {
	e := recordedEntry(t, "md5", map[string]string{"a.jpg": "jpeg"})

	if err := os.WriteFile(e.Files[0].Path, []byte("tampered"), 0o644); err != nil {
		t.Fatal(err)
	}

	bad, err := verifyEntry(e)
	if err != nil {
		t.Fatalf("verifyEntry() error = %v", err)
	}
	if len(bad) != 1 {
		t.Fatalf("verifyEntry() mismatches = %d, want 1", len(bad))
	}
	if bad[0].Err != nil || bad[0].Got == "" || bad[0].Got == e.Files[0].Hash {
		t.Errorf("mismatch = %+v", bad[0])
	}
}

func TestVerifyEntryDetectsMissingFile(t *testing.T) {
	e := recordedEntry(t, "xxhash", map[string]string{"a.jpg": "jpeg"})

	if err := os.Remove(e.Files[0].Path); err != nil {
		t.Fatal(err)
	}

	bad, err := verifyEntry(e)
	if err != nil {
		t.Fatalf("verifyEntry() error = %v", err)
	}
	if len(bad) != 1 || bad[0].Err == nil {
		t.Errorf("verifyEntry() = %+v, want one missing-file mismatch", bad)
	}
}

func TestVerifyEntryUnknownAlgorithm(t *testing.T) {
	if _, err := verifyEntry(&history.Entry{Algorithm: "crc32"}); err == nil {
		t.Error("verifyEntry() error = nil, want unknown algorithm")
	}
}

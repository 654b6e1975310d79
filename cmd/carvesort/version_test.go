package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteVersionListsCapabilities(t *testing.T) {
	var buf bytes.Buffer
	writeVersion(&buf)
	out := buf.String()

	for _, want := range []string{
		"carvesort " + version,
		"hashes:  md5, sha1, sha256, sha512, xxhash",
		"formats: csv, json, markdown, tsv, xlsx, yaml",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q:\n%s", want, out)
		}
	}
}

package main

import (
	"reflect"
	"testing"
)

func TestShortID(t *testing.T) {
	tests := map[string]string{
		"3f2a9c1e-7b4d-4e0a-9c6f-2d1e8b7a6c5d": "3f2a9c1e",
		"nodashes-but-long":                    "nodashes",
		"plainidentifier":                      "plain...",
		"abc":                                  "abc",
	}
	for in, want := range tests {
		if got := shortID(in); got != want {
			t.Errorf("shortID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"/cases/2026/evidence/drive", 12, "/cases/20..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	env := []string{
		"HOME=/root",
		"CARVESORT_REPORT_FORMAT=csv",
		"CARVESORT_HASH=sha256",
		"CARVESORTX=ignored",
	}
	want := []string{"CARVESORT_HASH=sha256", "CARVESORT_REPORT_FORMAT=csv"}
	if got := envOverrides(env); !reflect.DeepEqual(got, want) {
		t.Errorf("envOverrides() = %v, want %v", got, want)
	}
	if got := envOverrides([]string{"PATH=/bin"}); len(got) != 0 {
		t.Errorf("envOverrides() = %v, want none", got)
	}
}

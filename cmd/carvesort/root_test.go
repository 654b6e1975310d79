package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/jamesainslie/carvesort/pkg/carvesort/config"
)

// newViper loads cfgYAML (if any) the same way the CLI does.
func newViper(t *testing.T, cfgYAML string) *viper.Viper {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if cfgYAML != "" {
		if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	v := viper.New()
	config.Configure(v, cfgPath)
	if err := config.Read(v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestReportFormat(t *testing.T) {
	if _, ok := os.LookupEnv("CARVESORT_REPORT_FORMAT"); ok {
		t.Skip("CARVESORT_REPORT_FORMAT set in the environment")
	}

	tests := []struct {
		name        string
		cfgYAML     string
		path        string
		flagChanged bool
		want        string
	}{
		{"default path", "", "carved_files.xlsx", false, "xlsx"},
		{"inferred from extension", "", "carved.csv", false, "csv"},
		{"unknown extension uses default", "", "carved.out", false, "xlsx"},
		{"config file wins over extension", "report:\n  format: csv\n", "carved_files.xlsx", false, "csv"},
		{"flag wins over extension", "", "carved.csv", true, "xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper(t, tt.cfgYAML)
			if got := reportFormat(v, tt.path, tt.flagChanged); got != tt.want {
				t.Errorf("reportFormat(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestReportFormatFromEnvironment(t *testing.T) {
	t.Setenv("CARVESORT_REPORT_FORMAT", "tsv")
	v := newViper(t, "")

	if got := reportFormat(v, "carved_files.xlsx", false); got != "tsv" {
		t.Errorf("reportFormat() = %q, want tsv", got)
	}
}

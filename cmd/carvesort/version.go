package main

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/carvesort/pkg/carvesort/digest"
	"github.com/jamesainslie/carvesort/pkg/carvesort/report"
)

// Build-time variables set by go build -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the build of carvesort and the hash algorithms and report formats it supports.`,
	Run:   runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// runVersion prints build information and the hash algorithms and report
// formats compiled into this binary.
func runVersion(cmd *cobra.Command, args []string) {
	writeVersion(cmd.OutOrStdout())
}

func writeVersion(w io.Writer) {
	fmt.Fprintf(w, "carvesort %s\n", version)
	fmt.Fprintf(w, "  commit:  %s\n", commit)
	fmt.Fprintf(w, "  built:   %s\n", date)
	fmt.Fprintf(w, "  go:      %s\n", runtime.Version())
	fmt.Fprintf(w, "  os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "  hashes:  %s\n", strings.Join(digest.Available(), ", "))
	fmt.Fprintf(w, "  formats: %s\n", strings.Join(report.Available(), ", "))
}

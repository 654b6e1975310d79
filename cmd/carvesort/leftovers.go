package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/carvesort/pkg/carvesort/leftovers"
	"github.com/spf13/cobra"
)

var leftoversCmd = &cobra.Command{
	Use:   "leftovers [base]",
	Short: "List files still in the carver's output folders",
	Long: `Walk every recup_dir.N folder under base and list the files a run
left behind, usually entries the manifest named but that could not be
matched, or files the carver wrote without reporting them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLeftovers,
}

var leftoversSummary bool

func init() {
	leftoversCmd.Flags().BoolVarP(&leftoversSummary, "summary", "s", false, "only print counts per extension")
	rootCmd.AddCommand(leftoversCmd)
}

// runLeftovers lists unsorted files.
func runLeftovers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	base := "."
	if len(args) > 0 {
		base = args[0]
	}

	res, err := leftovers.Scan(cmd.Context(), leftovers.Options{
		Base:   base,
		Marker: cfg.Marker,
		Ignore: []string{filepath.Base(cfg.Manifest)},
	})
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", base, err)
	}

	for _, e := range res.Errors {
		printError("%s: %v", e.Path, e.Err)
	}

	if len(res.Files) == 0 {
		printInfo("No leftover files in %d output folders.", res.Folders)
		return nil
	}

	if !leftoversSummary {
		for _, f := range res.Files {
			fmt.Printf("%-10s  %s\n", humanize.IBytes(uint64(f.Size)), f.Rel)
		}
		fmt.Println()
	}

	counts := res.ByExt()
	exts := make([]string, 0, len(counts))
	for ext := range counts {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	parts := make([]string, 0, len(exts))
	for _, ext := range exts {
		name := ext
		if name == "" {
			name = "(none)"
		}
		parts = append(parts, fmt.Sprintf("%s: %d", name, counts[ext]))
	}

	printInfo("%s files (%s) left in %d output folders", humanize.Comma(int64(len(res.Files))),
		humanize.IBytes(uint64(res.TotalBytes)), res.Folders)
	printInfo("%s", strings.Join(parts, ", "))
	return nil
}

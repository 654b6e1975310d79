package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/carvesort/pkg/carvesort/config"
	"github.com/jamesainslie/carvesort/pkg/carvesort/history"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View sorting history",
	Long: `View past sorting runs.

Every completed run records the files it sorted, their final paths and
their content hashes, so a run can be inspected or verified later.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show details of a run",
	Long:  `Display a run by its ID or a unique prefix of it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history entries",
	Long:  `Remove history entries older than the retention period.`,
	RunE:  runHistoryClean,
}

var (
	historyLimit int
	showLimit    int
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")
	historyShowCmd.Flags().IntVar(&showLimit, "files", 50, "maximum number of files to list (0 for all)")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory returns the configured history store.
func openHistory() (*history.Store, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := history.New(cfg.History.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, cfg, nil
}

// runHistory lists recent runs.
func runHistory(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory()
	if err != nil {
		return err
	}

	entries, err := store.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'carvesort [base]' to sort a carving run.")
		return nil
	}

	fmt.Printf("\n%-8s  %-19s  %-7s  %-7s  %-10s  %s\n", "ID", "WHEN", "SORTED", "SKIPPED", "SIZE", "BASE")
	fmt.Println(strings.Repeat("-", 90))

	for _, e := range entries {
		base := e.Base
		if e.DryRun {
			base += " (dry run)"
		}
		fmt.Printf("%-8s  %-19s  %-7d  %-7d  %-10s  %s\n",
			shortID(e.ID),
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Summary.Processed,
			e.Summary.Skipped,
			humanize.IBytes(uint64(e.Summary.TotalBytes)),
			truncateString(base, 40),
		)
	}

	fmt.Println(strings.Repeat("-", 90))
	fmt.Printf("\nShowing %d entries. Use --limit to see more.\n", len(entries))
	fmt.Println("Use 'carvesort history show <id>' for details on a run.")

	return nil
}

// runHistoryShow displays one run.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory()
	if err != nil {
		return err
	}

	e, err := store.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	fmt.Println("\nRun Details")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("ID:         %s\n", e.ID)
	fmt.Printf("Timestamp:  %s (%s)\n", e.Timestamp.Local().Format("2006-01-02 15:04:05 MST"), humanize.Time(e.Timestamp))
	fmt.Printf("Base:       %s\n", e.Base)
	fmt.Printf("Manifest:   %s\n", e.Manifest)
	fmt.Printf("Report:     %s\n", e.Report)
	fmt.Printf("Hash:       %s\n", e.Algorithm)
	if e.Creator != "" {
		fmt.Printf("Carver:     %s\n", e.Creator)
	}
	if e.Image != "" {
		fmt.Printf("Image:      %s\n", e.Image)
	}
	fmt.Printf("Dry run:    %t\n", e.DryRun)
	fmt.Printf("Sorted:     %d\n", e.Summary.Processed)
	fmt.Printf("Skipped:    %d\n", e.Summary.Skipped)
	fmt.Printf("Total Size: %s\n", humanize.IBytes(uint64(e.Summary.TotalBytes)))

	if len(e.Files) == 0 {
		return nil
	}

	fmt.Println("\nFiles:")
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("%-5s  %-10s  %s\n", "S/N", "SIZE", "PATH")
	fmt.Println(strings.Repeat("-", 60))

	n := len(e.Files)
	if showLimit > 0 && n > showLimit {
		n = showLimit
	}
	for _, f := range e.Files[:n] {
		fmt.Printf("%-5d  %-10s  %s\n", f.Serial, humanize.IBytes(uint64(f.Size)), f.Path)
	}
	if len(e.Files) > n {
		fmt.Printf("\n... and %d more files\n", len(e.Files)-n)
	}
	return nil
}

// runHistoryClean removes old entries.
func runHistoryClean(cmd *cobra.Command, args []string) error {
	store, cfg, err := openHistory()
	if err != nil {
		return err
	}

	retentionDays := cfg.History.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", retentionDays)

	removed, err := store.Cleanup(retentionDays)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	printInfo("Removed %d entries.", removed)
	return nil
}

// shortID returns the first block of a run ID, enough to address it.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return truncateString(id, 8)
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

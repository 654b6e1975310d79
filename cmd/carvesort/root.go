package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jamesainslie/carvesort/pkg/carvesort/config"
	"github.com/jamesainslie/carvesort/pkg/carvesort/dfxml"
	"github.com/jamesainslie/carvesort/pkg/carvesort/history"
	"github.com/jamesainslie/carvesort/pkg/carvesort/logging"
	"github.com/jamesainslie/carvesort/pkg/carvesort/pipeline"
	"github.com/jamesainslie/carvesort/pkg/carvesort/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "carvesort [base]",
		Short: "Sort carved files by extension and report their provenance",
		Long: `carvesort post-processes PhotoRec output. It reads the carver's DFXML
report, finds each recovered file under the numbered recup_dir.N folders,
hashes it, moves it into a folder named after its extension and writes a
spreadsheet listing every sorted file with its byte runs.

Run it from the directory that holds the recup_dir.N folders, or pass that
directory as the argument.

Examples:
  carvesort                          # Sort using ./recup_dir.1/report.xml
  carvesort /cases/42                # Sort a different base directory
  carvesort -H sha256 -r out.csv     # SHA-256 hashes, CSV report
  carvesort -d                       # Hash and report without moving
  carvesort leftovers                # List files that were not sorted
  carvesort verify                   # Re-hash the last run's files`,
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: initializeLogging,
		RunE:              runSort,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/carvesort/config.yaml)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().String("log", "", "log file (default: $XDG_STATE_HOME/carvesort/carvesort.log)")

	rootCmd.Flags().StringP("manifest", "m", "", "DFXML report, relative to base (default: recup_dir.1/report.xml)")
	rootCmd.Flags().StringP("report", "r", "", "report file, relative to base (default: carved_files.xlsx)")
	rootCmd.Flags().StringP("format", "f", "", "report format: xlsx, csv, tsv, markdown, json, yaml")
	rootCmd.Flags().StringP("hash", "H", "", "content hash: md5, sha1, sha256, sha512, xxhash")
	rootCmd.Flags().String("marker", "", "output folder prefix (default: recup_dir)")
	rootCmd.Flags().BoolP("dry-run", "d", false, "hash and report without moving files")

	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("logging.path", rootCmd.PersistentFlags().Lookup("log"))

	_ = viper.BindPFlag("manifest", rootCmd.Flags().Lookup("manifest"))
	_ = viper.BindPFlag("report.path", rootCmd.Flags().Lookup("report"))
	_ = viper.BindPFlag("report.format", rootCmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("hash", rootCmd.Flags().Lookup("hash"))
	_ = viper.BindPFlag("marker", rootCmd.Flags().Lookup("marker"))
	_ = viper.BindPFlag("dry_run", rootCmd.Flags().Lookup("dry-run"))
}

// initConfig points the global viper at the config file and environment.
func initConfig() {
	config.Configure(viper.GetViper(), cfgFile)
	if err := config.Read(viper.GetViper()); err != nil {
		printError("%v", err)
	}
}

// loadConfig decodes the merged flags, environment, file and defaults.
func loadConfig() (*config.Config, error) {
	return config.Decode(viper.GetViper())
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError("%v", err)
	}
	if closeErr := logging.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// reportFormat picks the report format. A format named on the command line,
// in the config file or in the environment wins; otherwise it follows the
// report path's extension, falling back to the default.
func reportFormat(v *viper.Viper, path string, flagChanged bool) string {
	configured := v.GetString("report.format")
	if flagChanged || v.InConfig("report.format") {
		return configured
	}
	if _, ok := os.LookupEnv(config.EnvPrefix + "_REPORT_FORMAT"); ok {
		return configured
	}
	return report.FormatForPath(path, configured)
}

// runSort runs the sorting pipeline over the base directory.
func runSort(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	base := "."
	if len(args) > 0 {
		base = args[0]
	}

	format := reportFormat(viper.GetViper(), cfg.Report.Path, cmd.Flags().Changed("format"))

	opts := pipeline.Options{
		Base:        base,
		Manifest:    cfg.Manifest,
		ReportPath:  cfg.Report.Path,
		Format:      format,
		Hash:        cfg.Hash,
		Marker:      cfg.Marker,
		FirstFolder: cfg.FirstFolder,
		NoExtDir:    cfg.NoExtDir,
		DryRun:      viper.GetBool("dry_run"),
	}
	printVerbose("Base %s, manifest %s, hash %s, format %s", opts.Base, opts.Manifest, opts.Hash, opts.Format)

	res, err := pipeline.Run(opts)
	if err != nil {
		return explainRunError(err)
	}

	summary := res.Summary()
	if getQuiet() {
		fmt.Printf("Sorted %d files\n", summary.Processed)
	} else {
		fmt.Println(summary.Render())
	}

	if cfg.History.Enabled {
		recordHistory(cfg, res)
	}
	return nil
}

// explainRunError adds a hint for the errors a user can fix directly.
func explainRunError(err error) error {
	switch {
	case errors.Is(err, dfxml.ErrManifestNotFound):
		return fmt.Errorf("%w\nrun carvesort from the directory holding recup_dir.N, or pass --manifest", err)
	case errors.Is(err, dfxml.ErrManifestParse):
		return fmt.Errorf("%w\nthe manifest is not a DFXML report", err)
	default:
		return err
	}
}

// recordHistory stores the run. Failures are reported but do not fail a
// run whose files are already sorted.
func recordHistory(cfg *config.Config, res *pipeline.Result) {
	store, err := history.New(cfg.History.Path)
	if err != nil {
		printVerbose("History disabled: %v", err)
		return
	}
	if err := store.EnsureDir(); err != nil {
		printError("cannot create history directory: %v", err)
		return
	}

	entry, err := store.Record(res.HistoryEntry())
	if err != nil {
		printError("cannot record history: %v", err)
		return
	}
	printVerbose("Recorded run %s", entry.ID)

	if cfg.History.RetentionDays > 0 {
		if _, err := store.Cleanup(cfg.History.RetentionDays); err != nil {
			printVerbose("History cleanup failed: %v", err)
		}
	}
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

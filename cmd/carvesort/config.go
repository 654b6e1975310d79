package main

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/jamesainslie/carvesort/pkg/carvesort/config"
	"github.com/jamesainslie/carvesort/pkg/carvesort/digest"
	"github.com/jamesainslie/carvesort/pkg/carvesort/logging"
	"github.com/jamesainslie/carvesort/pkg/carvesort/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage carvesort configuration settings.

Configuration is loaded from $XDG_CONFIG_HOME/carvesort/config.yaml.

Environment variables override config file settings using the CARVESORT_ prefix:
  CARVESORT_HASH=sha256
  CARVESORT_REPORT_FORMAT=csv
  CARVESORT_LOGGING_LEVEL=debug`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is $VISUAL, then $EDITOR, then vi. A default file is created
first if none exists.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// configFilePath is the --config file or the XDG default.
func configFilePath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.ConfigFile()
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if used := viper.ConfigFileUsed(); used != "" {
		if _, statErr := os.Stat(used); statErr == nil {
			fmt.Printf("Config file: %s\n\n", used)
		} else {
			fmt.Printf("Config file: (using defaults, %s not found)\n\n", used)
		}
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("manifest:               %s\n", cfg.Manifest)
	fmt.Printf("hash:                   %s (available: %s)\n", cfg.Hash, strings.Join(digest.Available(), ", "))
	fmt.Printf("marker:                 %s\n", cfg.Marker)
	fmt.Printf("first_folder:           %s\n", cfg.FirstFolder)
	fmt.Printf("no_ext_dir:             %s\n", cfg.NoExtDir)
	fmt.Printf("report.path:            %s\n", cfg.Report.Path)
	fmt.Printf("report.format:          %s (available: %s)\n", cfg.Report.Format, strings.Join(report.Available(), ", "))
	fmt.Printf("history.enabled:        %t\n", cfg.History.Enabled)
	fmt.Printf("history.path:           %s\n", cfg.History.Path)
	fmt.Printf("history.retention:      %d days\n", cfg.History.RetentionDays)
	fmt.Printf("logging.level:          %s\n", cfg.Logging.Level)
	fmt.Printf("logging.path:           %s\n", displayLogPath(cfg.Logging.Path))
	fmt.Printf("logging.rotation:       max_size=%s max_age=%d max_backups=%d daily=%t\n",
		cfg.Logging.Rotation.MaxSize, cfg.Logging.Rotation.MaxAge,
		cfg.Logging.Rotation.MaxBackups, cfg.Logging.Rotation.Daily)
	if len(cfg.Logging.Components) > 0 {
		names := make([]string, 0, len(cfg.Logging.Components))
		for name := range cfg.Logging.Components {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("logging.components.%s: %s\n", name, cfg.Logging.Components[name])
		}
	}

	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	overrides := envOverrides(os.Environ())
	if len(overrides) == 0 {
		fmt.Println("(none)")
	}
	for _, kv := range overrides {
		fmt.Println(kv)
	}

	return nil
}

// envOverrides returns the CARVESORT_* variables in env, sorted.
func envOverrides(env []string) []string {
	prefix := config.EnvPrefix + "_"
	var out []string
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			out = append(out, kv)
		}
	}
	sort.Strings(out)
	return out
}

func displayLogPath(p string) string {
	if p == "" {
		return "(default) " + logging.DefaultLogPath()
	}
	return p
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(cmd *cobra.Command, args []string) error {
	path := configFilePath()
	if _, err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", path, editor)

	editorCmd := exec.Command(editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFilePath()

	created, err := config.WriteDefault(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if !created {
		printInfo("Config file already exists: %s", path)
		printInfo("Use 'carvesort config edit' to modify it.")
		return nil
	}

	printInfo("Created default config file: %s", path)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	path := configFilePath()
	fmt.Println(path)

	if _, err := os.Stat(path); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}
	return nil
}

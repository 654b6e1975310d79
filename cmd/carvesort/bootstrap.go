package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamesainslie/carvesort/pkg/carvesort/config"
	"github.com/jamesainslie/carvesort/pkg/carvesort/logging"
	"github.com/spf13/cobra"
)

// initializeLogging is the root PersistentPreRunE. It creates the XDG
// directories carvesort writes to and starts the file logger, mirrored to
// stderr unless --quiet is set.
func initializeLogging(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logPath := cfg.Logging.Path
	if logPath == "" {
		logPath = logging.DefaultLogPath()
	}

	for _, dir := range []string{config.ConfigDir(), filepath.Dir(logPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	consoleLevel := "info"
	switch {
	case getQuiet():
		consoleLevel = ""
	case getVerbose():
		consoleLevel = "debug"
	}

	level := cfg.Logging.Level
	if getVerbose() {
		level = "debug"
	}

	if err := logging.Init(logging.Config{
		Level:        level,
		Path:         logPath,
		Rotation:     parseRotationConfig(cfg.Logging.Rotation),
		Components:   cfg.Logging.Components,
		ConsoleLevel: consoleLevel,
	}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	printVerbose("Logging to %s", logPath)
	return nil
}

// parseRotationConfig converts the config file's rotation settings. An
// empty or unparsable size falls back to the default.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	out := logging.RotationConfig{
		MaxSize:    logging.DefaultRotationConfig().MaxSize,
		MaxAge:     rc.MaxAge,
		MaxBackups: rc.MaxBackups,
		Daily:      rc.Daily,
	}

	size, err := config.ParseSize(rc.MaxSize)
	if err != nil {
		printVerbose("Ignoring log max_size: %v", err)
		return out
	}
	if size > 0 {
		out.MaxSize = size
	}
	return out
}

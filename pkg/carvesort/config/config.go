package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CARVESORT_HASH.
const EnvPrefix = "CARVESORT"

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// ReportConfig selects where and how the report is written.
type ReportConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
}

// HistoryConfig configures the run history store.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config represents the application configuration.
type Config struct {
	Manifest    string        `mapstructure:"manifest"`
	Hash        string        `mapstructure:"hash"`
	Marker      string        `mapstructure:"marker"`
	FirstFolder string        `mapstructure:"first_folder"`
	NoExtDir    string        `mapstructure:"no_ext_dir"`
	Report      ReportConfig  `mapstructure:"report"`
	History     HistoryConfig `mapstructure:"history"`
	Logging     LoggingConfig `mapstructure:"logging"`
}

// SetDefaults registers every default on v. The CLI shares it with Load so
// flags, env, file and defaults resolve through one viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("manifest", DefaultManifest)
	v.SetDefault("hash", DefaultHash)
	v.SetDefault("marker", DefaultMarker)
	v.SetDefault("first_folder", DefaultFirstFolder)
	v.SetDefault("no_ext_dir", DefaultNoExtDir)

	v.SetDefault("report.path", DefaultReportPath)
	v.SetDefault("report.format", DefaultReportFormat)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", HistoryDir())
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // empty means DefaultLogPath
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{})
}

// Configure points v at the config file and environment.
// An explicit cfgFile wins over the XDG search path.
func Configure(v *viper.Viper, cfgFile string) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
}

// Read loads the config file into v. A missing file is not an error.
func Read(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Decode unmarshals v into a Config and expands ~ in path settings.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var err error
	if cfg.History.Path, err = ExpandPath(cfg.History.Path); err != nil {
		return nil, err
	}
	if cfg.Logging.Path, err = ExpandPath(cfg.Logging.Path); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Load reads configuration from $XDG_CONFIG_HOME/carvesort/config.yaml and
// CARVESORT_* environment variables on a fresh viper instance.
func Load() (*Config, error) {
	v := viper.New()
	Configure(v, "")
	if err := Read(v); err != nil {
		return nil, err
	}
	return Decode(v)
}

// ParseSize parses a rotation size such as "10MB" or "512KiB" into bytes.
// An empty string yields zero, which the log writer treats as its default.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return int64(n), nil
}

// ConfigDir returns $XDG_CONFIG_HOME/carvesort.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "carvesort")
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// HistoryDir returns $XDG_DATA_HOME/carvesort/history.
func HistoryDir() string {
	return filepath.Join(xdg.DataHome, "carvesort", "history")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// WriteDefault writes a commented default config file to path.
// It returns false without touching the file when one already exists.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`# carvesort configuration

# DFXML report, relative to the base directory
manifest: %s

# Content hash: md5, sha1, sha256, sha512, xxhash
hash: %s

# Carver output folder prefix and the folder assumed for bare names
marker: %s
first_folder: %s

# Destination folder for files without an extension
no_ext_dir: %s

report:
  path: %s
  # xlsx, csv, tsv, markdown, json, yaml
  format: %s

history:
  enabled: true
  path: %s
  retention_days: %d

logging:
  # debug, info, warn, error
  level: info
  # empty means $XDG_STATE_HOME/carvesort/carvesort.log
  path: ""
  rotation:
    max_size: 10MB
    max_age: 30
    max_backups: 5
    daily: true
  components: {}
`, DefaultManifest, DefaultHash, DefaultMarker, DefaultFirstFolder, DefaultNoExtDir,
		DefaultReportPath, DefaultReportFormat, HistoryDir(), DefaultRetentionDays)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("failed to write default config: %w", err)
	}
	return true, nil
}

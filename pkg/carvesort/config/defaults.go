// Package config provides configuration management for carvesort.
package config

// Default configuration values for carvesort.
const (
	// DefaultManifest is where PhotoRec leaves its DFXML report, relative to the base.
	DefaultManifest = "recup_dir.1/report.xml"

	// DefaultReportPath is the report written into the base directory.
	DefaultReportPath = "carved_files.xlsx"

	// DefaultReportFormat selects the report writer.
	DefaultReportFormat = "xlsx"

	// DefaultHash is a fast fingerprint, not a tamper-evident digest.
	DefaultHash = "md5"

	// DefaultMarker prefixes the carver's numbered output folders.
	DefaultMarker = "recup_dir"

	// DefaultFirstFolder receives manifest paths that carry no marker.
	DefaultFirstFolder = "recup_dir.1"

	// DefaultNoExtDir receives files whose names have no extension.
	DefaultNoExtDir = "NOEXT"

	// DefaultRetentionDays is how long run history entries are kept.
	DefaultRetentionDays = 90
)

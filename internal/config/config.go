// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// StorageRoot is the base directory for all persisted state.
	StorageRoot string

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// LedgerDir is the directory holding active audit ledger segments.
	LedgerDir string
	// LedgerArchiveURL is the gocloud blob URL receiving archived segments
	// (e.g., "file:///var/lib/vault/archive" or "s3://bucket/prefix").
	LedgerArchiveURL string
	// LedgerSegmentMaxBytes is the size ceiling of an active segment before
	// it is rotated to a timestamped file.
	LedgerSegmentMaxBytes int64
	// LedgerSegmentPrefix is the file name prefix of ledger segments.
	LedgerSegmentPrefix string

	// KeysDir is the directory holding persisted encryption key files.
	KeysDir string
	// KeysKeeperURI is the gocloud secrets keeper URI used to wrap key
	// backup copies (e.g., "base64key://...", "gcpkms://...", "hashivault://...").
	KeysKeeperURI string

	// BackupRoot is the directory holding backup artifacts and metadata.
	BackupRoot string
	// BackupStagingDir is the scratch directory for in-flight pipeline stages.
	BackupStagingDir string
	// BackupVerifyWindow is how recently a backup must have been verified for
	// the compliance report to count it as covered.
	BackupVerifyWindow time.Duration
	// BackupSources maps data types to the file backed up on scheduled runs,
	// parsed from "type=path,type=path".
	BackupSources map[string]string

	// AlertRatePerSec is the per-kind alert emission rate limit.
	AlertRatePerSec float64
	// AlertBurst is the per-kind alert burst size.
	AlertBurst int

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsHost is the host address for the metrics server.
	MetricsHost string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	storageRoot := env.GetString("STORAGE_ROOT", "./data")

	return &Config{
		StorageRoot: storageRoot,

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Audit ledger
		LedgerDir: env.GetString("LEDGER_DIR", filepath.Join(storageRoot, "ledger")),
		LedgerArchiveURL: env.GetString(
			"LEDGER_ARCHIVE_URL",
			"file://"+filepath.Join(storageRoot, "ledger-archive"),
		),
		LedgerSegmentMaxBytes: env.GetInt64("LEDGER_SEGMENT_MAX_BYTES", 10*1024*1024),
		LedgerSegmentPrefix:   env.GetString("LEDGER_SEGMENT_PREFIX", "audit"),

		// Key lifecycle
		KeysDir:       env.GetString("KEYS_DIR", filepath.Join(storageRoot, "keys")),
		KeysKeeperURI: env.GetString("KEYS_KEEPER_URI", ""),

		// Backup pipeline
		BackupRoot:         env.GetString("BACKUP_ROOT", filepath.Join(storageRoot, "backups")),
		BackupStagingDir:   env.GetString("BACKUP_STAGING_DIR", filepath.Join(storageRoot, "backup-staging")),
		BackupVerifyWindow: env.GetDuration("BACKUP_VERIFY_WINDOW_DAYS", 7, 24*time.Hour),
		BackupSources:      parseBackupSources(env.GetString("BACKUP_SOURCES", "")),

		// Alerting
		AlertRatePerSec: env.GetFloat64("ALERT_RATE_PER_SEC", 5.0),
		AlertBurst:      env.GetInt("ALERT_BURST", 20),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "compliance_vault"),
		MetricsHost:      env.GetString("METRICS_HOST", "0.0.0.0"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	switch c.LogLevel {
	case "debug":
		return "debug"
	default:
		return "release"
	}
}

// parseBackupSources parses "type=path,type=path" pairs. Malformed pairs
// are skipped.
func parseBackupSources(raw string) map[string]string {
	sources := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		dataType, path, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || dataType == "" || path == "" {
			continue
		}
		sources[dataType] = path
	}
	return sources
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}

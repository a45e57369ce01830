// Package config provides configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Database types
const (
	SQLiteDatabase = "sqlite"
)

const defaultPrivateKey = "88888888888888888888888888888888"

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	PrivateKey  string   `mapstructure:"privatekey"`
	APIKey      string   `mapstructure:"apikey"`

	// File paths
	DatabasePath          string `mapstructure:"storagepath"`
	DatabaseName          string `mapstructure:"-"` // Derived from other settings
	PublicDirectory       string `mapstructure:"publicdir"`
	PublicAssetsUrlPrefix string `mapstructure:"publicassetsurlprefix"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseType         string `mapstructure:"dbtype"`
	DatabaseMaxOpenConns int    `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int    `mapstructure:"dbmaxidleconns"`

	// Dashboard settings
	ChartSeriesLimit int `mapstructure:"chartserieslimit"`
	DefaultPageSize  int `mapstructure:"defaultpagesize"`
	MaxPageSize      int `mapstructure:"maxpagesize"`

	// Import settings
	ImportMaxRows    int   `mapstructure:"importmaxrows"`
	ImportMaxBytes   int64 `mapstructure:"importmaxbytes"`
	CollapseSessions bool  `mapstructure:"collapsesessions"`

	// Job scheduling settings
	JobIntervalSeconds int `mapstructure:"jobintervalseconds"`

	// Data retention settings, 0 keeps batches forever
	ImportRetentionDays int `mapstructure:"importretentiondays"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		loadDotEnv(".env")

		v := viper.New()

		v.SetDefault("appname", "studiodash")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("privatekey", defaultPrivateKey)
		v.SetDefault("apikey", "")
		v.SetDefault("storagepath", "storage")
		v.SetDefault("publicdir", "web/dist/assets")
		v.SetDefault("publicassetsurlprefix", "/")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbtype", SQLiteDatabase)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("chartserieslimit", 12)
		v.SetDefault("defaultpagesize", 25)
		v.SetDefault("maxpagesize", 100)
		v.SetDefault("importmaxrows", 20000)
		v.SetDefault("importmaxbytes", 10<<20)
		v.SetDefault("collapsesessions", true)
		v.SetDefault("jobintervalseconds", 86400)
		v.SetDefault("importretentiondays", 365)

		v.BindEnv("appname", "STUDIODASH_APP_NAME")
		v.BindEnv("appport", "STUDIODASH_APP_PORT")
		v.BindEnv("environment", "STUDIODASH_ENV")
		v.BindEnv("loglevel", "STUDIODASH_LOG_LEVEL")
		v.BindEnv("privatekey", "STUDIODASH_PRIVATE_KEY")
		v.BindEnv("apikey", "STUDIODASH_API_KEY")
		v.BindEnv("storagepath", "STUDIODASH_STORAGE_PATH")
		v.BindEnv("publicdir", "STUDIODASH_PUBLIC_DIR")
		v.BindEnv("publicassetsurlprefix", "STUDIODASH_PUBLIC_ASSETS_URL_PREFIX")
		v.BindEnv("logsdir", "STUDIODASH_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "STUDIODASH_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "STUDIODASH_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "STUDIODASH_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbtype", "STUDIODASH_DB_TYPE")
		v.BindEnv("dbmaxopenconns", "STUDIODASH_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "STUDIODASH_DB_MAX_IDLE_CONNS")
		v.BindEnv("chartserieslimit", "STUDIODASH_CHART_SERIES_LIMIT")
		v.BindEnv("defaultpagesize", "STUDIODASH_DEFAULT_PAGE_SIZE")
		v.BindEnv("maxpagesize", "STUDIODASH_MAX_PAGE_SIZE")
		v.BindEnv("importmaxrows", "STUDIODASH_IMPORT_MAX_ROWS")
		v.BindEnv("importmaxbytes", "STUDIODASH_IMPORT_MAX_BYTES")
		v.BindEnv("collapsesessions", "STUDIODASH_COLLAPSE_SESSIONS")
		v.BindEnv("jobintervalseconds", "STUDIODASH_JOB_INTERVAL_SECONDS")
		v.BindEnv("importretentiondays", "STUDIODASH_IMPORT_RETENTION_DAYS")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		// Set derived values
		cfg.DatabaseName = cfg.GetDatabasePath()

		if cfg.PrivateKey == "" {
			log.Fatal("Private key is required")
		}
		if cfg.IsProduction() && cfg.PrivateKey == defaultPrivateKey {
			log.Fatal("Production requires a unique STUDIODASH_PRIVATE_KEY (cannot use default)")
		}
	})
	return cfg
}

// loadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set in the environment win over the file.
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: ignoring unreadable %s: %v", path, err)
	}
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	validDBTypes := map[string]bool{
		SQLiteDatabase: true,
	}
	if !validDBTypes[c.DatabaseType] {
		return fmt.Errorf("invalid database type: %s", c.DatabaseType)
	}

	if c.ChartSeriesLimit <= 0 {
		return fmt.Errorf("chart series limit must be positive, got %d", c.ChartSeriesLimit)
	}
	if c.DefaultPageSize <= 0 || c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("invalid page sizes: default=%d max=%d", c.DefaultPageSize, c.MaxPageSize)
	}
	if c.ImportRetentionDays < 0 {
		return fmt.Errorf("import retention days cannot be negative: %d", c.ImportRetentionDays)
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// RequiresAPIKey reports whether write endpoints are guarded by an API key.
func (c *Config) RequiresAPIKey() bool {
	return c.APIKey != ""
}

// GetPort returns the HTTP server port (implements cartridge.Config interface).
func (c *Config) GetPort() string {
	return c.AppPort
}

// GetPublicDirectory returns the path to public/static assets (implements cartridge.Config interface).
func (c *Config) GetPublicDirectory() string {
	return c.PublicDirectory
}

// GetAssetsPrefix returns the URL prefix for static assets (implements cartridge.Config interface).
func (c *Config) GetAssetsPrefix() string {
	return c.PublicAssetsUrlPrefix
}

// GetAppName returns the application name (implements cartridge.FactoryConfig interface).
func (c *Config) GetAppName() string {
	return c.AppName
}

// DatabaseDSN returns the database connection string (implements cartridge.FactoryConfig interface).
func (c *Config) DatabaseDSN() string {
	return c.GetDatabasePath()
}

// GetSessionSecret returns the session encryption key (implements cartridge.FactoryConfig interface).
func (c *Config) GetSessionSecret() string {
	return c.PrivateKey
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1
// - Development/Production: 10
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}

	return 5
}

// ClampPageSize bounds a requested page size to (0, MaxPageSize], falling
// back to DefaultPageSize for non-positive requests.
func (c *Config) ClampPageSize(size int) int {
	if size <= 0 {
		return c.DefaultPageSize
	}
	if size > c.MaxPageSize {
		return c.MaxPageSize
	}
	return size
}

// GetLogLevel returns the log level as a string (implements cartridge.LogConfigProvider).
func (c *Config) GetLogLevel() string {
	return string(c.LogLevel)
}

// GetLogDirectory returns the logs directory (implements cartridge.LogConfigProvider).
func (c *Config) GetLogDirectory() string {
	return c.LogsDirectory
}

// GetLogMaxSizeMB returns the max log file size in MB (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxSizeMB() int {
	return c.LogsMaxSizeInMb
}

// GetLogMaxBackups returns the max number of log backups (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxBackups() int {
	return c.LogsMaxBackups
}

// GetLogMaxAgeDays returns the max age in days for log files (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxAgeDays() int {
	return c.LogsMaxAgeInDays
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file LoadFromDir looks for.
const FileName = "stepdoc.yaml"

// Config represents the stepdoc configuration
type Config struct {
	Title       string        `yaml:"title"`       // Used when an imported document has no title
	Description string        `yaml:"description"` // Used when an imported document has no description
	Export      ExportConfig  `yaml:"export"`
	Storage     StorageConfig `yaml:"storage"`
	Log         LogConfig     `yaml:"log"`
}

// ExportConfig holds the defaults for the export command
type ExportConfig struct {
	Theme    string `yaml:"theme"`              // "light", "gray" or "dark". Default: light
	Password string `yaml:"password,omitempty"` // Optional HTML gate password (env vars expanded)
	Format   string `yaml:"format"`             // "html", "md" or "json". Default: html
}

// StorageConfig selects the persistence adapter
type StorageConfig struct {
	Driver string       `yaml:"driver"` // "sqlite", "postgres" or "memory". Default: sqlite
	DSN    string       `yaml:"dsn"`    // File path for sqlite, connection string for postgres (env vars expanded)
	Cache  *CacheConfig `yaml:"cache,omitempty"`
}

// CacheConfig configures the read cache in front of the storage adapter
type CacheConfig struct {
	TTL string `yaml:"ttl,omitempty"` // Cache duration (e.g., "5m"). Empty disables caching
}

// LogConfig configures logging
type LogConfig struct {
	Level string `yaml:"level"`          // "debug", "info", "warn" or "error". Default: info
	File  string `yaml:"file,omitempty"` // Optional rotating log file
	JSON  bool   `yaml:"json"`           // JSON console output
}

var (
	validThemes  = []string{"light", "gray", "dark"}
	validFormats = []string{"html", "md", "json"}
	validDrivers = []string{"sqlite", "postgres", "memory"}
	validLevels  = []string{"debug", "info", "warn", "error"}
)

// DefaultTitle names documents that carry no title of their own.
const DefaultTitle = "Untitled document"

// GetTitle returns the fallback document title, defaulting to DefaultTitle
func (c *Config) GetTitle() string {
	if strings.TrimSpace(c.Title) == "" {
		return DefaultTitle
	}
	return strings.TrimSpace(c.Title)
}

// GetDescription returns the fallback document description
func (c *Config) GetDescription() string {
	return strings.TrimSpace(c.Description)
}

// GetTheme returns the export theme, defaulting to light
func (c ExportConfig) GetTheme() string {
	if c.Theme == "" {
		return "light"
	}
	return strings.ToLower(c.Theme)
}

// GetFormat returns the export format, defaulting to html
func (c ExportConfig) GetFormat() string {
	if c.Format == "" {
		return "html"
	}
	return strings.ToLower(c.Format)
}

// GetPassword returns the gate password with environment variables expanded
func (c ExportConfig) GetPassword() string {
	return os.ExpandEnv(c.Password)
}

// GetDriver returns the storage driver, defaulting to sqlite
func (c StorageConfig) GetDriver() string {
	if c.Driver == "" {
		return "sqlite"
	}
	return strings.ToLower(c.Driver)
}

// GetDSN returns the DSN with environment variables expanded.
// An empty sqlite DSN defaults to ./stepdoc.db
func (c StorageConfig) GetDSN() string {
	dsn := os.ExpandEnv(c.DSN)
	if dsn == "" && c.GetDriver() == "sqlite" {
		return "./stepdoc.db"
	}
	return dsn
}

// IsCacheEnabled returns whether read caching is configured
func (c StorageConfig) IsCacheEnabled() bool {
	return c.Cache != nil && c.Cache.TTL != ""
}

// GetCacheTTL returns the cache TTL, or 0 if caching is disabled or the TTL is invalid
func (c StorageConfig) GetCacheTTL() time.Duration {
	if !c.IsCacheEnabled() {
		return 0
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// GetLevel returns the log level, defaulting to info
func (c LogConfig) GetLevel() string {
	if c.Level == "" {
		return "info"
	}
	return strings.ToLower(c.Level)
}

// Validate rejects unknown enum values
func (c *Config) Validate() error {
	checks := []struct {
		field string
		value string
		valid []string
	}{
		{"export.theme", c.Export.GetTheme(), validThemes},
		{"export.format", c.Export.GetFormat(), validFormats},
		{"storage.driver", c.Storage.GetDriver(), validDrivers},
		{"log.level", c.Log.GetLevel(), validLevels},
	}
	for _, check := range checks {
		if !slices.Contains(check.valid, check.value) {
			return fmt.Errorf("%s: unknown value %q (valid: %s)", check.field, check.value, strings.Join(check.valid, ", "))
		}
	}

	if c.Storage.Cache != nil && c.Storage.Cache.TTL != "" {
		if _, err := time.ParseDuration(c.Storage.Cache.TTL); err != nil {
			return fmt.Errorf("storage.cache.ttl: %w", err)
		}
	}
	if c.Storage.GetDriver() == "postgres" && c.Storage.GetDSN() == "" {
		return fmt.Errorf("storage.dsn: required for the postgres driver")
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Title: DefaultTitle,
		Export: ExportConfig{
			Theme:  "light",
			Format: "html",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "./stepdoc.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file
// If the file doesn't exist, returns the default configuration
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig() // Start with defaults
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return config, nil
}

// LoadFromDir looks for stepdoc.yaml in the given directory
// If none is found, returns the default configuration
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, FileName))
}

// Save writes the configuration to a YAML file
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

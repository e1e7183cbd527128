package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/uxfer/uxfer/pkg/adapter/usock"
)

// Config represents the complete uxfer configuration.
//
// This structure captures all configurable aspects of the relay server:
//   - Logging configuration
//   - Server-wide settings
//   - Sink selection and sink-specific configuration
//   - Journal selection and journal-specific configuration
//   - Transport adapter configurations
//   - Metrics exposure
//
// Configuration sources (in order of precedence):
//  1. Environment variables (UXFER_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values
//
// Backend Configuration Pattern:
// Sink and journal implementations define their own configuration shapes.
// The Config struct contains type-specific sections (e.g., sink.file,
// journal.badger) and only the section matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains server-wide settings
	Server ServerConfig `mapstructure:"server"`

	// Sink specifies the output sink type and type-specific configuration
	Sink SinkConfig `mapstructure:"sink"`

	// Journal specifies the transfer journal type and type-specific
	// configuration
	Journal JournalConfig `mapstructure:"journal"`

	// Adapters contains transport adapter configurations
	Adapters AdaptersConfig `mapstructure:"adapters"`

	// Metrics controls the optional Prometheus metrics endpoint
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized
	// to uppercase). Diagnostics always go to stderr: stdout may be the sink.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

// ServerConfig contains server-wide settings.
type ServerConfig struct {
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
}

// SinkConfig specifies output sink configuration.
//
// The Type field determines which sink implementation is used. Only the
// corresponding type-specific configuration section is read.
type SinkConfig struct {
	// Type specifies which sink implementation to use.
	// Valid values: stdout, file, memory
	Type string `mapstructure:"type" validate:"required,oneof=stdout file memory"`

	// File contains file-sink configuration.
	// Only used when Type = "file".
	File map[string]any `mapstructure:"file"`
}

// JournalConfig specifies transfer journal configuration.
//
// The Type field determines which journal implementation is used. Only the
// corresponding type-specific configuration section is read.
type JournalConfig struct {
	// Type specifies which journal implementation to use.
	// Valid values: none, memory, badger
	Type string `mapstructure:"type" validate:"required,oneof=none memory badger"`

	// Badger contains BadgerDB-specific configuration.
	// Only used when Type = "badger".
	Badger map[string]any `mapstructure:"badger"`
}

// AdaptersConfig contains all transport adapter configurations.
type AdaptersConfig struct {
	// Unix contains the Unix domain socket adapter configuration.
	// Uses the usock.UnixConfig type directly to avoid duplication.
	Unix usock.UnixConfig `mapstructure:"unix"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled turns the metrics registry and HTTP endpoint on.
	Enabled bool `mapstructure:"enabled"`

	// Port is the TCP port the metrics HTTP server listens on.
	Port int `mapstructure:"port" validate:"min=0,max=65535"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (UXFER_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file
// settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the UXFER_ prefix and underscores.
	// Example: UXFER_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("UXFER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults registered with viper serve two purposes: they fill absent
	// keys, and they make the keys visible to AutomaticEnv during
	// Unmarshal (viper only consults the environment for keys it knows).
	// Enabled in particular must default here rather than in ApplyDefaults
	// so an explicit false in the config file survives.
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("sink.type", DefaultSinkType)
	v.SetDefault("journal.type", DefaultJournalType)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", DefaultMetricsPort)
	v.SetDefault("adapters.unix.enabled", true)
	v.SetDefault("adapters.unix.socket_path", "")
	v.SetDefault("adapters.unix.failure_policy", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/uxfer/config.{yaml,toml}
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file is acceptable - use defaults.
			return nil
		}
		if os.IsNotExist(err) {
			// An explicitly named but missing file also falls back to
			// defaults, so tests and fresh installs work without one.
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "uxfer")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "uxfer")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

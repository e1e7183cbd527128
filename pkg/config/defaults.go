package config

import "time"

// Default configuration values.
const (
	// DefaultLogLevel is the default logging level
	DefaultLogLevel = "INFO"

	// DefaultShutdownTimeout is the default graceful shutdown timeout
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultSinkType is the default output sink
	DefaultSinkType = "stdout"

	// DefaultJournalType is the default transfer journal
	DefaultJournalType = "none"

	// DefaultMetricsPort is the default metrics HTTP port
	DefaultMetricsPort = 9090
)

// ApplyDefaults fills in default values for unset configuration fields.
//
// This is called after unmarshaling but before validation, so a config file
// only needs to specify the values it wants to change.
//
// Note: adapters.unix.enabled defaults through viper in setupViper because
// a zero bool here cannot be distinguished from an explicit false.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}

	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Sink.Type == "" {
		cfg.Sink.Type = DefaultSinkType
	}

	if cfg.Journal.Type == "" {
		cfg.Journal.Type = DefaultJournalType
	}

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = DefaultMetricsPort
	}

	// The adapter owns its other defaults (socket path, backlog, buffer
	// size, failure policy) and applies them itself at construction time.
	// Shutdown timeout propagates from the server section when the adapter
	// does not set its own.
	if cfg.Adapters.Unix.ShutdownTimeout == 0 {
		cfg.Adapters.Unix.ShutdownTimeout = cfg.Server.ShutdownTimeout
	}
}

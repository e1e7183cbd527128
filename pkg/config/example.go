package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteExampleConfig writes a starter configuration file to the given
// path, creating parent directories as needed.
//
// The file contains the default values for every section, so a new
// deployment can edit it rather than discover the schema from scratch.
// Refuses to overwrite an existing file.
func WriteExampleConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	doc := map[string]any{
		"logging": map[string]any{
			"level": DefaultLogLevel,
		},
		"server": map[string]any{
			"shutdown_timeout": DefaultShutdownTimeout.String(),
		},
		"sink": map[string]any{
			"type": DefaultSinkType,
			"file": map[string]any{
				"path": "/var/log/uxfer/relay.out",
			},
		},
		"journal": map[string]any{
			"type": DefaultJournalType,
			"badger": map[string]any{
				"db_path":     "/var/lib/uxfer/journal",
				"sync_writes": false,
			},
		},
		"adapters": map[string]any{
			"unix": map[string]any{
				"enabled":        true,
				"socket_path":    "/tmp/us_xfr",
				"backlog":        5,
				"buffer_size":    4096,
				"failure_policy": "strict",
			},
		},
		"metrics": map[string]any{
			"enabled": false,
			"port":    DefaultMetricsPort,
		},
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

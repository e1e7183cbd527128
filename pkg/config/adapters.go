package config

import (
	"github.com/uxfer/uxfer/pkg/adapter"
	"github.com/uxfer/uxfer/pkg/adapter/usock"
	"github.com/uxfer/uxfer/pkg/metrics"
)

// CreateAdapters creates all enabled transport adapters from configuration.
//
// Adapters are returned in a deterministic order so the server starts and
// stops them predictably. Disabled adapters are skipped entirely.
func CreateAdapters(cfg *Config, relayMetrics metrics.RelayMetrics) []adapter.Adapter {
	var adapters []adapter.Adapter

	if cfg.Adapters.Unix.Enabled {
		adapters = append(adapters, usock.New(cfg.Adapters.Unix, relayMetrics))
	}

	return adapters
}

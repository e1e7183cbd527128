package config

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/uxfer/uxfer/pkg/journal"
	badgerjournal "github.com/uxfer/uxfer/pkg/journal/badger"
	memoryjournal "github.com/uxfer/uxfer/pkg/journal/memory"
	"github.com/uxfer/uxfer/pkg/sink"
)

// fileSinkConfig is the decoded shape of the sink.file section.
type fileSinkConfig struct {
	// Path is the file all relayed bytes are appended to
	Path string `mapstructure:"path"`
}

// CreateSink creates an output sink based on configuration.
//
// Supported sink types:
//   - "stdout": Standard output (the historical relay target)
//   - "file": Append-only regular file
//   - "memory": In-memory buffer (testing)
//
// The type-specific configuration section is decoded only for the
// selected type.
func CreateSink(cfg *SinkConfig) (sink.Sink, error) {
	switch cfg.Type {
	case "stdout":
		return sink.NewStdoutSink(), nil

	case "file":
		var fileCfg fileSinkConfig
		if err := mapstructure.Decode(cfg.File, &fileCfg); err != nil {
			return nil, fmt.Errorf("invalid file sink config: %w", err)
		}
		if fileCfg.Path == "" {
			return nil, fmt.Errorf("file sink requires a path")
		}
		return sink.NewFileSink(fileCfg.Path)

	case "memory":
		return sink.NewMemorySink(), nil

	default:
		return nil, fmt.Errorf("unknown sink type: %s", cfg.Type)
	}
}

// CreateJournal creates a transfer journal based on configuration.
//
// Supported journal types:
//   - "none": No-op journal (records are discarded)
//   - "memory": In-memory journal (lost on restart)
//   - "badger": Persistent embedded BadgerDB journal
//
// The type-specific configuration section is decoded only for the
// selected type.
func CreateJournal(ctx context.Context, cfg *JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "none":
		return journal.NewNoop(), nil

	case "memory":
		return memoryjournal.NewMemoryJournal(), nil

	case "badger":
		var badgerCfg badgerjournal.BadgerJournalConfig
		if err := mapstructure.Decode(cfg.Badger, &badgerCfg); err != nil {
			return nil, fmt.Errorf("invalid badger journal config: %w", err)
		}
		return badgerjournal.NewBadgerJournal(ctx, badgerCfg)

	default:
		return nil, fmt.Errorf("unknown journal type: %s", cfg.Type)
	}
}

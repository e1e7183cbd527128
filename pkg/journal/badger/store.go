// Package badger provides a persistent transfer journal backed by BadgerDB.
package badger

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/uxfer/uxfer/pkg/journal"
)

// BadgerJournal implements journal.Journal using BadgerDB for persistence.
//
// Suitable for deployments where the transfer audit trail must survive
// server restarts. BadgerDB handles crash recovery through its WAL; the
// journal itself keeps no in-process state beyond the DB handle.
//
// Thread safety: BadgerDB transactions provide the necessary isolation;
// Record and List may be called concurrently.
type BadgerJournal struct {
	db *badger.DB
}

// BadgerJournalConfig configures the BadgerDB journal.
type BadgerJournalConfig struct {
	// DBPath is the directory for the BadgerDB files. Required.
	DBPath string `mapstructure:"db_path"`

	// SyncWrites forces an fsync per record. Slower but loses nothing on
	// power failure. Off by default: the journal is observability, not the
	// source of truth for relayed bytes.
	SyncWrites bool `mapstructure:"sync_writes"`
}

// NewBadgerJournal opens (creating if necessary) the journal database.
func NewBadgerJournal(ctx context.Context, config BadgerJournalConfig) (*BadgerJournal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if config.DBPath == "" {
		return nil, fmt.Errorf("badger journal: db_path is required")
	}

	opts := badger.DefaultOptions(config.DBPath).
		WithSyncWrites(config.SyncWrites).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger journal: open %s: %w", config.DBPath, err)
	}

	return &BadgerJournal{db: db}, nil
}

func (j *BadgerJournal) Record(ctx context.Context, rec *journal.TransferRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	key := keyRecord(rec.AcceptedAt.UnixNano(), rec.ID)
	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("badger journal: store record %s: %w", rec.ID, err)
	}
	return nil
}

func (j *BadgerJournal) List(ctx context.Context) ([]journal.TransferRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []journal.TransferRecord
	err := j.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(recordPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			// Check context during iteration: journals can grow large.
			if err := ctx.Err(); err != nil {
				return err
			}

			err := it.Item().Value(func(val []byte) error {
				rec, err := decodeRecord(val)
				if err != nil {
					return err
				}
				records = append(records, *rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger journal: list records: %w", err)
	}

	return records, nil
}

func (j *BadgerJournal) Close() error {
	return j.db.Close()
}

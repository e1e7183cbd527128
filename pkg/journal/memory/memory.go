// Package memory provides an in-memory transfer journal.
package memory

import (
	"context"
	"sync"

	"github.com/uxfer/uxfer/pkg/journal"
)

// MemoryJournal keeps transfer records in a slice, in acceptance order.
//
// Records are lost when the process exits. Suitable for tests and for
// servers where the journal is only inspected while running.
type MemoryJournal struct {
	mu      sync.RWMutex
	records []journal.TransferRecord
	closed  bool
}

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

func (j *MemoryJournal) Record(ctx context.Context, rec *journal.TransferRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, *rec)
	return nil
}

func (j *MemoryJournal) List(ctx context.Context) ([]journal.TransferRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]journal.TransferRecord, len(j.records))
	copy(out, j.records)
	return out, nil
}

func (j *MemoryJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.closed = true
	j.records = nil
	return nil
}

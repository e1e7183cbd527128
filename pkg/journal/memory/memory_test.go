package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uxfer/uxfer/pkg/journal"
)

func testRecord(id string, bytes int64) *journal.TransferRecord {
	now := time.Now()
	return &journal.TransferRecord{
		ID:           id,
		Address:      "/tmp/us_xfr",
		AcceptedAt:   now,
		CompletedAt:  now,
		BytesRelayed: bytes,
		Status:       journal.StatusCompleted,
	}
}

func TestMemoryJournalRecordAndList(t *testing.T) {
	ctx := context.Background()
	j := NewMemoryJournal()

	require.NoError(t, j.Record(ctx, testRecord("a", 10)))
	require.NoError(t, j.Record(ctx, testRecord("b", 20)))
	require.NoError(t, j.Record(ctx, testRecord("c", 0)))

	records, err := j.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Acceptance order is preserved.
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
	assert.Equal(t, "c", records[2].ID)
	assert.Equal(t, int64(20), records[1].BytesRelayed)
}

func TestMemoryJournalListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	j := NewMemoryJournal()
	require.NoError(t, j.Record(ctx, testRecord("a", 1)))

	records, err := j.List(ctx)
	require.NoError(t, err)
	records[0].ID = "mutated"

	again, err := j.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].ID, "List must not expose internal storage")
}

func TestMemoryJournalContextCancelled(t *testing.T) {
	j := NewMemoryJournal()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, j.Record(ctx, testRecord("a", 1)))

	_, err := j.List(ctx)
	assert.Error(t, err)
}

func TestMemoryJournalClose(t *testing.T) {
	ctx := context.Background()
	j := NewMemoryJournal()
	require.NoError(t, j.Record(ctx, testRecord("a", 1)))
	require.NoError(t, j.Close())
}

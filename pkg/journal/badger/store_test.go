package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uxfer/uxfer/pkg/journal"
)

func newTestJournal(t *testing.T) *BadgerJournal {
	t.Helper()

	j, err := NewBadgerJournal(context.Background(), BadgerJournalConfig{
		DBPath: t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func recordAt(id string, accepted time.Time, status journal.Status) *journal.TransferRecord {
	return &journal.TransferRecord{
		ID:           id,
		Address:      "/tmp/us_xfr",
		AcceptedAt:   accepted,
		CompletedAt:  accepted.Add(time.Millisecond),
		BytesRelayed: 42,
		Status:       status,
	}
}

func TestBadgerJournalRequiresPath(t *testing.T) {
	_, err := NewBadgerJournal(context.Background(), BadgerJournalConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db_path")
}

func TestBadgerJournalRecordAndList(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)

	base := time.Now()
	require.NoError(t, j.Record(ctx, recordAt("a", base, journal.StatusCompleted)))
	require.NoError(t, j.Record(ctx, recordAt("b", base.Add(time.Second), journal.StatusAborted)))

	records, err := j.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
	assert.Equal(t, journal.StatusAborted, records[1].Status)
	assert.Equal(t, int64(42), records[0].BytesRelayed)
}

func TestBadgerJournalListInAcceptanceOrder(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)

	// Insert out of order; List must come back in acceptance order because
	// keys embed the zero-padded acceptance timestamp.
	base := time.Now()
	require.NoError(t, j.Record(ctx, recordAt("late", base.Add(time.Minute), journal.StatusCompleted)))
	require.NoError(t, j.Record(ctx, recordAt("early", base, journal.StatusCompleted)))

	records, err := j.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "early", records[0].ID)
	assert.Equal(t, "late", records[1].ID)
}

func TestBadgerJournalPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	j, err := NewBadgerJournal(ctx, BadgerJournalConfig{DBPath: dir})
	require.NoError(t, err)
	require.NoError(t, j.Record(ctx, recordAt("persisted", time.Now(), journal.StatusCompleted)))
	require.NoError(t, j.Close())

	reopened, err := NewBadgerJournal(ctx, BadgerJournalConfig{DBPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "persisted", records[0].ID)
}

func TestBadgerJournalContextCancelled(t *testing.T) {
	j := newTestJournal(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, j.Record(ctx, recordAt("a", time.Now(), journal.StatusCompleted)))
	_, err := j.List(ctx)
	assert.Error(t, err)
}

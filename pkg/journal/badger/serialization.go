package badger

import (
	"encoding/json"
	"fmt"

	"github.com/uxfer/uxfer/pkg/journal"
)

// Records are stored as JSON. The journal is an audit artifact that
// operators read with badger tooling, so debuggability wins over the size
// and speed of a binary encoding.

func encodeRecord(rec *journal.TransferRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode transfer record %s: %w", rec.ID, err)
	}
	return data, nil
}

func decodeRecord(data []byte) (*journal.TransferRecord, error) {
	var rec journal.TransferRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode transfer record: %w", err)
	}
	return &rec, nil
}

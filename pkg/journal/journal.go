// Package journal records the outcome of relay passes.
//
// One TransferRecord is written per accepted connection, after the relay pass
// finishes (normally or not). The journal is pure observability: a journal
// write failure is logged and never interrupts the accept loop or fails a
// transfer.
//
// Backends:
//   - noop (default): records nothing
//   - memory: ephemeral, used by tests and short-lived servers
//   - badger: persistent, survives server restarts
package journal

import (
	"context"
	"time"
)

// Status describes how a relay pass ended.
type Status string

const (
	// StatusCompleted means the client closed its end and every byte read
	// was forwarded to the sink.
	StatusCompleted Status = "completed"

	// StatusCloseFailed means the transfer itself completed but closing the
	// connection afterwards failed. The bytes at the sink are still exact.
	StatusCloseFailed Status = "close_failed"

	// StatusAborted means the relay pass ended on a read or write fault.
	StatusAborted Status = "aborted"
)

// TransferRecord captures one relay pass from acceptance to closure.
type TransferRecord struct {
	// ID uniquely identifies the record (UUID v4).
	ID string `json:"id"`

	// Address is the rendezvous address the connection arrived on.
	Address string `json:"address"`

	// AcceptedAt is when the acceptor obtained the connection.
	AcceptedAt time.Time `json:"accepted_at"`

	// CompletedAt is when the relay pass ended.
	CompletedAt time.Time `json:"completed_at"`

	// BytesRelayed counts bytes forwarded to the sink during this pass.
	BytesRelayed int64 `json:"bytes_relayed"`

	// Status describes the outcome of the pass.
	Status Status `json:"status"`

	// Failure holds the fault description when Status is aborted or
	// close_failed, empty otherwise.
	Failure string `json:"failure,omitempty"`
}

// Journal persists transfer records.
//
// Implementations must be safe for use from the accept loop goroutine and
// from concurrent readers (List may be called while the server is running).
type Journal interface {
	// Record appends one transfer record.
	Record(ctx context.Context, rec *TransferRecord) error

	// List returns all records in acceptance order.
	List(ctx context.Context) ([]TransferRecord, error)

	// Close releases backend resources. Record and List must not be called
	// after Close.
	Close() error
}

// Noop is the default journal: it discards every record.
type Noop struct{}

// NewNoop creates a journal that records nothing.
func NewNoop() *Noop {
	return &Noop{}
}

func (Noop) Record(ctx context.Context, rec *TransferRecord) error {
	return nil
}

func (Noop) List(ctx context.Context) ([]TransferRecord, error) {
	return nil, nil
}

func (Noop) Close() error {
	return nil
}

package usock

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/uxfer/uxfer/internal/logger"
	"github.com/uxfer/uxfer/pkg/journal"
)

// relay performs one relay pass: it drains the connection's byte stream
// into the sink until the client signals end-of-stream, then closes the
// connection.
//
// State machine for one pass:
//
//	AwaitingData -(n>0)-> Forwarding -> AwaitingData
//	AwaitingData -(EOF)-> Closing -> Done
//	any fault -> Aborted, except close faults which go to Done with a
//	logged warning
//
// Invariants:
//   - every byte read is forwarded before the next read, in order
//   - a short forward is never resumed: the remainder is not retried and
//     the pass aborts with ErrPartialWrite
//   - the connection is closed exactly once, on every path
//
// There is deliberately no read deadline: a slow or silent client blocks
// the server indefinitely. Shutdown escapes this by force-closing the
// connection after the shutdown timeout.
//
// relay always returns a transfer record describing the pass. The error is
// nil for a normal pass (including one whose close failed, which is only
// logged), a *RelayError with the read fault's policy-dependent
// disposition, or a server-fatal *RelayError for a forward fault.
func (s *UnixAdapter) relay(conn net.Conn) (*journal.TransferRecord, error) {
	rec := &journal.TransferRecord{
		ID:         uuid.NewString(),
		Address:    s.config.SocketPath,
		AcceptedAt: time.Now(),
	}

	buf := make([]byte, s.config.BufferSize)
	start := time.Now()

	var relayErr error
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			wn, werr := s.out.Write(buf[:n])
			if werr != nil {
				relayErr = serverFatal(OpForward, fmt.Errorf("forward %d bytes to %s: %w",
					n, s.out.Name(), werr))
				break
			}
			if wn != n {
				relayErr = serverFatal(OpForward, fmt.Errorf("%w: wrote %d of %d bytes to %s",
					ErrPartialWrite, wn, n, s.out.Name()))
				break
			}
			rec.BytesRelayed += int64(n)
			s.metrics.RecordBytesRelayed(int64(n))
		}

		if err == io.EOF {
			// Orderly end-of-stream: the client closed its end.
			break
		}
		if err != nil {
			readErr := &RelayError{
				Op:          OpRead,
				Disposition: readDisposition(s.config.FailurePolicy),
				Err:         fmt.Errorf("read from connection: %w", err),
			}
			relayErr = readErr
			break
		}
	}

	duration := time.Since(start)
	rec.CompletedAt = time.Now()

	if relayErr != nil {
		rec.Status = journal.StatusAborted
		rec.Failure = relayErr.Error()
		_ = conn.Close()
		s.metrics.RecordRelayPass(string(rec.Status), duration)
		return rec, relayErr
	}

	rec.Status = journal.StatusCompleted
	if err := conn.Close(); err != nil {
		// Best-effort: the transfer itself is complete and exact.
		logger.Warn("Failed to close connection on %s: %v", s.config.SocketPath, err)
		s.metrics.RecordFault(string(OpClose), string(DispositionLogged))
		rec.Status = journal.StatusCloseFailed
		rec.Failure = err.Error()
	}

	logger.Info("Connection on %s done: %d bytes relayed to %s",
		s.config.SocketPath, rec.BytesRelayed, s.out.Name())
	s.metrics.RecordRelayPass(string(rec.Status), duration)
	return rec, nil
}

// readDisposition maps the configured failure policy to the disposition of
// a read fault.
func readDisposition(policy string) Disposition {
	if policy == PolicyIsolate {
		return DispositionLogged
	}
	return DispositionServerFatal
}

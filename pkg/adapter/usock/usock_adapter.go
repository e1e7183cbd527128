// Package usock implements the Unix domain stream socket relay adapter.
//
// The adapter owns the listening endpoint for one rendezvous address. It
// accepts client connections strictly one at a time and relays each client's
// byte stream to the shared sink until the client closes its end. Additional
// clients queue in the socket's backlog while a connection is being served.
package usock

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/uxfer/uxfer/internal/logger"
	"github.com/uxfer/uxfer/pkg/journal"
	"github.com/uxfer/uxfer/pkg/metrics"
	"github.com/uxfer/uxfer/pkg/sink"
)

// Failure policies for per-connection I/O faults.
const (
	// PolicyStrict aborts the whole server on a read fault: availability
	// is coupled to every client. This is the historical relay contract
	// and the default.
	PolicyStrict = "strict"

	// PolicyIsolate logs a read fault, closes the connection, and keeps
	// serving. Forward (sink) faults stay fatal under both policies.
	PolicyIsolate = "isolate"
)

// UnixConfig holds configuration parameters for the relay adapter.
//
// Default values (applied by New if zero):
//   - SocketPath: /tmp/us_xfr
//   - Backlog: 5
//   - BufferSize: 4096
//   - FailurePolicy: strict
//   - ShutdownTimeout: 30s
type UnixConfig struct {
	// Enabled controls whether the adapter is active.
	// When false, the adapter will not be started.
	Enabled bool `mapstructure:"enabled"`

	// SocketPath is the filesystem-namespace address clients connect to.
	// Must fit the platform's sockaddr_un.sun_path; a longer path is
	// rejected at startup before any socket is created.
	SocketPath string `mapstructure:"socket_path"`

	// Backlog is the depth of the pending-connection queue. While one
	// connection is being served, up to Backlog further connection
	// requests wait in the kernel; beyond that the transport may refuse
	// or delay them.
	Backlog int `mapstructure:"backlog" validate:"min=0,max=4096"`

	// BufferSize is the transfer buffer capacity in bytes. It affects
	// chunking granularity only, never correctness.
	BufferSize int `mapstructure:"buffer_size" validate:"min=0"`

	// FailurePolicy selects how per-connection read faults are handled:
	// "strict" (server-fatal) or "isolate" (logged, connection dropped).
	FailurePolicy string `mapstructure:"failure_policy" validate:"omitempty,oneof=strict isolate"`

	// ShutdownTimeout bounds how long shutdown waits for an in-flight
	// relay pass before force-closing the connection. Must be > 0.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

// applyDefaults fills in zero values with sensible defaults.
func (c *UnixConfig) applyDefaults() {
	// Note: Enabled defaults are handled in pkg/config/defaults.go to
	// allow explicit false values from configuration files.

	if c.SocketPath == "" {
		c.SocketPath = "/tmp/us_xfr"
	}
	if c.Backlog <= 0 {
		c.Backlog = 5
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 4096
	}
	if c.FailurePolicy == "" {
		c.FailurePolicy = PolicyStrict
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}

// validate checks that the configuration is usable.
func (c *UnixConfig) validate() error {
	if c.SocketPath == "" {
		return fmt.Errorf("socket path is required")
	}
	if c.Backlog < 0 {
		return fmt.Errorf("invalid backlog %d: must be >= 0", c.Backlog)
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("invalid buffer size %d: must be >= 0", c.BufferSize)
	}
	if c.FailurePolicy != PolicyStrict && c.FailurePolicy != PolicyIsolate {
		return fmt.Errorf("invalid failure policy %q: must be strict or isolate", c.FailurePolicy)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout %v: must be > 0", c.ShutdownTimeout)
	}
	return nil
}

// UnixAdapter implements adapter.Adapter for Unix domain stream sockets.
//
// Connections are served strictly sequentially: the accept loop invokes the
// relay synchronously, so at most one connection is open at any moment and
// clients are served in backlog order. The listening socket is created once
// at startup and owned for the adapter's entire lifetime.
//
// Shutdown flow:
//  1. Context cancelled or Stop() called
//  2. Listener closed (no new connections; pending backlog entries are
//     abandoned to the kernel)
//  3. After ShutdownTimeout, an in-flight connection is force-closed
//  4. Serve() observes the shutdown and returns nil
type UnixAdapter struct {
	// config holds the adapter configuration (address, backlog, buffer,
	// failure policy).
	config UnixConfig

	// listenerMu guards listener, which Serve writes and closeListener
	// reads from the Stop/context goroutines.
	listenerMu sync.Mutex

	// listener is the passive socket. Created by Serve, closed during
	// shutdown. Never recreated.
	listener net.Listener

	// out is the shared output sink all relayed bytes are appended to.
	out sink.Sink

	// log records one transfer record per relay pass. Never nil after
	// SetJournal; defaults to the no-op journal.
	log journal.Journal

	// metrics provides optional Prometheus metrics collection.
	// If nil at New, a no-op implementation is used (zero overhead).
	metrics metrics.RelayMetrics

	// shutdown signals that graceful shutdown has been initiated.
	// Closed by initiateShutdown(), checked on the accept error path and
	// after each relay pass.
	shutdown chan struct{}

	// shutdownOnce ensures shutdown is only initiated once.
	shutdownOnce sync.Once

	// serving is held for the duration of Serve; Stop waits on it.
	serving sync.WaitGroup

	// activeMu guards activeConn, the at-most-one connection currently
	// being relayed. Tracked so shutdown can force-close it.
	activeMu   sync.Mutex
	activeConn net.Conn
}

// New creates a new UnixAdapter with the specified configuration.
//
// Zero values in config are replaced with defaults; an invalid
// configuration panics (programmer error). The adapter is created in a
// stopped state: call SetSink (and optionally SetJournal), then Serve.
func New(config UnixConfig, relayMetrics metrics.RelayMetrics) *UnixAdapter {
	config.applyDefaults()

	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("invalid unix adapter config: %v", err))
	}

	if relayMetrics == nil {
		relayMetrics = noopMetrics{}
	}

	return &UnixAdapter{
		config:   config,
		log:      journal.NewNoop(),
		metrics:  relayMetrics,
		shutdown: make(chan struct{}),
	}
}

// noopMetrics provides a local no-op implementation when the metrics
// package is not used.
type noopMetrics struct{}

func (noopMetrics) RecordConnectionAccepted()                      {}
func (noopMetrics) RecordConnectionClosed()                        {}
func (noopMetrics) SetActiveConnections(count int32)               {}
func (noopMetrics) RecordBytesRelayed(bytes int64)                 {}
func (noopMetrics) RecordRelayPass(status string, d time.Duration) {}
func (noopMetrics) RecordFault(op string, disposition string)      {}

// SetSink injects the shared output sink.
//
// Called exactly once before Serve(), no synchronization needed.
func (s *UnixAdapter) SetSink(out sink.Sink) {
	s.out = out
	logger.Debug("Unix adapter sink configured: %s", out.Name())
}

// SetJournal injects the shared transfer journal.
//
// Called exactly once before Serve(), no synchronization needed.
func (s *UnixAdapter) SetJournal(j journal.Journal) {
	if j == nil {
		j = journal.NewNoop()
	}
	s.log = j
}

// Serve binds the rendezvous address and accepts connections until the
// context is cancelled or a fatal fault occurs.
//
// Startup performs, in order: address length validation, stale socket file
// removal, socket creation, bind, and listen with the configured backlog.
// Any failure there is SetupFatal and returned before any client is served.
//
// The loop then blocks in accept, serves the accepted connection fully
// (one relay pass), and repeats. There is no concurrency between
// connections. Accept faults are ServerFatal. Relay faults follow the
// configured failure policy (see UnixConfig.FailurePolicy).
//
// Returns:
//   - nil on graceful shutdown (context cancelled or Stop called)
//   - *RelayError with DispositionSetupFatal if startup failed
//   - *RelayError with DispositionServerFatal on a fatal operational fault
func (s *UnixAdapter) Serve(ctx context.Context) error {
	if s.out == nil {
		return setupFatal(OpSocket, fmt.Errorf("no sink configured: call SetSink before Serve"))
	}

	listener, err := bindListener(s.config.SocketPath, s.config.Backlog)
	if err != nil {
		return err
	}
	s.listenerMu.Lock()
	s.listener = listener
	s.listenerMu.Unlock()

	// Stop may have run before the listener existed; its closeListener
	// found nothing to close, so the shutdown must be honored here or the
	// accept loop would never observe it.
	select {
	case <-s.shutdown:
		s.closeListener()
		return nil
	default:
	}

	s.serving.Add(1)
	defer s.serving.Done()

	logger.Info("Unix relay listening on %s (backlog %d, buffer %d, policy %s)",
		s.config.SocketPath, s.config.Backlog, s.config.BufferSize, s.config.FailurePolicy)

	// Monitor context cancellation in a separate goroutine so the accept
	// loop only has to deal with the closed listener.
	go func() {
		<-ctx.Done()
		logger.Info("Unix relay shutdown signal received: %v", ctx.Err())
		s.initiateShutdown()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				// Expected during shutdown: the listener was closed.
				logger.Info("Unix relay stopped accepting on %s", s.config.SocketPath)
				return nil
			default:
				// The listening socket is assumed healthy for the
				// server's whole lifetime; a failing accept is not
				// something we recover from.
				s.metrics.RecordFault(string(OpAccept), string(DispositionServerFatal))
				s.closeListener()
				return serverFatal(OpAccept, fmt.Errorf("accept on %s: %w", s.config.SocketPath, err))
			}
		}

		s.metrics.RecordConnectionAccepted()
		s.metrics.SetActiveConnections(1)
		logger.Info("Connection accepted on %s", s.config.SocketPath)

		s.setActiveConn(conn)
		rec, relayErr := s.relay(conn)
		s.setActiveConn(nil)

		s.metrics.SetActiveConnections(0)
		s.metrics.RecordConnectionClosed()
		s.recordPass(ctx, rec)

		if relayErr != nil {
			select {
			case <-s.shutdown:
				// The fault was induced by shutdown force-closing the
				// connection, not by the client.
				logger.Debug("Relay pass interrupted by shutdown: %v", relayErr)
				return nil
			default:
			}

			disposition := Classify(relayErr)
			s.metrics.RecordFault(string(FaultOp(relayErr)), string(disposition))

			if disposition == DispositionServerFatal {
				s.initiateShutdown()
				return relayErr
			}

			// Isolate policy: the fault is local to this client.
			logger.Error("Connection fault (isolated): %v", relayErr)
		}
	}
}

// recordPass writes the transfer record for a completed relay pass.
// Journal failures are logged, never escalated: observability must not
// break the relay contract.
func (s *UnixAdapter) recordPass(ctx context.Context, rec *journal.TransferRecord) {
	if rec == nil {
		return
	}
	if err := s.log.Record(ctx, rec); err != nil {
		logger.Warn("Failed to journal transfer %s: %v", rec.ID, err)
	}
}

// setActiveConn tracks the connection currently being relayed so shutdown
// can force-close it.
func (s *UnixAdapter) setActiveConn(conn net.Conn) {
	s.activeMu.Lock()
	s.activeConn = conn
	s.activeMu.Unlock()
}

// initiateShutdown signals the adapter to begin graceful shutdown.
//
// Safe to call multiple times and from multiple goroutines. Closing the
// listener makes the blocked accept fail, which the accept loop recognizes
// via the shutdown channel. An in-flight relay pass is given
// ShutdownTimeout to finish before its connection is force-closed.
func (s *UnixAdapter) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		logger.Debug("Unix relay shutdown initiated")
		close(s.shutdown)
		s.closeListener()

		go func() {
			timer := time.NewTimer(s.config.ShutdownTimeout)
			defer timer.Stop()

			done := make(chan struct{})
			go func() {
				s.serving.Wait()
				close(done)
			}()

			select {
			case <-done:
			case <-timer.C:
				s.forceCloseActiveConn()
			}
		}()
	})
}

// closeListener closes the passive socket, unlinking the socket file.
func (s *UnixAdapter) closeListener() {
	s.listenerMu.Lock()
	listener := s.listener
	s.listenerMu.Unlock()

	if listener != nil {
		if err := listener.Close(); err != nil {
			logger.Debug("Error closing listener on %s: %v", s.config.SocketPath, err)
		}
	}
}

// forceCloseActiveConn closes the in-flight connection, if any, so a
// client that never finishes cannot block shutdown forever.
func (s *UnixAdapter) forceCloseActiveConn() {
	s.activeMu.Lock()
	conn := s.activeConn
	s.activeMu.Unlock()

	if conn != nil {
		logger.Warn("Shutdown timeout exceeded on %s - force-closing active connection",
			s.config.SocketPath)
		_ = conn.Close()
	}
}

// Stop initiates graceful shutdown and waits for the serve loop to finish.
//
// Safe to call multiple times and concurrently with Serve(). The context
// bounds the wait; on expiry the in-flight connection is force-closed and
// the context error returned.
func (s *UnixAdapter) Stop(ctx context.Context) error {
	s.initiateShutdown()

	done := make(chan struct{})
	go func() {
		s.serving.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("Unix relay on %s stopped", s.config.SocketPath)
		return nil
	case <-ctx.Done():
		s.forceCloseActiveConn()
		return ctx.Err()
	}
}

// Protocol returns "unix" as the transport identifier.
func (s *UnixAdapter) Protocol() string {
	return "unix"
}

// Address returns the rendezvous address the adapter listens on.
func (s *UnixAdapter) Address() string {
	return s.config.SocketPath
}

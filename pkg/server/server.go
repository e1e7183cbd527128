package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/uxfer/uxfer/internal/logger"
	"github.com/uxfer/uxfer/pkg/adapter"
	"github.com/uxfer/uxfer/pkg/journal"
	"github.com/uxfer/uxfer/pkg/sink"
)

// RelayServer manages the lifecycle of transport adapters that share one
// output sink and one transfer journal.
//
// Architecture:
// RelayServer owns the shared backends (the sink every relayed byte is
// appended to, and the journal that records transfer outcomes) and
// orchestrates the adapters that feed them. Today the Unix domain socket
// adapter is the only transport; the orchestration layer keeps startup,
// error fan-in, and shutdown identical if another transport is added.
//
// Lifecycle:
//  1. Creation: New() with the sink and journal
//  2. Registration: AddAdapter() for each transport
//  3. Startup: Serve() starts all adapters and blocks
//  4. Shutdown: context cancellation triggers graceful shutdown
//
// Thread safety:
// RelayServer is safe for concurrent use. AddAdapter() may be called
// concurrently with other methods before Serve(). Serve() must only be
// called once per instance.
//
// Example usage:
//
//	srv := server.New(sink, journal)
//	srv.AddAdapter(usock.New(cfg, nil))
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := srv.Serve(ctx); err != nil && err != context.Canceled {
//	    log.Fatal(err)
//	}
type RelayServer struct {
	// out is the shared output sink for all adapters
	out sink.Sink

	// journal is the shared transfer journal for all adapters
	journal journal.Journal

	// adapters contains all registered transport adapters
	adapters []adapter.Adapter

	// mu protects the adapters slice and the served flag
	mu sync.RWMutex

	// serveOnce ensures Serve() only runs once
	serveOnce sync.Once

	// served indicates whether Serve() has been called
	served bool
}

// New creates a new RelayServer with the provided backends.
//
// The sink is shared across all adapters: bytes from every transport are
// appended to one ordered stream. The journal may be nil, in which case
// transfers are not recorded.
//
// Panics if the sink is nil (programmer error).
func New(out sink.Sink, j journal.Journal) *RelayServer {
	if out == nil {
		panic("sink cannot be nil")
	}
	if j == nil {
		j = journal.NewNoop()
	}

	return &RelayServer{
		out:     out,
		journal: j,
	}
}

// AddAdapter registers a transport adapter with the server.
//
// The shared sink and journal are injected into the adapter here. Adapters
// must listen on distinct addresses; duplicates return an error.
//
// Panics if the adapter is nil or Serve() has already been called.
//
// Thread safety: safe to call concurrently before Serve().
func (s *RelayServer) AddAdapter(a adapter.Adapter) error {
	if a == nil {
		panic("adapter cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served {
		panic("cannot add adapter after Serve() has been called")
	}

	for _, existing := range s.adapters {
		if existing.Address() == a.Address() {
			return fmt.Errorf("address %s already in use by %s adapter",
				a.Address(), existing.Protocol())
		}
	}

	a.SetSink(s.out)
	a.SetJournal(s.journal)
	s.adapters = append(s.adapters, a)

	logger.Info("Registered %s adapter on %s", a.Protocol(), a.Address())
	return nil
}

// Serve starts all registered adapters and blocks until the context is
// cancelled or an adapter fails.
//
// On shutdown, adapters receive Stop() in reverse registration order and
// Serve waits for all of them to finish before returning.
//
// Returns:
//   - context.Canceled (or the context's error) on cancellation-triggered
//     shutdown
//   - the failing adapter's error if one stops on a fatal fault
//
// Panics if called more than once.
func (s *RelayServer) Serve(ctx context.Context) error {
	called := false
	var err error
	s.serveOnce.Do(func() {
		called = true
		s.mu.Lock()
		s.served = true
		s.mu.Unlock()
		err = s.serve(ctx)
	})
	if !called {
		panic("Serve() has already been called on this server instance")
	}
	return err
}

// serve is the internal implementation of Serve().
func (s *RelayServer) serve(ctx context.Context) error {
	s.mu.RLock()
	if len(s.adapters) == 0 {
		s.mu.RUnlock()
		return fmt.Errorf("no adapters registered; call AddAdapter() before Serve()")
	}
	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	s.mu.RUnlock()

	logger.Info("Starting relay server with %d adapter(s), sink %s",
		len(adapters), s.out.Name())

	// Buffered so failing adapters never block on a full channel.
	errChan := make(chan adapterError, len(adapters))

	var wg sync.WaitGroup
	for _, adp := range adapters {
		wg.Add(1)
		go func(a adapter.Adapter) {
			defer wg.Done()

			if err := a.Serve(ctx); err != nil {
				// context.Canceled is expected during shutdown.
				if err != context.Canceled && ctx.Err() == nil {
					logger.Error("%s adapter failed: %v", a.Protocol(), err)
					errChan <- adapterError{protocol: a.Protocol(), err: err}
					return
				}
			}
			logger.Debug("%s adapter stopped", a.Protocol())
		}(adp)
	}

	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received (reason: %v)", ctx.Err())
		s.stopAllAdapters(adapters)
		shutdownErr = ctx.Err()

	case adapterErr := <-errChan:
		logger.Error("Adapter %s failed: %v - stopping all adapters",
			adapterErr.protocol, adapterErr.err)
		s.stopAllAdapters(adapters)
		shutdownErr = fmt.Errorf("%s adapter error: %w", adapterErr.protocol, adapterErr.err)
	}

	wg.Wait()

	if err := s.journal.Close(); err != nil {
		logger.Warn("Error closing journal: %v", err)
	}
	if err := s.out.Close(); err != nil {
		logger.Warn("Error closing sink %s: %v", s.out.Name(), err)
	}

	logger.Info("Relay server stopped")
	return shutdownErr
}

// adapterError pairs an adapter protocol name with its error.
type adapterError struct {
	protocol string
	err      error
}

// stopAllAdapters initiates graceful shutdown of all adapters in reverse
// registration order, bounded by a shared timeout.
func (s *RelayServer) stopAllAdapters(adapters []adapter.Adapter) {
	const stopTimeout = 30 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	for i := len(adapters) - 1; i >= 0; i-- {
		adp := adapters[i]
		if err := adp.Stop(ctx); err != nil && err != context.Canceled {
			logger.Error("Error stopping %s adapter: %v", adp.Protocol(), err)
		}
	}
}

// Adapters returns a snapshot of currently registered adapters.
//
// The returned slice is a copy; modifying it does not affect the server.
func (s *RelayServer) Adapters() []adapter.Adapter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	return adapters
}

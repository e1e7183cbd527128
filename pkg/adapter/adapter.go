package adapter

import (
	"context"

	"github.com/uxfer/uxfer/pkg/journal"
	"github.com/uxfer/uxfer/pkg/sink"
)

// Adapter represents a transport-specific listener that can be managed by
// RelayServer.
//
// Each adapter owns one listening endpoint (today: a Unix domain stream
// socket) and relays accepted byte streams into the shared sink. All
// adapters share the same sink and journal, so bytes from every transport
// land in one ordered stream.
//
// Lifecycle:
//  1. Creation: Adapter is created with transport-specific configuration
//  2. Injection: SetSink() and SetJournal() provide the shared backends
//  3. Startup: Serve() binds the endpoint and blocks until shutdown
//  4. Shutdown: Stop() initiates graceful shutdown with timeout
//
// Thread safety:
// Implementations must be safe for concurrent use. SetSink and SetJournal
// are called once before Serve(), but Stop() may be called concurrently
// with Serve().
type Adapter interface {
	// Serve binds the listening endpoint and blocks until the context is
	// cancelled or an unrecoverable fault occurs.
	//
	// When the context is cancelled, Serve must initiate graceful shutdown:
	// stop accepting, let the in-flight relay pass finish (with timeout),
	// clean up the endpoint, and return nil.
	//
	// A non-nil return is a SetupFatal or ServerFatal fault; RelayServer
	// treats it as fatal and stops all other adapters.
	Serve(ctx context.Context) error

	// SetSink injects the shared output sink.
	// Called exactly once before Serve(), no synchronization needed.
	SetSink(s sink.Sink)

	// SetJournal injects the shared transfer journal.
	// Called exactly once before Serve(), no synchronization needed.
	SetJournal(j journal.Journal)

	// Stop initiates graceful shutdown. It must be idempotent and safe to
	// call concurrently with Serve(). The context bounds how long Stop
	// waits for the in-flight relay pass.
	Stop(ctx context.Context) error

	// Protocol returns the human-readable transport name for logging
	// ("unix").
	Protocol() string

	// Address returns the rendezvous address the adapter listens on.
	Address() string
}

// Package sink provides the output destinations for relayed byte streams.
//
// A Sink is where every byte read from every client connection ends up, in
// order, with no delimiters between connections. Sinks are selected by
// configuration (see pkg/config) and shared by all adapters for the lifetime
// of the server.
package sink

import "io"

// Sink is an ordered, append-only byte destination.
//
// Write must follow the io.Writer contract: it returns the number of bytes
// written and a non-nil error whenever that number is short. The relay treats
// any short write as fatal, so implementations must never silently drop bytes.
//
// Sinks are used by one relay pass at a time (the server serves connections
// sequentially), so implementations do not need to be safe for concurrent
// Write calls unless they are also read from tests while serving.
type Sink interface {
	io.Writer

	// Close releases any resources held by the sink. Close is called once,
	// during server shutdown, after the last relay pass has finished.
	Close() error

	// Name returns a human-readable identifier for logging ("stdout",
	// the file path, "memory").
	Name() string
}

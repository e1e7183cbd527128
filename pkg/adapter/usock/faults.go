package usock

import (
	"errors"
	"fmt"
)

// Fault taxonomy
// ==============
//
// Every fallible operation in the adapter yields one of three dispositions:
//
//	Disposition   Effect
//	=========================================================================
//	SetupFatal    startup aborts before any client is served
//	ServerFatal   the running server stops; no further clients are served
//	Logged        reported to the log, the accept loop continues
//
// The mapping from operation to disposition is fixed by contract:
//
//	Operation                         Disposition
//	=========================================================================
//	address exceeds sun_path limit    SetupFatal (no socket is created)
//	stale path removal (not absent)   SetupFatal
//	bind                              SetupFatal
//	listen                            SetupFatal
//	accept                            ServerFatal
//	read (strict policy)              ServerFatal
//	read (isolate policy)             Logged
//	forward short/failed write        ServerFatal (the sink is shared; a
//	                                  short write leaves it inconsistent
//	                                  for every later connection)
//	close after end-of-stream         Logged
//
// RelayError carries the operation and disposition so that callers (and
// tests) can branch with errors.As instead of matching message strings.

// Disposition classifies how a fault affects the server.
type Disposition string

const (
	DispositionSetupFatal  Disposition = "setup_fatal"
	DispositionServerFatal Disposition = "server_fatal"
	DispositionLogged      Disposition = "logged"
)

// Op identifies the fallible operation that produced a fault.
type Op string

const (
	OpAddressCheck Op = "address_check"
	OpRemoveStale  Op = "remove_stale"
	OpSocket       Op = "socket"
	OpBind         Op = "bind"
	OpListen       Op = "listen"
	OpAccept       Op = "accept"
	OpRead         Op = "read"
	OpForward      Op = "forward"
	OpClose        Op = "close"
)

// Sentinel causes for faults that do not originate in an OS error.
var (
	// ErrAddressTooLong means the configured socket path does not fit the
	// platform's sockaddr_un.sun_path.
	ErrAddressTooLong = errors.New("socket path exceeds platform address limit")

	// ErrPartialWrite means the sink accepted fewer bytes than were read.
	// The relay never retries the remainder.
	ErrPartialWrite = errors.New("sink wrote fewer bytes than were read")
)

// RelayError is a classified fault from one of the adapter's operations.
type RelayError struct {
	// Op is the operation that failed.
	Op Op

	// Disposition says whether the fault aborts setup, aborts the server,
	// or is merely logged.
	Disposition Disposition

	// Err is the underlying cause.
	Err error
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

func setupFatal(op Op, err error) *RelayError {
	return &RelayError{Op: op, Disposition: DispositionSetupFatal, Err: err}
}

func serverFatal(op Op, err error) *RelayError {
	return &RelayError{Op: op, Disposition: DispositionServerFatal, Err: err}
}

// Classify returns the disposition of err, or DispositionLogged for errors
// that did not come out of the adapter (callers treat unknown errors as
// non-fatal by construction: fatal paths always classify).
func Classify(err error) Disposition {
	var relayErr *RelayError
	if errors.As(err, &relayErr) {
		return relayErr.Disposition
	}
	return DispositionLogged
}

// FaultOp returns the operation recorded in err, or "" if err is not a
// classified fault.
func FaultOp(err error) Op {
	var relayErr *RelayError
	if errors.As(err, &relayErr) {
		return relayErr.Op
	}
	return ""
}

package server

import (
	"bytes"
	"context"
	"errors"
	"net"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/uxfer/uxfer/pkg/adapter/usock"
	"github.com/uxfer/uxfer/pkg/journal"
	memoryjournal "github.com/uxfer/uxfer/pkg/journal/memory"
	"github.com/uxfer/uxfer/pkg/sink"
)

// fakeAdapter is a minimal adapter for orchestration tests.
type fakeAdapter struct {
	protocol string
	address  string
	serveErr error

	sinkSet    atomic.Bool
	journalSet atomic.Bool
	stopped    atomic.Bool
	stop       chan struct{}
}

func newFakeAdapter(protocol, address string) *fakeAdapter {
	return &fakeAdapter{
		protocol: protocol,
		address:  address,
		stop:     make(chan struct{}),
	}
}

func (f *fakeAdapter) Serve(ctx context.Context) error {
	if f.serveErr != nil {
		return f.serveErr
	}
	select {
	case <-ctx.Done():
	case <-f.stop:
	}
	return nil
}

func (f *fakeAdapter) SetSink(s sink.Sink)          { f.sinkSet.Store(true) }
func (f *fakeAdapter) SetJournal(j journal.Journal) { f.journalSet.Store(true) }
func (f *fakeAdapter) Protocol() string             { return f.protocol }
func (f *fakeAdapter) Address() string              { return f.address }
func (f *fakeAdapter) Stop(ctx context.Context) error {
	if f.stopped.CompareAndSwap(false, true) {
		close(f.stop)
	}
	return nil
}

func TestNewPanicsOnNilSink(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil sink")
		}
	}()
	New(nil, nil)
}

func TestAddAdapterInjectsBackends(t *testing.T) {
	srv := New(sink.NewMemorySink(), memoryjournal.NewMemoryJournal())
	a := newFakeAdapter("unix", "/tmp/a.sock")

	if err := srv.AddAdapter(a); err != nil {
		t.Fatalf("AddAdapter: %v", err)
	}
	if !a.sinkSet.Load() {
		t.Error("sink was not injected")
	}
	if !a.journalSet.Load() {
		t.Error("journal was not injected")
	}
	if got := len(srv.Adapters()); got != 1 {
		t.Errorf("Adapters() len = %d, want 1", got)
	}
}

func TestAddAdapterRejectsDuplicateAddress(t *testing.T) {
	srv := New(sink.NewMemorySink(), nil)

	if err := srv.AddAdapter(newFakeAdapter("unix", "/tmp/dup.sock")); err != nil {
		t.Fatalf("first AddAdapter: %v", err)
	}
	if err := srv.AddAdapter(newFakeAdapter("unix", "/tmp/dup.sock")); err == nil {
		t.Fatal("expected error for duplicate address")
	}
}

func TestServeWithoutAdapters(t *testing.T) {
	srv := New(sink.NewMemorySink(), nil)

	if err := srv.Serve(context.Background()); err == nil {
		t.Fatal("expected error when no adapters are registered")
	}
}

func TestServeStopsOnContextCancel(t *testing.T) {
	srv := New(sink.NewMemorySink(), nil)
	a := newFakeAdapter("unix", "/tmp/cancel.sock")
	if err := srv.AddAdapter(a); err != nil {
		t.Fatalf("AddAdapter: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	if !a.stopped.Load() {
		t.Error("adapter was not stopped")
	}
}

func TestServePropagatesAdapterFailure(t *testing.T) {
	srv := New(sink.NewMemorySink(), nil)

	failing := newFakeAdapter("unix", "/tmp/failing.sock")
	failing.serveErr = errors.New("listen failed")
	healthy := newFakeAdapter("unix", "/tmp/healthy.sock")

	if err := srv.AddAdapter(healthy); err != nil {
		t.Fatalf("AddAdapter: %v", err)
	}
	if err := srv.AddAdapter(failing); err != nil {
		t.Fatalf("AddAdapter: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background()) }()

	select {
	case err := <-done:
		if err == nil || !errors.Is(err, failing.serveErr) {
			t.Errorf("Serve returned %v, want wrapped %v", err, failing.serveErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after adapter failure")
	}
	if !healthy.stopped.Load() {
		t.Error("healthy adapter was not stopped after sibling failure")
	}
}

func TestServePanicsOnSecondCall(t *testing.T) {
	srv := New(sink.NewMemorySink(), nil)
	if err := srv.AddAdapter(newFakeAdapter("unix", "/tmp/once.sock")); err != nil {
		t.Fatalf("AddAdapter: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = srv.Serve(ctx)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on second Serve call")
		}
	}()
	_ = srv.Serve(context.Background())
}

// TestEndToEndRelay wires the real Unix adapter through the server and
// verifies bytes arrive at the shared sink.
func TestEndToEndRelay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "e2e.sock")
	out := sink.NewMemorySink()
	jnl := memoryjournal.NewMemoryJournal()

	srv := New(out, jnl)
	if err := srv.AddAdapter(usock.New(usock.UnixConfig{SocketPath: path}, nil)); err != nil {
		t.Fatalf("AddAdapter: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	// Wait for the socket, then send a payload.
	payload := []byte("end to end payload\n")
	deadline := time.Now().Add(2 * time.Second)
	var conn net.Conn
	var err error
	for time.Now().Before(deadline) {
		conn, err = net.Dial("unix", path)
		if err == nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if _, err := conn.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.Close()

	for time.Now().Before(deadline) {
		if out.Len() >= len(payload) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !bytes.Equal(out.Bytes(), payload) {
		t.Fatalf("sink = %q, want %q", out.Bytes(), payload)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

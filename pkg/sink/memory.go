package sink

import (
	"bytes"
	"sync"
)

// MemorySink buffers relayed bytes in memory.
//
// Intended for tests and short-lived capture sessions. Unlike the other
// sinks it is safe for concurrent use, because tests read the captured
// bytes while the server is still relaying.
type MemorySink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *MemorySink) Close() error {
	return nil
}

func (s *MemorySink) Name() string {
	return "memory"
}

// Bytes returns a copy of everything written so far.
func (s *MemorySink) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, s.buf.Len())
	copy(out, s.buf.Bytes())
	return out
}

// Len returns the number of bytes captured so far.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}

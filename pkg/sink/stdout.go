package sink

import (
	"io"
	"os"
)

// StdoutSink appends relayed bytes to the process's standard output stream.
//
// This is the default sink. Diagnostics never share this stream: the logger
// writes to stderr so that stdout stays byte-exact.
type StdoutSink struct {
	out io.Writer
}

// NewStdoutSink creates a sink backed by os.Stdout.
func NewStdoutSink() *StdoutSink {
	return &StdoutSink{out: os.Stdout}
}

func (s *StdoutSink) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

// Close is a no-op: the process owns stdout, not the sink.
func (s *StdoutSink) Close() error {
	return nil
}

func (s *StdoutSink) Name() string {
	return "stdout"
}

package sink

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileSink appends relayed bytes to a regular file.
//
// The file is opened once at construction in append mode and kept open for
// the lifetime of the server, so bytes from sequential connections land in
// arrival order even if an external process rotates or inspects the file.
type FileSink struct {
	path string
	file *os.File
}

// NewFileSink opens (creating if necessary) the file at path for appending.
//
// Parent directories are created with 0755 if missing. The file itself is
// created with 0644.
func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("file sink: path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("file sink: create parent directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("file sink: open %s: %w", path, err)
	}

	return &FileSink{path: path, file: file}, nil
}

func (s *FileSink) Write(p []byte) (int, error) {
	return s.file.Write(p)
}

func (s *FileSink) Close() error {
	return s.file.Close()
}

func (s *FileSink) Name() string {
	return s.path
}

package usock

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBindListenerCreatesSocketFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bind.sock")

	l, err := bindListener(path, 5)
	if err != nil {
		t.Fatalf("bindListener: %v", err)
	}
	defer l.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat socket: %v", err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		t.Errorf("path is not a socket: mode = %v", info.Mode())
	}

	// The listener is usable by the net package.
	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()

	accepted, err := l.Accept()
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	accepted.Close()
}

func TestBindListenerUnlinksOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unlink.sock")

	l, err := bindListener(path, 5)
	if err != nil {
		t.Fatalf("bindListener: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("socket file still present after close: stat = %v", err)
	}
}

func TestBindListenerReplacesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.sock")

	// First listener binds the path, then leaks it without unlinking, as a
	// crash would. Binding again must succeed after stale removal.
	first, err := bindListener(path, 5)
	if err != nil {
		t.Fatalf("first bindListener: %v", err)
	}

	second, err := bindListener(path, 5)
	if err != nil {
		t.Fatalf("second bindListener after stale socket: %v", err)
	}
	second.Close()
	first.Close()
}

func TestBindListenerRejectsLongPath(t *testing.T) {
	path := "/tmp/" + strings.Repeat("x", maxSocketPathLen)

	_, err := bindListener(path, 5)
	if err == nil {
		t.Fatal("expected error for over-long path")
	}
	if !errors.Is(err, ErrAddressTooLong) {
		t.Errorf("error = %v, want ErrAddressTooLong", err)
	}
}

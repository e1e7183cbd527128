package usock

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"

	"github.com/uxfer/uxfer/internal/logger"
	"golang.org/x/sys/unix"
)

// maxSocketPathLen is the longest socket path the platform's sockaddr_un
// can carry, minus the trailing NUL.
const maxSocketPathLen = len(unix.RawSockaddrUnix{}.Path) - 1

// bindListener prepares the passive socket for the configured address:
// validates the address length, removes any stale filesystem entry left by
// a previous run, then creates, binds, and marks the socket listening with
// the configured backlog.
//
// The socket is created with the raw unix syscalls rather than net.Listen
// so that listen(2) receives exactly the configured backlog; the fd is then
// handed to the net package for the accept loop.
//
// Every failure here is SetupFatal: the caller must not proceed to the
// accept loop. On failure no fd is leaked; the address length check in
// particular fails before any socket exists.
func bindListener(path string, backlog int) (net.Listener, error) {
	if len(path) > maxSocketPathLen {
		return nil, setupFatal(OpAddressCheck, fmt.Errorf("%w: %q is %d bytes, limit is %d",
			ErrAddressTooLong, path, len(path), maxSocketPathLen))
	}

	// A socket file from a crashed prior run would make bind fail with
	// EADDRINUSE. Absence is the normal case, not an error.
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, setupFatal(OpRemoveStale, fmt.Errorf("remove stale socket %s: %w", path, err))
	}
	logger.Info("Socket path %s is clear", path)

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, setupFatal(OpSocket, fmt.Errorf("create socket: %w", err))
	}

	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		_ = unix.Close(fd)
		return nil, setupFatal(OpBind, fmt.Errorf("bind %s: %w", path, err))
	}
	logger.Info("Bound socket to %s", path)

	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return nil, setupFatal(OpListen, fmt.Errorf("listen on %s: %w", path, err))
	}

	// The fd must be non-blocking before it joins the runtime netpoller,
	// otherwise Accept would block the whole thread.
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, setupFatal(OpListen, fmt.Errorf("set nonblock on %s: %w", path, err))
	}

	file := os.NewFile(uintptr(fd), path)
	listener, err := net.FileListener(file)
	// FileListener dups the fd; the original is released either way.
	_ = file.Close()
	if err != nil {
		return nil, setupFatal(OpListen, fmt.Errorf("wrap listener for %s: %w", path, err))
	}

	if ul, ok := listener.(*net.UnixListener); ok {
		// We created the socket file, so we unlink it on Close.
		ul.SetUnlinkOnClose(true)
	}

	return listener, nil
}

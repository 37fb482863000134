//go:build unix

// Package netpoll provides the raw socket primitives behind the server's
// readiness-polling loop: a blocking TCP listener, a thin connection
// wrapper, and a poll(2)-based wait over an arbitrary set of descriptors.
//
// The package deliberately avoids net.Conn: the connection loop needs the
// underlying file descriptors so it can poll the listener and every open
// event-stream client from a single thread of control.
package netpoll

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// listenBacklog is the pending-connection queue length passed to listen(2).
const listenBacklog = 128

// ErrTimeout is returned by [Conn.Read] when a read deadline set via
// [Conn.SetReadTimeout] expires before any data arrives.
var ErrTimeout = errors.New("netpoll: read timed out")

// Listener is a bound, listening TCP socket.
type Listener struct {
	fd   int
	port int
}

// Listen opens an IPv4 TCP listening socket on host:port.
//
// An empty host binds to all interfaces (0.0.0.0). Port 0 asks the kernel
// for an ephemeral port; the chosen port is available via [Listener.Port].
func Listen(host string, port int) (*Listener, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}

	var addr [4]byte
	if host != "" {
		ip := net.ParseIP(host)
		if ip == nil {
			unix.Close(fd)
			return nil, fmt.Errorf("invalid listen host %q", host)
		}
		v4 := ip.To4()
		if v4 == nil {
			unix.Close(fd)
			return nil, fmt.Errorf("listen host %q is not an IPv4 address", host)
		}
		copy(addr[:], v4)
	}

	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port, Addr: addr}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind port %d: %w", port, err)
	}

	if err := unix.Listen(fd, listenBacklog); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listen: %w", err)
	}

	bound := port
	if sa, err := unix.Getsockname(fd); err == nil {
		if sa4, ok := sa.(*unix.SockaddrInet4); ok {
			bound = sa4.Port
		}
	}

	return &Listener{fd: fd, port: bound}, nil
}

// FD returns the listening socket's file descriptor for use with [Wait].
func (l *Listener) FD() int { return l.fd }

// Port returns the port the listener is bound to.
func (l *Listener) Port() int { return l.port }

// Accept takes one pending connection off the listen queue.
// It blocks until a connection is available, so callers should only
// invoke it after [Wait] reported the listener as readable.
func (l *Listener) Accept() (*Conn, error) {
	for {
		nfd, sa, err := unix.Accept(l.fd)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("accept: %w", err)
		}
		return &Conn{fd: nfd, remote: sockaddrString(sa)}, nil
	}
}

// Close shuts down the listening socket.
func (l *Listener) Close() error {
	return unix.Close(l.fd)
}

// Conn is an accepted TCP connection identified by its file descriptor.
//
// Reads and writes may be issued from different goroutines: the connection
// loop probes for disconnects while a stream handler writes events. Close
// is idempotent so both sides of an event stream can release the socket.
type Conn struct {
	fd     int
	remote string

	closeOnce sync.Once
	closeErr  error
}

// Read reads up to len(p) bytes. A zero-byte read (peer closed) is
// reported as [io.EOF]; an expired read deadline as [ErrTimeout].
func (c *Conn) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(c.fd, p)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, ErrTimeout
		}
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

// Write writes all of p, retrying on short writes and EINTR.
func (c *Conn) Write(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := unix.Write(c.fd, p[total:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// Close releases the socket. Subsequent calls return the first result.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = unix.Close(c.fd)
	})
	return c.closeErr
}

// SetReadTimeout bounds every subsequent Read via SO_RCVTIMEO.
// A zero duration clears the timeout.
func (c *Conn) SetReadTimeout(d time.Duration) error {
	tv := unix.NsecToTimeval(d.Nanoseconds())
	return unix.SetsockoptTimeval(c.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)
}

// FD returns the connection's file descriptor for use with [Wait].
func (c *Conn) FD() int { return c.fd }

// RemoteAddr returns the peer address in host:port form.
func (c *Conn) RemoteAddr() string { return c.remote }

// Wait polls the given descriptors for read readiness and returns the
// subset that is readable, has hung up, or is in an error state. It
// returns an empty slice when the timeout expires or the call is
// interrupted by a signal.
func Wait(fds []int, timeout time.Duration) ([]int, error) {
	pollFds := make([]unix.PollFd, len(fds))
	for i, fd := range fds {
		pollFds[i] = unix.PollFd{Fd: int32(fd), Events: unix.POLLIN}
	}

	n, err := unix.Poll(pollFds, int(timeout.Milliseconds()))
	if err == unix.EINTR {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("poll: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	ready := make([]int, 0, n)
	for _, p := range pollFds {
		if p.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
			ready = append(ready, int(p.Fd))
		}
	}
	return ready, nil
}

// sockaddrString formats a socket address as host:port.
func sockaddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return fmt.Sprintf("%s:%d", net.IP(a.Addr[:]).String(), a.Port)
	case *unix.SockaddrInet6:
		return fmt.Sprintf("[%s]:%d", net.IP(a.Addr[:]).String(), a.Port)
	default:
		return "unknown"
	}
}

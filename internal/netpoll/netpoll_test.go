//go:build unix

package netpoll

import (
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

// dialListener connects a client to the listener and returns both ends.
func dialListener(t *testing.T, l *Listener) (net.Conn, *Conn) {
	t.Helper()

	type acceptResult struct {
		conn *Conn
		err  error
	}
	accepted := make(chan acceptResult, 1)
	go func() {
		c, err := l.Accept()
		accepted <- acceptResult{conn: c, err: err}
	}()

	client, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", itoa(l.Port())), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	res := <-accepted
	if res.err != nil {
		client.Close()
		t.Fatalf("Accept() error = %v", res.err)
	}
	return client, res.conn
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b [8]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}

func TestListenEphemeralPort(t *testing.T) {
	l, err := Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Close()

	if l.Port() == 0 {
		t.Error("Port() = 0, want kernel-assigned port")
	}
}

func TestListenInvalidHost(t *testing.T) {
	if _, err := Listen("not-an-ip", 0); err == nil {
		t.Error("Listen() expected error for invalid host, got nil")
	}
}

func TestReadWrite(t *testing.T) {
	l, err := Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Close()

	client, server := dialListener(t, l)
	defer client.Close()
	defer server.Close()

	if _, err := client.Write([]byte("hello")); err != nil {
		t.Fatalf("client write: %v", err)
	}

	buf := make([]byte, 16)
	n, err := server.Read(buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got := string(buf[:n]); got != "hello" {
		t.Errorf("Read() = %q, want %q", got, "hello")
	}

	if _, err := server.Write([]byte("world")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	n, err = client.Read(buf)
	if err != nil {
		t.Fatalf("client read: %v", err)
	}
	if got := string(buf[:n]); got != "world" {
		t.Errorf("client read = %q, want %q", got, "world")
	}
}

func TestReadEOFOnPeerClose(t *testing.T) {
	l, err := Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Close()

	client, server := dialListener(t, l)
	defer server.Close()

	client.Close()

	buf := make([]byte, 16)
	if _, err := server.Read(buf); !errors.Is(err, io.EOF) {
		t.Errorf("Read() after peer close error = %v, want io.EOF", err)
	}
}

func TestReadTimeout(t *testing.T) {
	l, err := Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Close()

	client, server := dialListener(t, l)
	defer client.Close()
	defer server.Close()

	if err := server.SetReadTimeout(50 * time.Millisecond); err != nil {
		t.Fatalf("SetReadTimeout() error = %v", err)
	}

	buf := make([]byte, 16)
	if _, err := server.Read(buf); !errors.Is(err, ErrTimeout) {
		t.Errorf("Read() error = %v, want ErrTimeout", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	l, err := Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Close()

	client, server := dialListener(t, l)
	defer client.Close()

	first := server.Close()
	second := server.Close()
	if first != second {
		t.Errorf("second Close() = %v, want same result as first (%v)", second, first)
	}
}

func TestWaitTimeout(t *testing.T) {
	l, err := Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Close()

	start := time.Now()
	ready, err := Wait([]int{l.FD()}, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if len(ready) != 0 {
		t.Errorf("Wait() returned %d ready fds, want 0", len(ready))
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("Wait() returned after %s, want at least ~50ms", elapsed)
	}
}

func TestWaitListenerReadable(t *testing.T) {
	l, err := Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Close()

	client, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", itoa(l.Port())), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	ready, err := Wait([]int{l.FD()}, time.Second)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if len(ready) != 1 || ready[0] != l.FD() {
		t.Fatalf("Wait() = %v, want [%d]", ready, l.FD())
	}

	server, err := l.Accept()
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	server.Close()
}

func TestWaitClientReadable(t *testing.T) {
	l, err := Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Close()

	client, server := dialListener(t, l)
	defer client.Close()
	defer server.Close()

	if _, err := client.Write([]byte("ping")); err != nil {
		t.Fatalf("client write: %v", err)
	}

	ready, err := Wait([]int{l.FD(), server.FD()}, time.Second)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	found := false
	for _, fd := range ready {
		if fd == server.FD() {
			found = true
		}
	}
	if !found {
		t.Errorf("Wait() = %v, want it to include client fd %d", ready, server.FD())
	}
}

func TestRemoteAddr(t *testing.T) {
	l, err := Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Close()

	client, server := dialListener(t, l)
	defer client.Close()
	defer server.Close()

	if !strings.HasPrefix(server.RemoteAddr(), "127.0.0.1:") {
		t.Errorf("RemoteAddr() = %q, want 127.0.0.1:<port>", server.RemoteAddr())
	}
}

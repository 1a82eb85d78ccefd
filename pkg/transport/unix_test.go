package transport

import (
	"errors"
	"net"
	"path/filepath"
	"testing"

	"httpwire/pkg/httperr"
)

func setupUnixTestServer(t *testing.T, serverLogic func(net.Conn)) (string, func()) {
	t.Helper()

	sockPath := filepath.Join(t.TempDir(), "test.sock")
	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("failed to create unix test server: %v", err)
	}

	done := make(chan struct{})
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			close(done)
			return
		}
		serverLogic(conn)
		conn.Close()
		close(done)
	}()

	cleanup := func() {
		listener.Close()
		<-done
	}

	return sockPath, cleanup
}

func TestUnixTransport_ConnectAndEcho(t *testing.T) {
	sockPath, cleanup := setupUnixTestServer(t, func(conn net.Conn) {
		buf := make([]byte, 1024)
		n, _ := conn.Read(buf)
		conn.Write(buf[:n])
	})
	defer cleanup()

	tr := NewUnixTransport()
	if err := tr.Connect(sockPath, 0); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer tr.Close()

	msg := "over the socket"
	if _, err := tr.Write([]byte(msg)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	buf := make([]byte, 64)
	n, err := tr.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(buf[:n]) != msg {
		t.Errorf("echoed %q, want %q", buf[:n], msg)
	}
}

func TestUnixTransport_PortIgnored(t *testing.T) {
	sockPath, cleanup := setupUnixTestServer(t, func(conn net.Conn) {})
	defer cleanup()

	tr := NewUnixTransport()
	if err := tr.Connect(sockPath, 9999); err != nil {
		t.Fatalf("Connect with nonzero port failed: %v", err)
	}
	tr.Close()
}

func TestUnixTransport_ConnectMissingSocket(t *testing.T) {
	tr := NewUnixTransport()
	err := tr.Connect(filepath.Join(t.TempDir(), "absent.sock"), 0)
	if !errors.Is(err, httperr.ErrSocketConnect) {
		t.Errorf("err = %v, want ErrSocketConnect", err)
	}
}

func TestUnixTransport_ReadConnectionClosed(t *testing.T) {
	sockPath, cleanup := setupUnixTestServer(t, func(conn net.Conn) {})
	defer cleanup()

	tr := NewUnixTransport()
	if err := tr.Connect(sockPath, 0); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer tr.Close()

	_, err := tr.Read(make([]byte, 16))
	if !errors.Is(err, httperr.ErrConnectionClosed) {
		t.Errorf("err = %v, want ErrConnectionClosed", err)
	}
}

package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"httpwire/pkg/httperr"
)

// TCPTransport implements Transport over a TCP connection.
type TCPTransport struct {
	conn net.Conn

	// DialTimeout bounds Connect. Zero means no limit; the protocol layer
	// itself never imposes timeouts.
	DialTimeout time.Duration
}

// NewTCPTransport returns an unconnected TCP transport.
func NewTCPTransport() *TCPTransport {
	return &TCPTransport{}
}

// Connect dials host:port and enables TCP_NODELAY.
func (t *TCPTransport) Connect(host string, port uint16) error {
	addr := fmt.Sprintf("%s:%d", host, port)

	conn, err := net.DialTimeout("tcp", addr, t.DialTimeout)
	if err != nil {
		return classifyDialError(err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			conn.Close()
			return httperr.Wrap(httperr.ErrTransportInit, "set TCP_NODELAY", err)
		}
	}

	t.conn = conn
	return nil
}

func (t *TCPTransport) Write(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, httperr.New(httperr.ErrSocketWrite, "not connected")
	}
	return writeConn(t.conn, buf)
}

func (t *TCPTransport) Read(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, httperr.New(httperr.ErrSocketRead, "not connected")
	}
	return readConn(t.conn, buf)
}

// Close closes the connection. Safe to call on an unconnected or already
// closed transport.
func (t *TCPTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	if err != nil {
		return httperr.Wrap(httperr.ErrSocketClose, "", err)
	}
	return nil
}

// classifyDialError maps net dial failures onto transport error kinds.
func classifyDialError(err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return httperr.Wrap(httperr.ErrDNSFailure, dnsErr.Name, err)
	}
	return httperr.Wrap(httperr.ErrSocketConnect, "", err)
}

func writeConn(conn net.Conn, buf []byte) (int, error) {
	n, err := conn.Write(buf)
	if err != nil {
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
			return n, httperr.Wrap(httperr.ErrConnectionClosed, "write", err)
		}
		return n, httperr.Wrap(httperr.ErrSocketWrite, "", err)
	}
	return n, nil
}

func readConn(conn net.Conn, buf []byte) (int, error) {
	n, err := conn.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, syscall.ECONNRESET) {
			return n, httperr.Wrap(httperr.ErrConnectionClosed, "read", err)
		}
		return n, httperr.Wrap(httperr.ErrSocketRead, "", err)
	}
	if n == 0 && len(buf) > 0 {
		return 0, httperr.New(httperr.ErrConnectionClosed, "read returned no data")
	}
	return n, nil
}

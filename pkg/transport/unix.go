package transport

import (
	"net"
	"time"

	"httpwire/pkg/httperr"
)

// UnixTransport implements Transport over a Unix domain stream socket.
type UnixTransport struct {
	conn net.Conn

	// DialTimeout bounds Connect. Zero means no limit.
	DialTimeout time.Duration
}

// NewUnixTransport returns an unconnected Unix socket transport.
func NewUnixTransport() *UnixTransport {
	return &UnixTransport{}
}

// Connect dials the socket at path. The port argument is ignored; it exists
// only to satisfy the Transport interface.
func (t *UnixTransport) Connect(path string, _ uint16) error {
	conn, err := net.DialTimeout("unix", path, t.DialTimeout)
	if err != nil {
		return httperr.Wrap(httperr.ErrSocketConnect, path, err)
	}
	t.conn = conn
	return nil
}

func (t *UnixTransport) Write(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, httperr.New(httperr.ErrSocketWrite, "not connected")
	}
	return writeConn(t.conn, buf)
}

func (t *UnixTransport) Read(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, httperr.New(httperr.ErrSocketRead, "not connected")
	}
	return readConn(t.conn, buf)
}

func (t *UnixTransport) Close() error {
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

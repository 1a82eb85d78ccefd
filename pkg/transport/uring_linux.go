//go:build linux

package transport

import (
	"fmt"
	"net"
	"syscall"

	"github.com/iceber/iouring-go"
	"golang.org/x/sys/unix"

	"httpwire/pkg/httperr"
)

const uringQueueDepth = 32

// URingTransport implements Transport over a raw TCP socket whose send and
// receive operations are submitted through io_uring. Behavior matches
// TCPTransport; only the I/O mechanism differs.
type URingTransport struct {
	ring   *iouring.IOURing
	fd     int
	closed bool
}

// NewURingTransport creates an io_uring instance and returns an unconnected
// transport. Callers must Destroy it to release the ring.
func NewURingTransport() (*URingTransport, error) {
	ring, err := iouring.New(uringQueueDepth)
	if err != nil {
		return nil, httperr.Wrap(httperr.ErrTransportInit, "io_uring setup", err)
	}
	return &URingTransport{ring: ring, fd: -1}, nil
}

// Connect resolves host:port, creates a non-blocking socket with TCP_NODELAY
// and submits the connect through the ring.
func (t *URingTransport) Connect(host string, port uint16) error {
	if t.fd >= 0 {
		return httperr.New(httperr.ErrSocketConnect, "already connected")
	}

	tcpAddr, err := net.ResolveTCPAddr("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return httperr.Wrap(httperr.ErrDNSFailure, host, err)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return httperr.Wrap(httperr.ErrSocketCreate, "", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return httperr.Wrap(httperr.ErrSocketCreate, "set nonblocking", err)
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		unix.Close(fd)
		return httperr.Wrap(httperr.ErrTransportInit, "set TCP_NODELAY", err)
	}

	var sa syscall.Sockaddr
	if ip4 := tcpAddr.IP.To4(); ip4 != nil {
		sa4 := &syscall.SockaddrInet4{Port: tcpAddr.Port}
		copy(sa4.Addr[:], ip4)
		sa = sa4
	} else {
		sa6 := &syscall.SockaddrInet6{Port: tcpAddr.Port}
		copy(sa6.Addr[:], tcpAddr.IP)
		sa = sa6
	}

	prep, err := iouring.Connect(fd, sa)
	if err != nil {
		unix.Close(fd)
		return httperr.Wrap(httperr.ErrSocketConnect, "prepare connect", err)
	}
	ch := make(chan iouring.Result, 1)
	if _, err := t.ring.SubmitRequest(prep, ch); err != nil {
		unix.Close(fd)
		return httperr.Wrap(httperr.ErrSocketConnect, "submit connect", err)
	}
	result := <-ch
	if _, err := result.ReturnInt(); err != nil {
		unix.Close(fd)
		return httperr.Wrap(httperr.ErrSocketConnect, tcpAddr.String(), err)
	}

	t.fd = fd
	return nil
}

// Write submits send operations until buf is fully written.
func (t *URingTransport) Write(buf []byte) (int, error) {
	if t.fd < 0 {
		return 0, httperr.New(httperr.ErrSocketWrite, "not connected")
	}
	if t.closed {
		return 0, httperr.New(httperr.ErrConnectionClosed, "")
	}

	written := 0
	for written < len(buf) {
		ch := make(chan iouring.Result, 1)
		if _, err := t.ring.SubmitRequest(iouring.Send(t.fd, buf[written:], 0), ch); err != nil {
			return written, httperr.Wrap(httperr.ErrSocketWrite, "submit send", err)
		}
		result := <-ch
		n, err := result.ReturnInt()
		if err != nil {
			return written, httperr.Wrap(httperr.ErrSocketWrite, "", err)
		}
		if n <= 0 {
			return written, httperr.New(httperr.ErrConnectionClosed, "peer closed during write")
		}
		written += n
	}
	return written, nil
}

// Read submits a single recv operation.
func (t *URingTransport) Read(buf []byte) (int, error) {
	if t.fd < 0 {
		return 0, httperr.New(httperr.ErrSocketRead, "not connected")
	}
	if t.closed {
		return 0, httperr.New(httperr.ErrConnectionClosed, "")
	}

	ch := make(chan iouring.Result, 1)
	if _, err := t.ring.SubmitRequest(iouring.Recv(t.fd, buf, 0), ch); err != nil {
		return 0, httperr.Wrap(httperr.ErrSocketRead, "submit recv", err)
	}
	result := <-ch
	n, err := result.ReturnInt()
	if err != nil {
		return 0, httperr.Wrap(httperr.ErrSocketRead, "", err)
	}
	if n == 0 && len(buf) > 0 {
		return 0, httperr.New(httperr.ErrConnectionClosed, "peer closed")
	}
	return n, nil
}

func (t *URingTransport) Close() error {
	if t.fd < 0 {
		return nil
	}
	if !t.closed {
		t.closed = true
		if err := unix.Close(t.fd); err != nil {
			return httperr.Wrap(httperr.ErrSocketClose, "", err)
		}
		t.fd = -1
	}
	return nil
}

// Destroy closes the connection and releases the io_uring instance.
func (t *URingTransport) Destroy() {
	t.Close()
	if t.ring != nil {
		t.ring.Close()
		t.ring = nil
	}
}

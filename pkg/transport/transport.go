// Package transport provides the stream-socket abstraction the HTTP/1.1
// engine sits on. Implementations connect to a peer, move raw bytes and
// surface connection close as a distinguished error kind.
package transport

// Transport is a blocking, single-connection byte stream.
type Transport interface {
	// Connect establishes a connection. For TCP transports host is a
	// hostname or address; for Unix transports host is the socket path and
	// port is ignored.
	Connect(host string, port uint16) error

	// Write sends buf and returns the number of bytes written.
	Write(buf []byte) (int, error)

	// Read fills buf and returns the number of bytes read. A peer close is
	// reported as httperr.ErrConnectionClosed, never as a bare zero count.
	Read(buf []byte) (int, error)

	// Close tears the connection down. Closing twice is not an error.
	Close() error
}

package client

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"httpwire/pkg/httperr"
	"httpwire/pkg/protocol"
)

// serveResponses accepts one connection and answers each request on it with
// the next canned response. Requests are delimited by the header separator;
// these tests send no request bodies the server would need to consume.
// Returns the bound address and a cleanup func.
func serveResponses(t *testing.T, network, addr string, responses ...string) (string, func()) {
	t.Helper()

	listener, err := net.Listen(network, addr)
	if err != nil {
		t.Fatalf("listen %s %s: %v", network, addr, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		var pending []byte
		buf := make([]byte, 4096)
		for _, response := range responses {
			for !bytes.Contains(pending, []byte("\r\n\r\n")) {
				n, err := conn.Read(buf)
				if err != nil {
					return
				}
				pending = append(pending, buf[:n]...)
			}
			i := bytes.Index(pending, []byte("\r\n\r\n"))
			pending = pending[i+4:]
			if _, err := conn.Write([]byte(response)); err != nil {
				return
			}
		}
	}()

	return listener.Addr().String(), func() {
		listener.Close()
		<-done
	}
}

func tcpServer(t *testing.T, responses ...string) (string, func()) {
	t.Helper()
	addr, cleanup := serveResponses(t, "tcp", "127.0.0.1:0", responses...)
	return "http://" + addr + "/", cleanup
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    endpoint
		wantErr bool
	}{
		{
			name: "host only",
			raw:  "http://example.com",
			want: endpoint{scheme: "http", host: "example.com", port: 80, path: "/"},
		},
		{
			name: "host with port and path",
			raw:  "http://example.com:8080/api/data",
			want: endpoint{scheme: "http", host: "example.com", port: 8080, path: "/api/data"},
		},
		{
			name: "default port with path",
			raw:  "http://example.com/index.html",
			want: endpoint{scheme: "http", host: "example.com", port: 80, path: "/index.html"},
		},
		{
			name: "unix socket",
			raw:  "unix:///var/run/app.sock",
			want: endpoint{scheme: "unix", host: "/var/run/app.sock", path: "/"},
		},
		{
			name:    "unsupported scheme",
			raw:     "ftp://example.com/",
			wantErr: true,
		},
		{
			name:    "missing host",
			raw:     "http:///path",
			wantErr: true,
		},
		{
			name:    "bad port",
			raw:     "http://example.com:http/",
			wantErr: true,
		},
		{
			name:    "empty unix path",
			raw:     "unix://",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveURL(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, httperr.ErrURLParse)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestGetSafe_EndToEnd(t *testing.T) {
	url, cleanup := tcpServer(t,
		"HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 13\r\n\r\nHello, World!")
	defer cleanup()

	c, err := New(url)
	require.NoError(t, err)
	defer c.Close()

	resp, err := c.GetSafe(&protocol.Request{Headers: []protocol.Header{{Key: "Host", Value: "example.com"}}})
	require.NoError(t, err)
	require.Equal(t, uint16(200), resp.StatusCode)
	require.Equal(t, "OK", resp.StatusMessage)
	require.Equal(t, "Hello, World!", string(resp.Body))
	require.Equal(t, 13, resp.ContentLength)
}

func TestConnectionReusedAcrossRequests(t *testing.T) {
	// Both responses are served on a single accepted connection; only one
	// connection is ever accepted, so a reconnect would never be answered.
	url, cleanup := tcpServer(t,
		"HTTP/1.1 200 OK\r\nContent-Length: 3\r\n\r\none",
		"HTTP/1.1 200 OK\r\nContent-Length: 3\r\n\r\ntwo",
	)
	defer cleanup()

	c, err := New(url)
	require.NoError(t, err)
	defer c.Close()

	first, err := c.GetSafe(&protocol.Request{Headers: []protocol.Header{{Key: "Host", Value: "x"}}})
	require.NoError(t, err)
	require.Equal(t, "one", string(first.Body))

	second, err := c.GetSafe(&protocol.Request{Headers: []protocol.Header{{Key: "Host", Value: "x"}}})
	require.NoError(t, err)
	require.Equal(t, "two", string(second.Body))
	require.Equal(t, "one", string(first.Body))
}

func TestGetUnsafe_EndToEnd(t *testing.T) {
	url, cleanup := tcpServer(t,
		"HTTP/1.1 404 Not Found\r\nContent-Length: 9\r\n\r\nnot found")
	defer cleanup()

	c, err := New(url)
	require.NoError(t, err)
	defer c.Close()

	resp, err := c.GetUnsafe(&protocol.Request{Headers: []protocol.Header{{Key: "Host", Value: "x"}}})
	require.NoError(t, err)
	require.Equal(t, uint16(404), resp.StatusCode)
	require.Equal(t, "Not Found", string(resp.StatusMessage))
	require.Equal(t, "not found", string(resp.Body))
}

func TestPostSafe_EndToEnd(t *testing.T) {
	url, cleanup := tcpServer(t,
		"HTTP/1.1 201 Created\r\nContent-Length: 2\r\n\r\nok")
	defer cleanup()

	c, err := New(url)
	require.NoError(t, err)
	defer c.Close()

	body := []byte(`{"key":"value"}`)
	resp, err := c.PostSafe(&protocol.Request{
		Path: "/api/data",
		Headers: []protocol.Header{
			{Key: "Host", Value: "x"},
			{Key: "Content-Type", Value: "application/json"},
			{Key: "Content-Length", Value: fmt.Sprintf("%d", len(body))},
		},
		Body: body,
	})
	require.NoError(t, err)
	require.Equal(t, uint16(201), resp.StatusCode)
}

func TestUnixSocket_EndToEnd(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "app.sock")
	_, cleanup := serveResponses(t, "unix", sockPath,
		"HTTP/1.1 200 OK\r\nContent-Length: 6\r\n\r\nsocket")
	defer cleanup()

	c, err := New("unix://" + sockPath)
	require.NoError(t, err)
	defer c.Close()

	resp, err := c.GetSafe(&protocol.Request{Headers: []protocol.Header{{Key: "Host", Value: "localhost"}}})
	require.NoError(t, err)
	require.Equal(t, "socket", string(resp.Body))
}

func TestValidation(t *testing.T) {
	// The URL points nowhere reachable: validation must fail before any
	// connection attempt, so no dial error can surface.
	newClient := func(t *testing.T) *HttpClient {
		c, err := New("http://127.0.0.1:1/")
		require.NoError(t, err)
		return c
	}

	t.Run("GET with body", func(t *testing.T) {
		c := newClient(t)
		_, err := c.GetSafe(&protocol.Request{Body: []byte("nope")})
		require.ErrorIs(t, err, httperr.ErrInvalidArgument)
	})

	t.Run("POST without body", func(t *testing.T) {
		c := newClient(t)
		_, err := c.PostSafe(&protocol.Request{
			Headers: []protocol.Header{{Key: "Content-Length", Value: "0"}},
		})
		require.ErrorIs(t, err, httperr.ErrInvalidArgument)
	})

	t.Run("POST without Content-Length", func(t *testing.T) {
		c := newClient(t)
		_, err := c.PostSafe(&protocol.Request{
			Headers: []protocol.Header{{Key: "Content-Type", Value: "application/json"}},
			Body:    []byte(`{"key":"value"}`),
		})
		require.ErrorIs(t, err, httperr.ErrInvalidArgument)
	})

	t.Run("POST with case-insensitive Content-Length", func(t *testing.T) {
		url, cleanup := tcpServer(t, "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")
		defer cleanup()

		c, err := New(url)
		require.NoError(t, err)
		defer c.Close()

		_, err = c.PostUnsafe(&protocol.Request{
			Headers: []protocol.Header{
				{Key: "Host", Value: "x"},
				{Key: "content-length", Value: "4"},
			},
			Body: []byte("data"),
		})
		require.NoError(t, err)
	})

	t.Run("POST with mismatched Content-Length", func(t *testing.T) {
		c := newClient(t)
		_, err := c.PostSafe(&protocol.Request{
			Headers: []protocol.Header{{Key: "Content-Length", Value: "99"}},
			Body:    []byte("four"),
		})
		require.ErrorIs(t, err, httperr.ErrInvalidArgument)
	})
}

func TestConnectFailurePropagates(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	c, err := New("http://" + addr + "/")
	require.NoError(t, err)

	_, err = c.GetSafe(&protocol.Request{Headers: []protocol.Header{{Key: "Host", Value: "x"}}})
	if !errors.Is(err, httperr.ErrSocketConnect) {
		t.Fatalf("err = %v, want ErrSocketConnect", err)
	}
}

func TestDefaultPathFromURL(t *testing.T) {
	url, cleanup := tcpServer(t, "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")
	defer cleanup()

	c, err := New(url)
	require.NoError(t, err)
	defer c.Close()

	req := &protocol.Request{Headers: []protocol.Header{{Key: "Host", Value: "x"}}}
	_, err = c.GetSafe(req)
	require.NoError(t, err)
	require.Equal(t, "/", req.Path)
}

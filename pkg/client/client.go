// Package client is the high-level API over the HTTP/1.1 engine: it
// validates requests, resolves URLs into transport endpoints and lazily
// establishes the transport+protocol pair on first use.
package client

import (
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"httpwire/pkg/httperr"
	"httpwire/pkg/logger"
	"httpwire/pkg/protocol"
	"httpwire/pkg/transport"
)

// HttpClient performs GET and POST requests against a single endpoint over
// one lazily-established connection. Not safe for concurrent use; create
// one client per connection for parallelism.
type HttpClient struct {
	endpoint endpoint
	proto    *protocol.Http1Protocol

	customTransport transport.Transport
	dialTimeout     time.Duration
	maxResponseSize int
	readChunkSize   int
	limiter         *rate.Limiter
}

// Option configures an HttpClient.
type Option func(*HttpClient)

// WithTransport substitutes the transport the client would derive from the
// URL scheme. The client takes ownership and closes it on Close.
func WithTransport(t transport.Transport) Option {
	return func(c *HttpClient) { c.customTransport = t }
}

// WithDialTimeout bounds connection establishment.
func WithDialTimeout(d time.Duration) Option {
	return func(c *HttpClient) { c.dialTimeout = d }
}

// WithMaxResponseSize caps buffered response size. Zero means unlimited.
func WithMaxResponseSize(n int) Option {
	return func(c *HttpClient) { c.maxResponseSize = n }
}

// WithReadChunkSize sets the engine's read chunk size.
func WithReadChunkSize(n int) Option {
	return func(c *HttpClient) { c.readChunkSize = n }
}

// WithRateLimit throttles requests client-side. Zero rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *HttpClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New resolves rawURL and returns an unconnected client. The connection is
// established on the first request.
func New(rawURL string, opts ...Option) (*HttpClient, error) {
	ep, err := resolveURL(rawURL)
	if err != nil {
		return nil, err
	}
	c := &HttpClient{endpoint: ep}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetSafe performs a GET request and returns a fully owned response. The
// request must not carry a body.
func (c *HttpClient) GetSafe(req *protocol.Request) (*protocol.Response, error) {
	if err := c.prepareGet(req); err != nil {
		return nil, err
	}
	return c.proto.PerformRequestSafe(req)
}

// GetUnsafe performs a GET request and returns a zero-copy response, valid
// only until the next call on this client.
func (c *HttpClient) GetUnsafe(req *protocol.Request) (*protocol.UnsafeResponse, error) {
	if err := c.prepareGet(req); err != nil {
		return nil, err
	}
	return c.proto.PerformRequestUnsafe(req)
}

// PostSafe performs a POST request and returns a fully owned response. The
// request must carry a non-empty body and a Content-Length header matching
// its length.
func (c *HttpClient) PostSafe(req *protocol.Request) (*protocol.Response, error) {
	if err := c.preparePost(req); err != nil {
		return nil, err
	}
	return c.proto.PerformRequestSafe(req)
}

// PostUnsafe performs a POST request and returns a zero-copy response,
// valid only until the next call on this client.
func (c *HttpClient) PostUnsafe(req *protocol.Request) (*protocol.UnsafeResponse, error) {
	if err := c.preparePost(req); err != nil {
		return nil, err
	}
	return c.proto.PerformRequestUnsafe(req)
}

// Close tears down the connection. The client may not be reused afterwards.
func (c *HttpClient) Close() error {
	if c.proto == nil {
		return nil
	}
	err := c.proto.Disconnect()
	c.proto = nil
	return err
}

func (c *HttpClient) prepareGet(req *protocol.Request) error {
	if len(req.Body) > 0 {
		return httperr.New(httperr.ErrInvalidArgument, "GET request cannot have a body")
	}
	req.Method = protocol.MethodGet
	return c.prepare(req)
}

func (c *HttpClient) preparePost(req *protocol.Request) error {
	if len(req.Body) == 0 {
		return httperr.New(httperr.ErrInvalidArgument, "POST request must have a body")
	}
	if err := validateContentLength(req); err != nil {
		return err
	}
	req.Method = protocol.MethodPost
	return c.prepare(req)
}

func (c *HttpClient) prepare(req *protocol.Request) error {
	if req.Path == "" {
		req.Path = c.endpoint.path
	}
	if err := c.ensureConnected(); err != nil {
		return err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(context.Background()); err != nil {
			return httperr.Wrap(httperr.ErrInvalidArgument, "rate limiter", err)
		}
	}
	c.logRequest(req)
	return nil
}

// validateContentLength requires a Content-Length header whose value equals
// the body length. The engine below serializes whatever it is given, so the
// check lives here.
func validateContentLength(req *protocol.Request) error {
	for _, h := range req.Headers {
		if !strings.EqualFold(h.Key, "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(h.Value))
		if err != nil || n != len(req.Body) {
			return httperr.New(httperr.ErrInvalidArgument,
				"Content-Length "+h.Value+" does not match body length "+strconv.Itoa(len(req.Body)))
		}
		return nil
	}
	return httperr.New(httperr.ErrInvalidArgument, "POST request must have a Content-Length header")
}

// ensureConnected builds the transport+protocol pair on first use.
func (c *HttpClient) ensureConnected() error {
	if c.proto != nil {
		return nil
	}

	t := c.customTransport
	if t == nil {
		switch c.endpoint.scheme {
		case "unix":
			t = &transport.UnixTransport{DialTimeout: c.dialTimeout}
		default:
			t = &transport.TCPTransport{DialTimeout: c.dialTimeout}
		}
	}

	proto := protocol.NewHttp1Protocol(t,
		protocol.WithMaxResponseSize(c.maxResponseSize),
		protocol.WithReadChunkSize(c.readChunkSize),
	)
	if err := proto.Connect(c.endpoint.host, c.endpoint.port); err != nil {
		return err
	}
	c.proto = proto
	return nil
}

func (c *HttpClient) logRequest(req *protocol.Request) {
	if logger.Log == nil {
		return
	}
	pairs := make([]logger.HeaderPair, 0, len(req.Headers))
	for _, h := range req.Headers {
		pairs = append(pairs, logger.HeaderPair{Key: h.Key, Value: h.Value})
	}
	logger.Debug("outgoing_request",
		"method", req.Method.String(),
		"target", c.endpoint.host,
		"path", req.Path,
		"headers", logger.SafeHeaders(pairs),
		"body_bytes", len(req.Body),
	)
}

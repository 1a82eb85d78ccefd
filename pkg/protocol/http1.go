// Package protocol implements the HTTP/1.1 request/response engine: it
// serializes requests into a reusable byte buffer, drives the transport read
// loop until a complete response is framed, and parses the buffer into
// either an owned (safe) or buffer-aliasing (unsafe) response.
package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"httpwire/pkg/httperr"
	"httpwire/pkg/logger"
	"httpwire/pkg/telemetry"
	"httpwire/pkg/transport"
)

var (
	headerSeparator  = []byte("\r\n\r\n")
	contentLengthKey = []byte("Content-Length")
)

const defaultReadChunkSize = 4096

// Http1Protocol drives one HTTP/1.1 exchange at a time over a single
// transport connection. The internal buffer is the sole owner of response
// bytes; it is cleared, not reallocated, between requests. Not safe for
// concurrent use; run one instance per connection.
type Http1Protocol struct {
	transport transport.Transport

	buffer        []byte
	headerSize    int // offset of first body byte, 0 = headers not located
	contentLength int // negative = unknown, framing is connection close

	readChunkSize   int
	maxResponseSize int // 0 = unlimited
}

// Option configures an Http1Protocol.
type Option func(*Http1Protocol)

// WithReadChunkSize sets the transport read chunk size. Purely a tuning
// knob; any positive size frames identically.
func WithReadChunkSize(n int) Option {
	return func(p *Http1Protocol) {
		if n > 0 {
			p.readChunkSize = n
		}
	}
}

// WithMaxResponseSize caps the total buffered response (headers plus body).
// Zero means unlimited.
func WithMaxResponseSize(n int) Option {
	return func(p *Http1Protocol) {
		if n >= 0 {
			p.maxResponseSize = n
		}
	}
}

// NewHttp1Protocol creates an engine bound to t for its whole lifetime.
func NewHttp1Protocol(t transport.Transport, opts ...Option) *Http1Protocol {
	p := &Http1Protocol{
		transport:     t,
		buffer:        make([]byte, 0, 1024),
		contentLength: ContentLengthUnknown,
		readChunkSize: defaultReadChunkSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect establishes the underlying transport connection.
func (p *Http1Protocol) Connect(host string, port uint16) error {
	return p.transport.Connect(host, port)
}

// Disconnect closes the underlying transport connection. Any UnsafeResponse
// still referencing the buffer is dangling afterwards.
func (p *Http1Protocol) Disconnect() error {
	return p.transport.Close()
}

// Reset clears the internal buffer, invalidating any outstanding
// UnsafeResponse.
func (p *Http1Protocol) Reset() {
	p.buffer = p.buffer[:0]
	p.headerSize = 0
	p.contentLength = ContentLengthUnknown
}

// PerformRequestSafe sends req and returns a response whose fields are
// independent copies, decoupled from the engine's buffer.
func (p *Http1Protocol) PerformRequestSafe(req *Request) (*Response, error) {
	parsed, err := p.perform(req)
	if err != nil {
		return nil, err
	}
	return p.materializeSafe(parsed), nil
}

// PerformRequestUnsafe sends req and returns a zero-copy response aliasing
// the engine's buffer. The result must not be used after the next request,
// Reset or Disconnect on this engine.
func (p *Http1Protocol) PerformRequestUnsafe(req *Request) (*UnsafeResponse, error) {
	parsed, err := p.perform(req)
	if err != nil {
		return nil, err
	}
	return p.materializeUnsafe(parsed), nil
}

func (p *Http1Protocol) perform(req *Request) (*parsedResponse, error) {
	start := time.Now()
	parsed, err := p.exchange(req)
	telemetry.ObserveRequest(req.Method.String(), err, time.Since(start))
	return parsed, err
}

func (p *Http1Protocol) exchange(req *Request) (*parsedResponse, error) {
	p.buildRequest(req)
	logger.Debug("http_request", "method", req.Method.String(), "path", req.Path, "bytes", len(p.buffer))

	if err := p.send(); err != nil {
		return nil, err
	}
	if err := p.readFullResponse(); err != nil {
		return nil, err
	}
	parsed, err := p.parseResponse()
	if err != nil {
		return nil, err
	}
	logger.Debug("http_response", "status", parsed.statusCode, "bytes", len(p.buffer))
	return parsed, nil
}

// buildRequest serializes req into the cleared buffer: request line, headers
// verbatim in caller order, blank line, then the body for POST. No escaping,
// deduplication or Host insertion happens here.
func (p *Http1Protocol) buildRequest(req *Request) {
	p.buffer = p.buffer[:0]

	p.buffer = append(p.buffer, req.Method.String()...)
	p.buffer = append(p.buffer, ' ')
	p.buffer = append(p.buffer, req.Path...)
	p.buffer = append(p.buffer, " HTTP/1.1\r\n"...)

	for _, h := range req.Headers {
		p.buffer = append(p.buffer, h.Key...)
		p.buffer = append(p.buffer, ": "...)
		p.buffer = append(p.buffer, h.Value...)
		p.buffer = append(p.buffer, "\r\n"...)
	}

	p.buffer = append(p.buffer, "\r\n"...)

	if req.Method == MethodPost && len(req.Body) > 0 {
		p.buffer = append(p.buffer, req.Body...)
	}
}

// send writes the whole buffer in one call. A short write is a failure, not
// resumed.
func (p *Http1Protocol) send() error {
	n, err := p.transport.Write(p.buffer)
	if err != nil {
		return err
	}
	if n != len(p.buffer) {
		return httperr.New(httperr.ErrSocketWrite, fmt.Sprintf("short write: %d of %d bytes", n, len(p.buffer)))
	}
	telemetry.BytesWritten.Add(float64(n))
	return nil
}

// readFullResponse appends transport reads to the buffer until the response
// is framed: either headerSize+contentLength bytes have arrived, or the peer
// closes the connection (legitimate end-of-body when no Content-Length was
// seen, incomplete-response failure when one was).
func (p *Http1Protocol) readFullResponse() error {
	p.buffer = p.buffer[:0]
	p.headerSize = 0
	p.contentLength = ContentLengthUnknown

	chunk := make([]byte, p.readChunkSize)

	for {
		n, err := p.transport.Read(chunk)

		closed := false
		if err != nil {
			if !errors.Is(err, httperr.ErrConnectionClosed) {
				return err
			}
			closed = true
		} else if n == 0 {
			closed = true
		}
		if closed {
			if p.contentLength >= 0 && len(p.buffer) < p.headerSize+p.contentLength {
				return httperr.New(httperr.ErrIncompleteResponse,
					fmt.Sprintf("connection closed after %d of %d body bytes", len(p.buffer)-p.headerSize, p.contentLength))
			}
			break
		}

		p.buffer = append(p.buffer, chunk[:n]...)
		telemetry.BytesRead.Add(float64(n))

		if p.maxResponseSize > 0 && len(p.buffer) > p.maxResponseSize {
			return httperr.New(httperr.ErrMessageTooLarge,
				fmt.Sprintf("buffered %d bytes, limit %d", len(p.buffer), p.maxResponseSize))
		}

		if p.headerSize == 0 {
			if pos := bytes.Index(p.buffer, headerSeparator); pos >= 0 {
				p.headerSize = pos + len(headerSeparator)
				p.contentLength = scanContentLength(p.buffer[:p.headerSize])
			}
		}

		if p.headerSize > 0 && p.contentLength >= 0 && len(p.buffer) >= p.headerSize+p.contentLength {
			break
		}
	}

	if p.headerSize == 0 {
		return httperr.New(httperr.ErrInvalidHeaders, "connection closed before header separator")
	}
	return nil
}

// scanContentLength returns the value of the first Content-Length header in
// the block, matched case-insensitively. The first occurrence with a
// numeric value wins; a non-numeric value is skipped and a negative one is
// reported as-is, which callers treat the same as unknown.
func scanContentLength(block []byte) int {
	lines := bytes.Split(block, []byte("\n"))
	for _, line := range lines[1:] { // status line carries no headers
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 {
			break
		}
		colon := bytes.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		if !bytes.EqualFold(line[:colon], contentLengthKey) {
			continue
		}
		value := string(bytes.TrimSpace(line[colon+1:]))
		if length, err := strconv.Atoi(value); err == nil {
			return length
		}
	}
	return ContentLengthUnknown
}

// span locates a byte range inside the engine's buffer. Materialization
// works purely from offsets so the safe and unsafe paths cannot disagree.
type span struct {
	off, n int
}

type headerSpan struct {
	key, value span
}

type parsedResponse struct {
	statusCode    uint16
	statusMessage span
	headers       []headerSpan
	body          span
	contentLength int
}

func (p *Http1Protocol) slice(s span) []byte {
	return p.buffer[s.off : s.off+s.n]
}

// parseResponse parses the framed buffer into offset spans. The header
// block is buffer[0 : headerSize-4]; the body follows at headerSize.
func (p *Http1Protocol) parseResponse() (*parsedResponse, error) {
	if p.headerSize == 0 {
		return nil, httperr.New(httperr.ErrInvalidHeaders, "no headers in buffer")
	}

	blockEnd := p.headerSize - len(headerSeparator)
	parsed := &parsedResponse{contentLength: p.contentLength}
	if parsed.contentLength < 0 {
		parsed.contentLength = ContentLengthUnknown
	}

	lineEnd := blockEnd
	if i := bytes.IndexByte(p.buffer[:blockEnd], '\n'); i >= 0 {
		lineEnd = i
	}
	statusEnd := lineEnd
	if statusEnd > 0 && p.buffer[statusEnd-1] == '\r' {
		statusEnd--
	}
	if err := p.parseStatusLine(statusEnd, parsed); err != nil {
		return nil, err
	}

	pos := lineEnd + 1
	for pos < blockEnd {
		end := blockEnd
		next := blockEnd
		if i := bytes.IndexByte(p.buffer[pos:blockEnd], '\n'); i >= 0 {
			end = pos + i
			next = end + 1
		}
		if end > pos && p.buffer[end-1] == '\r' {
			end--
		}
		if end == pos {
			break // blank line ends the header block
		}
		if colon := bytes.IndexByte(p.buffer[pos:end], ':'); colon >= 0 {
			valStart := pos + colon + 1
			for valStart < end && (p.buffer[valStart] == ' ' || p.buffer[valStart] == '\t') {
				valStart++
			}
			valEnd := end
			for valEnd > valStart && (p.buffer[valEnd-1] == ' ' || p.buffer[valEnd-1] == '\t') {
				valEnd--
			}
			parsed.headers = append(parsed.headers, headerSpan{
				key:   span{pos, colon},
				value: span{valStart, valEnd - valStart},
			})
		}
		// lines without a colon are skipped, not an error
		pos = next
	}

	bodyEnd := len(p.buffer)
	if p.contentLength >= 0 {
		bodyEnd = p.headerSize + p.contentLength
	}
	parsed.body = span{p.headerSize, bodyEnd - p.headerSize}

	return parsed, nil
}

// parseStatusLine splits buffer[0:end] on runs of spaces into version
// (discarded), status code and the remainder as the message.
func (p *Http1Protocol) parseStatusLine(end int, parsed *parsedResponse) error {
	line := p.buffer[:end]

	sp := bytes.IndexByte(line, ' ')
	if sp < 0 {
		return httperr.New(httperr.ErrInvalidStatusLine, fmt.Sprintf("malformed status line %q", line))
	}
	i := sp
	for i < len(line) && line[i] == ' ' {
		i++
	}
	j := i
	for j < len(line) && line[j] != ' ' {
		j++
	}
	code, err := strconv.ParseUint(string(line[i:j]), 10, 16)
	if err != nil {
		return httperr.Wrap(httperr.ErrInvalidStatusLine, fmt.Sprintf("status code %q", line[i:j]), err)
	}
	k := j
	for k < len(line) && line[k] == ' ' {
		k++
	}

	parsed.statusCode = uint16(code)
	parsed.statusMessage = span{k, len(line) - k}
	return nil
}

func (p *Http1Protocol) materializeSafe(parsed *parsedResponse) *Response {
	headers := make([]Header, len(parsed.headers))
	for i, hs := range parsed.headers {
		headers[i] = Header{
			Key:   string(p.slice(hs.key)),
			Value: string(p.slice(hs.value)),
		}
	}
	body := make([]byte, parsed.body.n)
	copy(body, p.slice(parsed.body))

	return &Response{
		StatusCode:    parsed.statusCode,
		StatusMessage: string(p.slice(parsed.statusMessage)),
		Headers:       headers,
		Body:          body,
		ContentLength: parsed.contentLength,
	}
}

func (p *Http1Protocol) materializeUnsafe(parsed *parsedResponse) *UnsafeResponse {
	headers := make([]HeaderView, len(parsed.headers))
	for i, hs := range parsed.headers {
		headers[i] = HeaderView{
			Key:   p.slice(hs.key),
			Value: p.slice(hs.value),
		}
	}

	return &UnsafeResponse{
		StatusCode:    parsed.statusCode,
		StatusMessage: p.slice(parsed.statusMessage),
		Headers:       headers,
		Body:          p.slice(parsed.body),
		ContentLength: parsed.contentLength,
	}
}

package protocol

// Method is the HTTP request method. Only the verbs the client exposes are
// defined.
type Method int

const (
	MethodGet Method = iota
	MethodPost
)

func (m Method) String() string {
	if m == MethodPost {
		return "POST"
	}
	return "GET"
}

// Header is an owned key/value pair. Used for caller-supplied request
// headers and for safe responses.
type Header struct {
	Key   string
	Value string
}

// HeaderView is a header whose key and value alias the protocol engine's
// internal buffer. Valid only as long as the owning UnsafeResponse is.
type HeaderView struct {
	Key   []byte
	Value []byte
}

// Request describes one HTTP request. The caller owns it; the engine only
// reads it while serializing.
type Request struct {
	Method  Method
	Path    string
	Headers []Header
	Body    []byte
}

// ContentLengthUnknown marks a response framed by connection close rather
// than an explicit Content-Length header.
const ContentLengthUnknown = -1

// Response is the safe, fully owned response form. Every field is an
// independent copy; it outlives the engine and its buffer.
type Response struct {
	StatusCode    uint16
	StatusMessage string
	Headers       []Header
	Body          []byte
	ContentLength int
}

// UnsafeResponse is the zero-copy response form. StatusMessage, header keys
// and values, and Body all alias the engine's internal buffer: the value is
// valid only until the next call that reuses or grows that buffer (the next
// request on the same engine, or Reset). The engine does not invalidate it.
type UnsafeResponse struct {
	StatusCode    uint16
	StatusMessage []byte
	Headers       []HeaderView
	Body          []byte
	ContentLength int
}

// Header returns the first header with the given key, matched
// case-insensitively, or "" when absent.
func (r *Response) Header(key string) string {
	for _, h := range r.Headers {
		if asciiEqualFold(h.Key, key) {
			return h.Value
		}
	}
	return ""
}

func asciiEqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

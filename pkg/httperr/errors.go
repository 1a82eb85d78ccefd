// Package httperr defines the error taxonomy shared by the transport,
// protocol and client layers. Each failure carries a kind sentinel so
// callers can branch with errors.Is without inspecting messages.
package httperr

import (
	"errors"
	"fmt"
)

// Transport kinds.
var (
	ErrDNSFailure       = errors.New("dns lookup failed")
	ErrSocketCreate     = errors.New("socket creation failed")
	ErrSocketConnect    = errors.New("socket connection failed")
	ErrSocketWrite      = errors.New("socket write failed")
	ErrSocketRead       = errors.New("socket read failed")
	ErrConnectionClosed = errors.New("connection closed")
	ErrSocketClose      = errors.New("socket close failed")
	ErrTransportInit    = errors.New("transport initialization failed")
)

// Protocol kinds.
var (
	ErrInvalidStatusLine  = errors.New("invalid status line")
	ErrInvalidHeaders     = errors.New("invalid response headers")
	ErrIncompleteResponse = errors.New("incomplete response")
	ErrMessageTooLarge    = errors.New("response exceeds size limit")
)

// Client kinds.
var (
	ErrInvalidArgument = errors.New("invalid request argument")
	ErrURLParse        = errors.New("url parsing failed")
)

// Error attaches a kind sentinel and context to an underlying cause.
type Error struct {
	Kind  error
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return e.Kind.Error()
}

// Is reports kind equality so errors.Is(err, httperr.ErrConnectionClosed)
// matches wrapped errors.
func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error of the given kind with a context message.
func New(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap returns an error of the given kind wrapping cause.
func Wrap(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

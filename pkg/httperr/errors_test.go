package httperr

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := Wrap(ErrConnectionClosed, "read", io.EOF)

	if !errors.Is(err, ErrConnectionClosed) {
		t.Error("errors.Is should match the kind sentinel")
	}
	if errors.Is(err, ErrSocketRead) {
		t.Error("errors.Is should not match a different kind")
	}
	if !errors.Is(err, io.EOF) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}

func TestErrorAs(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", New(ErrInvalidStatusLine, "bad line"))

	var e *Error
	if !errors.As(wrapped, &e) {
		t.Fatal("errors.As failed")
	}
	if e.Kind != ErrInvalidStatusLine {
		t.Errorf("kind = %v", e.Kind)
	}
}

func TestErrorString(t *testing.T) {
	cases := []struct {
		err  *Error
		want string
	}{
		{New(ErrDNSFailure, "example.invalid"), "dns lookup failed: example.invalid"},
		{&Error{Kind: ErrSocketClose}, "socket close failed"},
		{Wrap(ErrSocketRead, "", io.ErrUnexpectedEOF), "socket read failed: unexpected EOF"},
	}
	for _, c := range cases {
		if got := c.err.Error(); got != c.want {
			t.Errorf("Error() = %q, want %q", got, c.want)
		}
	}
}

package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/tidwall/gjson"
)

// Sentinel errors matched by *Error via errors.Is.
var (
	ErrTransport = errors.New("client: transport failure")
	ErrRejected  = errors.New("client: request rejected")
	ErrDecode    = errors.New("client: response decode failure")
	ErrTimeout   = errors.New("client: request timed out")
)

// Kind classifies a call failure.
type Kind int

const (
	// KindTransport: the server could not be reached, the connection broke or
	// the call timed out.
	KindTransport Kind = iota + 1
	// KindRejected: the server answered with a non-success status.
	KindRejected
	// KindDecode: the server answered with success but the body was not a
	// valid response envelope.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRejected:
		return "rejected"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is returned by every failing client call after the request has been
// built.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Status     string
	// Detail is the server supplied reason for a rejection.
	Detail string
	// Body is the raw response body of a rejection.
	Body []byte
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("client: ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch e.Kind {
	case KindRejected:
		b.WriteString("rejected")
		if e.StatusCode != 0 || e.Status != "" {
			fmt.Fprintf(&b, " with %s", statusText(e))
		}
		if e.Detail != "" {
			b.WriteString(": ")
			b.WriteString(e.Detail)
		}
	case KindDecode:
		b.WriteString("decode failed")
	case KindTransport:
		if e.Timeout() {
			b.WriteString("timed out")
		} else {
			b.WriteString("transport failed")
		}
	default:
		b.WriteString("failed")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func statusText(e *Error) string {
	if e.Status != "" {
		return e.Status
	}
	return fmt.Sprintf("status %d", e.StatusCode)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind and, for timeouts, ErrTimeout.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrRejected:
		return e.Kind == KindRejected
	case ErrDecode:
		return e.Kind == KindDecode
	case ErrTimeout:
		return e.Timeout()
	}
	return false
}

// Timeout reports whether the failure was caused by the call deadline.
func (e *Error) Timeout() bool {
	if e.Kind != KindTransport || e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

func transportError(op string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

func decodeError(op string, err error) *Error {
	return &Error{Kind: KindDecode, Op: op, Err: err}
}

func rejectedError(op string, statusCode int, status string, body []byte) *Error {
	return &Error{
		Kind:       KindRejected,
		Op:         op,
		StatusCode: statusCode,
		Status:     status,
		Detail:     detail(body),
		Body:       body,
	}
}

// detail extracts the reason of a rejection. The server reports it under
// "detail" as a string or as a list of validation errors.
func detail(body []byte) string {
	if gjson.ValidBytes(body) {
		d := gjson.GetBytes(body, "detail")
		switch {
		case d.Type == gjson.String:
			return d.String()
		case d.IsArray():
			msgs := make([]string, 0, len(d.Array()))
			for _, item := range d.Array() {
				if m := item.Get("msg"); m.Exists() {
					msgs = append(msgs, m.String())
				} else {
					msgs = append(msgs, item.Raw)
				}
			}
			return strings.Join(msgs, "; ")
		case d.Exists():
			return d.Raw
		}
		if m := gjson.GetBytes(body, "message"); m.Type == gjson.String {
			return m.String()
		}
	}
	return strings.TrimSpace(string(body))
}

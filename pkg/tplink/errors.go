package tplink

import "fmt"

// ErrorKind classifies a failed device operation. Every error returned
// from this package carries exactly one kind so callers can render a
// structured failure without inspecting message strings.
type ErrorKind string

const (
	// KindConnect covers refused, unreachable, and timed out TCP connects.
	KindConnect ErrorKind = "connect_error"

	// KindProtocol covers short reads of the length header or body and
	// responses that do not decrypt to valid JSON. Usually means the
	// target is not speaking the Kasa protocol on that port.
	KindProtocol ErrorKind = "protocol_error"

	// KindParse means the response was valid JSON but an expected field
	// (relay_state, children, etc.) was missing.
	KindParse ErrorKind = "parse_error"

	// KindNotFound means a requested child outlet id does not exist on
	// the target device.
	KindNotFound ErrorKind = "not_found"

	// KindUnsupported means the device rejected a command it does not
	// implement (e.g. emeter on a non-metering plug).
	KindUnsupported ErrorKind = "unsupported"
)

// Error is the single error type crossing the package boundary.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// AsError coerces any error into a *Error so CLI and daemon layers can
// always marshal a {kind, message} object. Non-package errors map to a
// protocol error.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Kind: KindProtocol, Message: err.Error()}
}

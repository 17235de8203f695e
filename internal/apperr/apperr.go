// Package apperr provides the error taxonomy shared across webcore.
//
// Every error that crosses a component boundary is a *Error carrying one of
// the Kind values below, so callers (the bridge, the orchestrator, tests)
// can switch on the kind instead of string-matching messages. This
// generalizes the teacher's AppError (code + message + details + status)
// to a framework with no HTTP layer of its own.
package apperr

import "fmt"

// Kind is a coarse error category. It is not a Go type hierarchy — just an
// enum used for dispatch and for deciding propagation policy (§7).
type Kind string

const (
	KindCommandUnknown         Kind = "command-unknown"
	KindCommandDispatch        Kind = "command-dispatch"
	KindPermissionDenied       Kind = "permission-denied"
	KindIPCMalformed           Kind = "ipc-malformed"
	KindLibraryLoad            Kind = "library-load"
	KindPluginLoad             Kind = "plugin-load"
	KindUpdateCheck            Kind = "update-check"
	KindSignatureVerification  Kind = "signature-verification"
	KindFatal                  Kind = "fatal"
)

// Error is the concrete error type raised by every webcore component.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that chains an underlying cause. The resulting
// message is always the message argument; a caller that must preserve the
// cause's own text (dispatch errors, spec §4.5) passes it in as message.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is an *Error of the given kind, unwrapping as
// needed so wrapped causes are still classifiable.
func Is(err error, kind Kind) bool {
	for err != nil {
		if ae, ok := err.(*Error); ok {
			if ae.Kind == kind {
				return true
			}
			err = ae.Cause
			continue
		}
		break
	}
	return false
}

// Message returns the human-readable message for an error, unwrapping one
// level of *Error if the error itself isn't one (spec §4.4: "extract the
// human message (unwrap one level if wrapped)").
func Message(err error) string {
	if err == nil {
		return ""
	}
	if ae, ok := err.(*Error); ok {
		return ae.Message
	}
	if u, ok := err.(interface{ Unwrap() error }); ok {
		if ae, ok := u.Unwrap().(*Error); ok {
			return ae.Message
		}
	}
	return err.Error()
}

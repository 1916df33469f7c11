// Package failure defines the error kinds every operation reports to callers.
//
// A kind is a sentinel error. Errors built with Wrap or New match both their
// kind and their cause through errors.Is, so transports map kinds to status
// codes without knowing which package failed.
package failure

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	// ErrValidation marks missing or malformed client input.
	ErrValidation = errors.New("validation failed")
	// ErrAuthentication marks an absent, invalid or unverifiable token.
	ErrAuthentication = errors.New("authentication failed")
	// ErrUpstream marks a network or protocol error from an external service.
	ErrUpstream = errors.New("upstream failure")
	// ErrNotFound marks a reference to a record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration marks a missing backend credential or setting.
	ErrConfiguration = errors.New("configuration failure")
)

var kinds = []error{ErrValidation, ErrAuthentication, ErrUpstream, ErrNotFound, ErrConfiguration}

// Error carries the operation, kind and human readable cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap attaches op and kind to err. A nil err yields nil.
func Wrap(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// New builds an error of kind with a plain message.
func New(op string, kind error, msg string) error {
	return &Error{Op: op, Kind: kind, Err: errors.New(msg)}
}

// Newf is New with formatting.
func Newf(op string, kind error, format string, args ...any) error {
	return &Error{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the first known kind err matches, or nil.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Code returns a short machine readable name for err's kind.
func Code(err error) string {
	switch KindOf(err) {
	case ErrValidation:
		return "validation_failed"
	case ErrAuthentication:
		return "unauthorized"
	case ErrUpstream:
		return "upstream_failure"
	case ErrNotFound:
		return "not_found"
	case ErrConfiguration:
		return "configuration_failure"
	default:
		return "internal_error"
	}
}

// Package apperr carries the error taxonomy shared by every endpoint:
// invalid input, missing configuration, upstream failure and everything else.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnexpected Kind = iota
	KindInvalidInput
	KindConfiguration
	KindUpstream
	KindUnauthorized
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindConfiguration:
		return "configuration"
	case KindUpstream:
		return "upstream"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	default:
		return "unexpected"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidInput reports a missing or malformed request field.
func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Msg: fmt.Sprintf(format, args...)}
}

// MissingSetting reports a configuration value that must be set before the
// operation can reach the network.
func MissingSetting(name string) *Error {
	return &Error{Kind: KindConfiguration, Msg: fmt.Sprintf("Missing %s in server env", name)}
}

// Upstream reports a failed downstream call. msg is kept verbatim.
func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Msg: msg, Err: err}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

func NotFound(msg string, err error) *Error {
	return &Error{Kind: KindNotFound, Msg: msg, Err: err}
}

// Propagate wraps a failure coming out of a downstream stage. Errors that
// already carry a client-facing kind pass through untouched; anything else
// becomes Upstream with the nested message preserved.
func Propagate(stage string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindUpstream && ae.Kind != KindUnexpected {
		return err
	}
	return Upstream(stage+": "+err.Error(), err)
}

func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnexpected
}

func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// Status maps an error to the HTTP status the endpoints answer with.
func Status(err error) int {
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

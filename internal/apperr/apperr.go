// Package apperr defines the error taxonomy shared by the store, services and
// state hooks.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation and presentation.
type Kind string

const (
	KindAuthRequired   Kind = "auth_required"
	KindNotFound       Kind = "not_found"
	KindWrite          Kind = "write_failed"
	KindParse          Kind = "parse_failed"
	KindActivityRecord Kind = "activity_record_failed"
	KindTimeout        Kind = "timeout"
	KindInvalid        Kind = "invalid"
	KindForbidden      Kind = "forbidden"
)

// Sentinels for errors.Is. Any *Error with the same Kind matches.
var (
	ErrAuthRequired   = &Error{Kind: KindAuthRequired}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrWrite          = &Error{Kind: KindWrite}
	ErrParse          = &Error{Kind: KindParse}
	ErrActivityRecord = &Error{Kind: KindActivityRecord}
	ErrTimeout        = &Error{Kind: KindTimeout}
	ErrInvalid        = &Error{Kind: KindInvalid}
	ErrForbidden      = &Error{Kind: KindForbidden}
)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so wrapped errors compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func AuthRequired(op string) error { return New(KindAuthRequired, op, nil) }

func NotFound(op, what, id string) error {
	return New(KindNotFound, op, fmt.Errorf("%s %q not found", what, id))
}

func Invalid(op, msg string) error { return New(KindInvalid, op, errors.New(msg)) }

func Forbidden(op, msg string) error { return New(KindForbidden, op, errors.New(msg)) }

func Parse(op string, err error) error { return New(KindParse, op, err) }

func ActivityRecord(op string, err error) error { return New(KindActivityRecord, op, err) }

// Write wraps a backend failure. Timeouts and already-classified errors keep
// their kind.
func Write(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(KindTimeout, op, err)
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return New(KindWrite, op, err)
}

// KindOf returns the kind of the first *Error in the chain, or "".
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// HTTPStatus maps an error to the status code handlers render.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindAuthRequired:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalid, KindParse:
		return http.StatusBadRequest
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindWrite:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

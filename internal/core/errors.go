package core

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match them with errors.Is; the HTTP layer maps each
// kind to a status code.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("conflict")
)

// Error carries a client-facing message together with its kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// NotFoundError reports a missing record, e.g. NotFoundError("user", 7)
// yields "No user: 7".
func NotFoundError(kind string, id any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf("No %s: %v", kind, id)}
}

func UnauthorizedError(msg string) error {
	return &Error{Kind: ErrUnauthorized, Msg: msg}
}

// BadRequestError wraps a validation failure so that both the kind and the
// underlying cause stay matchable.
func BadRequestError(cause error) error {
	return &Error{Kind: ErrBadRequest, Msg: cause.Error()}
}

func ConflictError(msg string) error {
	return &Error{Kind: ErrConflict, Msg: msg}
}

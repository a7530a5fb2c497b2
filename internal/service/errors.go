package service

import (
	"errors"

	"github.com/iliyamo/book-lending/internal/validation"
)

// Kind classifies a service failure.  The HTTP layer maps each kind onto a
// status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindStorage:
		return "storage"
	}
	return "internal"
}

// Error is the error type returned by every service operation.  Message is
// safe to show to clients; Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Fields  []validation.FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func invalid(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: []validation.FieldError{{Message: msg}}}
}

func invalidField(field, msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: []validation.FieldError{{Field: field, Message: msg}}}
}

// invalidFields wraps validator output; the first message doubles as the
// summary.
func invalidFields(fields []validation.FieldError) *Error {
	return &Error{Kind: KindValidation, Message: fields[0].Message, Fields: fields}
}

func notFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

func storage(msg string, err error) *Error {
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}

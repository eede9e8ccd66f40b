package core

import "github.com/pkg/errors"

// ErrForbidden is returned when an identity is not allowed to perform an operation.
var ErrForbidden = errors.New("you do not have permission to perform this action")

// ForbiddenError is an ErrForbidden carrying a specific reason.
type ForbiddenError struct {
	Reason string
}

func NewForbiddenError(reason string) error {
	return &ForbiddenError{Reason: reason}
}

func (err ForbiddenError) Error() string { return err.Reason }

func (err ForbiddenError) Is(target error) bool { return target == ErrForbidden }

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error {
	return err.Err
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

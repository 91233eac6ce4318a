package errors

import (
	"errors"
	"fmt"
)

// Coder is implemented by every error that maps onto a code in codeMap.
// Subsystems implement it on their own error types so the HTTP layer can
// translate them without importing them.
type Coder interface {
	ErrorCode() int
}

// Detailer exposes the part of an error that may be shown to clients in
// release mode. The wrapped chain never is.
type Detailer interface {
	PublicDetail() string
}

// AppError is a coded error with an optional client-safe detail and cause.
type AppError struct {
	Code   int
	Detail string
	Err    error
}

func (e *AppError) Error() string {
	msg := FormatError(e.Code, e.Detail)
	if e.Err == nil {
		return fmt.Sprintf("[%d] %s", e.Code, msg)
	}
	return fmt.Sprintf("[%d] %s: %v", e.Code, msg, e.Err)
}

func (e *AppError) Unwrap() error        { return e.Err }
func (e *AppError) ErrorCode() int       { return e.Code }
func (e *AppError) PublicDetail() string { return e.Detail }

// WithCause sets the wrapped error, typically a package sentinel so that
// errors.Is keeps working on errors that carry a per-call detail.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// New creates an AppError; only the first detail is kept
func New(code int, detail ...string) *AppError {
	e := &AppError{Code: code}
	if len(detail) > 0 {
		e.Detail = detail[0]
	}
	return e
}

func Newf(code int, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches code to err. An error that already carries a code keeps it,
// so the innermost layer decides the status.
func Wrap(err error, code int, detail ...string) error {
	if err == nil {
		return nil
	}
	var coder Coder
	if errors.As(err, &coder) {
		return err
	}
	return New(code, detail...).WithCause(err)
}

func Wrapf(err error, code int, format string, args ...interface{}) error {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Is reports whether err carries code
func Is(err error, code int) bool {
	var coder Coder
	return errors.As(err, &coder) && coder.ErrorCode() == code
}

// ExtractCode returns the code carried by err, ErrInternalServer otherwise
func ExtractCode(err error) int {
	var coder Coder
	if errors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ErrInternalServer
}

func GetDetails(err error) string {
	var d Detailer
	if errors.As(err, &d) {
		return d.PublicDetail()
	}
	return ""
}

// Package errs provides the error type handlers return to the web layer.
// An Error carries a code that maps to an HTTP status and the location it
// was created at for logging.
package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// ErrCode classifies an error for the caller.
type ErrCode int

const (
	OK ErrCode = iota
	InvalidArgument
	NotFound
	AlreadyExists
	FailedPrecondition
	Unimplemented
	Unavailable
	Internal
	// InternalOnlyLog is logged in full but answered as a bare 500.
	InternalOnlyLog
)

var codeStatus = map[ErrCode]int{
	OK:                 http.StatusOK,
	InvalidArgument:    http.StatusBadRequest,
	NotFound:           http.StatusNotFound,
	AlreadyExists:      http.StatusConflict,
	FailedPrecondition: http.StatusUnprocessableEntity,
	Unimplemented:      http.StatusNotImplemented,
	Unavailable:        http.StatusServiceUnavailable,
	Internal:           http.StatusInternalServerError,
	InternalOnlyLog:    http.StatusInternalServerError,
}

var codeNames = map[ErrCode]string{
	OK:                 "ok",
	InvalidArgument:    "invalid_argument",
	NotFound:           "not_found",
	AlreadyExists:      "already_exists",
	FailedPrecondition: "failed_precondition",
	Unimplemented:      "unimplemented",
	Unavailable:        "unavailable",
	Internal:           "internal",
	InternalOnlyLog:    "internal",
}

func (c ErrCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// HTTPStatus maps the code to a status, 500 for unknown codes.
func (c ErrCode) HTTPStatus() int {
	if status, ok := codeStatus[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is an application error that also encodes itself as a response.
type Error struct {
	Code     ErrCode `json:"-"`
	Message  string  `json:"error"`
	FuncName string  `json:"-"`
	FileName string  `json:"-"`
	cause    error
}

// New wraps err with code. The message is err's text.
func New(code ErrCode, err error) *Error {
	e := newError(code, err.Error())
	e.cause = err
	return e
}

// Newf builds an error from a format string.
func Newf(code ErrCode, format string, v ...any) *Error {
	return newError(code, fmt.Sprintf(format, v...))
}

func newError(code ErrCode, msg string) *Error {
	e := &Error{Code: code, Message: msg}
	if pc, file, line, ok := runtime.Caller(2); ok {
		e.FileName = fmt.Sprintf("%s:%d", file, line)
		if fn := runtime.FuncForPC(pc); fn != nil {
			e.FuncName = fn.Name()
		}
	}
	return e
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Encode implements web.Encoder.
func (e *Error) Encode() ([]byte, string, error) {
	data, err := json.Marshal(e)
	return data, "application/json; charset=utf-8", err
}

// HTTPStatus implements the web layer's status lookup.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// IsError reports whether err is an *Error.
func IsError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// GetError returns the *Error inside err, nil when there is none.
func GetError(err error) *Error {
	var e *Error
	if !errors.As(err, &e) {
		return nil
	}
	return e
}

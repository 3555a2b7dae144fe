package utils

import (
	"fmt"
	"net/http"
)

// ErrorKind is the machine-readable classification clients branch on.
type ErrorKind string

const (
	KindNotFound        ErrorKind = "not_found"
	KindForbidden       ErrorKind = "forbidden"
	KindConflict        ErrorKind = "conflict"
	KindInvalidState    ErrorKind = "invalid_state"
	KindInvalidArgument ErrorKind = "invalid_argument"
)

// AppError is an expected, caller-recoverable failure. Anything else
// coming out of the service layer is treated as an internal fault.
type AppError struct {
	Kind    ErrorKind              `json:"kind"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindInvalidState:
		return http.StatusUnprocessableEntity
	case KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func InvalidArgument(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches structured context (e.g. current status and the
// allowed transitions) for client messaging.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

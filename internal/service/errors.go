package service

import (
	"errors"
	"net/http"
)

// Error is a service-level failure with the HTTP status the handler should
// answer with. Validation problems are 4xx and never retried; upstream
// dependency failures map to 502.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// HTTPStatus extracts the status from a service error, defaulting to 500.
func HTTPStatus(err error) int {
	var se *Error
	if errors.As(err, &se) {
		return se.Status
	}
	return http.StatusInternalServerError
}

// Package errno defines coded errors: sentinels that carry the HTTP status
// and stable code they surface with at the service boundary.
package errno

import (
	"errors"
	"net/http"
)

// Error is a sentinel with a transport mapping. Compare with errors.Is.
type Error struct {
	Status  int
	Code    string
	Message string
}

// New returns a new coded sentinel.
func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// ErrInternal is reported for errors that carry no code.
var ErrInternal = New(http.StatusInternalServerError, "internal", "internal error")

// Decode returns the status and code of the first coded error in err's chain.
func Decode(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}

	var coded *Error
	if errors.As(err, &coded) {
		return coded.Status, coded.Code
	}
	return ErrInternal.Status, ErrInternal.Code
}

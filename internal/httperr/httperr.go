// Package httperr carries the error taxonomy of the API: every service
// failure is an *Error with an HTTP status and a client-visible detail
// string, written as a {"detail": ...} JSON body.
package httperr

import (
	"encoding/json"
	"errors"
	"net/http"
)

type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string { return e.Detail }

// NotFound is a missing project, layer, measurement or user.
func NotFound(detail string) *Error {
	return &Error{Status: http.StatusNotFound, Detail: detail}
}

// Forbidden is a failed ownership check.
func Forbidden() *Error {
	return &Error{Status: http.StatusForbidden, Detail: "Not enough permissions"}
}

// Conflict is a duplicate username or email.
func Conflict(detail string) *Error {
	return &Error{Status: http.StatusBadRequest, Detail: detail}
}

// Validation is a malformed body, missing required field or bad geometry.
func Validation(detail string) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Detail: detail}
}

// Auth is a bad credential or inactive account at login.
func Auth(detail string) *Error {
	return &Error{Status: http.StatusBadRequest, Detail: detail}
}

// Unauthorized is a missing, invalid or expired bearer token.
func Unauthorized(detail string) *Error {
	return &Error{Status: http.StatusUnauthorized, Detail: detail}
}

// Internal is a storage or database failure surfaced as a generic server
// error.
func Internal(detail string) *Error {
	return &Error{Status: http.StatusInternalServerError, Detail: detail}
}

// Write sends err as a JSON error response. Errors outside the taxonomy
// become a generic 500.
func Write(w http.ResponseWriter, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = Internal("Internal server error")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	json.NewEncoder(w).Encode(map[string]string{"detail": e.Detail})
}

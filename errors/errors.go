package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Core taxonomy surfaced by the room registry and the broadcaster.
var (
	ErrConflict          = fmt.Errorf("conflict")
	ErrNotFound          = fmt.Errorf("not found")
	ErrForbidden         = fmt.Errorf("forbidden")
	ErrUnauthenticated   = fmt.Errorf("unauthenticated")
	ErrStoreUnavailable  = fmt.Errorf("store unavailable")
	ErrInvalidEvent      = fmt.Errorf("invalid event")
	ErrInvalidTransition = fmt.Errorf("invalid room status transition")
	ErrInvalidRole       = fmt.Errorf("invalid participant role")
	ErrInvalidRequest    = fmt.Errorf("invalid request")
)

// Identity collaborator.
var (
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)

// Runtime.
var (
	ErrSinkFull    = fmt.Errorf("connection sink full")
	ErrSinkClosed  = fmt.Errorf("connection sink closed")
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")
)

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// MapToHTTPStatus translates a domain error into the status code returned by the API.
// Unknown errors are reported as internal failures.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case Is(err, ErrConflict), Is(err, ErrUserAlreadyExists), Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case Is(err, ErrNotFound):
		return http.StatusNotFound
	case Is(err, ErrForbidden):
		return http.StatusForbidden
	case Is(err, ErrUnauthenticated), Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case Is(err, ErrInvalidEvent), Is(err, ErrInvalidRole),
		Is(err, ErrInvalidRequest), Is(err, ErrInvalidPassword):
		return http.StatusBadRequest
	case Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Code is the short machine-readable error identifier sent in API responses.
func Code(err error) string {
	switch {
	case Is(err, ErrConflict), Is(err, ErrUserAlreadyExists):
		return "conflict"
	case Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case Is(err, ErrNotFound):
		return "not_found"
	case Is(err, ErrForbidden):
		return "forbidden"
	case Is(err, ErrUnauthenticated), Is(err, ErrInvalidCredentials):
		return "unauthenticated"
	case Is(err, ErrInvalidEvent):
		return "invalid_event"
	case Is(err, ErrInvalidRole), Is(err, ErrInvalidRequest), Is(err, ErrInvalidPassword):
		return "invalid_request"
	case Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal_error"
	}
}

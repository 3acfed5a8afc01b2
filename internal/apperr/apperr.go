// Package apperr defines the error taxonomy shared by services and handlers.
// Entitlement checks never return these; workflow transitions do, and the
// HTTP layer maps them to status codes in one place.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AuthorizationError: the caller lacks the role or tier for the operation.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

func Authorization(msg string) error { return &AuthorizationError{Msg: msg} }

func IsAuthorization(err error) bool {
	var e *AuthorizationError
	return errors.As(err, &e)
}

// ConflictError: a concurrent actor won (lost claim, duplicate approval).
// Surfaced to the user as a retryable message.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func Conflict(msg string) error { return &ConflictError{Msg: msg} }

func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

// NotFoundError: a referenced entity does not exist.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

func NotFound(msg string) error { return &NotFoundError{Msg: msg} }

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// ExternalServiceError: an identity/email/payment collaborator failed.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

func External(service string, err error) error {
	return &ExternalServiceError{Service: service, Err: err}
}

func IsExternal(err error) bool {
	var e *ExternalServiceError
	return errors.As(err, &e)
}

// HTTPStatus maps a taxonomy error to the status code handlers should write.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsAuthorization(err):
		return http.StatusForbidden
	case IsConflict(err):
		return http.StatusConflict
	case IsNotFound(err):
		return http.StatusNotFound
	case IsExternal(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Package server provides the HTTP REST API for the course content generator.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/coursecraft/internal/pipeline"
	"github.com/jonathan/coursecraft/internal/workflow"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrOperatorNotFound indicates the operator was not found
type ErrOperatorNotFound struct {
	OperatorID uuid.UUID
}

func (e *ErrOperatorNotFound) Error() string {
	return fmt.Sprintf("operator not found: %s", e.OperatorID)
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
// Workflow transition and route errors map to 409 Conflict because the
// request was well-formed but the session is not in a state that permits it.
func HTTPStatus(err error) int {
	var notFound *workflow.SessionNotFoundError
	var invalidTransition *workflow.InvalidTransitionError
	var routeCommitted *workflow.RouteCommittedError
	var missingData *workflow.MissingRequiredDataError
	var badRequest *pipeline.RequestError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &invalidTransition), errors.As(err, &routeCommitted):
		return http.StatusConflict
	case errors.As(err, &missingData):
		return http.StatusConflict
	case errors.As(err, &badRequest):
		return http.StatusBadRequest
	}

	switch err.(type) {
	case *ErrEmailAlreadyExists:
		return http.StatusConflict
	case *ErrInvalidCredentials, *ErrPasswordMismatch:
		return http.StatusUnauthorized
	case *ErrOperatorNotFound:
		return http.StatusNotFound
	case *ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Package apperror defines the error taxonomy shared by the portal's layers.
//
// Three kinds of failure reach a page:
//   - request errors from the API client (non-2xx status or a failed round trip)
//   - validation errors raised before a call is ever issued
//   - authentication-contract errors (a 2xx login response without a credential)
//
// Every kind carries a human-readable Message. Pages show that message as-is,
// so it must never contain internal details such as URLs or stack traces.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("Validation Error")
	ErrRequest    = errors.New("request failed")
	ErrAuth       = errors.New("authentication failed")
)

type AppError struct {
	Err     error  // sentinel this error belongs to
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Status  int    // Optional: HTTP status returned by the API (0 for network failures)
	Cause   error  // Optional: underlying error (transport failure, decode failure)
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the cause, so errors.Is works for
// apperror.ErrRequest as well as for context.Canceled and friends.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// RequestFailed builds the single error shape produced by the API client.
// status is 0 when the request never got a response.
func RequestFailed(status int, message string, cause error) *AppError {
	if message == "" {
		message = "Request failed"
	}
	return &AppError{
		Err:     ErrRequest,
		Message: message,
		Status:  status,
		Cause:   cause,
	}
}

// AuthFailed returns an error for a rejected or malformed authentication exchange.
func AuthFailed(message string, cause error) *AppError {
	return &AppError{
		Err:     ErrAuth,
		Message: message,
		Cause:   cause,
	}
}

// Message returns the user-facing text of err. Errors outside the taxonomy
// never carry user-facing text, so they get fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// StatusOf returns the API status code carried by err, or 0.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return 0
}

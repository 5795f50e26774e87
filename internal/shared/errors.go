package shared

import (
	"context"
	"errors"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
)

var (
	// ErrInvalidID indicates an identifier in the address could not be parsed.
	ErrInvalidID = errors.New("invalid identifier")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage turns an error into text suitable for a flash message.
// Backend messages are only surfaced for validation failures.
func UserSafeMessage(err error) string {
	var apiErr *api.Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to respond."
	case errors.Is(err, api.ErrUnauthorized):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, api.ErrNotFound):
		return "The record no longer exists."
	case errors.Is(err, api.ErrValidation):
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return apiErr.Message
		}
		return "The server rejected the submitted data."
	case errors.Is(err, ErrInvalidID):
		return "The address does not identify a record."
	default:
		return "Something went wrong while talking to the server."
	}
}

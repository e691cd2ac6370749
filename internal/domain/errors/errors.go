// Package errors defines the application error taxonomy. Every failure the
// delivery layer can surface maps to one of these values; anything else is
// treated as an internal error.
package errors

import (
	"net/http"

	"gestor/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// Predefined error types. The client-facing messages are deliberately
// uniform: a login failure never reveals which factor failed, and a refresh
// failure never reveals whether the token was missing, expired, mismatched
// or replayed. Internal logs carry the distinction.
var (
	// ErrInvalidCredentials covers every login failure: unknown identifier,
	// inactive account, client-only role set, or password mismatch.
	ErrInvalidCredentials = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"invalid credentials",
		"",
	)

	// ErrInvalidRefreshToken covers every refresh failure: missing, expired,
	// device mismatch, or reuse of a consumed credential.
	ErrInvalidRefreshToken = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_REFRESH_TOKEN",
		"invalid refresh token",
		"",
	)

	// ErrInvalidAccessToken is the uniform verification failure of the
	// access credential codec.
	ErrInvalidAccessToken = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_ACCESS_TOKEN",
		"could not validate credentials",
		"",
	)

	// ErrWeakSecret rejects passwords and PINs below the minimum policy.
	ErrWeakSecret = NewBaseError(
		http.StatusBadRequest,
		"WEAK_SECRET",
		"secret must be at least 8 characters long",
		"",
	)

	// ErrSecurityContextFailure aborts a request whose data-access session
	// could not be bound. Proceeding without a bound context would allow
	// unrestricted access.
	ErrSecurityContextFailure = NewBaseError(
		http.StatusInternalServerError,
		"SECURITY_CONTEXT_FAILURE",
		"security context failure",
		"",
	)

	// ErrMissingDeviceID rejects refresh and authenticated calls that arrive
	// without a device identity header.
	ErrMissingDeviceID = NewBaseError(
		http.StatusUnauthorized,
		"MISSING_DEVICE_ID",
		"could not validate credentials",
		"",
	)

	// ErrForbidden is the uniform privilege-resolution denial. The concrete
	// reason (cross-tenant, escalation, missing management role) stays in
	// internal logs.
	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"insufficient permission",
		"",
	)

	// ErrUserNotFound is returned by staff lookups, never by login.
	ErrUserNotFound = NewBaseError(
		http.StatusNotFound,
		"USER_NOT_FOUND",
		"user not found",
		"",
	)

	// ErrUserAlreadyExists guards unique login identifiers on provisioning.
	ErrUserAlreadyExists = NewBaseError(
		http.StatusConflict,
		"USER_ALREADY_EXISTS",
		"this email is already registered",
		"",
	)

	// ErrValidationFailed covers malformed or incomplete request input.
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"input validation failed",
		"",
	)

	// ErrInternalError is the generic fallback.
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"internal server error",
		"",
	)
)

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "database execution failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}

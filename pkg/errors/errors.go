package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// ErrorType classifies an error for handling and HTTP mapping.
type ErrorType string

const (
	// Domain errors
	ErrorTypeValidation       ErrorType = "VALIDATION"
	ErrorTypeNotFound         ErrorType = "NOT_FOUND"
	ErrorTypeConflict         ErrorType = "CONFLICT"
	ErrorTypeUnauthorized     ErrorType = "UNAUTHORIZED"
	ErrorTypeInvalidReference ErrorType = "INVALID_REFERENCE"
	ErrorTypeUnresolvedRef    ErrorType = "UNRESOLVED_BATCH_REFERENCE"

	// Application errors
	ErrorTypeInternal  ErrorType = "INTERNAL"
	ErrorTypeTimeout   ErrorType = "TIMEOUT"
	ErrorTypeRateLimit ErrorType = "RATE_LIMIT"

	// Infrastructure errors
	ErrorTypePersistence  ErrorType = "PERSISTENCE"
	ErrorTypeCollaborator ErrorType = "COLLABORATOR"
)

// AppError carries a classified error through the application. All error
// types here are recoverable: callers report them and keep the session
// alive rather than terminating.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode adds an error code.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails adds structured error details.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// captureStackTrace records the call stack at error construction time.
func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := ""
	for {
		frame, more := frames.Next()
		stack += fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return stack
}

// Constructor functions for common error types

// NewValidationError creates a validation error.
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		StackTrace: captureStackTrace(),
	}
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		StackTrace: captureStackTrace(),
	}
}

// NewConflictError creates a conflict error. Persistence raises it when a
// version-guarded write loses to a newer write.
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
		StackTrace: captureStackTrace(),
	}
}

// NewUnauthorizedError creates an unauthorized error.
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
		StackTrace: captureStackTrace(),
	}
}

// NewInvalidReference reports an operation that named a node or edge
// absent from the graph.
func NewInvalidReference(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidReference,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		StackTrace: captureStackTrace(),
	}
}

// NewUnresolvedBatchReference reports a proposed edit whose node
// reference could not be resolved against the graph or the batch's
// provisional ids. The edit is skipped; the rest of the batch proceeds.
func NewUnresolvedBatchReference(ref string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnresolvedRef,
		Message:    fmt.Sprintf("could not resolve reference %q", ref),
		HTTPStatus: http.StatusUnprocessableEntity,
		StackTrace: captureStackTrace(),
	}
}

// NewInternalError creates an internal error.
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(operation string) *AppError {
	return &AppError{
		Type:       ErrorTypeTimeout,
		Message:    fmt.Sprintf("operation '%s' timed out", operation),
		HTTPStatus: http.StatusRequestTimeout,
		StackTrace: captureStackTrace(),
	}
}

// NewRateLimitError creates a rate limit error.
func NewRateLimitError(limit int, window string) *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimit,
		Message:    fmt.Sprintf("rate limit exceeded: %d requests per %s", limit, window),
		HTTPStatus: http.StatusTooManyRequests,
		StackTrace: captureStackTrace(),
	}
}

// NewPersistenceError reports a failed save or load. Sessions continue
// in memory; the caller surfaces the failure without discarding state.
func NewPersistenceError(operation string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypePersistence,
		Message:    fmt.Sprintf("persistence operation '%s' failed", operation),
		Cause:      err,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// NewCollaboratorError reports an AI collaborator call that failed or
// returned an unusable response.
func NewCollaboratorError(message string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeCollaborator,
		Message:    message,
		Cause:      err,
		HTTPStatus: http.StatusBadGateway,
		StackTrace: captureStackTrace(),
	}
}

// Helper functions

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts an AppError from an error chain.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type.
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsConflict checks if an error is a version conflict.
func IsConflict(err error) bool {
	return IsType(err, ErrorTypeConflict)
}

// IsInvalidReference checks if an error names a missing node or edge.
func IsInvalidReference(err error) bool {
	return IsType(err, ErrorTypeInvalidReference)
}

// IsUnresolvedBatchReference checks if an error is an unresolved batch
// reference.
func IsUnresolvedBatchReference(err error) bool {
	return IsType(err, ErrorTypeUnresolvedRef)
}

// IsPersistence checks if an error came from the persistence layer.
func IsPersistence(err error) bool {
	return IsType(err, ErrorTypePersistence)
}

// IsCollaborator checks if an error came from the AI collaborator.
func IsCollaborator(err error) bool {
	return IsType(err, ErrorTypeCollaborator)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, add context to the message
	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

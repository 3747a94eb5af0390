package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed     = errors.New("validation failed")
	ErrBadRequest           = errors.New("bad request")
	ErrInvalidUploadRequest = errors.New("invalid upload request")
)

// Upload token errors
var (
	ErrTokenExpired = errors.New("upload token expired")
	ErrTokenInvalid = errors.New("invalid upload token")
)

// Upload session protocol errors. All of them move the session to a terminal
// state as a side effect before being surfaced.
var (
	ErrSessionExpired  = errors.New("upload session expired")
	ErrSessionInvalid  = errors.New("invalid upload session")
	ErrSessionConsumed = errors.New("upload session already consumed")
	ErrSizeMismatch    = errors.New("uploaded size does not match declared size")
)

// Storage errors. Storage faults are retryable from the caller's perspective;
// the whole upload or access flow may be repeated.
var (
	ErrStorageWrite = errors.New("object store write failed")
	ErrStorageRead  = errors.New("object store read failed")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err       error
	Message   string
	StatusMsg string
	Code      string
	Details   map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

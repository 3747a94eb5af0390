package dto

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized error codes
type ErrorCode string

// Standard error codes for the application
const (
	// Authentication errors
	ErrorCodeInvalidToken ErrorCode = "AUTH_001"
	ErrorCodeExpiredToken ErrorCode = "AUTH_002"
	ErrorCodeUnauthorized ErrorCode = "AUTH_003"

	// Resource errors
	ErrorCodeResourceNotFound ErrorCode = "RES_001"
	ErrorCodeAccessDenied     ErrorCode = "RES_002"

	// Validation errors
	ErrorCodeInvalidRequest   ErrorCode = "VAL_001"
	ErrorCodeValidationFailed ErrorCode = "VAL_002"

	// Upload protocol errors
	ErrorCodeSessionExpired  ErrorCode = "UPL_001"
	ErrorCodeSessionInvalid  ErrorCode = "UPL_002"
	ErrorCodeSessionConsumed ErrorCode = "UPL_003"
	ErrorCodeSizeMismatch    ErrorCode = "UPL_004"

	// Server errors
	ErrorCodeInternalServer ErrorCode = "SRV_001"
	ErrorCodeStorageFault   ErrorCode = "SRV_002"

	// Rate limiting
	ErrorCodeTooManyRequests ErrorCode = "RATE_001"
)

// DenyReason is the stable machine-readable reason attached to an
// authorization denial. Denials are first-class outcomes, not server faults;
// calling layers use the reason to decide between re-auth prompts,
// "not entitled" screens, or a generic error.
type DenyReason string

const (
	DenyReasonNotFound           DenyReason = "not_found"
	DenyReasonFileUnavailable    DenyReason = "file_unavailable"
	DenyReasonInsufficientTier   DenyReason = "insufficient_tier"
	DenyReasonDownloadDisabled   DenyReason = "download_disabled"
	DenyReasonStreamDisabled     DenyReason = "stream_disabled"
	DenyReasonGrantExpired       DenyReason = "grant_expired"
	DenyReasonQuotaExceeded      DenyReason = "quota_exceeded"
	DenyReasonContentRestricted  DenyReason = "content_restricted"
	DenyReasonSuspiciousActivity DenyReason = "suspicious_activity"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

// Severity levels
const (
	ErrorSeverityInfo     ErrorSeverity = "INFO"
	ErrorSeverityWarning  ErrorSeverity = "WARNING"
	ErrorSeverityError    ErrorSeverity = "ERROR"
	ErrorSeverityCritical ErrorSeverity = "CRITICAL"
)

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Code      ErrorCode     `json:"code" example:"RES_002"`
	Message   string        `json:"message" example:"You don't have permission to access this file"`
	Field     string        `json:"field,omitempty" example:"fileSize"`
	Severity  ErrorSeverity `json:"severity" example:"ERROR"`
	Details   interface{}   `json:"details,omitempty"`
	DebugInfo string        `json:"debugInfo,omitempty"`
}

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success   bool         `json:"success" example:"false"`
	Error     *ErrorDetail `json:"error"`
	Timestamp time.Time    `json:"timestamp" example:"2025-04-23T12:01:05.123Z"`
}

// NewErrorDetail creates a new error detail
func NewErrorDetail(code ErrorCode, message string) *ErrorDetail {
	return &ErrorDetail{
		Code:     code,
		Message:  message,
		Severity: ErrorSeverityError,
	}
}

// WithField adds a field name to the error detail
func (e *ErrorDetail) WithField(field string) *ErrorDetail {
	e.Field = field
	return e
}

// WithSeverity sets the severity level of the error
func (e *ErrorDetail) WithSeverity(severity ErrorSeverity) *ErrorDetail {
	e.Severity = severity
	return e
}

// WithDetails adds additional details to the error
func (e *ErrorDetail) WithDetails(details interface{}) *ErrorDetail {
	e.Details = details
	return e
}

// WithDebugInfo adds debug information (for development/testing only)
func (e *ErrorDetail) WithDebugInfo(format string, args ...interface{}) *ErrorDetail {
	e.DebugInfo = fmt.Sprintf(format, args...)
	return e
}

// NewErrorResponse creates a standard error response
func NewErrorResponse(errorDetail *ErrorDetail) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     errorDetail,
		Timestamp: time.Now(),
	}
}

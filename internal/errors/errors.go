// Package errors provides standardized error handling for the ClipHaven service.
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a standardized error code for the ClipHaven service.
type ErrorCode string

const (
	// Validation errors
	CH_VALIDATION    ErrorCode = "CH_VALIDATION"    // General validation error
	CH_SCHEMA_REJECT ErrorCode = "CH_SCHEMA_REJECT" // Payload schema validation failed
	CH_BAD_REQUEST   ErrorCode = "CH_BAD_REQUEST"   // Bad request

	// Authentication/Authorization errors
	CH_AUTHN       ErrorCode = "CH_AUTHN"       // Authentication failed
	CH_AUTHZ       ErrorCode = "CH_AUTHZ"       // Authorization failed
	CH_JWT_INVALID ErrorCode = "CH_JWT_INVALID" // Invalid session token
	CH_JWT_EXPIRED ErrorCode = "CH_JWT_EXPIRED" // Expired session token

	// Login gating
	CH_BLOCKED_PERMANENT ErrorCode = "CH_BLOCKED_PERMANENT" // Identity is permanently blocked
	CH_BLOCKED_TEMPORARY ErrorCode = "CH_BLOCKED_TEMPORARY" // Identity is blocked until a deadline

	// Resource errors
	CH_NOT_FOUND        ErrorCode = "CH_NOT_FOUND"        // Resource not found
	CH_CONFLICT         ErrorCode = "CH_CONFLICT"         // Resource conflict
	CH_MALFORMED_RECORD ErrorCode = "CH_MALFORMED_RECORD" // Stored blob failed to decode

	// Domain errors
	CH_INSUFFICIENT_CREDIT ErrorCode = "CH_INSUFFICIENT_CREDIT" // Credit counter already at zero
	CH_PARTIAL_CASCADE     ErrorCode = "CH_PARTIAL_CASCADE"     // One or more cascade steps failed

	// Server errors
	CH_INTERNAL    ErrorCode = "CH_INTERNAL"    // Internal server error
	CH_UNAVAILABLE ErrorCode = "CH_UNAVAILABLE" // Service unavailable
)

// Error represents a standardized error response.
type Error struct {
	Code          ErrorCode   `json:"code"`
	Message       string      `json:"message"`
	CorrelationID string      `json:"correlationId"`
	Details       interface{} `json:"details,omitempty"`
	HTTPStatus    int         `json:"-"`
}

// New creates a new Error with the specified code and message.
func New(code ErrorCode, message string, correlationID string) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
		HTTPStatus:    httpStatusCodeForCode(code),
	}
}

// NewWithDetails creates a new Error with the specified code, message, and details.
func NewWithDetails(code ErrorCode, message string, correlationID string, details interface{}) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
		Details:       details,
		HTTPStatus:    httpStatusCodeForCode(code),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %s (details: %v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// httpStatusCodeForCode maps error codes to HTTP status codes.
func httpStatusCodeForCode(code ErrorCode) int {
	switch code {
	case CH_VALIDATION, CH_SCHEMA_REJECT, CH_BAD_REQUEST:
		return http.StatusBadRequest
	case CH_AUTHZ, CH_BLOCKED_PERMANENT, CH_BLOCKED_TEMPORARY:
		return http.StatusForbidden
	case CH_AUTHN, CH_JWT_INVALID, CH_JWT_EXPIRED:
		return http.StatusUnauthorized
	case CH_NOT_FOUND:
		return http.StatusNotFound
	case CH_CONFLICT:
		return http.StatusConflict
	case CH_INSUFFICIENT_CREDIT:
		return http.StatusPaymentRequired
	case CH_PARTIAL_CASCADE:
		return http.StatusInternalServerError
	case CH_UNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

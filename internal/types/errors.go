package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants.
// All packages MUST use these constants instead of hardcoded strings.
const (
	// Validation (400). Never reaches the network.
	ErrCodeValidationMissingEndpoint ErrorCode = "validation_missing_endpoint"
	ErrCodeValidationSameEndpoints   ErrorCode = "validation_same_endpoints"
	ErrCodeValidationInvalidLat      ErrorCode = "validation_invalid_latitude"
	ErrCodeValidationInvalidLon      ErrorCode = "validation_invalid_longitude"
	ErrCodeValidationGridStep        ErrorCode = "validation_invalid_grid_step"
	ErrCodeValidationInvalidJSON     ErrorCode = "validation_invalid_json"

	// Not Found (404)
	ErrCodeNotFoundSession ErrorCode = "not_found_session"

	// Conflict (409)
	ErrCodeConflictOperationInFlight ErrorCode = "conflict_operation_in_flight"

	// Transport (502): no response was received from the routing service.
	ErrCodeTransportFailure ErrorCode = "transport_failure"

	// Service (502): the routing service answered with a non-success status.
	ErrCodeServiceError       ErrorCode = "service_error"
	ErrCodeServiceBadResponse ErrorCode = "service_bad_response"

	// Upstream (503): the local circuit breaker refused the call, or the
	// service reported a capability as unavailable.
	ErrCodeUpstreamUnavailable      ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamModelUnavailable ErrorCode = "upstream_model_unavailable"

	// Partial (207-equivalent, never returned over HTTP on its own).
	ErrCodePartialDataFailure ErrorCode = "partial_data_failure"

	// Internal (500)
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Used by the local API layer to translate AppErrors into HTTP responses.
// Returns 500 for unrecognized error codes as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case strings.HasPrefix(s, "conflict_"):
		return http.StatusConflict
	case strings.HasPrefix(s, "transport_"), strings.HasPrefix(s, "service_"):
		return http.StatusBadGateway
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusServiceUnavailable
	case strings.HasPrefix(s, "partial_"):
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the standard application error type used throughout the module.
// Errors produced by the routing service client carry the transport status
// code in Status (0 when no response was received); this is the uniform
// ServiceError surface callers observe.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"status,omitempty"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// IsTransport reports whether the error describes a call that got no response.
func (e *AppError) IsTransport() bool {
	return e.Code == ErrCodeTransportFailure || e.Code == ErrCodeUpstreamUnavailable
}

// WithDetails returns a copy of the error with the provided details merged in.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Status:  e.Status,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error. This is the standard constructor for domain errors.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewServiceError creates the AppError returned for a routing service response
// with a non-success status. message is the service's own error text when it
// sent one.
func NewServiceError(message string, status int, err error) *AppError {
	return &AppError{
		Code:    ErrCodeServiceError,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// CodeOf extracts the ErrorCode from an error chain, or "" if none is present.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether err (or an error it wraps) is an AppError with code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

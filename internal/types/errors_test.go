package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

// TestAppErrorImplementsError verifies that *AppError satisfies the error interface.
func TestAppErrorImplementsError(t *testing.T) {
	var _ error = (*AppError)(nil)
}

// TestAppErrorErrorFormat verifies the Error() method produces "code: message".
func TestAppErrorErrorFormat(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeValidationInvalidLat,
		Message: "latitude must be between -90 and 90",
	}

	expected := "validation_invalid_latitude: latitude must be between -90 and 90"
	if appErr.Error() != expected {
		t.Errorf("Error() = %q, want %q", appErr.Error(), expected)
	}
}

// TestAppErrorUnwrap verifies the error chain support via Unwrap.
func TestAppErrorUnwrap(t *testing.T) {
	underlying := errors.New("connection refused")
	appErr := NewAppError(ErrCodeTransportFailure, "CreateRoute: request failed", underlying)

	if appErr.Unwrap() != underlying {
		t.Errorf("Unwrap() = %v, want %v", appErr.Unwrap(), underlying)
	}
	if !errors.Is(appErr, underlying) {
		t.Error("errors.Is should find the underlying error")
	}
	if NewAppError(ErrCodeNotFoundSession, "no route", nil).Unwrap() != nil {
		t.Error("Unwrap() should return nil when Err is nil")
	}
}

// TestAppErrorErrorsAs verifies that errors.As can extract AppError from an error chain.
func TestAppErrorErrorsAs(t *testing.T) {
	appErr := NewServiceError("No sea route found", http.StatusUnprocessableEntity, nil)
	wrapped := fmt.Errorf("create route: %w", appErr)

	var target *AppError
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As failed to find *AppError in chain")
	}
	if target.Code != ErrCodeServiceError {
		t.Errorf("Code = %q, want %q", target.Code, ErrCodeServiceError)
	}
	if target.Status != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want %d", target.Status, http.StatusUnprocessableEntity)
	}
}

// TestCodeOfAndHasCode verifies code extraction from wrapped and foreign errors.
func TestCodeOfAndHasCode(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewAppError(ErrCodeConflictOperationInFlight, "busy", nil))

	if got := CodeOf(wrapped); got != ErrCodeConflictOperationInFlight {
		t.Errorf("CodeOf() = %q, want %q", got, ErrCodeConflictOperationInFlight)
	}
	if !HasCode(wrapped, ErrCodeConflictOperationInFlight) {
		t.Error("HasCode() = false, want true")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Error("CodeOf() on a plain error should be empty")
	}
	if HasCode(nil, ErrCodeServiceError) {
		t.Error("HasCode(nil) should be false")
	}
}

// TestIsTransport verifies which codes mean no response was received.
func TestIsTransport(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want bool
	}{
		{ErrCodeTransportFailure, true},
		{ErrCodeUpstreamUnavailable, true},
		{ErrCodeServiceError, false},
		{ErrCodeServiceBadResponse, false},
		{ErrCodeValidationSameEndpoints, false},
	}
	for _, tt := range tests {
		if got := NewAppError(tt.code, "x", nil).IsTransport(); got != tt.want {
			t.Errorf("IsTransport(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

// TestAppErrorWithDetails verifies details are merged into a copy.
func TestAppErrorWithDetails(t *testing.T) {
	original := NewAppError(ErrCodePartialDataFailure, "weather sampling incomplete", nil).
		WithDetails(map[string]any{"requested": 10})

	merged := original.WithDetails(map[string]any{"failed": 3, "requested": 9})

	if merged.Details["failed"] != 3 || merged.Details["requested"] != 9 {
		t.Errorf("merged details = %v", merged.Details)
	}
	if original.Details["requested"] != 10 {
		t.Errorf("original details mutated: %v", original.Details)
	}
	if _, ok := original.Details["failed"]; ok {
		t.Error("original should not gain new keys")
	}
	if merged.Code != original.Code || merged.Message != original.Message {
		t.Error("WithDetails must keep code and message")
	}
}

// TestErrorCodeHTTPStatusMapping verifies prefix-based status mapping.
func TestErrorCodeHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationMissingEndpoint, http.StatusBadRequest},
		{ErrCodeValidationSameEndpoints, http.StatusBadRequest},
		{ErrCodeValidationInvalidLat, http.StatusBadRequest},
		{ErrCodeValidationInvalidLon, http.StatusBadRequest},
		{ErrCodeValidationGridStep, http.StatusBadRequest},
		{ErrCodeValidationInvalidJSON, http.StatusBadRequest},
		{ErrCodeNotFoundSession, http.StatusNotFound},
		{ErrCodeConflictOperationInFlight, http.StatusConflict},
		{ErrCodeTransportFailure, http.StatusBadGateway},
		{ErrCodeServiceError, http.StatusBadGateway},
		{ErrCodeServiceBadResponse, http.StatusBadGateway},
		{ErrCodeUpstreamUnavailable, http.StatusServiceUnavailable},
		{ErrCodeUpstreamModelUnavailable, http.StatusServiceUnavailable},
		{ErrCodePartialDataFailure, http.StatusMultiStatus},
		{ErrCodeInternalUnexpected, http.StatusInternalServerError},
		{ErrorCode("something_new"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
			if got := NewAppError(tt.code, "x", nil).HTTPStatus(); got != tt.want {
				t.Errorf("AppError.HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

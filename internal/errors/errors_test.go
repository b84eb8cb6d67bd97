// Package apperrors provides tests for application error types.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestConfigError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		err         error
		expected    string
		checkTypeAs bool
	}{
		{
			name:     "Error returns message",
			err:      ConfigError{Message: "invalid flag value"},
			expected: "invalid flag value",
		},
		{
			name:     "NewConfigError creates formatted error",
			err:      NewConfigError("invalid value %d for flag %s", 0, "-cutoff"),
			expected: "invalid value 0 for flag -cutoff",
		},
		{
			name:        "ConfigError type assertion",
			err:         NewConfigError("test error"),
			expected:    "test error",
			checkTypeAs: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.err.Error())
			}
			if tt.checkTypeAs {
				var configErr ConfigError
				if !errors.As(tt.err, &configErr) {
					t.Error("expected error to be ConfigError type")
				}
			}
		})
	}
}

func TestPartialFailureError(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("sweep finished: %w", PartialFailureError{Failed: 1, Total: 6})
	var partial PartialFailureError
	if !errors.As(err, &partial) {
		t.Fatal("expected errors.As to find PartialFailureError")
	}
	if partial.Failed != 1 || partial.Total != 6 {
		t.Errorf("unexpected counts: %+v", partial)
	}
	if partial.Error() != "1 of 6 configurations failed" {
		t.Errorf("unexpected message %q", partial.Error())
	}
}

func TestServerError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		message     string
		cause       error
		expectedMsg string
	}{
		{
			name:        "Error with cause",
			message:     "failed to start metrics server",
			cause:       errors.New("bind failed"),
			expectedMsg: "failed to start metrics server: bind failed",
		},
		{
			name:        "Error without cause",
			message:     "server stopped",
			expectedMsg: "server stopped",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := NewServerError(tt.message, tt.cause)
			if err.Error() != tt.expectedMsg {
				t.Errorf("expected %q, got %q", tt.expectedMsg, err.Error())
			}
			if tt.cause != nil && !errors.Is(err, tt.cause) {
				t.Error("errors.Is should find the cause")
			}
			if tt.cause == nil && errors.Unwrap(err) != nil {
				t.Error("Unwrap should return nil without a cause")
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		field       string
		message     string
		expectedMsg string
	}{
		{"Error with field", "runs", "must be positive", "validation error for 'runs': must be positive"},
		{"Error without field", "", "invalid input", "validation error: invalid input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := NewValidationError(tt.field, tt.message, 0)
			if err.Error() != tt.expectedMsg {
				t.Errorf("expected %q, got %q", tt.expectedMsg, err.Error())
			}
			var verr ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("expected ValidationError with field %q", tt.field)
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	t.Parallel()
	if WrapError(nil, "context") != nil {
		t.Error("WrapError(nil) should return nil")
	}
	base := errors.New("closed")
	err := WrapError(base, "parallelism %d", 4)
	if err.Error() != "parallelism 4: closed" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should match the base error")
	}
}

func TestIsContextError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want bool
	}{
		{context.Canceled, true},
		{context.DeadlineExceeded, true},
		{fmt.Errorf("wrapped: %w", context.Canceled), true},
		{errors.New("other"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsContextError(tt.err); got != tt.want {
			t.Errorf("IsContextError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

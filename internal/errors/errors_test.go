package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewValidationError("bad", nil), http.StatusBadRequest},
		{NewRecognitionError("ocr failed", nil), http.StatusUnprocessableEntity},
		{NewModelUnavailableError("no model", nil), http.StatusServiceUnavailable},
		{NewBlockTranslationError("block failed", nil), http.StatusBadGateway},
		{NewGeometryUnavailableError("not ready"), http.StatusConflict},
		{NewCanceledError("superseded", context.Canceled), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Type), func(t *testing.T) {
			if got := GetStatusCode(tt.err); got != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, got)
			}
		})
	}
}

func TestIsTypeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("run r1: %w", NewModelUnavailableError("no model", nil))

	if !IsType(err, ErrorTypeModelUnavailable) {
		t.Error("Expected wrapped error to match its type")
	}
	if IsType(err, ErrorTypeValidation) {
		t.Error("Expected no match for a different type")
	}
	if GetStatusCode(err) != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", GetStatusCode(err))
	}
	if GetStatusCode(errors.New("plain")) != http.StatusInternalServerError {
		t.Error("Expected 500 for a plain error")
	}
}

func TestUnwrap(t *testing.T) {
	err := NewCanceledError("superseded", context.Canceled)
	if !errors.Is(err, context.Canceled) {
		t.Error("Expected cause to be reachable through Unwrap")
	}
}

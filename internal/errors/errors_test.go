package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("programs", "must not be empty")
	if !strings.Contains(err.Error(), "programs") {
		t.Errorf("Expected field in message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "must not be empty") {
		t.Errorf("Expected message in output, got %q", err.Error())
	}
}

func TestScraperErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewScraperError("https://example.edu", 503, cause)

	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to find the cause")
	}
	if !strings.Contains(err.Error(), "status=503") {
		t.Errorf("Expected status in message, got %q", err.Error())
	}

	// Without a status code the status segment is omitted
	err = NewScraperError("https://example.edu", 0, cause)
	if strings.Contains(err.Error(), "status=") {
		t.Errorf("Expected no status segment, got %q", err.Error())
	}
}

func TestGeocodeErrorUnwrap(t *testing.T) {
	cause := ErrTimeout
	err := &GeocodeError{Location: "Cambridge, MA", Err: cause}

	if !errors.Is(err, ErrTimeout) {
		t.Error("Expected errors.Is to find ErrTimeout")
	}
	if !strings.Contains(err.Error(), "Cambridge, MA") {
		t.Errorf("Expected location in message, got %q", err.Error())
	}
}

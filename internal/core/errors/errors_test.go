package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "resource not found")
		if err.Error() != "[NOT_FOUND] resource not found" {
			t.Errorf("expected [NOT_FOUND] resource not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeInternal, "internal failure")
		expected := "[INTERNAL_ERROR] internal failure: original error"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to original")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeThroughFmtWrap", func(t *testing.T) {
		err := fmt.Errorf("walk: %w", New(CodeMalformedVersion, "bad label"))
		if !IsCode(err, CodeMalformedVersion) {
			t.Error("expected IsCode to see through fmt wrapping")
		}
	})
}

func TestAddContext(t *testing.T) {
	err := AddContext(New(CodeNotFound, "missing"), CtxLabel, "proj_1.0.0")
	if !IsCode(err, CodeNotFound) {
		t.Fatalf("expected code to be preserved, got %v", err)
	}
	if !strings.Contains(err.Error(), "proj_1.0.0") {
		t.Fatalf("expected context in message, got %q", err.Error())
	}

	plain := AddContext(errors.New("boom"), CtxOperation, "scan")
	if !IsCode(plain, CodeInternal) {
		t.Fatalf("expected plain error to become internal, got %v", plain)
	}
}

func TestExtraction(t *testing.T) {
	cause := errors.New("invalid syntax")
	err := Extraction("pkg/mod.py", cause)
	if !IsCode(err, CodeExtraction) {
		t.Fatalf("expected extraction code, got %v", err)
	}
	if got := PathOf(err); got != "pkg/mod.py" {
		t.Fatalf("expected path pkg/mod.py, got %q", got)
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected extraction error to unwrap to cause")
	}
	if PathOf(errors.New("plain")) != "" {
		t.Fatal("expected empty path for non-domain error")
	}
}

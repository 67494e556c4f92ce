package errors

import (
	"fmt"
	"testing"
)

func TestBotanError_Error(t *testing.T) {
	err := &BotanError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "plant not found",
	}

	expected := "NOT_FOUND: plant not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("max_plants must be >= 1")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "max_plants must be >= 1" {
		t.Errorf("Message = %q, want %q", err.Message, "max_plants must be >= 1")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("template", "haiku")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Message != "template not found: haiku" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Details["identifier"] != "haiku" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "haiku")
	}
}

func TestNewFileNotFound(t *testing.T) {
	err := NewFileNotFound("/tmp/missing.yaml")

	if err.Code != ErrFileNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrFileNotFound)
	}
	if err.Details["path"] != "/tmp/missing.yaml" {
		t.Errorf("Details[path] = %v", err.Details["path"])
	}
}

func TestNewParseError(t *testing.T) {
	err := NewParseError("yaml", fmt.Errorf("line 3: mapping values are not allowed"))

	if err.Code != ErrParse {
		t.Errorf("Code = %q, want %q", err.Code, ErrParse)
	}
	if err.Status != 422 {
		t.Errorf("Status = %d, want 422", err.Status)
	}
	if err.Message != "invalid yaml: line 3: mapping values are not allowed" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewSchemaViolation(t *testing.T) {
	err := NewSchemaViolation(2, []string{"a", "b"})

	if err.Code != ErrSchemaViolation {
		t.Errorf("Code = %q, want %q", err.Code, ErrSchemaViolation)
	}
	if _, ok := err.Details["violations"].([]string); !ok {
		t.Errorf("Details[violations] = %v", err.Details["violations"])
	}
}

func TestNewProviderFailed(t *testing.T) {
	err := NewProviderFailed("ollama", "timeout", "no response after 3 attempts")

	if err.Code != ErrProviderFailed {
		t.Errorf("Code = %q, want %q", err.Code, ErrProviderFailed)
	}
	if err.Status != 502 {
		t.Errorf("Status = %d, want 502", err.Status)
	}
	if err.Details["provider"] != "ollama" || err.Details["kind"] != "timeout" {
		t.Errorf("Details = %v", err.Details)
	}
}

func TestNewCancelled(t *testing.T) {
	err := NewCancelled("generate")

	if err.Code != ErrCancelled {
		t.Errorf("Code = %q, want %q", err.Code, ErrCancelled)
	}
	if err.Message != "generate cancelled" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewInternal(t *testing.T) {
	t.Run("with error", func(t *testing.T) {
		err := NewInternal(fmt.Errorf("disk full"))

		if err.Code != ErrInternal {
			t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
		}
		if err.Status != 500 {
			t.Errorf("Status = %d, want 500", err.Status)
		}
		if err.Message != "an internal error occurred" {
			t.Errorf("Message = %q, want %q", err.Message, "an internal error occurred")
		}
		if err.Details["internal_error"] != "disk full" {
			t.Errorf("Details[internal_error] = %q, want %q", err.Details["internal_error"], "disk full")
		}
	})

	t.Run("with nil", func(t *testing.T) {
		err := NewInternal(nil)

		if err.Message != "an internal error occurred" {
			t.Errorf("Message = %q, want %q", err.Message, "an internal error occurred")
		}
		if err.Details == nil {
			t.Error("Details should not be nil")
		}
	})
}

func TestIs(t *testing.T) {
	t.Run("matching code", func(t *testing.T) {
		err := NewNotFound("event", "01H")
		if !Is(err, ErrNotFound) {
			t.Error("Is() = false, want true")
		}
	})

	t.Run("non-matching code", func(t *testing.T) {
		err := NewNotFound("event", "01H")
		if Is(err, ErrInvalidRequest) {
			t.Error("Is() = true, want false")
		}
	})

	t.Run("wrapped error", func(t *testing.T) {
		err := fmt.Errorf("select: %w", NewInvalidRequest("bad"))
		if !Is(err, ErrInvalidRequest) {
			t.Error("Is() = false for wrapped error, want true")
		}
	})

	t.Run("plain error", func(t *testing.T) {
		if Is(fmt.Errorf("boom"), ErrInternal) {
			t.Error("Is() = true for plain error, want false")
		}
	})

	t.Run("nil error", func(t *testing.T) {
		if Is(nil, ErrInternal) {
			t.Error("Is() = true for nil, want false")
		}
	})
}

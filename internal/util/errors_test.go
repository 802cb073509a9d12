package util

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestHostError(t *testing.T) {
	baseErr := errors.New("connection refused")
	hostErr := WrapHostError("10.0.0.5", baseErr)

	if hostErr == nil {
		t.Fatal("expected error, got nil")
	}

	expectedMsg := `host "10.0.0.5": connection refused`
	if hostErr.Error() != expectedMsg {
		t.Errorf("expected %q, got %q", expectedMsg, hostErr.Error())
	}

	if !errors.Is(hostErr, baseErr) {
		t.Error("expected host error to wrap base error")
	}

	var he *HostError
	if !errors.As(hostErr, &he) {
		t.Fatal("errors.As should find HostError")
	}
	if he.Host != "10.0.0.5" {
		t.Errorf("expected host %q, got %q", "10.0.0.5", he.Host)
	}

	if nilErr := WrapHostError("10.0.0.5", nil); nilErr != nil {
		t.Errorf("expected nil, got %v", nilErr)
	}
}

func TestMultiError(t *testing.T) {
	t.Run("empty multi-error", func(t *testing.T) {
		m := &MultiError{}
		if m.ErrorOrNil() != nil {
			t.Error("expected nil for empty multi-error")
		}
	})

	t.Run("single error", func(t *testing.T) {
		m := &MultiError{}
		m.Add(errors.New("test error"))

		if m.Error() != "test error" {
			t.Errorf("expected %q, got %q", "test error", m.Error())
		}
	})

	t.Run("add skips nil", func(t *testing.T) {
		m := &MultiError{}
		m.Add(errors.New("error 1"))
		m.Add(nil)
		m.Add(errors.New("error 2"))

		if len(m.Errors) != 2 {
			t.Errorf("expected 2 errors, got %d", len(m.Errors))
		}
		if !strings.Contains(m.Error(), "2 errors occurred") {
			t.Errorf("unexpected message %q", m.Error())
		}
	})

	t.Run("many errors truncation", func(t *testing.T) {
		m := &MultiError{}
		for i := 0; i < 20; i++ {
			m.Add(fmt.Errorf("error %d", i+1))
		}

		msg := m.Error()
		if !strings.Contains(msg, "and 10 more errors") {
			t.Errorf("expected truncation message, got %q", msg)
		}
	})

	t.Run("unwrap", func(t *testing.T) {
		err1 := errors.New("error 1")
		err2 := errors.New("error 2")
		m := &MultiError{}
		m.Add(err1)
		m.Add(err2)

		if !errors.Is(m, err1) || !errors.Is(m, err2) {
			t.Error("errors.Is should find both wrapped errors")
		}
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with value", func(t *testing.T) {
		err := NewValidationError("ssh.port", 70000, "port out of range")
		expectedMsg := `validation failed for field "ssh.port" (value: 70000): port out of range`
		if err.Error() != expectedMsg {
			t.Errorf("expected %q, got %q", expectedMsg, err.Error())
		}
	})

	t.Run("without value", func(t *testing.T) {
		err := NewValidationError("users", nil, "users file is required")
		expectedMsg := `validation failed for field "users": users file is required`
		if err.Error() != expectedMsg {
			t.Errorf("expected %q, got %q", expectedMsg, err.Error())
		}
	})

	t.Run("is invalid config", func(t *testing.T) {
		err := NewValidationError("concurrency", 0, "must be positive")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Error("validation errors should match ErrInvalidConfig")
		}
	})
}

func TestErrorCheckers(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		checker  func(error) bool
		expected bool
	}{
		{"timeout error", ErrTimeout, IsTimeout, true},
		{"wrapped timeout error", fmt.Errorf("ssh: %w", ErrTimeout), IsTimeout, true},
		{"cancelled error", ErrCancelled, IsCancelled, true},
		{"unrelated error", errors.New("something else"), IsTimeout, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.checker(tt.err); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestFriendlyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"nil error", nil, ""},
		{"timeout error", ErrTimeout, "timed out"},
		{"cancelled error", ErrCancelled, "cancelled"},
		{"unreachable", WrapHostError("10.0.0.1", ErrUnreachable), "not reachable"},
		{"invalid username", ErrInvalidUsername, "account names"},
		{"invalid config", NewValidationError("x", nil, "bad"), "Invalid configuration"},
		{"unknown error", errors.New("custom error message"), "custom error message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := FriendlyError(tt.err)
			if tt.contains == "" {
				if msg != "" {
					t.Errorf("expected empty string, got %q", msg)
				}
				return
			}

			if !strings.Contains(msg, tt.contains) {
				t.Errorf("expected message to contain %q, got %q", tt.contains, msg)
			}
		})
	}
}

func TestCombineErrors(t *testing.T) {
	t.Run("all nil errors", func(t *testing.T) {
		if err := CombineErrors(nil, nil, nil); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("mixed nil and non-nil errors", func(t *testing.T) {
		err := CombineErrors(errors.New("error 1"), nil, errors.New("error 2"))
		if err == nil {
			t.Fatal("expected error, got nil")
		}

		msg := err.Error()
		if !strings.Contains(msg, "error 1") || !strings.Contains(msg, "error 2") {
			t.Errorf("expected combined error message, got %q", msg)
		}
	})
}

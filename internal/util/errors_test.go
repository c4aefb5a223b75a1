package util

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCourseError(t *testing.T) {
	base := errors.New("users fetch failed")
	err := WrapCourseError("Intro to Go", base)

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), `course "Intro to Go"`) {
		t.Errorf("expected course name in message, got %q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("expected wrapped error to match with errors.Is")
	}

	var courseErr *CourseError
	if !errors.As(err, &courseErr) {
		t.Fatal("expected errors.As to find CourseError")
	}
	if courseErr.CourseName != "Intro to Go" {
		t.Errorf("unexpected course name %q", courseErr.CourseName)
	}

	if WrapCourseError("Intro to Go", nil) != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestMultiError(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		m := &MultiError{}
		if m.ErrorOrNil() != nil {
			t.Error("expected nil for empty MultiError")
		}
	})

	t.Run("single error", func(t *testing.T) {
		m := &MultiError{}
		m.Add(errors.New("only one"))
		m.Add(nil)

		if got := m.Error(); got != "only one" {
			t.Errorf("expected bare message for single error, got %q", got)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		m := NewMultiError([]error{
			errors.New("first"),
			nil,
			errors.New("second"),
		})

		msg := m.Error()
		if !strings.Contains(msg, "2 errors occurred") {
			t.Errorf("expected count in message, got %q", msg)
		}
		if !strings.Contains(msg, "first") || !strings.Contains(msg, "second") {
			t.Errorf("expected both errors listed, got %q", msg)
		}
	})

	t.Run("truncates long lists", func(t *testing.T) {
		m := &MultiError{}
		for i := 0; i < 15; i++ {
			m.Add(fmt.Errorf("error %d", i))
		}

		msg := m.Error()
		if !strings.Contains(msg, "and 5 more errors") {
			t.Errorf("expected truncation notice, got %q", msg)
		}
	})

	t.Run("unwrap supports errors.Is", func(t *testing.T) {
		sentinel := errors.New("sentinel")
		m := NewMultiError([]error{errors.New("other"), sentinel})

		if !errors.Is(m, sentinel) {
			t.Error("expected errors.Is to match through MultiError")
		}
	})
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("parallel", -2, "must be positive")
	if !strings.Contains(err.Error(), `"parallel"`) || !strings.Contains(err.Error(), "-2") {
		t.Errorf("unexpected message %q", err.Error())
	}

	noValue := NewValidationError("url", nil, "is required")
	if strings.Contains(noValue.Error(), "value:") {
		t.Errorf("expected no value rendering, got %q", noValue.Error())
	}
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"timeout matches", fmt.Errorf("wrapped: %w", ErrTimeout), IsTimeout, true},
		{"timeout mismatch", errors.New("other"), IsTimeout, false},
		{"cancelled matches", ErrCancelled, IsCancelled, true},
		{"not found matches", fmt.Errorf("scope: %w", ErrCourseNotFound), IsNotFound, true},
		{"connection matches", ErrConnectionFailed, IsConnectionError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.err); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
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
		{"nil", nil, ""},
		{"timeout", ErrTimeout, "--timeout"},
		{"cancelled", ErrCancelled, "cancelled"},
		{"not found", ErrCourseNotFound, "course id or name"},
		{"connection", ErrConnectionFailed, "--url"},
		{"invalid config", ErrInvalidConfig, "config file"},
		{"unknown passes through", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FriendlyError(tt.err)
			if tt.contains == "" {
				if got != "" {
					t.Errorf("expected empty message, got %q", got)
				}
				return
			}
			if !strings.Contains(got, tt.contains) {
				t.Errorf("expected message containing %q, got %q", tt.contains, got)
			}
		})
	}
}

func TestCombineErrors(t *testing.T) {
	if CombineErrors(nil, nil) != nil {
		t.Error("expected nil when all errors are nil")
	}

	err := CombineErrors(errors.New("a"), nil, errors.New("b"))
	if err == nil || !strings.Contains(err.Error(), "2 errors occurred") {
		t.Errorf("unexpected combined error: %v", err)
	}
}

func TestWrapErrorf(t *testing.T) {
	base := errors.New("base")
	err := WrapErrorf(base, "processing course %d", 10)

	if !errors.Is(err, base) {
		t.Error("expected wrapped error to match")
	}
	if !strings.Contains(err.Error(), "processing course 10") {
		t.Errorf("unexpected message %q", err.Error())
	}

	if WrapErrorf(nil, "ignored") != nil {
		t.Error("wrapping nil should return nil")
	}
}

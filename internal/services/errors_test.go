package services_test

import (
	"errors"
	"strings"
	"testing"

	"eduassist/internal/jobs"
	"eduassist/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrProvider, "drafting", "complete", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"drafting", "complete", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestFailureStatusMapping(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "drafting", "parse", "invalid plan", nil)
	if status := services.FailureStatus(validationErr); status != jobs.StatusReview {
		t.Fatalf("expected review for validation error, got %s", status)
	}

	transientErr := services.Wrap(services.ErrTransient, "rendering", "write", "write failed", errors.New("io"))
	if status := services.FailureStatus(transientErr); status != jobs.StatusFailed {
		t.Fatalf("expected failed for transient error, got %s", status)
	}

	if status := services.FailureStatus(nil); status != jobs.StatusFailed {
		t.Fatalf("expected failed for nil error, got %s", status)
	}
}

func TestKind(t *testing.T) {
	err := services.Wrap(services.ErrConfiguration, "drafting", "route", "no provider", nil)
	if kind := services.Kind(err); kind != "configuration" {
		t.Fatalf("kind = %q", kind)
	}
	if kind := services.Kind(errors.New("plain")); kind != "transient" {
		t.Fatalf("kind = %q", kind)
	}
	if kind := services.Kind(nil); kind != "" {
		t.Fatalf("kind = %q", kind)
	}
}

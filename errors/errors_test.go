package errors

import (
	"fmt"
	"testing"
)

func TestGroveError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeJobNotFound, "job not found")
	if err.Code != ErrCodeJobNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeJobNotFound, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeSpawnFailed, "spawn failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeSpawnFailed) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeJobNotFound) {
		t.Error("Is should return false for non-matching code")
	}

	// Test WithDetail
	detailed := err.WithDetail("jobId", "20260115-093000-fix-bug-a1b2c3").WithDetail("pid", 4242)
	if detailed.Details["jobId"] != "20260115-093000-fix-bug-a1b2c3" {
		t.Error("WithDetail should add details")
	}
}

func TestErrorConstructors(t *testing.T) {
	// Test JobNotFound
	err := JobNotFound("20260115-093000-fix-bug-a1b2c3")
	if err.Code != ErrCodeJobNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeJobNotFound, err.Code)
	}
	if err.Details["jobId"] != "20260115-093000-fix-bug-a1b2c3" {
		t.Error("JobNotFound should include jobId detail")
	}

	// Test JobAlreadyRunning
	err = JobAlreadyRunning("2026-01-15", "fix-bug")
	if err.Code != ErrCodeJobAlreadyRunning {
		t.Errorf("expected code %s, got %s", ErrCodeJobAlreadyRunning, err.Code)
	}
	if err.Details["taskName"] != "fix-bug" {
		t.Error("JobAlreadyRunning should include taskName detail")
	}

	// Test ProcessVanished
	err = ProcessVanished("20260115-093000-fix-bug-a1b2c3", 4242)
	if err.Code != ErrCodeProcessVanished {
		t.Errorf("expected code %s, got %s", ErrCodeProcessVanished, err.Code)
	}
	if err.Details["pid"] != 4242 {
		t.Error("ProcessVanished should include pid detail")
	}
}

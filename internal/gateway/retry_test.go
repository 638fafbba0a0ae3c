// internal/gateway/retry_test.go
package gateway

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetryPolicyStatusClassification(t *testing.T) {
	p := DefaultRetryPolicy()

	tests := []struct {
		code int
		want bool
	}{
		{429, true},
		{500, true},
		{503, true},
		{400, false},
		{401, false},
		{404, false},
	}

	for _, tt := range tests {
		err := &StatusError{StatusCode: tt.code, Body: "x"}
		if got := p.ShouldRetry(err, 1); got != tt.want {
			t.Errorf("ShouldRetry(HTTP %d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestRetryPolicyTransportErrors(t *testing.T) {
	p := DefaultRetryPolicy()

	if !p.ShouldRetry(errors.New("dial tcp: connection refused"), 1) {
		t.Error("expected connection errors to be retryable")
	}
	if p.ShouldRetry(errors.New("invalid request"), 1) {
		t.Error("expected validation errors to be permanent")
	}
	if p.ShouldRetry(errors.New("anything"), p.MaxAttempts+1) {
		t.Error("expected attempts to be capped")
	}
}

func TestRetryPolicyNextDelay(t *testing.T) {
	p := &RetryPolicy{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
	}

	if got := p.NextDelay(1); got != time.Second {
		t.Errorf("attempt 1: got %v", got)
	}
	if got := p.NextDelay(2); got != 2*time.Second {
		t.Errorf("attempt 2: got %v", got)
	}
	if got := p.NextDelay(10); got != 5*time.Second {
		t.Errorf("expected cap, got %v", got)
	}
}

func TestRetryPolicyExecute(t *testing.T) {
	p := &RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 1.0, MaxDelay: time.Millisecond}

	attempts := 0
	err := p.Execute(func() error {
		attempts++
		if attempts < 3 {
			return &StatusError{StatusCode: 500, Body: "boom"}
		}
		return nil
	})
	if err != nil {
		t.Errorf("expected eventual success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryPolicyExecutePermanentError(t *testing.T) {
	p := &RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 1.0, MaxDelay: time.Millisecond}

	attempts := 0
	err := p.Execute(func() error {
		attempts++
		return &StatusError{StatusCode: 401, Body: "unauthorized"}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("expected no retries for permanent error, got %d attempts", attempts)
	}
	if fmt.Sprint(err) != "HTTP 401: unauthorized" {
		t.Errorf("unexpected error text: %v", err)
	}
}

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "udacimak/pkg/errors"
	"udacimak/pkg/logger"
)

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   1 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{6, 1 * time.Second},
	}

	for _, test := range tests {
		if delay := backoff.NextDelay(test.attempt); delay != test.expected {
			t.Errorf("Attempt %d: expected %v, got %v", test.attempt, test.expected, delay)
		}
	}
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	delays := make(map[time.Duration]bool)
	for i := 0; i < 10; i++ {
		delay := backoff.NextDelay(2)
		if delay < 140*time.Millisecond || delay > 260*time.Millisecond {
			t.Errorf("Jittered delay %v out of range", delay)
		}
		delays[delay] = true
	}

	if len(delays) < 2 {
		t.Error("Expected multiple different delays with jitter")
	}
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return &errs.Error{Kind: errs.KindServerError, Code: 503}
		}
		return nil
	}

	err := Do(op, &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 5 * time.Millisecond},
		Context:     context.Background(),
		Logger:      logger.NewNopLogger(),
	})
	if err != nil {
		t.Errorf("Expected success after retries, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	var retried []int
	cause := &errs.Error{Kind: errs.KindNetwork, Message: "connection reset"}

	err := Do(func() error {
		attempts++
		return cause
	}, &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: 5 * time.Millisecond},
		OnRetry:     func(attempt int, err error, delay time.Duration) { retried = append(retried, attempt) },
	})

	if !errors.Is(err, cause) {
		t.Errorf("Expected wrapped network error, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if len(retried) != 2 {
		t.Errorf("Expected 2 retry callbacks, got %v", retried)
	}
}

func TestRetryWithNonRetryableError(t *testing.T) {
	attempts := 0
	notFound := &errs.Error{Kind: errs.KindNotFound, Code: 404}

	err := Do(func() error {
		attempts++
		return notFound
	}, &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 5 * time.Millisecond},
		RetryIf:     DefaultRetryIf,
	})

	if err != notFound {
		t.Errorf("Expected not found error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"server error", &errs.Error{Kind: errs.KindServerError}, true},
		{"network", &errs.Error{Kind: errs.KindNetwork}, true},
		{"dns", &errs.Error{Kind: errs.KindNetwork, DNS: true}, false},
		{"not found", &errs.Error{Kind: errs.KindNotFound}, false},
		{"cancelled", context.Canceled, false},
		{"plain", errors.New("unknown"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultRetryIf(tt.err); got != tt.want {
				t.Errorf("DefaultRetryIf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := Do(func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}, &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 50 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     ctx,
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected cancellation error, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts before cancellation, got %d", attempts)
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	}, &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: 5 * time.Millisecond},
	})

	if err != nil {
		t.Errorf("Expected success, got error: %v", err)
	}
	if result != "success" {
		t.Errorf("Expected 'success', got '%s'", result)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

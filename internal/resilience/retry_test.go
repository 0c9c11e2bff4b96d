package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/sells-group/enrich-cli/pkg/apierr"
)

func fastTiers() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Delays:      []time.Duration{time.Millisecond, 2 * time.Millisecond},
	}
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastTiers(), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesRateLimited(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastTiers(), func(_ context.Context) error {
		calls++
		if calls < 3 {
			return &apierr.RateLimitedError{Provider: "serper"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_RetriesConnectionErrors(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastTiers(), func(_ context.Context) error {
		calls++
		return fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED)
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ServerErrorNotRetried(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastTiers(), func(_ context.Context) error {
		calls++
		return &apierr.HTTPError{Provider: "hunter", StatusCode: 500}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", calls)
	}
}

func TestDo_NotConfiguredNotRetried(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastTiers(), func(_ context.Context) error {
		calls++
		return apierr.NotConfigured("apollo")
	})
	if !apierr.IsNotConfigured(err) {
		t.Fatalf("expected not-configured error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ContextCancelled_StopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	cfg := RetryConfig{
		MaxAttempts: 5,
		Delays:      []time.Duration{time.Second},
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, cfg, func(_ context.Context) error {
		calls.Add(1)
		return &apierr.RateLimitedError{Provider: "mistral"}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls.Load())
	}
}

func TestDo_CustomShouldRetry(t *testing.T) {
	var calls int
	cfg := fastTiers()
	cfg.ShouldRetry = func(err error) bool { return err.Error() == "again" }

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("again")
		}
		return errors.New("stop")
	})
	if err == nil || err.Error() != "stop" {
		t.Fatalf("expected stop error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDo_OnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := fastTiers()
	cfg.OnRetry = func(attempt int, _ error) { attempts = append(attempts, attempt) }

	_ = Do(context.Background(), cfg, func(_ context.Context) error {
		return &apierr.RateLimitedError{Provider: "serper"}
	})
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected retry callbacks [1 2], got %v", attempts)
	}
}

func TestDoVal_ReturnsValueOnSuccess(t *testing.T) {
	var calls int
	v, err := DoVal(context.Background(), fastTiers(), func(_ context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &apierr.RateLimitedError{Provider: "serper"}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "ok" {
		t.Errorf("expected ok, got %q", v)
	}
}

func TestDoVal_ReturnsZeroOnFailure(t *testing.T) {
	v, err := DoVal(context.Background(), fastTiers(), func(_ context.Context) (int, error) {
		return 42, errors.New("permanent")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if v != 0 {
		t.Errorf("expected zero value, got %d", v)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg.MaxAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.MaxAttempts)
	}
	want := []time.Duration{1 * time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}
	for attempt, w := range want {
		if got := computeBackoff(attempt, cfg); got != w {
			t.Errorf("attempt %d: expected %v, got %v", attempt, w, got)
		}
	}
}

func TestComputeBackoff_FixedTiers(t *testing.T) {
	cfg := RetryConfig{Delays: TieredDelays(10*time.Second, 3)}
	want := []time.Duration{10 * time.Second, 20 * time.Second, 30 * time.Second, 30 * time.Second}
	for attempt, w := range want {
		if got := computeBackoff(attempt, cfg); got != w {
			t.Errorf("attempt %d: expected %v, got %v", attempt, w, got)
		}
	}
}

func TestComputeBackoff_ExponentialGrowth(t *testing.T) {
	cfg := applyDefaults(RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2.0,
	})
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
	for attempt, w := range want {
		if got := computeBackoff(attempt, cfg); got != w {
			t.Errorf("attempt %d: expected %v, got %v", attempt, w, got)
		}
	}
}

func TestComputeBackoff_CapsAtMax(t *testing.T) {
	cfg := applyDefaults(RetryConfig{
		InitialBackoff: time.Second,
		MaxBackoff:     3 * time.Second,
		Multiplier:     10,
	})
	if got := computeBackoff(5, cfg); got != 3*time.Second {
		t.Errorf("expected cap of 3s, got %v", got)
	}
}

func TestFromRetryConfig(t *testing.T) {
	cfg := FromRetryConfig(4, []int{100, 250}, 0, 0)
	if cfg.MaxAttempts != 4 {
		t.Errorf("expected 4 attempts, got %d", cfg.MaxAttempts)
	}
	if len(cfg.Delays) != 2 || cfg.Delays[1] != 250*time.Millisecond {
		t.Errorf("unexpected delays %v", cfg.Delays)
	}

	exp := FromRetryConfig(0, nil, 200, 5000)
	if exp.Delays != nil {
		t.Errorf("expected exponential config, got delays %v", exp.Delays)
	}
	if exp.InitialBackoff != 200*time.Millisecond || exp.MaxBackoff != 5*time.Second {
		t.Errorf("unexpected backoff %v/%v", exp.InitialBackoff, exp.MaxBackoff)
	}

	def := FromRetryConfig(0, nil, 0, 0)
	if def.MaxAttempts != 3 || len(def.Delays) != 3 {
		t.Errorf("expected defaults, got %+v", def)
	}
}

func TestRetryLogger(t *testing.T) {
	fn := RetryLogger("serper", "search")
	// Must not panic with the no-op global logger.
	fn(1, &apierr.RateLimitedError{Provider: "serper"})
}

package resilience

import (
	"time"
)

// FromRetryConfig converts config values to a RetryConfig. A non-empty
// delaysMs selects fixed tiers; otherwise the exponential settings apply.
func FromRetryConfig(maxAttempts int, delaysMs []int, initialBackoffMs, maxBackoffMs int) RetryConfig {
	cfg := DefaultRetryConfig()
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	if len(delaysMs) > 0 {
		cfg.Delays = make([]time.Duration, 0, len(delaysMs))
		for _, ms := range delaysMs {
			cfg.Delays = append(cfg.Delays, time.Duration(ms)*time.Millisecond)
		}
		return cfg
	}
	if initialBackoffMs > 0 {
		cfg.Delays = nil
		cfg.InitialBackoff = time.Duration(initialBackoffMs) * time.Millisecond
		cfg.JitterFraction = 0.25
		if maxBackoffMs > 0 {
			cfg.MaxBackoff = time.Duration(maxBackoffMs) * time.Millisecond
		}
	}
	return cfg
}

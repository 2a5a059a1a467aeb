package domain

import "time"

// RetryConfig configures the Retry Executor. Defaults match the contract:
// 5 attempts, 1s base delay, 60s cap, ±25% jitter.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64
}

// DefaultRetryConfig returns the Retry Executor's documented defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    60 * time.Second,
		Jitter:      0.25,
	}
}

package source

import (
	"math"
	"net/http"
	"time"
)

// RetryConfig controls retries of the remote fetch.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt (0 = no retry).
	MaxRetries int
	// Delay is the wait before the first retry.
	Delay time.Duration
	// Multiplier grows the delay on every retry.
	Multiplier float64
	// MaxDelay caps a single wait.
	MaxDelay time.Duration
}

// DefaultRetryConfig returns two retries starting at 500ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		Delay:      500 * time.Millisecond,
		Multiplier: 2,
		MaxDelay:   10 * time.Second,
	}
}

// CalculateDelay returns min(Delay * Multiplier^attempt, MaxDelay).
func (c RetryConfig) CalculateDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	mult := c.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := time.Duration(float64(c.Delay) * math.Pow(mult, float64(attempt)))
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

// retryableStatus reports whether an HTTP status is worth another attempt.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

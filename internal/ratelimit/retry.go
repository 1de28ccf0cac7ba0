package ratelimit

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"strconv"
	"strings"
	"time"
)

// retryableStatusCodes are the HTTP statuses the default predicate treats
// as transient (spec §4.11): rate limiting, server errors, and
// Anthropic's overloaded-service code.
var retryableStatusCodes = []int{429, 500, 503, 529}

// OnRetry is invoked before each retry sleep, never after a final failure.
type OnRetry func(attempt int, delayMs int64, reason string)

// IsRetryablePredicate decides whether err warrants another attempt.
type IsRetryablePredicate func(err error) bool

// RetryConfig parameterizes Retry. Zero value is not usable; use
// DefaultRetryConfig.
type RetryConfig struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	Factor         float64
	JitterFraction float64
	IsRetryable    IsRetryablePredicate
}

// DefaultRetryConfig implements spec §4.11's fixed schedule: 3 attempts,
// base delay 30s, factor 2 (30/60/120s), ±20% jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		BaseDelay:      30 * time.Second,
		Factor:         2,
		JitterFraction: 0.2,
		IsRetryable:    DefaultIsRetryable,
	}
}

// DefaultIsRetryable matches HTTP 429/500/503/529 (by scanning the error
// chain's message, since provider errors carry status as formatted text
// rather than a structured field) and any net.Error, which covers
// dial/timeout/connection-reset failures.
func DefaultIsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := err.Error()
	for _, code := range retryableStatusCodes {
		if strings.Contains(msg, strconv.Itoa(code)) {
			return true
		}
	}
	return false
}

// Retry calls fn up to cfg.MaxAttempts times, sleeping between attempts
// per the exponential schedule (baseDelay * factor^(attempt-1)) with
// +/-jitterFraction jitter applied multiplicatively. onRetry fires before
// each sleep, not after the final failed attempt. ctx cancellation aborts
// the wait and returns ctx.Err().
func Retry(ctx context.Context, cfg RetryConfig, onRetry OnRetry, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	isRetryable := cfg.IsRetryable
	if isRetryable == nil {
		isRetryable = DefaultIsRetryable
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == cfg.MaxAttempts || !isRetryable(lastErr) {
			return lastErr
		}

		delay := backoffDelay(cfg, attempt)
		if onRetry != nil {
			onRetry(attempt, delay.Milliseconds(), lastErr.Error())
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// backoffDelay computes baseDelay * factor^(attempt-1), jittered by
// +/-jitterFraction using a uniformly distributed multiplier.
func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	scaled := float64(cfg.BaseDelay)
	for i := 1; i < attempt; i++ {
		scaled *= cfg.Factor
	}

	jitter := 1 + (rand.Float64()*2-1)*cfg.JitterFraction
	return time.Duration(scaled * jitter)
}

package llm

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryProvider wraps a Provider with bounded retries so a transient
// provider hiccup does not immediately fail an analysis run. The final
// error still surfaces once the attempt budget is spent.
type RetryProvider struct {
	inner       Provider
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	multiplier  float64
	jitter      float64
}

// NewRetry wraps inner with at most maxRetries additional attempts
// after the first failure, using exponential backoff with jitter.
func NewRetry(inner Provider, maxRetries int) *RetryProvider {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryProvider{
		inner:       inner,
		maxAttempts: maxRetries + 1,
		baseDelay:   500 * time.Millisecond,
		maxDelay:    10 * time.Second,
		multiplier:  2.0,
		jitter:      0.1,
	}
}

// Generate delegates to the wrapped provider, retrying failures until
// the attempt budget is spent or the context is cancelled.
func (p *RetryProvider) Generate(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		text, err := p.inner.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if attempt == p.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.delay(attempt)):
		}
	}
	return "", fmt.Errorf("all %d provider attempts failed: %w", p.maxAttempts, lastErr)
}

// delay computes the backoff before the next attempt. Jitter spreads
// concurrent retries so they do not hit the provider in lockstep.
func (p *RetryProvider) delay(attempt int) time.Duration {
	d := float64(p.baseDelay) * math.Pow(p.multiplier, float64(attempt-1))
	if d > float64(p.maxDelay) {
		d = float64(p.maxDelay)
	}
	if p.jitter > 0 {
		j := rand.Float64() * p.jitter * d
		if rand.Float64() < 0.5 {
			d -= j
		} else {
			d += j
		}
	}
	return time.Duration(d)
}

// Ensure RetryProvider implements Provider.
var _ Provider = (*RetryProvider)(nil)

package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedProvider wraps a Provider with a client-side request
// budget so bursts of analysis calls cannot exhaust provider quota.
type RateLimitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewRateLimited wraps inner with an rps requests-per-second budget.
func NewRateLimited(inner Provider, rps float64) *RateLimitedProvider {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedProvider{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Generate waits for a rate token, then delegates to the wrapped
// provider. A cancelled context aborts the wait.
func (p *RateLimitedProvider) Generate(ctx context.Context, req Request) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return p.inner.Generate(ctx, req)
}

// Ensure RateLimitedProvider implements Provider.
var _ Provider = (*RateLimitedProvider)(nil)

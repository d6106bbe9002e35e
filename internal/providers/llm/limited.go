package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited caps the request rate of a provider shared by many callers.
type RateLimited struct {
	Provider
	limiter *rate.Limiter
}

// NewRateLimited wraps p with a token bucket of rps requests per second.
// rps <= 0 returns p unchanged.
func NewRateLimited(p Provider, rps float64, burst int) Provider {
	if rps <= 0 {
		return p
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{Provider: p, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *RateLimited) GenerateStructured(ctx context.Context, prompt, text string) (map[string]any, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, transient("limiter", 0, err)
	}
	return r.Provider.GenerateStructured(ctx, prompt, text)
}

package callable

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/dshills/flowdag/dagcore"
)

// RateLimited wraps a Callable so its Invoke calls are throttled
// independently of the batch's line-level concurrency W — useful for
// LLM-backed nodes subject to a provider's requests-per-second quota.
type RateLimited struct {
	inner   dagcore.Callable
	limiter *rate.Limiter
}

// NewRateLimited wraps inner with a token-bucket limiter allowing rps
// requests per second, with burst as the bucket size.
func NewRateLimited(inner dagcore.Callable, rps float64, burst int) *RateLimited {
	return &RateLimited{inner: inner, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *RateLimited) Signature() dagcore.Signature { return r.inner.Signature() }

func (r *RateLimited) Invoke(ctx context.Context, params map[string]any) (any, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Invoke(ctx, params)
}

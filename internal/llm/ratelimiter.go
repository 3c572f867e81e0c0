package llm

import (
	"context"
	"sync"
	"time"
)

// RateLimitedProvider wraps a Provider with a token bucket that refills at
// rpm tokens per minute.
type RateLimitedProvider struct {
	provider Provider
	rpm      int
	interval time.Duration

	mu       sync.Mutex
	tokens   int
	lastFill time.Time
}

// NewRateLimitedProvider wraps provider so that it serves at most rpm
// requests per minute. A non-positive rpm returns provider unchanged.
func NewRateLimitedProvider(provider Provider, rpm int) Provider {
	if rpm <= 0 {
		return provider
	}
	return &RateLimitedProvider{
		provider: provider,
		rpm:      rpm,
		interval: time.Minute / time.Duration(rpm),
		tokens:   rpm,
		lastFill: time.Now(),
	}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.provider.Complete(ctx, req)
}

// wait blocks until a token is available or ctx ends.
func (r *RateLimitedProvider) wait(ctx context.Context) error {
	for {
		delay := r.take()
		if delay == 0 {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// take consumes a token and returns 0, or returns how long until the next
// token is due.
func (r *RateLimitedProvider) take() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if refill := int(now.Sub(r.lastFill) / r.interval); refill > 0 {
		r.tokens += refill
		if r.tokens > r.rpm {
			r.tokens = r.rpm
		}
		r.lastFill = r.lastFill.Add(time.Duration(refill) * r.interval)
	}

	if r.tokens > 0 {
		r.tokens--
		return 0
	}
	return r.interval - now.Sub(r.lastFill)
}

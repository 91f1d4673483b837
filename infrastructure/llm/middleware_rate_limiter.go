package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-livebench/internal/domain"
)

// rateLimitedInvoker paces requests with a token bucket so a large
// worker pool cannot trip provider rate limits.
type rateLimitedInvoker struct {
	next    CoreInvoker
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware enforcing a sustained
// requests-per-second limit with the given burst allowance. The
// limiter is shared by every worker using the wrapped invoker.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)
	return func(next CoreInvoker) CoreInvoker {
		return &rateLimitedInvoker{next: next, limiter: limiter}
	}
}

// DoRequest blocks until a token is available, then forwards the
// request.
func (r *rateLimitedInvoker) DoRequest(ctx context.Context, conv *domain.Conversation, opts map[string]any) (string, int, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", 0, fmt.Errorf("rate limit: %w", err)
	}
	return r.next.DoRequest(ctx, conv, opts)
}

// GetModel returns the model name from the wrapped implementation.
func (r *rateLimitedInvoker) GetModel() string { return r.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (r *rateLimitedInvoker) SetModel(m string) { r.next.SetModel(m) }

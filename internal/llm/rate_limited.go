package llm

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/codefionn/loopdriver/internal/logger"
)

const minTokenEstimate = 8

// RateLimitOptions configures NewRateLimited. Zero values disable the
// corresponding budget.
type RateLimitOptions struct {
	RequestsPerMinute float64
	TokensPerMinute   int
	// Counter estimates prompt tokens. Defaults to EstimateTokens.
	Counter TokenCounter
}

type rateLimitedGenerator struct {
	delegate Generator
	requests *rate.Limiter
	tokens   *rate.Limiter
	counter  TokenCounter
}

// NewRateLimited wraps a Generator with request and token budgets. The
// delegate is returned unchanged when no budget is configured.
func NewRateLimited(base Generator, opts RateLimitOptions) Generator {
	if base == nil {
		return base
	}
	if opts.RequestsPerMinute <= 0 && opts.TokensPerMinute <= 0 {
		return base
	}

	g := &rateLimitedGenerator{delegate: base, counter: opts.Counter}
	if g.counter == nil {
		g.counter = EstimateTokens
	}
	if opts.RequestsPerMinute > 0 {
		g.requests = rate.NewLimiter(rate.Limit(opts.RequestsPerMinute/60.0), 1)
	}
	if opts.TokensPerMinute > 0 {
		g.tokens = rate.NewLimiter(rate.Limit(float64(opts.TokensPerMinute)/60.0), opts.TokensPerMinute)
	}
	return g
}

// Provider implements Generator.
func (g *rateLimitedGenerator) Provider() string { return g.delegate.Provider() }

// Generate implements Generator.
func (g *rateLimitedGenerator) Generate(ctx context.Context, req *Request) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if g.requests != nil {
		if err := g.requests.Wait(ctx); err != nil {
			return "", err
		}
	}
	if g.tokens != nil && req != nil {
		n := g.estimate(req)
		logger.Debug("rate limit: reserving %d tokens for %s", n, g.delegate.Provider())
		if err := g.tokens.WaitN(ctx, n); err != nil {
			return "", err
		}
	}
	return g.delegate.Generate(ctx, req)
}

func (g *rateLimitedGenerator) estimate(req *Request) int {
	n := g.counter(req.Model, req.System) + g.counter(req.Model, req.User)
	if n < minTokenEstimate {
		n = minTokenEstimate
	}
	if burst := g.tokens.Burst(); n > burst {
		n = burst
	}
	return n
}

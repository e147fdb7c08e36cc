package llm

import (
	"context"
	"time"

	"github.com/codefionn/loopdriver/internal/logger"
)

// Observer receives the outcome of each generation call.
type Observer interface {
	ObserveGeneration(provider string, elapsed time.Duration, err error)
}

type observedGenerator struct {
	delegate Generator
	observer Observer
}

// NewObserved reports the duration and outcome of every Generate call to obs.
func NewObserved(base Generator, obs Observer) Generator {
	if base == nil || obs == nil {
		return base
	}
	return &observedGenerator{delegate: base, observer: obs}
}

// Provider implements Generator.
func (g *observedGenerator) Provider() string { return g.delegate.Provider() }

// Generate implements Generator.
func (g *observedGenerator) Generate(ctx context.Context, req *Request) (string, error) {
	start := time.Now()
	text, err := g.delegate.Generate(ctx, req)
	elapsed := time.Since(start)

	g.observer.ObserveGeneration(g.delegate.Provider(), elapsed, err)
	if err != nil {
		logger.Warn("%s generation failed after %s: %v", g.delegate.Provider(), elapsed.Round(time.Millisecond), err)
	} else {
		logger.Debug("%s generation returned %d bytes in %s", g.delegate.Provider(), len(text), elapsed.Round(time.Millisecond))
	}
	return text, err
}

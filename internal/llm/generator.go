// Package llm adapts text-generation providers to the single blocking call
// the loop needs: system text and user text in, full response text out.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Request describes one generation call.
type Request struct {
	System    string
	User      string
	Model     string
	MaxTokens int
}

// Generator is the generation service boundary. Generate blocks until the
// complete response text is available; no streaming is consumed.
type Generator interface {
	Generate(ctx context.Context, req *Request) (string, error)
	// Provider names the backing service, e.g. "anthropic".
	Provider() string
}

// GeneratorFunc adapts a function to Generator. Used by tests and decorators.
type GeneratorFunc func(ctx context.Context, req *Request) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, req *Request) (string, error) {
	return f(ctx, req)
}

// Provider implements Generator.
func (f GeneratorFunc) Provider() string { return "func" }

var errNilRequest = errors.New("generation request cannot be nil")

func validateRequest(req *Request) error {
	if req == nil {
		return errNilRequest
	}
	if strings.TrimSpace(req.Model) == "" {
		return fmt.Errorf("generation request requires a model")
	}
	if strings.TrimSpace(req.User) == "" {
		return fmt.Errorf("generation request requires user text")
	}
	return nil
}

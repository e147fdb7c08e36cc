// Package step invokes a single role against the generation service and
// turns its reply into a structured object, retrying once with a
// correction when the reply cannot be parsed.
package step

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codefionn/loopdriver/internal/consts"
	"github.com/codefionn/loopdriver/internal/extract"
	"github.com/codefionn/loopdriver/internal/llm"
	"github.com/codefionn/loopdriver/internal/logger"
	"github.com/codefionn/loopdriver/internal/prompts"
)

// Outcome labels reported to an Observer.
const (
	OutcomeSuccess        = "success"
	OutcomeMalformed      = "malformed"
	OutcomeProviderError  = "provider_error"
	OutcomePromptError    = "prompt_error"
	OutcomeEncodeError    = "encode_error"
	OutcomeCorrectedRetry = "corrected"
)

// Role names a prompt file and the keys its reply must carry.
type Role struct {
	Name       string
	PromptFile string
	Required   []string
}

// Result is the output of one role invocation.
type Result struct {
	Name string
	Raw  string
	Data extract.Object
	// Attempts is the number of generation calls it took.
	Attempts int
}

// Observer is notified about invocation activity. Implemented by metrics.
type Observer interface {
	ObserveGenerationCall(role string)
	ObserveCorrectionRetry(role string)
	ObserveStep(role, outcome string)
}

// Options configures an Invoker.
type Options struct {
	Generator llm.Generator
	Prompts   prompts.Source
	// Extractor defaults to extract.BraceSpan.
	Extractor extract.Extractor
	Model     string
	// MaxTokens defaults to consts.DefaultMaxOutputTokens.
	MaxTokens int
	// SystemFile defaults to prompts.SystemFile.
	SystemFile string
	Policy     RetryPolicy
	Observer   Observer
}

// Invoker runs roles one at a time.
type Invoker struct {
	gen        llm.Generator
	prompts    prompts.Source
	extractor  extract.Extractor
	model      string
	maxTokens  int
	systemFile string
	policy     RetryPolicy
	observer   Observer
	log        *logger.Logger
}

// NewInvoker validates opts and builds an Invoker.
func NewInvoker(opts Options) (*Invoker, error) {
	if opts.Generator == nil {
		return nil, errors.New("step invoker requires a generator")
	}
	if opts.Prompts == nil {
		return nil, errors.New("step invoker requires a prompt source")
	}
	if opts.Model == "" {
		return nil, errors.New("step invoker requires a model")
	}

	inv := &Invoker{
		gen:        opts.Generator,
		prompts:    opts.Prompts,
		extractor:  opts.Extractor,
		model:      opts.Model,
		maxTokens:  opts.MaxTokens,
		systemFile: opts.SystemFile,
		policy:     opts.Policy,
		observer:   opts.Observer,
		log:        logger.Global().WithPrefix("step"),
	}
	if inv.extractor == nil {
		inv.extractor = extract.BraceSpan{}
	}
	if inv.maxTokens <= 0 {
		inv.maxTokens = consts.DefaultMaxOutputTokens
	}
	if inv.systemFile == "" {
		inv.systemFile = prompts.SystemFile
	}
	if inv.policy.MaxAttempts <= 0 && inv.policy.Correction == nil {
		inv.policy = DefaultRetryPolicy()
	}
	return inv, nil
}

// Invoke sends role's prompt together with the JSON rendering of state and
// the optional extra context. The reply is extracted against
// role.Required. Provider errors are returned immediately; extraction
// failures are retried according to the policy and end in a
// *MalformedOutputError.
func (inv *Invoker) Invoke(ctx context.Context, role Role, state any, extra string) (*Result, error) {
	system, err := inv.prompts.Read(inv.systemFile)
	if err != nil {
		inv.observeStep(role.Name, OutcomePromptError)
		return nil, fmt.Errorf("%s: system prompt: %w", role.Name, err)
	}
	body, err := inv.prompts.Read(role.PromptFile)
	if err != nil {
		inv.observeStep(role.Name, OutcomePromptError)
		return nil, fmt.Errorf("%s: role prompt: %w", role.Name, err)
	}

	stateJSON, err := extract.Encode(state)
	if err != nil {
		inv.observeStep(role.Name, OutcomeEncodeError)
		return nil, fmt.Errorf("%s: encode state: %w", role.Name, err)
	}

	maxAttempts := inv.policy.attempts()
	user := UserMessage(body, string(stateJSON), extra)

	var lastRaw string
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			user = inv.policy.correction(body, string(stateJSON))
			inv.observeRetry(role.Name)
			inv.log.Warn("%s: reply %d could not be parsed (%v), retrying with correction", role.Name, attempt-1, lastErr)
		}

		inv.observeCall(role.Name)
		start := time.Now()
		raw, err := inv.gen.Generate(ctx, &llm.Request{
			System:    system,
			User:      user,
			Model:     inv.model,
			MaxTokens: inv.maxTokens,
		})
		if err != nil {
			inv.observeStep(role.Name, OutcomeProviderError)
			return nil, fmt.Errorf("%s: %w", role.Name, err)
		}
		inv.log.Debug("%s: attempt %d returned %d bytes in %s", role.Name, attempt, len(raw), time.Since(start).Round(time.Millisecond))

		lastRaw = raw
		data, err := inv.extractor.Extract(raw, role.Required)
		if err == nil {
			outcome := OutcomeSuccess
			if attempt > 1 {
				outcome = OutcomeCorrectedRetry
			}
			inv.observeStep(role.Name, outcome)
			return &Result{Name: role.Name, Raw: raw, Data: data, Attempts: attempt}, nil
		}
		lastErr = err
	}

	inv.observeStep(role.Name, OutcomeMalformed)
	inv.log.Error("%s: giving up after %d attempts: %v", role.Name, maxAttempts, lastErr)
	return nil, &MalformedOutputError{
		Role:     role.Name,
		Attempts: maxAttempts,
		Snippet:  snippet(lastRaw, consts.MalformedSnippetLength),
		Err:      lastErr,
	}
}

func (inv *Invoker) observeCall(role string) {
	if inv.observer != nil {
		inv.observer.ObserveGenerationCall(role)
	}
}

func (inv *Invoker) observeRetry(role string) {
	if inv.observer != nil {
		inv.observer.ObserveCorrectionRetry(role)
	}
}

func (inv *Invoker) observeStep(role, outcome string) {
	if inv.observer != nil {
		inv.observer.ObserveStep(role, outcome)
	}
}

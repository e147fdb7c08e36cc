package loop

import (
	"context"
	"errors"
	"fmt"

	"github.com/codefionn/loopdriver/internal/consts"
	"github.com/codefionn/loopdriver/internal/logger"
	"github.com/codefionn/loopdriver/internal/progress"
	"github.com/codefionn/loopdriver/internal/runlog"
)

// Termination says how a run ended.
type Termination int

const (
	// TerminationStop is an explicit "stop" decision.
	TerminationStop Termination = iota
	// TerminationPause is an explicit "pause" decision.
	TerminationPause
	// TerminationExhausted means MaxIterations rounds ran without a stop.
	TerminationExhausted
)

func (t Termination) String() string {
	switch t {
	case TerminationStop:
		return "stop"
	case TerminationPause:
		return "pause"
	case TerminationExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Explicit reports whether the controller role asked to end the run.
func (t Termination) Explicit() bool {
	return t == TerminationStop || t == TerminationPause
}

// Config contains configuration options for the loop
type Config struct {
	// MaxIterations is the maximum number of rounds (default: 10). Zero runs
	// no round at all.
	MaxIterations int
	Goal          string
}

// DefaultConfig returns a Config with the default round cap.
func DefaultConfig() Config {
	return Config{MaxIterations: consts.DefaultMaxIterations, Goal: consts.PlaceholderGoal}
}

// Result represents the final outcome of a run.
type Result struct {
	Termination Termination
	// Reason is the controller's reason from the last round. HasReason is
	// false when the controller returned null.
	Reason    string
	HasReason bool
	// RoundsExecuted counts fully completed rounds.
	RoundsExecuted int
	// HitIterationLimit is true when the run was exhausted.
	HitIterationLimit bool
	// LastDecision is the decision of the last round, if any round ran.
	LastDecision Decision
	State        *State
}

// Observer is notified about finished rounds and runs. Implemented by
// metrics.
type Observer interface {
	ObserveRound()
	ObserveTermination(kind string)
}

// Dependencies contains the collaborators of a Controller.
type Dependencies struct {
	Invoker  Invoker
	Recorder runlog.Recorder
	// Strategy defaults to DefaultStrategy.
	Strategy Strategy
	// Round defaults to a RoundExecutor over Invoker and Recorder.
	Round    Round
	Observer Observer
}

// Controller owns the State of one run and drives it round by round.
type Controller struct {
	config   Config
	state    *State
	round    Round
	strategy Strategy
	observer Observer
	log      *logger.Logger
}

// NewController validates deps and creates the controller for a single run.
func NewController(deps Dependencies, config Config) (*Controller, error) {
	if config.MaxIterations < 0 {
		return nil, fmt.Errorf("max iterations must not be negative, got %d", config.MaxIterations)
	}

	round := deps.Round
	if round == nil {
		if deps.Invoker == nil {
			return nil, errors.New("loop controller requires an invoker")
		}
		if deps.Recorder == nil {
			return nil, errors.New("loop controller requires a run log recorder")
		}
		round = NewRoundExecutor(deps.Invoker, deps.Recorder, config.MaxIterations)
	}

	strategy := deps.Strategy
	if strategy == nil {
		strategy = NewDefaultStrategy()
	}

	return &Controller{
		config:   config,
		state:    NewState(config.Goal),
		round:    round,
		strategy: strategy,
		observer: deps.Observer,
		log:      logger.Global().WithPrefix("loop"),
	}, nil
}

// State returns the state owned by the controller.
func (c *Controller) State() *State { return c.state }

// Run executes rounds until a stop or pause decision or until
// MaxIterations rounds have run. Any round error aborts the run and is
// returned unchanged in its chain.
func (c *Controller) Run(ctx context.Context, progressCb progress.Callback) (*Result, error) {
	result := &Result{State: c.state}

	for round := 0; round < c.config.MaxIterations; round++ {
		c.state.beginRound(round)
		c.log.Info("round %d/%d started", round+1, c.config.MaxIterations)

		outcome, err := c.round.Execute(ctx, c.state, progressCb)
		if err != nil {
			c.log.Error("round %d aborted: %v", round+1, err)
			c.observeTermination("failed")
			return nil, fmt.Errorf("round %d: %w", round+1, err)
		}

		c.state.fold(outcome)
		next := c.strategy.Next(c.state, outcome)

		result.RoundsExecuted = round + 1
		result.LastDecision = outcome.Decision
		result.Reason, result.HasReason = c.state.StopReason()
		if c.observer != nil {
			c.observer.ObserveRound()
		}

		c.log.Info("round %d/%d finished: decision=%s next=%s", round+1, c.config.MaxIterations, outcome.Decision, next)
		dispatch(progressCb, progress.Update{
			Round:     round + 1,
			MaxRounds: c.config.MaxIterations,
			Stage:     progress.StageRoundFinished,
			Message:   "decision=" + outcome.Decision.String(),
		})

		switch next {
		case BreakStop:
			result.Termination = TerminationStop
			c.observeTermination(result.Termination.String())
			return result, nil
		case BreakPause:
			result.Termination = TerminationPause
			c.observeTermination(result.Termination.String())
			return result, nil
		}
	}

	result.Termination = TerminationExhausted
	result.HitIterationLimit = true
	c.log.Info("round cap of %d reached", c.config.MaxIterations)
	c.observeTermination(result.Termination.String())
	return result, nil
}

func (c *Controller) observeTermination(kind string) {
	if c.observer != nil {
		c.observer.ObserveTermination(kind)
	}
}

func dispatch(cb progress.Callback, update progress.Update) {
	if err := progress.Dispatch(cb, update); err != nil {
		logger.Debug("progress callback failed: %v", err)
	}
}

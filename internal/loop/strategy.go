package loop

// IterationResult is what a Strategy concluded from one round.
type IterationResult int

const (
	// Continue runs the next round with the state as folded.
	Continue IterationResult = iota
	// ContinueAdjusted runs the next round after prepending the plan patch.
	ContinueAdjusted
	// BreakStop ends the run on an explicit stop.
	BreakStop
	// BreakPause ends the run on an explicit pause.
	BreakPause
)

// String returns a human-readable description of the iteration result
func (r IterationResult) String() string {
	switch r {
	case Continue:
		return "continue"
	case ContinueAdjusted:
		return "continue_adjusted"
	case BreakStop:
		return "break_stop"
	case BreakPause:
		return "break_pause"
	default:
		return "unknown"
	}
}

// Terminal reports whether the run ends after this result.
func (r IterationResult) Terminal() bool {
	return r == BreakStop || r == BreakPause
}

// Strategy applies a round's decision to the state.
type Strategy interface {
	Next(state *State, outcome *RoundOutcome) IterationResult
}

// DefaultStrategy is the stop / pause / adjust_plan / other state machine.
type DefaultStrategy struct{}

// NewDefaultStrategy returns the default decision state machine.
func NewDefaultStrategy() *DefaultStrategy {
	return &DefaultStrategy{}
}

// Next implements Strategy.
func (DefaultStrategy) Next(state *State, outcome *RoundOutcome) IterationResult {
	switch outcome.Decision {
	case DecisionStop:
		return BreakStop
	case DecisionPause:
		return BreakPause
	case DecisionAdjustPlan:
		if len(outcome.PlanPatch) == 0 {
			return Continue
		}
		state.prependPlan(outcome.PlanPatch)
		return ContinueAdjusted
	default:
		return Continue
	}
}

package loop

import (
	"github.com/codefionn/loopdriver/internal/extract"
)

// Decision is the controller role's verdict.
type Decision int

const (
	// DecisionStop ends the run.
	DecisionStop Decision = iota
	// DecisionPause ends the run exactly like DecisionStop.
	DecisionPause
	// DecisionAdjustPlan prepends the plan patch and continues.
	DecisionAdjustPlan
	// DecisionOther continues unchanged.
	DecisionOther
)

// String returns the wire spelling of the decision.
func (d Decision) String() string {
	switch d {
	case DecisionStop:
		return "stop"
	case DecisionPause:
		return "pause"
	case DecisionAdjustPlan:
		return "adjust_plan"
	default:
		return "other"
	}
}

// ParseDecision maps the controller's "decision" value by exact spelling.
// The empty string is what a missing decision is repaired to and counts
// as a stop. Every other value, strings in another case and non-strings
// included, continues the loop.
func ParseDecision(v any) Decision {
	s, ok := v.(string)
	if !ok {
		return DecisionOther
	}
	switch s {
	case "", "stop":
		return DecisionStop
	case "pause":
		return DecisionPause
	case "adjust_plan":
		return DecisionAdjustPlan
	default:
		return DecisionOther
	}
}

func decisionOf(data extract.Object) Decision {
	v, ok := data["decision"]
	if !ok {
		return DecisionStop
	}
	return ParseDecision(v)
}

// planPatchOf returns the controller's plan_patch when it is a list.
func planPatchOf(data extract.Object) []any {
	patch, ok := data["plan_patch"].([]any)
	if !ok {
		return nil
	}
	return patch
}

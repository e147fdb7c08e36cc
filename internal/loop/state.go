package loop

import "github.com/codefionn/loopdriver/internal/extract"

// State is the record threaded through every round. The goal is fixed at
// construction; every other field is replaced as a whole once per round by
// fold.
type State struct {
	iteration  int
	goal       string
	plan       []any
	actions    []any
	notes      []any
	results    any
	stopReason *string
}

// stateJSON is the wire shape rendered under "STATE:".
type stateJSON struct {
	Iteration  int     `json:"iteration"`
	Goal       string  `json:"goal"`
	Plan       []any   `json:"plan"`
	Actions    []any   `json:"actions"`
	Notes      []any   `json:"notes"`
	Results    any     `json:"results"`
	StopReason *string `json:"stop_reason"`
}

// NewState creates the initial state for goal.
func NewState(goal string) *State {
	return &State{
		goal:    goal,
		plan:    []any{},
		actions: []any{},
		notes:   []any{},
		results: "",
	}
}

// Iteration returns the current round index (0-based).
func (s *State) Iteration() int { return s.iteration }

// Goal returns the run goal.
func (s *State) Goal() string { return s.goal }

// Plan returns a copy of the current plan.
func (s *State) Plan() []any { return cloneSeq(s.plan) }

// Actions returns a copy of the latest proposed actions.
func (s *State) Actions() []any { return cloneSeq(s.actions) }

// Notes returns a copy of the latest findings.
func (s *State) Notes() []any { return cloneSeq(s.notes) }

// Results returns the latest delta payload.
func (s *State) Results() any { return s.results }

// StopReason returns the latest controller reason, if any.
func (s *State) StopReason() (string, bool) {
	if s.stopReason == nil {
		return "", false
	}
	return *s.stopReason, true
}

// MarshalJSON renders the state with the field names the prompts refer to.
func (s *State) MarshalJSON() ([]byte, error) {
	return extract.Encode(stateJSON{
		Iteration:  s.iteration,
		Goal:       s.goal,
		Plan:       nonNil(s.plan),
		Actions:    nonNil(s.actions),
		Notes:      nonNil(s.notes),
		Results:    s.results,
		StopReason: s.stopReason,
	})
}

func (s *State) beginRound(round int) {
	s.iteration = round
}

// fold replaces the per-round fields with the round's outputs.
func (s *State) fold(outcome *RoundOutcome) {
	s.plan = asSequence(outcome.Planner.Data["plan"])
	s.actions = asSequence(outcome.Executor.Data["commands"])
	s.notes = asSequence(outcome.Reviewer.Data["findings"])
	s.results = outcome.Reviewer.Data["deltas"]
	s.stopReason = reasonOf(outcome.Controller.Data)
}

// prependPlan puts patch in front of the plan without deduplication.
func (s *State) prependPlan(patch []any) {
	merged := make([]any, 0, len(patch)+len(s.plan))
	merged = append(merged, patch...)
	merged = append(merged, s.plan...)
	s.plan = merged
}

// asSequence coerces a role value to a plan-like sequence. Lists are kept,
// nil and "" are empty and any other value becomes a single item.
func asSequence(v any) []any {
	switch t := v.(type) {
	case nil:
		return []any{}
	case []any:
		return cloneSeq(t)
	case string:
		if t == "" {
			return []any{}
		}
		return []any{t}
	default:
		return []any{t}
	}
}

func reasonOf(data extract.Object) *string {
	v, ok := data["reason"]
	if !ok || v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return &s
	}
	encoded, err := extract.Encode(v)
	if err != nil {
		return nil
	}
	s := string(encoded)
	return &s
}

func cloneSeq(in []any) []any {
	out := make([]any, len(in))
	copy(out, in)
	return out
}

func nonNil(in []any) []any {
	if in == nil {
		return []any{}
	}
	return in
}

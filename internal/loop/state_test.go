package loop

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/loopdriver/internal/extract"
	"github.com/codefionn/loopdriver/internal/step"
)

func TestNewStateShape(t *testing.T) {
	data, err := json.Marshal(NewState("find the bug"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"iteration":0,"goal":"find the bug","plan":[],"actions":[],"notes":[],"results":"","stop_reason":null}`, string(data))
}

func TestStateAccessorsReturnCopies(t *testing.T) {
	s := NewState("g")
	s.plan = []any{"a"}

	plan := s.Plan()
	plan[0] = "mutated"
	assert.Equal(t, []any{"a"}, s.Plan())
}

func TestAsSequence(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []any
	}{
		{"nil", nil, []any{}},
		{"empty string", "", []any{}},
		{"string", "one step", []any{"one step"}},
		{"list", []any{"a", "b"}, []any{"a", "b"}},
		{"object", map[string]any{"k": "v"}, []any{map[string]any{"k": "v"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, asSequence(tt.in))
		})
	}
}

func TestFoldStopReason(t *testing.T) {
	tests := []struct {
		name    string
		reason  any
		want    string
		present bool
	}{
		{"string", "done", "done", true},
		{"empty", "", "", true},
		{"null", nil, "", false},
		{"object", map[string]any{"why": "x"}, `{"why":"x"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState("g")
			s.fold(&RoundOutcome{
				Planner:    &step.Result{Data: extract.Object{}},
				Executor:   &step.Result{Data: extract.Object{}},
				Reviewer:   &step.Result{Data: extract.Object{}},
				Controller: &step.Result{Data: extract.Object{"reason": tt.reason}},
			})
			got, ok := s.StopReason()
			assert.Equal(t, tt.present, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFoldKeepsGoal(t *testing.T) {
	s := NewState("fixed")
	s.beginRound(4)
	s.fold(&RoundOutcome{
		Planner:    &step.Result{Data: extract.Object{"plan": []any{"p"}, "goal": "hijacked"}},
		Executor:   &step.Result{Data: extract.Object{}},
		Reviewer:   &step.Result{Data: extract.Object{"deltas": "none"}},
		Controller: &step.Result{Data: extract.Object{}},
	})

	assert.Equal(t, "fixed", s.Goal())
	assert.Equal(t, 4, s.Iteration())
	assert.Equal(t, "none", s.Results())
	assert.Equal(t, []any{}, s.Actions())
}

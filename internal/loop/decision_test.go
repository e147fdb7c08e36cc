package loop

import (
	"testing"

	"github.com/codefionn/loopdriver/internal/extract"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  Decision
	}{
		{"stop", "stop", DecisionStop},
		{"pause", "pause", DecisionPause},
		{"adjust", "adjust_plan", DecisionAdjustPlan},
		{"upper case", "STOP", DecisionOther},
		{"padded", "Stop ", DecisionOther},
		{"leading space", " pause", DecisionOther},
		{"mixed case adjust", "Adjust_Plan", DecisionOther},
		{"continue", "continue", DecisionOther},
		{"unknown word", "retry", DecisionOther},
		{"blank", "", DecisionStop},
		{"null", nil, DecisionOther},
		{"number", 3, DecisionOther},
		{"list", []any{"stop"}, DecisionOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseDecision(tt.value); got != tt.want {
				t.Errorf("ParseDecision(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestDecisionOfMissingKeyStops(t *testing.T) {
	if got := decisionOf(extract.Object{"reason": "r"}); got != DecisionStop {
		t.Errorf("decisionOf(missing) = %v, want stop", got)
	}
	if got := decisionOf(extract.Object{"decision": nil}); got != DecisionOther {
		t.Errorf("decisionOf(null) = %v, want other", got)
	}
}

func TestDecisionString(t *testing.T) {
	tests := map[Decision]string{
		DecisionStop:       "stop",
		DecisionPause:      "pause",
		DecisionAdjustPlan: "adjust_plan",
		DecisionOther:      "other",
	}
	for d, want := range tests {
		if got := d.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(d), got, want)
		}
	}
}

func TestPlanPatchOf(t *testing.T) {
	if got := planPatchOf(extract.Object{"plan_patch": ""}); got != nil {
		t.Errorf("string patch = %v, want nil", got)
	}
	if got := planPatchOf(extract.Object{}); got != nil {
		t.Errorf("missing patch = %v, want nil", got)
	}
	got := planPatchOf(extract.Object{"plan_patch": []any{"a"}})
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("list patch = %v", got)
	}
}

func TestDefaultStrategy(t *testing.T) {
	tests := []struct {
		name     string
		outcome  RoundOutcome
		want     IterationResult
		wantPlan []any
	}{
		{"stop", RoundOutcome{Decision: DecisionStop}, BreakStop, []any{"P3"}},
		{"pause", RoundOutcome{Decision: DecisionPause}, BreakPause, []any{"P3"}},
		{"adjust", RoundOutcome{Decision: DecisionAdjustPlan, PlanPatch: []any{"P1", "P2"}}, ContinueAdjusted, []any{"P1", "P2", "P3"}},
		{"adjust duplicate", RoundOutcome{Decision: DecisionAdjustPlan, PlanPatch: []any{"P3"}}, ContinueAdjusted, []any{"P3", "P3"}},
		{"adjust empty", RoundOutcome{Decision: DecisionAdjustPlan}, Continue, []any{"P3"}},
		{"other", RoundOutcome{Decision: DecisionOther, PlanPatch: []any{"X"}}, Continue, []any{"P3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewState("g")
			state.plan = []any{"P3"}

			got := NewDefaultStrategy().Next(state, &tt.outcome)
			if got != tt.want {
				t.Errorf("Next() = %v, want %v", got, tt.want)
			}
			plan := state.Plan()
			if len(plan) != len(tt.wantPlan) {
				t.Fatalf("plan = %v, want %v", plan, tt.wantPlan)
			}
			for i := range plan {
				if plan[i] != tt.wantPlan[i] {
					t.Errorf("plan = %v, want %v", plan, tt.wantPlan)
				}
			}
		})
	}
}

func TestIterationResultString(t *testing.T) {
	if Continue.String() != "continue" || BreakStop.String() != "break_stop" || IterationResult(99).String() != "unknown" {
		t.Error("unexpected iteration result names")
	}
	if Continue.Terminal() || ContinueAdjusted.Terminal() || !BreakPause.Terminal() {
		t.Error("unexpected Terminal() values")
	}
}

package loop

import (
	"context"
	"fmt"

	"github.com/codefionn/loopdriver/internal/extract"
	"github.com/codefionn/loopdriver/internal/progress"
	"github.com/codefionn/loopdriver/internal/runlog"
	"github.com/codefionn/loopdriver/internal/step"
)

// Invoker runs a single role. Implemented by *step.Invoker.
type Invoker interface {
	Invoke(ctx context.Context, role step.Role, state any, extra string) (*step.Result, error)
}

// RoundOutcome holds the four role results of one round and the decision
// taken from the controller's output.
type RoundOutcome struct {
	Planner    *step.Result
	Executor   *step.Result
	Reviewer   *step.Result
	Controller *step.Result

	Decision  Decision
	PlanPatch []any
}

// Round executes one full pass through the four roles.
type Round interface {
	Execute(ctx context.Context, state *State, cb progress.Callback) (*RoundOutcome, error)
}

// RoundExecutor invokes the roles in order and appends each result to the
// run log before the next role starts.
type RoundExecutor struct {
	invoker   Invoker
	recorder  runlog.Recorder
	maxRounds int
}

// NewRoundExecutor creates the default Round implementation.
func NewRoundExecutor(invoker Invoker, recorder runlog.Recorder, maxRounds int) *RoundExecutor {
	return &RoundExecutor{invoker: invoker, recorder: recorder, maxRounds: maxRounds}
}

// Execute implements Round.
func (r *RoundExecutor) Execute(ctx context.Context, state *State, cb progress.Callback) (*RoundOutcome, error) {
	outcome := &RoundOutcome{}
	results := make([]*step.Result, 0, len(Roles))

	for _, role := range Roles {
		extra, err := contextFor(role.Name, results)
		if err != nil {
			return nil, err
		}

		r.report(cb, state, role.Name, progress.StageStepStarted)
		res, err := r.invoker.Invoke(ctx, role, state, extra)
		if err != nil {
			return nil, err
		}
		if err := r.recorder.Record(role.Name, res.Data); err != nil {
			return nil, fmt.Errorf("record %s: %w", role.Name, err)
		}
		r.report(cb, state, role.Name, progress.StageStepFinished)

		results = append(results, res)
	}

	outcome.Planner, outcome.Executor, outcome.Reviewer, outcome.Controller = results[0], results[1], results[2], results[3]
	outcome.Decision = decisionOf(outcome.Controller.Data)
	outcome.PlanPatch = planPatchOf(outcome.Controller.Data)
	return outcome, nil
}

func (r *RoundExecutor) report(cb progress.Callback, state *State, role string, stage progress.Stage) {
	dispatch(cb, progress.Update{
		Round:     state.Iteration() + 1,
		MaxRounds: r.maxRounds,
		Role:      role,
		Stage:     stage,
	})
}

// contextFor builds the extra context for role from the earlier results of
// the same round.
func contextFor(role string, earlier []*step.Result) (string, error) {
	switch role {
	case RoleExecutor:
		plan, err := labeled("PLAN:", earlier[0])
		if err != nil {
			return "", err
		}
		return plan, nil
	case RoleReviewer:
		plan, err := labeled("PLAN:", earlier[0])
		if err != nil {
			return "", err
		}
		exec, err := labeled("EXEC:", earlier[1])
		if err != nil {
			return "", err
		}
		return plan + "\n\n" + exec, nil
	case RoleController:
		return labeled("REVIEW:", earlier[2])
	default:
		return "", nil
	}
}

func labeled(label string, res *step.Result) (string, error) {
	data, err := extract.Encode(res.Data)
	if err != nil {
		return "", fmt.Errorf("encode %s output: %w", res.Name, err)
	}
	return label + "\n" + string(data), nil
}

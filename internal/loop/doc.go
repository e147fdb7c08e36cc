// Package loop runs the plan, execute, review, decide control loop.
//
// # Overview
//
// Each round invokes four roles in a fixed order and threads their output
// forward:
//
//   - planner: sees the state only
//   - executor: sees the planner's output under "PLAN:"
//   - reviewer: sees planner and executor output under "PLAN:" and "EXEC:"
//   - controller: sees the reviewer's output under "REVIEW:"
//
// Every role's structured output is appended to the run log before the next
// role runs. After the controller answers, the round's outputs replace the
// corresponding State fields and the Strategy evaluates the decision:
//
//   - "stop" and "pause" end the run with the recorded reason
//   - "adjust_plan" puts a non-empty plan_patch in front of the plan
//   - anything else continues unchanged
//
// A run that reaches MaxIterations without a stopping decision ends as
// exhausted. A malformed role reply, a provider failure or a failed log
// append aborts the run with an error.
//
// # Usage
//
//	ctrl, err := loop.NewController(loop.Dependencies{
//	    Invoker:  invoker,
//	    Recorder: recorder,
//	}, loop.Config{MaxIterations: 10, Goal: goal})
//	result, err := ctrl.Run(ctx, progressCallback)
package loop

package loop

import (
	"github.com/codefionn/loopdriver/internal/prompts"
	"github.com/codefionn/loopdriver/internal/step"
)

// Role names, used as run log event names.
const (
	RolePlanner    = "planner"
	RoleExecutor   = "executor"
	RoleReviewer   = "reviewer"
	RoleController = "controller"
)

// Roles lists the four roles in execution order.
var Roles = []step.Role{
	{
		Name:       RolePlanner,
		PromptFile: prompts.PlannerFile,
		Required:   []string{"plan", "next_actions", "risks", "assumptions"},
	},
	{
		Name:       RoleExecutor,
		PromptFile: prompts.ExecutorFile,
		Required:   []string{"commands", "expected_outcomes", "fallbacks"},
	},
	{
		Name:       RoleReviewer,
		PromptFile: prompts.ReviewerFile,
		Required:   []string{"findings", "deltas", "suggested_changes"},
	},
	{
		Name:       RoleController,
		PromptFile: prompts.ControllerFile,
		Required:   []string{"decision", "reason", "plan_patch"},
	},
}

// Package hookexecutor runs a single Hook's actions against an
// ExecutionContext: it re-validates the hook, evaluates its conditions,
// gates on approval when required, then executes each action in order.
package hookexecutor

import "github.com/hookguard/hookguard/pkg/hooks/hookmodel"

// ExecutionResult is the outcome of one ExecuteHook call.
type ExecutionResult struct {
	HookID          hookmodel.HookID `json:"hook_id"`
	ExecutionID     string           `json:"execution_id"`
	Success         bool             `json:"success"`
	ActionsExecuted []ActionResult   `json:"actions_executed"`
	DurationMS      int64            `json:"duration_ms"`
	Error           string           `json:"error,omitempty"`
}

// ActionResult is the outcome of one action within a hook's action list.
type ActionResult struct {
	ActionType string `json:"action_type"`
	Success    bool   `json:"success"`
	Output     string `json:"output,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

func actionType(action hookmodel.HookAction) string {
	return string(action.Kind())
}

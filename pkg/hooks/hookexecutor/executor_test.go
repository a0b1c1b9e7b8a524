package hookexecutor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookguard/hookguard/pkg/hooks/hookapproval"
	"github.com/hookguard/hookguard/pkg/hooks/hookconditions"
	"github.com/hookguard/hookguard/pkg/hooks/hookerrors"
	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
	"github.com/hookguard/hookguard/pkg/hooks/hooksecurity"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	validator, err := hooksecurity.NewValidator()
	require.NoError(t, err)

	cfg := hookapproval.DefaultConfig()
	cfg.Notifications.Enabled = false
	cfg.AutoApproval.Enabled = false
	workflow := hookapproval.NewWithConfig(cfg)
	t.Cleanup(workflow.Close)

	return New(validator, hookconditions.NewEvaluator(), workflow)
}

func baseHook(actions ...hookmodel.HookAction) *hookmodel.Hook {
	return &hookmodel.Hook{
		ID:      "test-hook",
		Name:    "test hook",
		Events:  []hookmodel.EventType{"test.event"},
		Actions: actions,
		Enabled: true,
		Security: hookmodel.SecurityPolicy{
			MaxExecutionTime: 5,
			StopOnError:      true,
			AllowNetwork:      true,
		},
	}
}

func newExecCtx() *hookmodel.ExecutionContext {
	return &hookmodel.ExecutionContext{
		ExecutionID: "exec-1",
		EventType:   "test.event",
		Variables:   map[string]interface{}{"name": "world", "count": float64(3)},
	}
}

func TestExecuteHookRunsCommandAction(t *testing.T) {
	e := newTestExecutor(t)
	hook := baseHook(hookmodel.CommandAction{Command: "echo", Args: []string{"hello ${name}"}})

	result, err := e.ExecuteHook(context.Background(), hook, newExecCtx())
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.ActionsExecuted, 1)
	assert.Contains(t, result.ActionsExecuted[0].Output, "hello world")
}

func TestExecuteHookRejectsDangerousCommand(t *testing.T) {
	e := newTestExecutor(t)
	hook := baseHook(hookmodel.CommandAction{Command: "rm", Args: []string{"-rf", "/tmp/x"}})

	result, err := e.ExecuteHook(context.Background(), hook, newExecCtx())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.ActionsExecuted[0].Error)
}

func TestExecuteHookSkipsOnFalseCondition(t *testing.T) {
	e := newTestExecutor(t)
	hook := baseHook(hookmodel.CommandAction{Command: "echo"})
	hook.Conditions = []hookmodel.HookCondition{
		hookmodel.ContextVariableCondition{Key: "count", Operator: hookmodel.OpEq, Value: float64(100)},
	}

	result, err := e.ExecuteHook(context.Background(), hook, newExecCtx())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.ActionsExecuted)
	assert.Equal(t, "conditions not met", result.Error)
}

func TestExecuteHookDryRunSkipsActions(t *testing.T) {
	e := newTestExecutor(t)
	hook := baseHook(hookmodel.CommandAction{Command: "rm"})
	execCtx := newExecCtx()
	execCtx.DryRun = true

	result, err := e.ExecuteHook(context.Background(), hook, execCtx)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "dry run - action not executed", result.ActionsExecuted[0].Output)
}

func TestExecuteModifyContextSet(t *testing.T) {
	e := newTestExecutor(t)
	hook := baseHook(hookmodel.ModifyContextAction{Operation: hookmodel.OpSet, Key: "status", Value: "done"})
	execCtx := newExecCtx()

	result, err := e.ExecuteHook(context.Background(), hook, execCtx)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "done", execCtx.Variables["status"])
}

func TestExecuteModifyContextAppendRejectsNonArray(t *testing.T) {
	e := newTestExecutor(t)
	execCtx := newExecCtx()
	execCtx.Variables["tags"] = "not-an-array"
	hook := baseHook(hookmodel.ModifyContextAction{Operation: hookmodel.OpAppend, Key: "tags", Value: []interface{}{"x"}})

	result, err := e.ExecuteHook(context.Background(), hook, execCtx)
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestExecuteApprovalRequestAutoApprovesAndReturnsApproved(t *testing.T) {
	validator, err := hooksecurity.NewValidator()
	require.NoError(t, err)

	cfg := hookapproval.DefaultConfig()
	cfg.Notifications.Enabled = false
	cfg.AutoApproval.Enabled = true
	cfg.AutoApproval.AllowedRequestTypes = []string{"hook_action"}
	workflow := hookapproval.NewWithConfig(cfg)
	t.Cleanup(workflow.Close)

	e := New(validator, hookconditions.NewEvaluator(), workflow)
	hook := baseHook(hookmodel.ApprovalRequestAction{Message: "deploy ${name}", TimeoutMinutes: 1})

	result, err := e.ExecuteHook(context.Background(), hook, newExecCtx())
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "approval request: Approved", result.ActionsExecuted[0].Output)
}

func TestExecuteHookRunsHTTPRequestAction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	e := newTestExecutor(t)
	hook := baseHook(hookmodel.HTTPRequestAction{Method: "GET", URL: server.URL})

	result, err := e.ExecuteHook(context.Background(), hook, newExecCtx())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "ok", result.ActionsExecuted[0].Output)
	assert.Equal(t, "closed", e.circuit.State())
}

func TestExecuteHTTPRequestOpensCircuitAfterRepeatedFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	e := newTestExecutor(t)
	hook := baseHook(hookmodel.HTTPRequestAction{Method: "GET", URL: server.URL})

	for i := 0; i < 5; i++ {
		result, err := e.ExecuteHook(context.Background(), hook, newExecCtx())
		require.NoError(t, err)
		assert.False(t, result.Success)
	}
	assert.Equal(t, "open", e.circuit.State())

	_, err := e.executeHTTPRequest(context.Background(), hookmodel.HTTPRequestAction{Method: "GET", URL: server.URL}, newExecCtx())
	require.Error(t, err)
	assert.True(t, hookerrors.IsKind(err, hookerrors.KindExecutionFailure))
}

func TestExpandVariablesLeavesUnknownPlaceholdersLiteral(t *testing.T) {
	out, err := expandVariables("hello ${name}, missing ${nope}", map[string]interface{}{"name": "world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world, missing ${nope}", out)
}

func TestExpandVariablesStringifiesObjectsAsJSON(t *testing.T) {
	out, err := expandVariables("payload=${data}", map[string]interface{}{"data": map[string]interface{}{"a": float64(1)}})
	require.NoError(t, err)
	assert.Equal(t, `payload={"a":1}`, out)
}

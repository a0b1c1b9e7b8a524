package hookexecutor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hookguard/hookguard/pkg/hooks/hookapproval"
	"github.com/hookguard/hookguard/pkg/hooks/hookaudit"
	"github.com/hookguard/hookguard/pkg/hooks/hookconditions"
	"github.com/hookguard/hookguard/pkg/hooks/hookerrors"
	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
	"github.com/hookguard/hookguard/pkg/hooks/hooksecurity"
	"github.com/hookguard/hookguard/pkg/logger"
	"github.com/hookguard/hookguard/telemetry"
)

// awaitPollInterval is how often Executor polls the approval workflow
// while blocking inside an ApprovalRequest action.
const awaitPollInterval = 500 * time.Millisecond

// scriptInterpreters maps a script language to its file extension and
// the interpreter binary used to run it.
var scriptInterpreters = map[string]struct {
	extension   string
	interpreter string
}{
	"bash":       {"sh", "bash"},
	"sh":         {"sh", "sh"},
	"python":     {"py", "python3"},
	"javascript": {"js", "node"},
	"js":         {"js", "node"},
	"ruby":       {"rb", "ruby"},
}

// Executor runs a hook's actions in a secure environment: every action is
// re-validated at runtime even though the hook already passed static
// validation at registration time.
type Executor struct {
	validator  *hooksecurity.Validator
	evaluator  *hookconditions.Evaluator
	approvals  *hookapproval.Workflow
	audit      *hookaudit.Logger
	httpClient *http.Client
	circuit    *telemetry.TelemetryCircuitBreaker
	metrics    *telemetry.MetricInstruments
	log        logger.Logger
}

// Option configures an Executor at construction time.
type Option func(*Executor)

// WithAuditLogger attaches an audit trail sink.
func WithAuditLogger(audit *hookaudit.Logger) Option {
	return func(e *Executor) { e.audit = audit }
}

// WithLogger overrides the structured logger used for notification
// delivery and internal diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(e *Executor) { e.log = log }
}

// WithHTTPClient overrides the HTTP client used for HTTPRequest actions
// and webhook-based notifications. Defaults to an otelhttp-instrumented
// client so outbound calls remain part of the caller's trace.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Executor) { e.httpClient = client }
}

// WithCircuitBreaker overrides the circuit breaker guarding HTTPRequest
// and Slack webhook actions. Disabled (nil) by default.
func WithCircuitBreaker(cb *telemetry.TelemetryCircuitBreaker) Option {
	return func(e *Executor) { e.circuit = cb }
}

// New constructs an Executor. validator, evaluator, and approvals are
// required; the audit logger, HTTP client, circuit breaker, and structured
// logger may be overridden via Option. The circuit breaker trips after five
// consecutive outbound failures and starts testing recovery after thirty
// seconds, so a hook with a dead webhook stops blocking on dial timeouts
// for every queued execution.
func New(validator *hooksecurity.Validator, evaluator *hookconditions.Evaluator, approvals *hookapproval.Workflow, opts ...Option) *Executor {
	e := &Executor{
		validator:  validator,
		evaluator:  evaluator,
		approvals:  approvals,
		httpClient: telemetry.NewTracedHTTPClient(nil),
		circuit: telemetry.NewTelemetryCircuitBreaker(telemetry.CircuitConfig{
			Enabled:      true,
			MaxFailures:  5,
			RecoveryTime: 30 * time.Second,
			HalfOpenMax:  2,
		}),
		metrics: telemetry.NewMetricInstruments("hookguard.hookexecutor"),
		log:     logger.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteHook runs hook's full lifecycle against execCtx: static
// re-validation, condition evaluation, the approval gate, then every
// action in order, short-circuiting on the first failure when
// hook.Security.StopOnError is set.
func (e *Executor) ExecuteHook(ctx context.Context, hook *hookmodel.Hook, execCtx *hookmodel.ExecutionContext) (result *ExecutionResult, err error) {
	start := time.Now()
	execCtx.HookID = string(hook.ID)

	spanCtx, endSpan := telemetry.StartLinkedSpan(ctx, "hookexecutor.execute_hook", "", "",
		map[string]string{"hook.id": string(hook.ID), "hook.execution_id": execCtx.ExecutionID})
	defer endSpan()

	defer func() {
		_ = e.metrics.RecordHistogram(ctx, telemetry.MetricHookExecutionDuration, float64(time.Since(start).Milliseconds()))
		if err != nil || (result != nil && !result.Success) {
			_ = e.metrics.RecordCounter(ctx, telemetry.MetricHookExecutionFailure, 1)
		} else {
			_ = e.metrics.RecordCounter(ctx, telemetry.MetricHookExecutionSuccess, 1)
		}
	}()

	e.logStart(hook, execCtx)

	if err := e.validator.ValidateHook(hook); err != nil {
		e.logFailed(hook, execCtx, err)
		return nil, err
	}

	matched, err := e.evaluator.Evaluate(hook.Conditions, execCtx)
	if err != nil {
		e.logFailed(hook, execCtx, err)
		return nil, err
	}
	if !matched {
		e.logSkipped(hook, execCtx, "conditions not met")
		return &ExecutionResult{
			HookID:      hook.ID,
			ExecutionID: execCtx.ExecutionID,
			Success:     true,
			DurationMS:  time.Since(start).Milliseconds(),
			Error:       "conditions not met",
		}, nil
	}

	if hook.Security.RequireApproval {
		approved, err := e.requestApproval(spanCtx, hook, execCtx)
		if err != nil {
			e.logFailed(hook, execCtx, err)
			return nil, err
		}
		if !approved {
			e.logDenied(hook, execCtx)
			return &ExecutionResult{
				HookID:      hook.ID,
				ExecutionID: execCtx.ExecutionID,
				Success:     false,
				DurationMS:  time.Since(start).Milliseconds(),
				Error:       "approval denied",
			}, nil
		}
	}

	var results []ActionResult
	overallSuccess := true

	for _, action := range hook.Actions {
		actionStart := time.Now()
		output, err := e.executeAction(spanCtx, action, hook, execCtx)

		result := ActionResult{
			ActionType: actionType(action),
			Success:    err == nil,
			Output:     output,
			DurationMS: time.Since(actionStart).Milliseconds(),
		}
		if err != nil {
			overallSuccess = false
			result.Error = err.Error()
		}
		results = append(results, result)

		if err != nil && hook.Security.StopOnError {
			break
		}
	}

	execResult := &ExecutionResult{
		HookID:          hook.ID,
		ExecutionID:     execCtx.ExecutionID,
		Success:         overallSuccess,
		ActionsExecuted: results,
		DurationMS:      time.Since(start).Milliseconds(),
	}
	if !overallSuccess {
		execResult.Error = "one or more actions failed"
	}

	e.logComplete(hook, execCtx, execResult)
	return execResult, nil
}

func (e *Executor) requestApproval(ctx context.Context, hook *hookmodel.Hook, execCtx *hookmodel.ExecutionContext) (bool, error) {
	id, err := e.approvals.Submit(hookapproval.Request{
		HookID:      hook.ID,
		RequestType: "hook_execution",
		Description: fmt.Sprintf("Hook %q requires approval before running", hook.Name),
		RequestedBy: "system",
		Metadata:    map[string]interface{}{"execution_id": execCtx.ExecutionID},
	})
	if err != nil {
		return false, err
	}

	completed, err := e.approvals.Await(ctx, id, awaitPollInterval)
	if err != nil {
		return false, err
	}
	return completed.FinalStatus == hookapproval.StatusApproved || completed.FinalStatus == hookapproval.StatusAutoApproved, nil
}

func (e *Executor) executeAction(ctx context.Context, action hookmodel.HookAction, hook *hookmodel.Hook, execCtx *hookmodel.ExecutionContext) (string, error) {
	if execCtx.DryRun {
		return "dry run - action not executed", nil
	}

	timeout := time.Duration(hook.Security.MaxExecutionTime) * time.Second

	switch a := action.(type) {
	case hookmodel.CommandAction:
		return e.executeCommand(ctx, a, execCtx, timeout)
	case hookmodel.ScriptAction:
		return e.executeScript(ctx, a, execCtx, timeout)
	case hookmodel.HTTPRequestAction:
		return e.executeHTTPRequest(ctx, a, execCtx)
	case hookmodel.NotificationAction:
		return e.executeNotification(a, execCtx)
	case hookmodel.ApprovalRequestAction:
		return e.executeApprovalRequest(ctx, a, hook, execCtx)
	case hookmodel.ModifyContextAction:
		return e.executeModifyContext(a, execCtx)
	default:
		return "", hookerrors.Newf("execute_action", hookerrors.KindExecutionFailure, "unknown action kind %q", action.Kind())
	}
}

func (e *Executor) executeCommand(ctx context.Context, a hookmodel.CommandAction, execCtx *hookmodel.ExecutionContext, timeout time.Duration) (string, error) {
	if err := e.validator.ValidateCommand(a.Command); err != nil {
		return "", err
	}

	command, err := expandVariables(a.Command, execCtx.Variables)
	if err != nil {
		return "", err
	}
	args := make([]string, len(a.Args))
	for i, arg := range a.Args {
		args[i], err = expandVariables(arg, execCtx.Variables)
		if err != nil {
			return "", err
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, command, args...)
	cmd.Stdin = nil
	cmd.Env = os.Environ()
	for key, value := range a.Environment {
		expanded, err := expandVariables(value, execCtx.Variables)
		if err != nil {
			return "", err
		}
		cmd.Env = append(cmd.Env, key+"="+expanded)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return "", hookerrors.Newf("execute_command", hookerrors.KindTimeout, "command timed out after %s", timeout)
		}
		return "", hookerrors.Newf("execute_command", hookerrors.KindExecutionFailure, "command failed: %s: %s", err, stderr.String())
	}

	return stdout.String(), nil
}

func (e *Executor) executeScript(ctx context.Context, a hookmodel.ScriptAction, execCtx *hookmodel.ExecutionContext, timeout time.Duration) (string, error) {
	if err := e.validator.ValidateScriptLanguage(a.Language); err != nil {
		return "", err
	}

	spec, ok := scriptInterpreters[a.Language]
	if !ok {
		return "", hookerrors.Newf("execute_script", hookerrors.KindValidation, "unsupported script language: %s", a.Language)
	}

	content, err := expandVariables(a.Content, execCtx.Variables)
	if err != nil {
		return "", err
	}

	tempDir, err := os.MkdirTemp("", "hook-script-*")
	if err != nil {
		return "", hookerrors.New("execute_script", hookerrors.KindIO, err)
	}
	defer os.RemoveAll(tempDir)

	scriptPath := filepath.Join(tempDir, "hook_script."+spec.extension)
	if err := os.WriteFile(scriptPath, []byte(content), 0o644); err != nil {
		return "", hookerrors.New("execute_script", hookerrors.KindIO, err)
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(scriptPath, 0o755); err != nil {
			return "", hookerrors.New("execute_script", hookerrors.KindIO, err)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, spec.interpreter, scriptPath)
	cmd.Stdin = nil

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return "", hookerrors.Newf("execute_script", hookerrors.KindTimeout, "script timed out after %s", timeout)
		}
		return "", hookerrors.Newf("execute_script", hookerrors.KindExecutionFailure, "script failed: %s: %s", err, stderr.String())
	}

	return stdout.String(), nil
}

func (e *Executor) executeHTTPRequest(ctx context.Context, a hookmodel.HTTPRequestAction, execCtx *hookmodel.ExecutionContext) (string, error) {
	if err := e.validator.ValidateURL(a.URL); err != nil {
		return "", err
	}

	url, err := expandVariables(a.URL, execCtx.Variables)
	if err != nil {
		return "", err
	}

	var body io.Reader
	if a.Body != nil {
		expandedBody, err := expandVariables(*a.Body, execCtx.Variables)
		if err != nil {
			return "", err
		}
		body = bytes.NewReader([]byte(expandedBody))
	}

	reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, a.Method, url, body)
	if err != nil {
		return "", hookerrors.Newf("execute_http_request", hookerrors.KindValidation, "unsupported http method: %s", a.Method)
	}
	for key, value := range a.Headers {
		expanded, err := expandVariables(value, execCtx.Variables)
		if err != nil {
			return "", err
		}
		req.Header.Set(key, expanded)
	}

	if !e.circuit.Allow() {
		_ = e.metrics.RecordCounter(ctx, telemetry.MetricCircuitBreakerRejected, 1)
		telemetry.AddSpanEvent(ctx, "circuit_breaker_rejected", attribute.String("url", url))
		return "", hookerrors.Newf("execute_http_request", hookerrors.KindExecutionFailure, "circuit breaker open for %s, request skipped", url)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.circuit.RecordFailure()
		_ = e.metrics.RecordCounter(ctx, telemetry.MetricCircuitBreakerFailure, 1)
		if reqCtx.Err() == context.DeadlineExceeded {
			return "", hookerrors.Newf("execute_http_request", hookerrors.KindTimeout, "http request timed out after 30s")
		}
		return "", hookerrors.New("execute_http_request", hookerrors.KindExecutionFailure, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.circuit.RecordFailure()
		_ = e.metrics.RecordCounter(ctx, telemetry.MetricCircuitBreakerFailure, 1)
		return "", hookerrors.Newf("execute_http_request", hookerrors.KindExecutionFailure, "http request failed with status: %d", resp.StatusCode)
	}

	e.circuit.RecordSuccess()
	_ = e.metrics.RecordCounter(ctx, telemetry.MetricCircuitBreakerSuccess, 1)
	return string(respBody), nil
}

func (e *Executor) executeNotification(a hookmodel.NotificationAction, execCtx *hookmodel.ExecutionContext) (string, error) {
	message, err := expandVariables(a.Message, execCtx.Variables)
	if err != nil {
		return "", err
	}

	switch a.Channel {
	case hookmodel.ChannelConsole:
		fmt.Println(message)
	case hookmodel.ChannelLog:
		e.log.Info("hook notification", map[string]interface{}{"message": message})
	case hookmodel.ChannelEmail:
		e.log.Warn("email notification channel has no configured sender, logging instead", map[string]interface{}{"message": message})
	case hookmodel.ChannelSlack:
		if err := e.postSlack(message); err != nil {
			return "", hookerrors.New("execute_notification", hookerrors.KindExecutionFailure, err)
		}
	case hookmodel.ChannelWebhook, hookmodel.ChannelTeams, hookmodel.ChannelDiscord:
		e.log.Info("webhook notification channel has no configured endpoint, logging instead", map[string]interface{}{
			"channel": string(a.Channel),
			"message": message,
		})
	default:
		return "", hookerrors.Newf("execute_notification", hookerrors.KindValidation, "unknown notification channel %q", a.Channel)
	}

	return fmt.Sprintf("notification sent via %s", a.Channel), nil
}

func (e *Executor) postSlack(message string) error {
	webhookURL := os.Getenv("HOOKGUARD_SLACK_WEBHOOK_URL")
	if webhookURL == "" {
		e.log.Warn("slack notification requested but HOOKGUARD_SLACK_WEBHOOK_URL is unset, logging instead", map[string]interface{}{"message": message})
		return nil
	}
	if !e.circuit.Allow() {
		return hookerrors.Newf("post_slack", hookerrors.KindExecutionFailure, "circuit breaker open for slack webhook, notification skipped")
	}
	if err := slack.PostWebhook(webhookURL, &slack.WebhookMessage{Text: message}); err != nil {
		e.circuit.RecordFailure()
		return err
	}
	e.circuit.RecordSuccess()
	return nil
}

func (e *Executor) executeApprovalRequest(ctx context.Context, a hookmodel.ApprovalRequestAction, hook *hookmodel.Hook, execCtx *hookmodel.ExecutionContext) (string, error) {
	message, err := expandVariables(a.Message, execCtx.Variables)
	if err != nil {
		return "", err
	}

	timeout := time.Duration(a.TimeoutMinutes) * time.Minute
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	deadline := time.Now().UTC().Add(timeout)

	id, err := e.approvals.Submit(hookapproval.Request{
		HookID:            hook.ID,
		RequestType:       "hook_action",
		Description:       message,
		RequestedBy:       "system",
		RequiredApprovers: a.Approvers,
		ExpiresAt:         &deadline,
		Metadata:          map[string]interface{}{"execution_id": execCtx.ExecutionID},
	})
	if err != nil {
		return "", err
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	completed, err := e.approvals.Await(waitCtx, id, awaitPollInterval)
	if err != nil {
		return "", err
	}

	outcome := "Denied"
	if completed.FinalStatus == hookapproval.StatusApproved || completed.FinalStatus == hookapproval.StatusAutoApproved {
		outcome = "Approved"
	}
	return fmt.Sprintf("approval request: %s", outcome), nil
}

func (e *Executor) executeModifyContext(a hookmodel.ModifyContextAction, execCtx *hookmodel.ExecutionContext) (string, error) {
	switch a.Operation {
	case hookmodel.OpSet:
		execCtx.Variables[a.Key] = a.Value

	case hookmodel.OpAppend:
		existing, ok := execCtx.Variables[a.Key]
		if !ok {
			execCtx.Variables[a.Key] = a.Value
			break
		}
		existingSlice, ok1 := existing.([]interface{})
		newSlice, ok2 := a.Value.([]interface{})
		if !ok1 || !ok2 {
			return "", hookerrors.Newf("execute_context_modification", hookerrors.KindExecutionFailure, "cannot append non-array values for key %q", a.Key)
		}
		execCtx.Variables[a.Key] = append(append([]interface{}(nil), existingSlice...), newSlice...)

	case hookmodel.OpRemove:
		delete(execCtx.Variables, a.Key)

	case hookmodel.OpMerge:
		existing, ok := execCtx.Variables[a.Key]
		if !ok {
			execCtx.Variables[a.Key] = a.Value
			break
		}
		existingMap, ok1 := existing.(map[string]interface{})
		newMap, ok2 := a.Value.(map[string]interface{})
		if !ok1 || !ok2 {
			return "", hookerrors.Newf("execute_context_modification", hookerrors.KindExecutionFailure, "cannot merge non-object values for key %q", a.Key)
		}
		merged := make(map[string]interface{}, len(existingMap)+len(newMap))
		for k, v := range existingMap {
			merged[k] = v
		}
		for k, v := range newMap {
			merged[k] = v
		}
		execCtx.Variables[a.Key] = merged

	default:
		return "", hookerrors.Newf("execute_context_modification", hookerrors.KindValidation, "unknown context operation %q", a.Operation)
	}

	return fmt.Sprintf("context modified: %s %s", a.Key, a.Operation), nil
}

func (e *Executor) logStart(hook *hookmodel.Hook, execCtx *hookmodel.ExecutionContext) {
	if e.audit == nil {
		return
	}
	if err := e.audit.LogExecutionStart(string(hook.ID), execCtx.ExecutionID, string(execCtx.EventType), execCtx.DryRun); err != nil {
		e.log.Warn("failed to write execution-start audit event", map[string]interface{}{"error": err.Error()})
	}
}

func (e *Executor) logSkipped(hook *hookmodel.Hook, execCtx *hookmodel.ExecutionContext, reason string) {
	if e.audit == nil {
		return
	}
	if err := e.audit.LogExecutionSkipped(string(hook.ID), execCtx.ExecutionID, reason); err != nil {
		e.log.Warn("failed to write execution-skipped audit event", map[string]interface{}{"error": err.Error()})
	}
}

func (e *Executor) logDenied(hook *hookmodel.Hook, execCtx *hookmodel.ExecutionContext) {
	if e.audit == nil {
		return
	}
	if err := e.audit.LogExecutionDenied(string(hook.ID), execCtx.ExecutionID); err != nil {
		e.log.Warn("failed to write execution-denied audit event", map[string]interface{}{"error": err.Error()})
	}
}

func (e *Executor) logFailed(hook *hookmodel.Hook, execCtx *hookmodel.ExecutionContext, cause error) {
	if e.audit == nil {
		return
	}
	if err := e.audit.LogExecutionFailed(string(hook.ID), execCtx.ExecutionID, cause.Error()); err != nil {
		e.log.Warn("failed to write execution-failed audit event", map[string]interface{}{"error": err.Error()})
	}
}

func (e *Executor) logComplete(hook *hookmodel.Hook, execCtx *hookmodel.ExecutionContext, result *ExecutionResult) {
	if e.audit == nil {
		return
	}
	if err := e.audit.LogExecutionComplete(string(hook.ID), execCtx.ExecutionID, result.Success, result.DurationMS, len(result.ActionsExecuted)); err != nil {
		e.log.Warn("failed to write execution-complete audit event", map[string]interface{}{"error": err.Error()})
	}
}

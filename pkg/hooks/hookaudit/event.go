// Package hookaudit implements the append-only audit trail for hook
// lifecycle, execution, approval, and security events.
package hookaudit

import (
	"os"
	"time"

	"github.com/google/uuid"
)

// EventType tags an AuditEvent's kind. Each event is one flat struct
// (rather than per-kind structs) since most fields are shared and the
// handful that aren't are simply left zero-valued for kinds that don't
// use them — idiomatic for a write-mostly log record.
type EventType string

const (
	EventHookRegistered      EventType = "hook_registered"
	EventHookRemoved         EventType = "hook_removed"
	EventHookModified        EventType = "hook_modified"
	EventExecutionStarted    EventType = "execution_started"
	EventExecutionCompleted  EventType = "execution_completed"
	EventExecutionFailed     EventType = "execution_failed"
	EventExecutionSkipped    EventType = "execution_skipped"
	EventExecutionDenied     EventType = "execution_denied"
	EventSecurityViolation   EventType = "security_violation"
	EventApprovalRequested   EventType = "approval_requested"
	EventApprovalGranted     EventType = "approval_granted"
	EventApprovalDenied      EventType = "approval_denied"
	EventApprovalDecision    EventType = "approval_decision_made"
	EventApprovalCancelled   EventType = "approval_cancelled"
	EventApprovalAutoGranted EventType = "approval_auto_approved"
	EventApprovalCompleted   EventType = "approval_completed"
	EventQualityGateAdded    EventType = "quality_gate_added"
	EventQualityGateRemoved  EventType = "quality_gate_removed"
	EventBudgetCreated       EventType = "budget_created"
	EventAllHooksCleared     EventType = "all_hooks_cleared"
	EventPreStageHooksRun    EventType = "pre_stage_hooks_run"
	EventPostStageHooksRun   EventType = "post_stage_hooks_run"
)

// Event is a single audit log record.
type Event struct {
	ID          string                 `json:"id"`
	Timestamp   time.Time              `json:"timestamp"`
	Type        EventType              `json:"type"`
	HookID      string                 `json:"hook_id,omitempty"`
	HookName    string                 `json:"hook_name,omitempty"`
	Changes     []string               `json:"changes,omitempty"`
	ExecutionID string                 `json:"execution_id,omitempty"`
	EventKind   string                 `json:"event_type,omitempty"`
	Success     *bool                  `json:"success,omitempty"`
	DurationMS  int64                  `json:"duration_ms,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Reason      string                 `json:"reason,omitempty"`
	Violation   string                 `json:"violation,omitempty"`
	Approvers   []string               `json:"approvers,omitempty"`
	Approver    string                 `json:"approver,omitempty"`
	Decision    string                 `json:"decision,omitempty"`
	Result      string                 `json:"result,omitempty"`
	GateName    string                 `json:"gate_name,omitempty"`
	BudgetName  string                 `json:"budget_name,omitempty"`
	Amount      string                 `json:"amount,omitempty"`
	Count       int                    `json:"count,omitempty"`
	UserID      string                 `json:"user_id,omitempty"`
	SessionID   string                 `json:"session_id,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
}

// NewEvent constructs an Event stamped with a fresh id, timestamp, and the
// OS user as user_id (matching the original's `std::env::var("USER")`).
func NewEvent(eventType EventType) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		UserID:    os.Getenv("USER"),
	}
}

// WithContext attaches a free-form context key/value and returns the event
// for chaining.
func (e *Event) WithContext(key string, value interface{}) *Event {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Package hookmodel holds the shared data model for the hook runtime:
// hooks, events, execution contexts, and the security policy every hook
// carries. Components in sibling packages operate on these types rather
// than defining their own.
package hookmodel

import (
	"time"
)

// Priority orders hooks and queued events. Higher values run first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParsePriority parses the CLI/config string form of Priority.
func ParsePriority(s string) (Priority, bool) {
	switch s {
	case "low":
		return PriorityLow, true
	case "normal":
		return PriorityNormal, true
	case "high":
		return PriorityHigh, true
	case "critical":
		return PriorityCritical, true
	default:
		return PriorityNormal, false
	}
}

// EventType is a closed enumeration plus a Custom("name") escape hatch.
// It is represented as a plain string so that Custom("x") == Custom("x")
// holds by ordinary Go equality, matching the structural-equality
// requirement in SPEC_FULL.md section 3.
type EventType string

const customEventPrefix = "custom:"

// CustomEvent builds the EventType for a custom event name.
func CustomEvent(name string) EventType {
	return EventType(customEventPrefix + name)
}

// IsCustom reports whether e is a Custom(name) event and returns name.
func (e EventType) IsCustom() (string, bool) {
	s := string(e)
	if len(s) > len(customEventPrefix) && s[:len(customEventPrefix)] == customEventPrefix {
		return s[len(customEventPrefix):], true
	}
	return "", false
}

// Known event types, grouped as in the source vocabulary.
const (
	EventBeforeConsensus     EventType = "before_consensus"
	EventAfterConsensus      EventType = "after_consensus"
	EventBeforeGeneratorStage EventType = "before_generator_stage"
	EventAfterGeneratorStage  EventType = "after_generator_stage"
	EventBeforeRefinerStage   EventType = "before_refiner_stage"
	EventAfterRefinerStage    EventType = "after_refiner_stage"
	EventBeforeValidatorStage EventType = "before_validator_stage"
	EventAfterValidatorStage  EventType = "after_validator_stage"
	EventBeforeCuratorStage   EventType = "before_curator_stage"
	EventAfterCuratorStage    EventType = "after_curator_stage"
	EventConsensusError       EventType = "consensus_error"

	EventBeforeCodeModification EventType = "before_code_modification"
	EventAfterCodeModification  EventType = "after_code_modification"
	EventBeforeFileWrite        EventType = "before_file_write"
	EventAfterFileWrite         EventType = "after_file_write"
	EventBeforeFileDelete       EventType = "before_file_delete"
	EventAfterFileDelete        EventType = "after_file_delete"

	EventBeforeAnalysis    EventType = "before_analysis"
	EventAfterAnalysis     EventType = "after_analysis"
	EventAnalysisComplete  EventType = "analysis_complete"
	EventQualityGateCheck  EventType = "quality_gate_check"

	EventCostThresholdReached  EventType = "cost_threshold_reached"
	EventBudgetExceeded        EventType = "budget_exceeded"
	EventCostEstimateAvailable EventType = "cost_estimate_available"

	EventBeforeIndexing    EventType = "before_indexing"
	EventAfterIndexing     EventType = "after_indexing"
	EventRepositoryChanged EventType = "repository_changed"
	EventDependencyChanged EventType = "dependency_changed"

	EventSecurityCheckFailed EventType = "security_check_failed"
	EventUntrustedPathAccess EventType = "untrusted_path_access"
	EventPermissionDenied    EventType = "permission_denied"

	EventPlanCreated             EventType = "plan_created"
	EventTaskCreated             EventType = "task_created"
	EventTaskCompleted           EventType = "task_completed"
	EventRiskIdentified          EventType = "risk_identified"
	EventTimelineUpdated         EventType = "timeline_updated"
	EventPlanExecutionStarted    EventType = "plan_execution_started"
	EventPlanExecutionCompleted  EventType = "plan_execution_completed"

	EventConversationStored      EventType = "conversation_stored"
	EventPatternDetected         EventType = "pattern_detected"
	EventMemoryEvictionOccurred  EventType = "memory_eviction_occurred"
	EventThematicClusterCreated  EventType = "thematic_cluster_created"
	EventContextRetrieved        EventType = "context_retrieved"

	EventThresholdExceeded EventType = "threshold_exceeded"
	EventAnomalyDetected   EventType = "anomaly_detected"
	EventReportGenerated   EventType = "report_generated"
	EventDashboardUpdated  EventType = "dashboard_updated"
	EventMetricCalculated  EventType = "metric_calculated"
)

// knownEventTypes backs strict config parsing (SPEC_FULL.md section 6:
// "unknown event types not prefixed custom: fail").
var knownEventTypes = map[EventType]struct{}{
	EventBeforeConsensus: {}, EventAfterConsensus: {},
	EventBeforeGeneratorStage: {}, EventAfterGeneratorStage: {},
	EventBeforeRefinerStage: {}, EventAfterRefinerStage: {},
	EventBeforeValidatorStage: {}, EventAfterValidatorStage: {},
	EventBeforeCuratorStage: {}, EventAfterCuratorStage: {},
	EventConsensusError: {},
	EventBeforeCodeModification: {}, EventAfterCodeModification: {},
	EventBeforeFileWrite: {}, EventAfterFileWrite: {},
	EventBeforeFileDelete: {}, EventAfterFileDelete: {},
	EventBeforeAnalysis: {}, EventAfterAnalysis: {},
	EventAnalysisComplete: {}, EventQualityGateCheck: {},
	EventCostThresholdReached: {}, EventBudgetExceeded: {}, EventCostEstimateAvailable: {},
	EventBeforeIndexing: {}, EventAfterIndexing: {},
	EventRepositoryChanged: {}, EventDependencyChanged: {},
	EventSecurityCheckFailed: {}, EventUntrustedPathAccess: {}, EventPermissionDenied: {},
	EventPlanCreated: {}, EventTaskCreated: {}, EventTaskCompleted: {},
	EventRiskIdentified: {}, EventTimelineUpdated: {},
	EventPlanExecutionStarted: {}, EventPlanExecutionCompleted: {},
	EventConversationStored: {}, EventPatternDetected: {},
	EventMemoryEvictionOccurred: {}, EventThematicClusterCreated: {}, EventContextRetrieved: {},
	EventThresholdExceeded: {}, EventAnomalyDetected: {}, EventReportGenerated: {},
	EventDashboardUpdated: {}, EventMetricCalculated: {},
}

// IsValidEventType reports whether e is a known event type or a
// well-formed Custom(name).
func IsValidEventType(e EventType) bool {
	if _, custom := e.IsCustom(); custom {
		return true
	}
	_, known := knownEventTypes[e]
	return known
}

// EventSourceKind tags EventSource's variant.
type EventSourceKind string

const (
	SourceCLI        EventSourceKind = "cli"
	SourceConsensus   EventSourceKind = "consensus"
	SourceFileSystem  EventSourceKind = "file_system"
	SourceAnalysis    EventSourceKind = "analysis"
	SourceUser        EventSourceKind = "user"
	SourceSystem      EventSourceKind = "system"
)

// EventSource identifies what produced a HookEvent.
type EventSource struct {
	Kind    EventSourceKind `json:"type"`
	Command string          `json:"command,omitempty"`
	Stage   string          `json:"stage,omitempty"`
	Path    string          `json:"path,omitempty"`
	Target  string          `json:"target,omitempty"`
	UserID  string          `json:"id,omitempty"`
}

func SourceFromCLI(command string) EventSource       { return EventSource{Kind: SourceCLI, Command: command} }
func SourceFromConsensus(stage string) EventSource    { return EventSource{Kind: SourceConsensus, Stage: stage} }
func SourceFromFileSystem(path string) EventSource    { return EventSource{Kind: SourceFileSystem, Path: path} }
func SourceFromAnalysis(target string) EventSource    { return EventSource{Kind: SourceAnalysis, Target: target} }
func SourceFromUser(id string) EventSource            { return EventSource{Kind: SourceUser, UserID: id} }
func SourceSystemOrigin() EventSource                 { return EventSource{Kind: SourceSystem} }

// EventMetadata carries correlation and routing hints for a HookEvent.
type EventMetadata struct {
	CorrelationID string   `json:"correlation_id,omitempty"`
	UserID        string   `json:"user_id,omitempty"`
	SessionID     string   `json:"session_id,omitempty"`
	Priority      *int     `json:"priority,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// HookEvent is a single occurrence produced by the host system.
type HookEvent struct {
	EventType EventType              `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    EventSource            `json:"source"`
	Context   map[string]interface{} `json:"context"`
	Metadata  EventMetadata          `json:"metadata"`
}

// NewHookEvent constructs an event with a fresh timestamp and empty context.
func NewHookEvent(eventType EventType, source EventSource) *HookEvent {
	return &HookEvent{
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Context:   make(map[string]interface{}),
		Metadata:  EventMetadata{},
	}
}

// WithContext sets a context key and returns the event for chaining.
func (e *HookEvent) WithContext(key string, value interface{}) *HookEvent {
	e.Context[key] = value
	return e
}

// ExecutionContext is built once per (hook, event) pair.
type ExecutionContext struct {
	ExecutionID string                 `json:"execution_id"`
	HookID      string                 `json:"hook_id"`
	EventType   EventType              `json:"event_type"`
	Variables   map[string]interface{} `json:"variables"`
	DryRun      bool                   `json:"dry_run"`
}

// FromEvent copies the event's context into a fresh ExecutionContext and
// stamps the standard variables (event_type, timestamp) plus a new
// execution id.
func FromEvent(event *HookEvent, executionID string) *ExecutionContext {
	vars := make(map[string]interface{}, len(event.Context)+2)
	for k, v := range event.Context {
		vars[k] = v
	}
	vars["event_type"] = string(event.EventType)
	vars["timestamp"] = event.Timestamp.Format(time.RFC3339)

	return &ExecutionContext{
		ExecutionID: executionID,
		EventType:   event.EventType,
		Variables:   vars,
	}
}

// Clone returns a deep-enough copy: the variables map is duplicated so
// that ModifyContext mutations in one hook's execution are not visible
// to a sibling hook matched to the same event.
func (c *ExecutionContext) Clone() *ExecutionContext {
	vars := make(map[string]interface{}, len(c.Variables))
	for k, v := range c.Variables {
		vars[k] = v
	}
	return &ExecutionContext{
		ExecutionID: c.ExecutionID,
		HookID:      c.HookID,
		EventType:   c.EventType,
		Variables:   vars,
		DryRun:      c.DryRun,
	}
}

// HookMetadata is descriptive, non-behavioral information about a hook.
type HookMetadata struct {
	Author    string    `json:"author,omitempty" yaml:"author,omitempty"`
	Version   string    `json:"version" yaml:"version"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
	Tags      []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	Source    string    `json:"source,omitempty" yaml:"source,omitempty"`
}

// DefaultHookMetadata returns metadata stamped with the current time.
func DefaultHookMetadata() HookMetadata {
	now := time.Now().UTC()
	return HookMetadata{Version: "1.0.0", CreatedAt: now, UpdatedAt: now}
}

// SecurityPolicy scopes what a hook's actions are allowed to do.
type SecurityPolicy struct {
	RequireApproval   bool     `json:"require_approval" yaml:"require_approval"`
	AllowedCommands   []string `json:"allowed_commands,omitempty" yaml:"allowed_commands,omitempty"`
	BlockedCommands   []string `json:"blocked_commands,omitempty" yaml:"blocked_commands,omitempty"`
	AllowedLanguages  []string `json:"allowed_languages,omitempty" yaml:"allowed_languages,omitempty"`
	AllowedDomains    []string `json:"allowed_domains,omitempty" yaml:"allowed_domains,omitempty"`
	BlockedDomains    []string `json:"blocked_domains,omitempty" yaml:"blocked_domains,omitempty"`
	MaxExecutionTime  int      `json:"max_execution_time" yaml:"max_execution_time"` // seconds, 1..3600
	MaxMemoryMB       *int     `json:"max_memory_mb,omitempty" yaml:"max_memory_mb,omitempty"` // 1..8192
	StopOnError       bool     `json:"stop_on_error" yaml:"stop_on_error"`
	SandboxMode       bool     `json:"sandbox_mode" yaml:"sandbox_mode"`
	AllowNetwork      bool     `json:"allow_network" yaml:"allow_network"`
	AllowFileSystem   bool     `json:"allow_file_system" yaml:"allow_file_system"`
	RequiredPermissions []string `json:"required_permissions,omitempty" yaml:"required_permissions,omitempty"`
}

// DefaultSecurityPolicy returns a conservative, sandboxed default.
func DefaultSecurityPolicy() SecurityPolicy {
	return SecurityPolicy{
		MaxExecutionTime: 30,
		StopOnError:      true,
		SandboxMode:       true,
		AllowNetwork:      false,
		AllowFileSystem:   false,
	}
}

// HookID is a stable identifier: a UUID or a name-derived slug.
type HookID string

// Hook is a declarative binding of event types to actions, gated by
// conditions and a security policy.
type Hook struct {
	ID          HookID          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Events      []EventType     `json:"events" yaml:"events"`
	Conditions  []HookCondition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Actions     []HookAction    `json:"actions" yaml:"actions"`
	Priority    Priority        `json:"priority" yaml:"priority"`
	Enabled     bool            `json:"enabled" yaml:"enabled"`
	Security    SecurityPolicy  `json:"security" yaml:"security"`
	Metadata    HookMetadata    `json:"metadata" yaml:"metadata"`
}

// MaxActions is the hard cap on a hook's action list length.
const MaxActions = 50

// Clone returns a deep copy of the hook, used when the registry installs
// or replaces an entry so external mutation of the caller's value can't
// reach the stored one.
func (h *Hook) Clone() *Hook {
	clone := *h
	clone.Events = append([]EventType(nil), h.Events...)
	clone.Conditions = append([]HookCondition(nil), h.Conditions...)
	clone.Actions = append([]HookAction(nil), h.Actions...)
	clone.Metadata.Tags = append([]string(nil), h.Metadata.Tags...)
	return &clone
}

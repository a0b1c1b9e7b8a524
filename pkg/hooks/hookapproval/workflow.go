package hookapproval

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hookguard/hookguard/pkg/hooks/hookaudit"
	"github.com/hookguard/hookguard/pkg/hooks/hookerrors"
	"github.com/hookguard/hookguard/pkg/logger"
	"github.com/hookguard/hookguard/telemetry"
)

// Workflow is the unified approval state machine: pending/completed
// request stores, matching rules, and a background reminder/escalation
// monitor per pending request.
type Workflow struct {
	mu         sync.RWMutex
	pending    map[string]Request
	completed  map[string]Completed
	rules      []Rule
	config     Config
	audit      *hookaudit.Logger
	notifier   *notifier
	log        logger.Logger
	monitorCtx    context.Context
	monitorCancel context.CancelFunc
	wg            sync.WaitGroup
}

// Option configures a Workflow at construction time.
type Option func(*Workflow)

// WithAuditLogger attaches an audit trail sink.
func WithAuditLogger(audit *hookaudit.Logger) Option {
	return func(w *Workflow) { w.audit = audit }
}

// WithEmailSender wires an EmailSender for EmailChannel delivery.
func WithEmailSender(sender EmailSender) Option {
	return func(w *Workflow) { w.notifier.emailer = sender }
}

// WithLogger overrides the structured logger used for internal
// diagnostics and the LogChannel sink.
func WithLogger(log logger.Logger) Option {
	return func(w *Workflow) {
		w.log = log
		w.notifier.log = log
	}
}

// New constructs a Workflow with the default configuration.
func New(opts ...Option) *Workflow {
	return NewWithConfig(DefaultConfig(), opts...)
}

// NewWithConfig constructs a Workflow with a caller-supplied configuration.
func NewWithConfig(config Config, opts ...Option) *Workflow {
	log := logger.NewDefaultLogger()
	ctx, cancel := context.WithCancel(context.Background())

	w := &Workflow{
		pending:       make(map[string]Request),
		completed:     make(map[string]Completed),
		config:        config,
		log:           log,
		notifier:      newNotifier(log, nil),
		monitorCtx:    ctx,
		monitorCancel: cancel,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Close stops every in-flight monitor goroutine. Pending requests are
// left in place; only their reminder/escalation timers stop firing.
func (w *Workflow) Close() {
	w.monitorCancel()
	w.wg.Wait()
}

// Submit registers a new approval request, applying matching rules and
// auto-approval eligibility before it becomes pending.
func (w *Workflow) Submit(request Request) (string, error) {
	request = newRequest(request)

	w.mu.Lock()
	if len(w.pending) >= w.config.MaxConcurrentApprovals {
		w.mu.Unlock()
		return "", fmt.Errorf("maximum concurrent approvals (%d) reached", w.config.MaxConcurrentApprovals)
	}
	rules := append([]Rule(nil), w.rules...)
	w.mu.Unlock()

	applyRules(rules, &request, time.Now().UTC())

	if w.canAutoApprove(request) {
		return w.autoApprove(request)
	}

	if request.ExpiresAt == nil {
		deadline := time.Now().UTC().Add(w.config.DefaultTimeout)
		request.ExpiresAt = &deadline
	}

	w.mu.Lock()
	w.pending[request.ID] = request
	w.mu.Unlock()

	w.logEvent(hookaudit.EventApprovalRequested, func(e *hookaudit.Event) {
		e.HookID = string(request.HookID)
		e.ExecutionID = request.ID
		e.Approvers = request.RequiredApprovers
		e.Result = "pending"
	})

	if w.config.Notifications.Enabled {
		w.notifier.send(w.config.Notifications.Channels, &request, "New approval request submitted")
	}

	w.startMonitor(request.ID)

	return request.ID, nil
}

func (w *Workflow) canAutoApprove(request Request) bool {
	cfg := w.config.AutoApproval
	if !cfg.Enabled {
		return false
	}
	if !containsString(cfg.AllowedRequestTypes, request.RequestType) {
		return false
	}
	if cost, ok := request.Metadata["cost"]; ok {
		if v, ok := asFloat(cost); ok && v > cfg.CostThreshold {
			return false
		}
	}
	if quality, ok := request.Metadata["quality_score"]; ok {
		if v, ok := asFloat(quality); ok && v < cfg.QualityThreshold {
			return false
		}
	}
	if cfg.RateLimitPerHour > 0 {
		cutoff := time.Now().UTC().Add(-time.Hour)
		recent := 0
		w.mu.RLock()
		for _, c := range w.completed {
			if c.FinalStatus == StatusAutoApproved && c.CompletedAt.After(cutoff) {
				recent++
			}
		}
		w.mu.RUnlock()
		if recent >= cfg.RateLimitPerHour {
			return false
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (w *Workflow) autoApprove(request Request) (string, error) {
	now := time.Now().UTC()
	request.ReceivedApprovals = append(request.ReceivedApprovals, Decision{
		Approver:  "system",
		Decision:  StatusAutoApproved,
		Reason:    "Auto-approved based on configured rules",
		Timestamp: now,
		Metadata:  map[string]interface{}{},
	})

	w.mu.Lock()
	w.completed[request.ID] = Completed{
		Request:              request,
		FinalStatus:           StatusAutoApproved,
		CompletedAt:           now,
		TotalDurationSeconds:  int64(now.Sub(request.CreatedAt).Seconds()),
	}
	w.mu.Unlock()

	w.logEvent(hookaudit.EventApprovalGranted, func(e *hookaudit.Event) {
		e.HookID = string(request.HookID)
		e.ExecutionID = request.ID
		e.Approver = "system"
	})

	return request.ID, nil
}

// Decide records a reviewer's decision on a pending request, completing
// it if that decision is final (Rejected always; Approved once every
// required approver has signed off).
func (w *Workflow) Decide(requestID, approver string, decision Status, reason string, metadata map[string]interface{}) (ProcessResult, error) {
	w.mu.Lock()
	request, ok := w.pending[requestID]
	if !ok {
		w.mu.Unlock()
		return ProcessResult{}, fmt.Errorf("approval request not found: %s", requestID)
	}

	if request.ExpiresAt != nil && time.Now().UTC().After(*request.ExpiresAt) {
		delete(w.pending, requestID)
		w.mu.Unlock()
		w.completeRequest(request, StatusExpired)
		return ProcessResult{}, hookerrors.Newf("decide", hookerrors.KindRequestExpired, "approval request expired: %s", requestID)
	}

	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	request.ReceivedApprovals = append(request.ReceivedApprovals, Decision{
		Approver:  approver,
		Decision:  decision,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	})
	w.pending[requestID] = request
	w.mu.Unlock()

	w.logEvent(auditKindForDecision(decision), func(e *hookaudit.Event) {
		e.HookID = string(request.HookID)
		e.ExecutionID = requestID
		e.Approver = approver
		e.Decision = string(decision)
	})

	switch decision {
	case StatusRejected:
		w.mu.Lock()
		delete(w.pending, requestID)
		w.mu.Unlock()
		return w.completeRequest(request, StatusRejected), nil

	case StatusApproved:
		if hasSufficientApprovals(&request) {
			w.mu.Lock()
			delete(w.pending, requestID)
			w.mu.Unlock()
			return w.completeRequest(request, StatusApproved), nil
		}
		return ProcessResult{
			FinalStatus:        StatusPending,
			Approved:           false,
			Message:            "Additional approvals required",
			RemainingApprovers: remainingApprovers(&request),
		}, nil

	default:
		return ProcessResult{
			FinalStatus:        StatusPending,
			Approved:           false,
			Message:            fmt.Sprintf("Approval decision recorded: %s", decision),
			RemainingApprovers: remainingApprovers(&request),
		}, nil
	}
}

func auditKindForDecision(decision Status) hookaudit.EventType {
	switch decision {
	case StatusApproved:
		return hookaudit.EventApprovalGranted
	case StatusRejected:
		return hookaudit.EventApprovalDenied
	default:
		return hookaudit.EventApprovalDecision
	}
}

func hasSufficientApprovals(r *Request) bool {
	approvedBy := approvedApprovers(r)

	if len(r.RequiredApprovers) == 0 {
		return len(approvedBy) > 0
	}

	for _, required := range r.RequiredApprovers {
		if !containsString(approvedBy, required) {
			return false
		}
	}
	return true
}

func approvedApprovers(r *Request) []string {
	var out []string
	for _, d := range r.ReceivedApprovals {
		if d.Decision == StatusApproved {
			out = append(out, d.Approver)
		}
	}
	return out
}

func remainingApprovers(r *Request) []string {
	if len(r.RequiredApprovers) == 0 {
		return nil
	}
	approvedBy := approvedApprovers(r)

	var remaining []string
	for _, required := range r.RequiredApprovers {
		if !containsString(approvedBy, required) {
			remaining = append(remaining, required)
		}
	}
	return remaining
}

func (w *Workflow) completeRequest(request Request, final Status) ProcessResult {
	now := time.Now().UTC()
	duration := int64(now.Sub(request.CreatedAt).Seconds())
	approved := final == StatusApproved || final == StatusAutoApproved

	w.mu.Lock()
	w.completed[request.ID] = Completed{
		Request:              request,
		FinalStatus:           final,
		CompletedAt:           now,
		TotalDurationSeconds:  duration,
		EscalationCount:       request.CurrentEscalation,
		NotificationCount:     request.NotificationCount,
	}
	w.mu.Unlock()

	w.logEvent(auditKindForDecision(final), func(e *hookaudit.Event) {
		e.HookID = string(request.HookID)
		e.ExecutionID = request.ID
		e.Approver = request.RequestedBy
		e.Decision = string(final)
		e.DurationMS = duration * 1000
	})

	return ProcessResult{
		FinalStatus: final,
		Approved:    approved,
		Message:     fmt.Sprintf("Request completed: %s", final),
	}
}

// Cancel withdraws a pending request without reaching Approved/Rejected.
func (w *Workflow) Cancel(requestID, reason string) error {
	w.mu.Lock()
	request, ok := w.pending[requestID]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("approval request not found: %s", requestID)
	}
	delete(w.pending, requestID)
	w.mu.Unlock()

	w.completeRequest(request, StatusCancelled)

	w.logEvent(hookaudit.EventApprovalCancelled, func(e *hookaudit.Event) {
		e.HookID = string(request.HookID)
		e.ExecutionID = requestID
		e.Reason = reason
		e.UserID = request.RequestedBy
	})

	return nil
}

// CleanupExpired moves every pending request past its deadline into
// the completed store as Expired, returning their ids.
func (w *Workflow) CleanupExpired() []string {
	now := time.Now().UTC()

	w.mu.Lock()
	var expired []Request
	for id, request := range w.pending {
		if request.ExpiresAt != nil && now.After(*request.ExpiresAt) {
			expired = append(expired, request)
			delete(w.pending, id)
		}
	}
	w.mu.Unlock()

	ids := make([]string, 0, len(expired))
	for _, request := range expired {
		w.completeRequest(request, StatusExpired)
		ids = append(ids, request.ID)
	}
	return ids
}

// AddRule registers an ApprovalRule evaluated on every future Submit.
func (w *Workflow) AddRule(rule Rule) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rules = append(w.rules, rule)
}

// RemoveRule deletes a rule by id, reporting whether one was found.
func (w *Workflow) RemoveRule(ruleID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, rule := range w.rules {
		if rule.ID == ruleID {
			w.rules = append(w.rules[:i], w.rules[i+1:]...)
			return true
		}
	}
	return false
}

// ListRules returns a copy of the currently registered rules.
func (w *Workflow) ListRules() []Rule {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]Rule(nil), w.rules...)
}

// GetPending returns every currently pending request.
func (w *Workflow) GetPending() []Request {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]Request, 0, len(w.pending))
	for _, r := range w.pending {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// GetRequest returns a pending request by id.
func (w *Workflow) GetRequest(requestID string) (Request, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	r, ok := w.pending[requestID]
	return r, ok
}

// GetCompleted returns a completed request by id.
func (w *Workflow) GetCompleted(requestID string) (Completed, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.completed[requestID]
	return c, ok
}

// ListCompleted returns every completed request, most recently completed
// first.
func (w *Workflow) ListCompleted() []Completed {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]Completed, 0, len(w.completed))
	for _, c := range w.completed {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out
}

// Await blocks until requestID leaves the pending store (decided,
// cancelled, or expired) or ctx is cancelled, polling at pollInterval.
// Callers that need a synchronous outcome for a freshly Submitted
// request (e.g. an ApprovalRequest hook action) use this instead of
// wiring their own wait loop around GetCompleted.
func (w *Workflow) Await(ctx context.Context, requestID string, pollInterval time.Duration) (Completed, error) {
	if c, ok := w.GetCompleted(requestID); ok {
		return c, nil
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Completed{}, ctx.Err()
		case <-ticker.C:
			if c, ok := w.GetCompleted(requestID); ok {
				return c, nil
			}
		}
	}
}

// Statistics summarizes pending/completed counts and average turnaround.
func (w *Workflow) Statistics() Statistics {
	w.mu.RLock()
	defer w.mu.RUnlock()

	byType := make(map[string]int)
	for _, r := range w.pending {
		byType[r.RequestType]++
	}

	byStatus := make(map[Status]int)
	var totalDuration int64
	for _, c := range w.completed {
		byStatus[c.FinalStatus]++
		totalDuration += c.TotalDurationSeconds
	}

	avg := 0.0
	if len(w.completed) > 0 {
		avg = float64(totalDuration) / float64(len(w.completed))
	}

	return Statistics{
		TotalPending:                 len(w.pending),
		TotalCompleted:               len(w.completed),
		PendingByType:                byType,
		CompletedByStatus:            byStatus,
		AverageCompletionTimeSeconds: avg,
	}
}

func (w *Workflow) logEvent(eventType hookaudit.EventType, configure func(*hookaudit.Event)) {
	if w.audit == nil {
		return
	}
	event := hookaudit.NewEvent(eventType)
	configure(event)
	if err := w.audit.LogEvent(event); err != nil {
		w.log.Warn("failed to write approval audit event", map[string]interface{}{"error": err.Error()})
	}
}

// startMonitor spawns the per-request reminder/escalation goroutine. It
// exits once the request leaves the pending map (decided, cancelled, or
// reaped by CleanupExpired) or the Workflow is closed.
func (w *Workflow) startMonitor(requestID string) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ctx, endSpan := telemetry.StartLinkedSpan(w.monitorCtx, "hookapproval.monitor", "", "",
			map[string]string{"approval.request_id": requestID})
		defer endSpan()

		select {
		case <-time.After(w.config.Notifications.InitialDelay):
		case <-ctx.Done():
			return
		}

		reminders := 0
		for {
			w.mu.RLock()
			request, stillPending := w.pending[requestID]
			w.mu.RUnlock()
			if !stillPending {
				return
			}

			if w.config.Notifications.Enabled && reminders < w.config.Notifications.MaxReminders {
				message := fmt.Sprintf("Reminder %d: Approval still required", reminders+1)
				w.notifier.send(w.config.Notifications.Channels, &request, message)
				reminders++

				w.mu.Lock()
				if current, ok := w.pending[requestID]; ok {
					current.NotificationCount++
					now := time.Now().UTC()
					current.LastNotificationAt = &now
					w.pending[requestID] = current
				}
				w.mu.Unlock()
			}

			w.maybeEscalate(requestID)

			select {
			case <-time.After(w.config.Notifications.ReminderInterval):
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Workflow) maybeEscalate(requestID string) {
	if !w.config.Escalation.Enabled {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	request, ok := w.pending[requestID]
	if !ok {
		return
	}

	elapsed := time.Since(request.CreatedAt)
	for _, level := range w.config.Escalation.Levels {
		if level.Level <= request.CurrentEscalation {
			continue
		}
		if elapsed < level.Timeout {
			continue
		}

		request.RequiredApprovers = dedupeSorted(append(request.RequiredApprovers, level.Approvers...))
		request.CurrentEscalation = level.Level
		w.pending[requestID] = request

		if len(level.Channels) > 0 {
			go w.notifier.send(level.Channels, &request, fmt.Sprintf("Escalated to level %d", level.Level))
		}
	}
}

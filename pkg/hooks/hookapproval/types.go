// Package hookapproval implements the unified approval workflow: a
// request/decision state machine with rule-driven requirements,
// auto-approval, escalation, and multi-channel reminder notifications.
package hookapproval

import (
	"time"

	"github.com/google/uuid"

	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
)

// Status is the lifecycle state of an ApprovalRequest.
type Status string

const (
	StatusPending      Status = "pending"
	StatusApproved     Status = "approved"
	StatusRejected     Status = "rejected"
	StatusExpired      Status = "expired"
	StatusCancelled    Status = "cancelled"
	StatusAutoApproved Status = "auto_approved"
)

// Priority ranks an ApprovalRequest; rule matching can raise it but
// never lower it.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityMedium
	PriorityHigh
	PriorityCritical
	PriorityEmergency
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	case PriorityEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// Request is a pending or completed approval request.
type Request struct {
	ID                  string
	HookID              hookmodel.HookID
	RequestType         string
	Description         string
	RequestedBy         string
	CreatedAt           time.Time
	ExpiresAt           *time.Time
	Metadata            map[string]interface{}
	Priority            Priority
	RequiredApprovers   []string
	ReceivedApprovals   []Decision
	CurrentEscalation   int
	NotificationCount   int
	LastNotificationAt  *time.Time
}

// Decision is one reviewer's verdict on a Request.
type Decision struct {
	Approver  string
	Decision  Status
	Reason    string
	Timestamp time.Time
	Metadata  map[string]interface{}
}

// Completed is a Request that has left the pending state, with the
// final bookkeeping the statistics report over.
type Completed struct {
	Request             Request
	FinalStatus          Status
	CompletedAt          time.Time
	TotalDurationSeconds int64
	EscalationCount      int
	NotificationCount    int
}

// ProcessResult is returned from Decide, reporting whether the request
// reached a final state.
type ProcessResult struct {
	FinalStatus        Status
	Approved           bool
	Message            string
	RemainingApprovers []string
}

// Statistics summarizes the workflow's current pending/completed state.
type Statistics struct {
	TotalPending                 int
	TotalCompleted                int
	PendingByType                 map[string]int
	CompletedByStatus              map[Status]int
	AverageCompletionTimeSeconds float64
}

// newRequest stamps a fresh id, CreatedAt, and zeroed bookkeeping fields
// onto a caller-supplied Request, the way the original's construction
// sites always populate every field by hand.
func newRequest(r Request) Request {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Metadata == nil {
		r.Metadata = make(map[string]interface{})
	}
	return r
}

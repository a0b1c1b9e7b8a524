package hookapproval

import "time"

// Config tunes an entire Workflow instance.
type Config struct {
	DefaultTimeout           time.Duration
	MaxConcurrentApprovals   int
	RequireExplicitApproval  bool
	AutoApproval             AutoApprovalConfig
	Notifications            NotificationConfig
	Escalation                EscalationConfig
}

// AutoApprovalConfig gates which requests Submit may fast-track to
// StatusAutoApproved without ever becoming pending.
type AutoApprovalConfig struct {
	Enabled             bool
	CostThreshold       float64
	QualityThreshold    float64
	AllowedRequestTypes []string
	RateLimitPerHour    int
}

// NotificationConfig controls the monitor goroutine's reminder cadence.
type NotificationConfig struct {
	Enabled                bool
	Channels               []NotificationChannel
	InitialDelay           time.Duration
	ReminderInterval       time.Duration
	MaxReminders           int
}

// EscalationConfig controls automatic approver escalation for requests
// that stay pending past each level's timeout. Escalation adds approvers
// and advances the request's escalation level; it does not change the
// request's priority.
type EscalationConfig struct {
	Enabled                  bool
	EscalationTimeout        time.Duration
	Levels                   []EscalationLevel
	AutoApproveAfterEscalation bool
}

// EscalationLevel adds approvers and a notification fanout once a
// request has been pending longer than Timeout.
type EscalationLevel struct {
	Level        int
	Timeout      time.Duration
	Approvers    []string
	Channels     []NotificationChannel
}

// DefaultConfig mirrors the original's ApprovalWorkflowConfig::default().
func DefaultConfig() Config {
	return Config{
		DefaultTimeout:          5 * time.Minute,
		MaxConcurrentApprovals:  10,
		RequireExplicitApproval: false,
		AutoApproval: AutoApprovalConfig{
			Enabled:             true,
			CostThreshold:       0.10,
			QualityThreshold:    0.8,
			AllowedRequestTypes: []string{"cost_estimate", "quality_warning"},
			RateLimitPerHour:    20,
		},
		Notifications: NotificationConfig{
			Enabled:          true,
			Channels:         []NotificationChannel{ConsoleChannel{}, LogChannel{}},
			InitialDelay:     30 * time.Second,
			ReminderInterval: 60 * time.Second,
			MaxReminders:     3,
		},
		Escalation: EscalationConfig{
			Enabled:           false,
			EscalationTimeout: 3 * time.Minute,
			Levels: []EscalationLevel{
				{Level: 1, Timeout: 2 * time.Minute, Approvers: []string{"supervisor"}, Channels: []NotificationChannel{ConsoleChannel{}}},
				{Level: 2, Timeout: 4 * time.Minute, Approvers: []string{"manager"}, Channels: []NotificationChannel{ConsoleChannel{}}},
			},
			AutoApproveAfterEscalation: false,
		},
	}
}

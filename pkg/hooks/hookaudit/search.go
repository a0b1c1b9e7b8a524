package hookaudit

import "time"

// SearchCriteria filters audit events for SearchLogs.
type SearchCriteria struct {
	HookID      string
	EventTypes  []EventType
	StartTime   *time.Time
	EndTime     *time.Time
	UserID      string
	SuccessOnly bool
}

// Matches reports whether event satisfies every set field of c.
func (c SearchCriteria) Matches(event *Event) bool {
	if c.HookID != "" && event.HookID != c.HookID {
		return false
	}

	if len(c.EventTypes) > 0 {
		found := false
		for _, t := range c.EventTypes {
			if event.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if c.StartTime != nil && event.Timestamp.Before(*c.StartTime) {
		return false
	}
	if c.EndTime != nil && event.Timestamp.After(*c.EndTime) {
		return false
	}

	if c.UserID != "" && event.UserID != c.UserID {
		return false
	}

	if c.SuccessOnly {
		switch event.Type {
		case EventExecutionFailed, EventExecutionDenied, EventSecurityViolation:
			return false
		case EventExecutionCompleted:
			if event.Success == nil || !*event.Success {
				return false
			}
		}
	}

	return true
}

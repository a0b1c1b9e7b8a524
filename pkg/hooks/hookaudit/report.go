package hookaudit

import (
	"sort"
	"time"
)

// HookActivity pairs a hook id with how many events it produced within a
// report's time range.
type HookActivity struct {
	HookID string `json:"hook_id"`
	Count  int    `json:"count"`
}

// Report summarizes audit activity over a time window.
type Report struct {
	TotalEvents          int            `json:"total_events"`
	SuccessfulExecutions int            `json:"successful_executions"`
	FailedExecutions     int            `json:"failed_executions"`
	SecurityViolations   int            `json:"security_violations"`
	MostActiveHooks      []HookActivity `json:"most_active_hooks"`
	StartTime            time.Time      `json:"start_time"`
	EndTime               time.Time      `json:"end_time"`
}

// GenerateReport builds a Report over the last `days` days of logger's
// audit trail.
func GenerateReport(l *Logger, days int) (*Report, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	events, err := l.SearchLogs(SearchCriteria{StartTime: &start, EndTime: &end})
	if err != nil {
		return nil, err
	}

	report := &Report{
		StartTime: start,
		EndTime:   end,
	}

	activity := make(map[string]int)
	for _, e := range events {
		report.TotalEvents++

		switch e.Type {
		case EventExecutionCompleted:
			if e.Success != nil && *e.Success {
				report.SuccessfulExecutions++
			}
		case EventExecutionFailed:
			report.FailedExecutions++
		case EventSecurityViolation:
			report.SecurityViolations++
		}

		if e.HookID != "" {
			activity[e.HookID]++
		}
	}

	hooks := make([]HookActivity, 0, len(activity))
	for hookID, count := range activity {
		hooks = append(hooks, HookActivity{HookID: hookID, Count: count})
	}
	sort.Slice(hooks, func(i, j int) bool {
		if hooks[i].Count != hooks[j].Count {
			return hooks[i].Count > hooks[j].Count
		}
		return hooks[i].HookID < hooks[j].HookID
	})
	if len(hooks) > 10 {
		hooks = hooks[:10]
	}
	report.MostActiveHooks = hooks

	return report, nil
}

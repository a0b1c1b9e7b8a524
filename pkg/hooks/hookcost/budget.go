// Package hookcost implements budget enforcement, cost estimation, and
// efficiency tracking for hook execution.
package hookcost

import (
	"time"

	"github.com/google/uuid"
)

// BudgetPeriod is the recurrence of a Budget's allowance.
type BudgetPeriod string

const (
	PeriodDaily     BudgetPeriod = "daily"
	PeriodWeekly    BudgetPeriod = "weekly"
	PeriodMonthly   BudgetPeriod = "monthly"
	PeriodQuarterly BudgetPeriod = "quarterly"
	PeriodYearly    BudgetPeriod = "yearly"
	PeriodCustom    BudgetPeriod = "custom"
)

// BudgetStatus is the lifecycle state of a Budget within its current period.
type BudgetStatus string

const (
	BudgetActive    BudgetStatus = "active"
	BudgetExceeded  BudgetStatus = "exceeded"
	BudgetSuspended BudgetStatus = "suspended"
	BudgetExpired   BudgetStatus = "expired"
)

// ScopeKind discriminates a BudgetScope's dimension.
type ScopeKind string

const (
	ScopeGlobal  ScopeKind = "global"
	ScopeUser    ScopeKind = "user"
	ScopeProject ScopeKind = "project"
	ScopeModel   ScopeKind = "model"
	ScopeStage   ScopeKind = "stage"
	ScopeCustom  ScopeKind = "custom"
)

// BudgetScope narrows a Budget to a user, project, model, stage, or the
// whole system.
type BudgetScope struct {
	Kind       ScopeKind
	UserID     string
	ProjectID  string
	ModelName  string
	Stage      string
	Conditions map[string]interface{}
}

// Budget is a cost allowance over a time window, optionally narrowed by
// BudgetScope.
type Budget struct {
	ID             string
	Name           string
	Description    string
	Amount         float64
	Period         BudgetPeriod
	CustomDays     int
	Scope          BudgetScope
	StartDate      time.Time
	EndDate        time.Time
	CurrentUsage   float64
	AlertsSent     int
	Status         BudgetStatus
	CreatedBy      string
	Tags           []string
}

// NewBudget stamps a fresh id and Active status onto budget, matching the
// controller's create_budget behavior of overwriting any caller-supplied id.
func NewBudget(budget Budget) Budget {
	budget.ID = uuid.NewString()
	budget.Status = BudgetActive
	budget.CurrentUsage = 0
	budget.AlertsSent = 0
	return budget
}

// UsagePercentage returns CurrentUsage/Amount, or 0 if Amount is 0.
func (b Budget) UsagePercentage() float64 {
	if b.Amount <= 0 {
		return 0
	}
	return b.CurrentUsage / b.Amount
}

// BudgetUpdateResult is returned by Controller.UpdateBudgetUsage.
type BudgetUpdateResult struct {
	BudgetID        string
	PreviousUsage   float64
	NewUsage        float64
	UsagePercentage float64
	Status          BudgetStatus
	AlertsTriggered []Alert
}

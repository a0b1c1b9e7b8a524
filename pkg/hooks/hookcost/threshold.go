package hookcost

// ThresholdType is the quantity a CostThreshold measures against.
type ThresholdType string

const (
	ThresholdAbsolute       ThresholdType = "absolute"
	ThresholdBudgetPercent  ThresholdType = "budget_percentage"
	ThresholdRateIncrease   ThresholdType = "rate_increase"
	ThresholdPerUnit        ThresholdType = "per_unit"
)

// ThresholdAction is what happens when a CostThreshold is breached.
type ThresholdAction string

const (
	ActionLog            ThresholdAction = "log"
	ActionAlert          ThresholdAction = "alert"
	ActionRequestApproval ThresholdAction = "request_approval"
	ActionBlock          ThresholdAction = "block"
	ActionOptimizeModel  ThresholdAction = "optimize_model"
)

// ThresholdScope is the dimension a CostThreshold is evaluated against.
type ThresholdScope string

const (
	ThresholdScopeGlobal   ThresholdScope = "global"
	ThresholdScopePerUser  ThresholdScope = "per_user"
	ThresholdScopeProject  ThresholdScope = "per_project"
	ThresholdScopeModel    ThresholdScope = "per_model"
	ThresholdScopeStage    ThresholdScope = "per_stage"
)

// CostThreshold triggers an Action when a cost crosses Amount.
type CostThreshold struct {
	ID          string
	Name        string
	Description string
	Type        ThresholdType
	Amount      float64
	Action      ThresholdAction
	Enabled     bool
	Scope       ThresholdScope
}

// breached reports whether cost crosses the threshold for the threshold
// types this controller actually evaluates (absolute only — the original
// left BudgetPercentage/RateIncrease/PerUnit as simplified no-ops pending
// richer context it never wired up).
func (t CostThreshold) breached(cost float64) bool {
	if !t.Enabled {
		return false
	}
	switch t.Type {
	case ThresholdAbsolute:
		return cost > t.Amount
	default:
		return false
	}
}

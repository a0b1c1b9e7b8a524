package hookcost

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hookguard/hookguard/pkg/hooks/hookerrors"
)

// EnforcementLevel controls how a Controller reacts to a crossed budget or
// threshold.
type EnforcementLevel string

const (
	EnforceLogOnly        EnforcementLevel = "log_only"
	EnforceWarn           EnforcementLevel = "warn"
	EnforceRequireApproval EnforcementLevel = "require_approval"
	EnforceStrict         EnforcementLevel = "strict"
)

// AutoApprovalRule lets a cost under MaxAutoApproveAmount skip the approval
// workflow entirely.
type AutoApprovalRule struct {
	ID                  string
	Name                string
	MaxAutoApproveAmount float64
	DailyLimit          *float64
	Enabled             bool
}

// ApprovalType distinguishes a standard cost-approval request from an
// emergency one that needs faster, higher-authority sign-off.
type ApprovalType string

const (
	ApprovalStandard  ApprovalType = "standard"
	ApprovalEmergency ApprovalType = "emergency"
)

// ApprovalRequirement is returned by CheckCostApprovalRequired when a cost
// needs sign-off before the operation proceeds.
type ApprovalRequirement struct {
	Type              ApprovalType
	EstimatedCost     float64
	Threshold         float64
	Reason            string
	RequiredApprovers []string
	Timeout           time.Duration
}

// Config controls a Controller's budgets, alerting, approval, and
// estimation behavior.
type Config struct {
	Enabled                bool
	DefaultBudgetPeriodDays int
	Enforcement            EnforcementLevel

	AlertsEnabled    bool
	AlertChannels    []AlertChannel
	MinCostThreshold float64

	ApprovalsEnabled     bool
	ApprovalThreshold    float64
	EmergencyThreshold   float64
	ApprovalTimeout      time.Duration
	AutoApprovalRules    []AutoApprovalRule

	EstimationEnabled    bool
	EstimationBuffer     float64
	ModelCostFactors     map[string]ModelCostFactor

	OptimizationEnabled     bool
	PreferCostEffective     bool
	ModelCostRanking        []string
}

// DefaultConfig matches the original's CostControlConfig::default — alerts
// on, approvals off, optimization and estimation on, Warn enforcement.
func DefaultConfig() Config {
	return Config{
		Enabled:                 true,
		DefaultBudgetPeriodDays: 30,
		Enforcement:             EnforceWarn,
		AlertsEnabled:           true,
		AlertChannels:           []AlertChannel{ConsoleChannel{}},
		MinCostThreshold:        0.01,
		ApprovalsEnabled:        false,
		ApprovalThreshold:       1.0,
		EmergencyThreshold:      10.0,
		ApprovalTimeout:         5 * time.Minute,
		EstimationEnabled:       true,
		EstimationBuffer:        1.1,
		ModelCostFactors:        make(map[string]ModelCostFactor),
		OptimizationEnabled:     true,
		PreferCostEffective:     true,
		ModelCostRanking: []string{
			"gpt-3.5-turbo", "claude-3-haiku", "gpt-4",
			"claude-3-sonnet", "gpt-4-turbo", "claude-3-opus",
		},
	}
}

// Controller owns budgets, thresholds, cost tracking, and alerting.
type Controller struct {
	mu         sync.RWMutex
	budgets    map[string]Budget
	thresholds []CostThreshold
	tracking   *tracking
	alerts     []Alert
	config     Config
}

// New constructs a Controller with the given Config.
func New(config Config) *Controller {
	return &Controller{
		budgets:  make(map[string]Budget),
		tracking: newTracking(),
		config:   config,
	}
}

// CreateBudget registers budget, assigning it a fresh id and Active status.
func (c *Controller) CreateBudget(budget Budget) (string, error) {
	b := NewBudget(budget)

	c.mu.Lock()
	c.budgets[b.ID] = b
	c.mu.Unlock()

	return b.ID, nil
}

// GetBudget returns the budget with id, or ErrNotFound.
func (c *Controller) GetBudget(id string) (Budget, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.budgets[id]
	if !ok {
		return Budget{}, hookerrors.New("get_budget", hookerrors.KindValidation, hookerrors.ErrNotFound).WithID(id)
	}
	return b, nil
}

// UpdateBudgetUsage adds cost to budget id's current usage and emits
// threshold alerts at the 50/75/90/100% marks, each gated to fire at most
// once per budget (alerts_sent), matching the original's tiered schedule.
func (c *Controller) UpdateBudgetUsage(id string, cost float64) (BudgetUpdateResult, error) {
	c.mu.Lock()
	budget, ok := c.budgets[id]
	if !ok {
		c.mu.Unlock()
		return BudgetUpdateResult{}, hookerrors.New("update_budget_usage", hookerrors.KindValidation, hookerrors.ErrNotFound).WithID(id)
	}

	previousUsage := budget.CurrentUsage
	budget.CurrentUsage += cost
	usagePct := budget.UsagePercentage()

	var triggered []Alert
	switch {
	case usagePct >= 1.0 && budget.Status != BudgetExceeded:
		budget.Status = BudgetExceeded
		triggered = append(triggered, newAlert(AlertBudgetExhausted, SeverityCritical,
			fmt.Sprintf("Budget '%s' has been exhausted ($%.2f)", budget.Name, budget.CurrentUsage),
			budget.CurrentUsage, floatPtr(budget.Amount), budget.ID, scopeLabel(budget.Scope)))
	case usagePct >= 0.9 && budget.AlertsSent < 3:
		budget.AlertsSent = 3
		triggered = append(triggered, newAlert(AlertBudgetThreshold, SeverityWarning,
			fmt.Sprintf("Budget '%s' is 90%% used ($%.2f of $%.2f)", budget.Name, budget.CurrentUsage, budget.Amount),
			budget.CurrentUsage, floatPtr(budget.Amount), budget.ID, scopeLabel(budget.Scope)))
	case usagePct >= 0.75 && budget.AlertsSent < 2:
		budget.AlertsSent = 2
		triggered = append(triggered, newAlert(AlertBudgetThreshold, SeverityWarning,
			fmt.Sprintf("Budget '%s' is 75%% used ($%.2f of $%.2f)", budget.Name, budget.CurrentUsage, budget.Amount),
			budget.CurrentUsage, floatPtr(budget.Amount), budget.ID, scopeLabel(budget.Scope)))
	case usagePct >= 0.5 && budget.AlertsSent < 1:
		budget.AlertsSent = 1
		triggered = append(triggered, newAlert(AlertBudgetThreshold, SeverityInfo,
			fmt.Sprintf("Budget '%s' is 50%% used ($%.2f of $%.2f)", budget.Name, budget.CurrentUsage, budget.Amount),
			budget.CurrentUsage, floatPtr(budget.Amount), budget.ID, scopeLabel(budget.Scope)))
	}

	c.budgets[id] = budget
	c.alerts = append(c.alerts, triggered...)
	if len(c.alerts) > 1000 {
		c.alerts = c.alerts[len(c.alerts)-1000:]
	}
	c.mu.Unlock()

	for _, alert := range triggered {
		c.sendAlert(alert)
	}

	return BudgetUpdateResult{
		BudgetID:        id,
		PreviousUsage:   previousUsage,
		NewUsage:        budget.CurrentUsage,
		UsagePercentage: usagePct,
		Status:          budget.Status,
		AlertsTriggered: triggered,
	}, nil
}

func scopeLabel(s BudgetScope) string {
	switch s.Kind {
	case ScopeUser:
		return "user:" + s.UserID
	case ScopeProject:
		return "project:" + s.ProjectID
	case ScopeModel:
		return "model:" + s.ModelName
	case ScopeStage:
		return "stage:" + s.Stage
	case ScopeCustom:
		return "custom"
	default:
		return "global"
	}
}

func floatPtr(f float64) *float64 { return &f }

// EstimateOperationCost projects the cost of an operation before it runs.
func (c *Controller) EstimateOperationCost(stage, model string, estimatedTokens uint32, ctx EstimationContext) (Estimate, error) {
	if !c.config.EstimationEnabled {
		return Estimate{Factors: map[string]float64{}}, nil
	}

	c.mu.RLock()
	factor, ok := c.config.ModelCostFactors[model]
	if !ok {
		factor = ModelCostFactor{CostMultiplier: 1.0, ExpectedTokens: estimatedTokens, QualityFactor: 1.0, PerformanceFactor: 1.0}
	}

	relevant := 0
	for _, p := range c.tracking.trends {
		if p.Model == model && p.Stage == stage {
			relevant++
		}
	}
	c.mu.RUnlock()

	base := baseCostPerToken(model)
	estimatedCost := float64(estimatedTokens) * base * factor.CostMultiplier * c.config.EstimationBuffer
	confidence := estimationConfidence(relevant)

	factors := map[string]float64{
		"base_cost":        float64(estimatedTokens) * base,
		"model_multiplier": factor.CostMultiplier,
		"buffer_factor":    c.config.EstimationBuffer,
		"estimated_tokens": float64(estimatedTokens),
	}

	return Estimate{
		EstimatedCost:   estimatedCost,
		Confidence:      confidence,
		Factors:         factors,
		Recommendations: c.costRecommendations(estimatedCost, model, stage),
	}, nil
}

func (c *Controller) costRecommendations(estimatedCost float64, model, stage string) []string {
	var recs []string

	if estimatedCost > 0.5 {
		recs = append(recs, "Consider using a more cost-effective model for this operation")
	}

	if c.config.PreferCostEffective {
		ranking := c.config.ModelCostRanking
		for i, m := range ranking {
			if m == model && i > 2 {
				alt := ranking[0]
				if i-1 >= 0 {
					alt = ranking[i-1]
				}
				recs = append(recs, fmt.Sprintf("Consider using %s instead for better cost efficiency", alt))
				break
			}
		}
	}

	switch stage {
	case "generator":
		if estimatedCost > 0.3 {
			recs = append(recs, "Consider simplifying the initial prompt for the generator stage")
		}
	case "refiner":
		if estimatedCost > 0.2 {
			recs = append(recs, "The refiner stage cost is high - consider skipping if quality is already sufficient")
		}
	case "validator":
		if estimatedCost > 0.15 {
			recs = append(recs, "Consider using a simpler validation approach to reduce costs")
		}
	case "curator":
		if estimatedCost > 0.1 {
			recs = append(recs, "Final curation may not be necessary for all use cases")
		}
	}

	return recs
}

// CheckCostApprovalRequired reports whether estimatedCost needs sign-off,
// returning nil when it's auto-approved or approvals are disabled.
func (c *Controller) CheckCostApprovalRequired(estimatedCost float64, ctx EstimationContext) (*ApprovalRequirement, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.config.ApprovalsEnabled {
		return nil, nil
	}

	if estimatedCost > c.config.EmergencyThreshold {
		return &ApprovalRequirement{
			Type:              ApprovalEmergency,
			EstimatedCost:     estimatedCost,
			Threshold:         c.config.EmergencyThreshold,
			Reason:            fmt.Sprintf("Cost $%.4f exceeds emergency threshold $%.4f", estimatedCost, c.config.EmergencyThreshold),
			RequiredApprovers: []string{"finance_manager", "senior_manager"},
			Timeout:           3 * time.Minute,
		}, nil
	}

	if estimatedCost > c.config.ApprovalThreshold {
		if c.matchingAutoApprovalRule(estimatedCost) != nil {
			return nil, nil
		}
		return &ApprovalRequirement{
			Type:              ApprovalStandard,
			EstimatedCost:     estimatedCost,
			Threshold:         c.config.ApprovalThreshold,
			Reason:            fmt.Sprintf("Cost $%.4f exceeds approval threshold $%.4f", estimatedCost, c.config.ApprovalThreshold),
			RequiredApprovers: []string{"manager"},
			Timeout:           c.config.ApprovalTimeout,
		}, nil
	}

	return nil, nil
}

func (c *Controller) matchingAutoApprovalRule(cost float64) *AutoApprovalRule {
	for i := range c.config.AutoApprovalRules {
		rule := c.config.AutoApprovalRules[i]
		if rule.Enabled && cost <= rule.MaxAutoApproveAmount {
			return &rule
		}
	}
	return nil
}

// RecordOperationCost adds actualCost to the period, operation, model, and
// stage breakdowns (the per-user breakdown is not updated), updates the
// trend buffer and efficiency metrics, then checks thresholds.
func (c *Controller) RecordOperationCost(stage, model string, tokensUsed uint32, qualityScore, actualCost float64) error {
	point := DataPoint{
		Timestamp:     time.Now().UTC(),
		Cost:          actualCost,
		OperationType: "consensus_stage",
		Model:         model,
		Stage:         stage,
		TokensUsed:    tokensUsed,
		QualityScore:  qualityScore,
	}

	c.mu.Lock()
	c.tracking.record(point)
	c.mu.Unlock()

	return c.checkCostThresholds(actualCost, stage, model)
}

func (c *Controller) checkCostThresholds(cost float64, stage, model string) error {
	c.mu.RLock()
	thresholds := make([]CostThreshold, len(c.thresholds))
	copy(thresholds, c.thresholds)
	c.mu.RUnlock()

	for _, t := range thresholds {
		if !t.breached(cost) {
			continue
		}

		alert := newAlert(AlertCostThreshold, SeverityWarning,
			fmt.Sprintf("Cost threshold '%s' exceeded: $%.4f > $%.4f (Model: %s, Stage: %s)", t.Name, cost, t.Amount, model, stage),
			cost, floatPtr(t.Amount), "", string(t.Scope))

		c.sendAlert(alert)

		c.mu.Lock()
		c.alerts = append(c.alerts, alert)
		c.mu.Unlock()
	}

	return nil
}

func (c *Controller) sendAlert(alert Alert) {
	if !c.config.AlertsEnabled {
		return
	}
	for _, ch := range c.config.AlertChannels {
		_ = ch.Send(alert)
	}
}

// AddThreshold registers a new CostThreshold.
func (c *Controller) AddThreshold(t CostThreshold) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thresholds = append(c.thresholds, t)
}

// Summary is a point-in-time snapshot of cost tracking and budget
// utilization.
type Summary struct {
	PeriodCost         float64
	TotalBudget        float64
	TotalUsage         float64
	BudgetUtilization  float64
	CostsByModel       map[string]float64
	CostsByStage       map[string]float64
	Efficiency         EfficiencyMetrics
	ActiveBudgets      int
	ExceededBudgets    int
}

// GetCostSummary reports tracking and budget state for period (defaults to
// today, formatted YYYY-MM-DD, if empty).
func (c *Controller) GetCostSummary(period string) Summary {
	if period == "" {
		period = time.Now().UTC().Format("2006-01-02")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var totalBudget, totalUsage float64
	active, exceeded := 0, 0
	for _, b := range c.budgets {
		if b.Status == BudgetActive {
			active++
			totalBudget += b.Amount
			totalUsage += b.CurrentUsage
		}
		if b.Status == BudgetExceeded {
			exceeded++
		}
	}

	utilization := 0.0
	if totalBudget > 0 {
		utilization = totalUsage / totalBudget
	}

	return Summary{
		PeriodCost:        c.tracking.costsByPeriod[period],
		TotalBudget:       totalBudget,
		TotalUsage:        totalUsage,
		BudgetUtilization: utilization,
		CostsByModel:      copyFloatMap(c.tracking.costsByModel),
		CostsByStage:      copyFloatMap(c.tracking.costsByStage),
		Efficiency:        c.tracking.efficiency,
		ActiveBudgets:     active,
		ExceededBudgets:   exceeded,
	}
}

func copyFloatMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// GetOptimizationRecommendations analyzes tracked cost/efficiency data and
// proposes savings, ranked by priority then potential savings.
func (c *Controller) GetOptimizationRecommendations() []Recommendation {
	if !c.config.OptimizationEnabled {
		return nil
	}

	c.mu.RLock()
	rankings := append([]ModelEfficiency(nil), c.tracking.efficiency.ModelRankings...)
	trend := c.tracking.efficiency.Trend
	totalCost := 0.0
	for _, v := range c.tracking.costsByOperation {
		totalCost += v
	}
	c.mu.RUnlock()

	var recs []Recommendation

	for _, m := range rankings {
		if m.CostEfficiencyScore >= 0.7 {
			continue
		}
		priority := PriorityMedium
		if m.CostEfficiencyScore < 0.5 {
			priority = PriorityHigh
		}
		recs = append(recs, Recommendation{
			ID:                   uuid.NewString(),
			Type:                 OptimizeModel,
			Title:                fmt.Sprintf("Consider alternative to %s", m.ModelName),
			Description:          fmt.Sprintf("Model %s has low cost efficiency (score: %.2f). Consider using a more cost-effective alternative.", m.ModelName, m.CostEfficiencyScore),
			PotentialSavings:     0.25,
			ImplementationEffort: EffortLow,
			Priority:             priority,
			EstimatedImpact: Impact{
				CostReduction:          m.TotalCost * 0.25,
				QualityImpact:          -0.05,
				ImplementationTimeDays: 1,
			},
		})
	}

	if trend == TrendDeclining {
		recs = append(recs, Recommendation{
			ID:                   uuid.NewString(),
			Type:                 OptimizePrompt,
			Title:                "Optimize prompts for efficiency",
			Description:          "Cost efficiency is declining. Consider optimizing prompts to reduce token usage.",
			PotentialSavings:     0.15,
			ImplementationEffort: EffortMedium,
			Priority:             PriorityMedium,
			EstimatedImpact: Impact{
				CostReduction:          totalCost * 0.15,
				QualityImpact:          0.02,
				ImplementationTimeDays: 3,
			},
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Priority != recs[j].Priority {
			return recs[i].Priority > recs[j].Priority
		}
		return recs[i].PotentialSavings > recs[j].PotentialSavings
	})

	return recs
}

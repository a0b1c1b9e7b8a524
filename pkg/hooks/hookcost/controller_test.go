package hookcost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBudgetAndUpdateUsage(t *testing.T) {
	c := New(DefaultConfig())

	id, err := c.CreateBudget(Budget{
		Name:   "Test Budget",
		Amount: 100.0,
		Period: PeriodMonthly,
		Scope:  BudgetScope{Kind: ScopeGlobal},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	result, err := c.UpdateBudgetUsage(id, 25.0)
	require.NoError(t, err)
	assert.Equal(t, 25.0, result.NewUsage)
	assert.Equal(t, 0.25, result.UsagePercentage)
	assert.Equal(t, BudgetActive, result.Status)
}

func TestBudgetExceededSetsStatus(t *testing.T) {
	c := New(DefaultConfig())
	id, err := c.CreateBudget(Budget{Name: "Small", Amount: 10.0, Period: PeriodDaily, Scope: BudgetScope{Kind: ScopeGlobal}})
	require.NoError(t, err)

	result, err := c.UpdateBudgetUsage(id, 12.0)
	require.NoError(t, err)
	assert.Equal(t, BudgetExceeded, result.Status)
	require.Len(t, result.AlertsTriggered, 1)
	assert.Equal(t, AlertBudgetExhausted, result.AlertsTriggered[0].Type)
}

func TestBudgetAlertsSentOncePerLevel(t *testing.T) {
	c := New(DefaultConfig())
	id, err := c.CreateBudget(Budget{Name: "Tiered", Amount: 100.0, Period: PeriodMonthly, Scope: BudgetScope{Kind: ScopeGlobal}})
	require.NoError(t, err)

	r1, err := c.UpdateBudgetUsage(id, 55.0) // crosses 50%
	require.NoError(t, err)
	require.Len(t, r1.AlertsTriggered, 1)

	r2, err := c.UpdateBudgetUsage(id, 1.0) // still in 50-75% band, already alerted
	require.NoError(t, err)
	assert.Empty(t, r2.AlertsTriggered)
}

func TestEstimateOperationCost(t *testing.T) {
	c := New(DefaultConfig())

	est, err := c.EstimateOperationCost("generator", "gpt-4", 1000, EstimationContext{ConversationID: "conv-1"})
	require.NoError(t, err)
	assert.Greater(t, est.EstimatedCost, 0.0)
	assert.GreaterOrEqual(t, est.Confidence, 0.0)
	assert.LessOrEqual(t, est.Confidence, 1.0)
	assert.NotEmpty(t, est.Factors)
}

func TestCheckCostApprovalRequired(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApprovalsEnabled = true
	c := New(cfg)

	req, err := c.CheckCostApprovalRequired(0.5, EstimationContext{})
	require.NoError(t, err)
	assert.Nil(t, req, "below threshold needs no approval")

	req, err = c.CheckCostApprovalRequired(5.0, EstimationContext{})
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, ApprovalStandard, req.Type)

	req, err = c.CheckCostApprovalRequired(50.0, EstimationContext{})
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, ApprovalEmergency, req.Type)
}

func TestAutoApprovalRuleSkipsApproval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApprovalsEnabled = true
	cfg.AutoApprovalRules = []AutoApprovalRule{{Name: "small-ops", MaxAutoApproveAmount: 5.0, Enabled: true}}
	c := New(cfg)

	req, err := c.CheckCostApprovalRequired(3.0, EstimationContext{})
	require.NoError(t, err)
	assert.Nil(t, req)
}

func TestRecordOperationCostUpdatesSummaryAndEfficiency(t *testing.T) {
	c := New(DefaultConfig())

	require.NoError(t, c.RecordOperationCost("generator", "gpt-4", 500, 0.9, 0.05))
	require.NoError(t, c.RecordOperationCost("generator", "gpt-4", 500, 0.9, 0.05))

	summary := c.GetCostSummary("")
	assert.InDelta(t, 0.10, summary.CostsByModel["gpt-4"], 1e-9)
	assert.NotZero(t, summary.Efficiency.AverageCostPerOperation)
}

func TestCostThresholdBreachEmitsAlert(t *testing.T) {
	c := New(DefaultConfig())
	c.AddThreshold(CostThreshold{Name: "per-op-cap", Type: ThresholdAbsolute, Amount: 0.01, Enabled: true})

	require.NoError(t, c.RecordOperationCost("generator", "gpt-4", 1000, 0.8, 0.05))

	c.mu.RLock()
	defer c.mu.RUnlock()
	require.NotEmpty(t, c.alerts)
	assert.Equal(t, AlertCostThreshold, c.alerts[0].Type)
}

func TestOptimizationRecommendationsForLowEfficiencyModel(t *testing.T) {
	c := New(DefaultConfig())
	for i := 0; i < 5; i++ {
		require.NoError(t, c.RecordOperationCost("generator", "gpt-4-turbo", 1000, 0.3, 1.5))
	}

	recs := c.GetOptimizationRecommendations()
	require.NotEmpty(t, recs)
	assert.Equal(t, OptimizeModel, recs[0].Type)
}

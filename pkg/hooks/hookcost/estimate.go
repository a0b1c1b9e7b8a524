package hookcost

import "strings"

// ModelCostFactor captures model-specific cost/quality/performance
// multipliers used by cost estimation.
type ModelCostFactor struct {
	CostMultiplier    float64
	ExpectedTokens    uint32
	QualityFactor     float64
	PerformanceFactor float64
}

// EstimationContext carries the caller's context for a cost estimate.
type EstimationContext struct {
	UserID             string
	ProjectID          string
	ConversationID     string
	QuestionComplexity float64
	ExpectedQuality    float64
	Priority           string
}

// Estimate is the result of EstimateOperationCost.
type Estimate struct {
	EstimatedCost   float64
	Confidence      float64
	Factors         map[string]float64
	Recommendations []string
}

// baseCostPerToken is a simplified per-model pricing table, matching the
// original's substring-matched default rates.
func baseCostPerToken(model string) float64 {
	switch {
	case strings.Contains(model, "gpt-4"):
		return 0.00003
	case strings.Contains(model, "gpt-3.5"):
		return 0.000002
	case strings.Contains(model, "claude-3-opus"):
		return 0.000075
	case strings.Contains(model, "claude-3-sonnet"):
		return 0.000015
	case strings.Contains(model, "claude-3-haiku"):
		return 0.000001
	default:
		return 0.00001
	}
}

func estimationConfidence(pointCount int) float64 {
	switch {
	case pointCount == 0:
		return 0.5
	case pointCount <= 5:
		return 0.6
	case pointCount <= 20:
		return 0.8
	default:
		return 0.95
	}
}

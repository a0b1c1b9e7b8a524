package hookcost

import (
	"sort"
	"time"
)

const maxTrendPoints = 1000

// DataPoint is one recorded cost observation.
type DataPoint struct {
	Timestamp    time.Time
	Cost         float64
	OperationType string
	Model        string
	Stage        string
	TokensUsed   uint32
	QualityScore float64
}

// EfficiencyTrend classifies the direction of recent cost efficiency.
type EfficiencyTrend string

const (
	TrendStable    EfficiencyTrend = "stable"
	TrendImproving EfficiencyTrend = "improving"
	TrendDeclining EfficiencyTrend = "declining"
)

// ModelEfficiency ranks a single model's cost/quality tradeoff.
type ModelEfficiency struct {
	ModelName              string
	CostEfficiencyScore    float64
	QualityEfficiencyScore float64
	OverallEfficiencyScore float64
	UsageCount             uint32
	TotalCost              float64
	AverageQuality         float64
}

// EfficiencyMetrics summarizes cost/quality efficiency across recent
// DataPoints.
type EfficiencyMetrics struct {
	AverageCostPerToken        float64
	AverageCostPerOperation    float64
	AverageCostPerQualityPoint float64
	Trend                      EfficiencyTrend
	ModelRankings              []ModelEfficiency
}

// tracking aggregates costs across several breakdowns plus a size-bounded
// trend buffer, mirroring CostTracking in the original.
type tracking struct {
	costsByPeriod    map[string]float64
	costsByOperation map[string]float64
	costsByModel     map[string]float64
	costsByStage     map[string]float64
	costsByUser      map[string]float64
	trends           []DataPoint
	efficiency       EfficiencyMetrics
}

func newTracking() *tracking {
	return &tracking{
		costsByPeriod:    make(map[string]float64),
		costsByOperation: make(map[string]float64),
		costsByModel:     make(map[string]float64),
		costsByStage:     make(map[string]float64),
		costsByUser:      make(map[string]float64),
	}
}

func (t *tracking) record(point DataPoint) {
	periodKey := point.Timestamp.Format("2006-01-02")
	t.costsByPeriod[periodKey] += point.Cost
	t.costsByOperation[point.OperationType] += point.Cost
	t.costsByModel[point.Model] += point.Cost
	t.costsByStage[point.Stage] += point.Cost

	t.trends = append(t.trends, point)
	if len(t.trends) > maxTrendPoints {
		t.trends = t.trends[len(t.trends)-maxTrendPoints:]
	}

	t.recomputeEfficiency()
}

type modelStats struct {
	totalCost    float64
	totalQuality float64
	totalTokens  uint32
	usageCount   uint32
}

func (t *tracking) recomputeEfficiency() {
	if len(t.trends) == 0 {
		return
	}

	var totalCost, totalQuality float64
	var totalTokens uint32
	perModel := make(map[string]*modelStats)

	for _, p := range t.trends {
		totalCost += p.Cost
		totalQuality += p.QualityScore
		totalTokens += p.TokensUsed

		s, ok := perModel[p.Model]
		if !ok {
			s = &modelStats{}
			perModel[p.Model] = s
		}
		s.totalCost += p.Cost
		s.totalQuality += p.QualityScore
		s.totalTokens += p.TokensUsed
		s.usageCount++
	}

	previousAvg := t.efficiency.AverageCostPerOperation

	if totalTokens > 0 {
		t.efficiency.AverageCostPerToken = totalCost / float64(totalTokens)
	} else {
		t.efficiency.AverageCostPerToken = 0
	}
	t.efficiency.AverageCostPerOperation = totalCost / float64(len(t.trends))
	if totalQuality > 0 {
		t.efficiency.AverageCostPerQualityPoint = totalCost / totalQuality
	} else {
		t.efficiency.AverageCostPerQualityPoint = 0
	}

	rankings := make([]ModelEfficiency, 0, len(perModel))
	for name, s := range perModel {
		avgCostPerToken := 0.0
		if s.totalTokens > 0 {
			avgCostPerToken = s.totalCost / float64(s.totalTokens)
		}
		avgQuality := s.totalQuality / float64(s.usageCount)

		rankings = append(rankings, ModelEfficiency{
			ModelName:              name,
			CostEfficiencyScore:    minF(1.0/(avgCostPerToken+0.00001), 1.0),
			QualityEfficiencyScore: avgQuality,
			OverallEfficiencyScore: minF(avgQuality/(avgCostPerToken+0.00001), 1.0),
			UsageCount:             s.usageCount,
			TotalCost:              s.totalCost,
			AverageQuality:         avgQuality,
		})
	}
	sort.Slice(rankings, func(i, j int) bool {
		return rankings[i].OverallEfficiencyScore > rankings[j].OverallEfficiencyScore
	})
	t.efficiency.ModelRankings = rankings

	switch {
	case previousAvg == 0:
		t.efficiency.Trend = TrendStable
	case t.efficiency.AverageCostPerOperation < previousAvg*0.95:
		t.efficiency.Trend = TrendImproving
	case t.efficiency.AverageCostPerOperation > previousAvg*1.05:
		t.efficiency.Trend = TrendDeclining
	default:
		t.efficiency.Trend = TrendStable
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

package hookquality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateBlocksOnRequiredViolation(t *testing.T) {
	m := New()
	m.AddGate(Gate{
		Name:    "length-gate",
		Enabled: true,
		Criteria: []Criterion{
			{Name: "min-length", Type: CriterionMinLength, Required: true, Action: ActionBlock, MinLength: 10},
		},
	})

	results := m.Evaluate(StageResult{Content: "short"})
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
	assert.True(t, results[0].Blocked)
	require.Len(t, results[0].Violations, 1)
}

func TestGateWarnAccumulatesWarnings(t *testing.T) {
	m := New()
	m.AddGate(Gate{
		Name:    "quality-gate",
		Enabled: true,
		Criteria: []Criterion{
			{Name: "min-quality", Type: CriterionMinQualityScore, Required: true, Action: ActionWarn, Threshold: 0.8},
		},
	})

	results := m.Evaluate(StageResult{QualityScore: 0.5})
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed, "warn does not block")
	assert.False(t, results[0].Blocked)
	require.Len(t, results[0].Warnings, 1)
}

func TestOptionalCriterionNeverBlocks(t *testing.T) {
	m := New()
	m.AddGate(Gate{
		Name:    "optional-gate",
		Enabled: true,
		Criteria: []Criterion{
			{Name: "nice-to-have", Type: CriterionContainsText, Required: false, Action: ActionBlock, Text: "keyword"},
		},
	})

	results := m.Evaluate(StageResult{Content: "nothing relevant"})
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)
	assert.Empty(t, results[0].Violations)
}

func TestDisabledGateSkipped(t *testing.T) {
	m := New()
	m.AddGate(Gate{Name: "off", Enabled: false, Criteria: []Criterion{
		{Name: "c", Type: CriterionMinLength, Required: true, Action: ActionBlock, MinLength: 1000},
	}})

	results := m.Evaluate(StageResult{Content: ""})
	assert.Empty(t, results)
}

func TestContentPredicateOverride(t *testing.T) {
	m := New()
	m.SetContentPredicate(func(text string) (bool, string) {
		return text == "flagged", "matched test predicate"
	})
	m.AddGate(Gate{
		Name:    "moderation",
		Enabled: true,
		Criteria: []Criterion{
			{Name: "moderation-check", Type: CriterionInappropriateContent, Required: true, Action: ActionBlock},
		},
	})

	results := m.Evaluate(StageResult{Content: "flagged"})
	require.Len(t, results, 1)
	assert.True(t, results[0].Blocked)
}

func TestGateStatsPassRate(t *testing.T) {
	m := New()
	m.AddGate(Gate{
		Name:    "gate",
		Enabled: true,
		Criteria: []Criterion{
			{Name: "min-length", Type: CriterionMinLength, Required: true, Action: ActionBlock, MinLength: 5},
		},
	})

	m.Evaluate(StageResult{Content: "long enough"})
	m.Evaluate(StageResult{Content: "no"})

	stats, ok := m.Stats("gate")
	require.True(t, ok)
	assert.Equal(t, 2, stats.Evaluations)
	assert.Equal(t, 1, stats.Passes)
	assert.Equal(t, 1, stats.Failures)
	assert.Equal(t, 0.5, stats.PassRate())
}

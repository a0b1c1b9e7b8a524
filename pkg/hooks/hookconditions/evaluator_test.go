package hookconditions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
)

func TestGlobToRegex(t *testing.T) {
	assert.Equal(t, `^.*\.rs$`, globToRegex("*.rs"))
	assert.Equal(t, `^test.\.txt$`, globToRegex("test?.txt"))
	assert.Equal(t, `^src/.*/.*/.*\.rs$`, globToRegex("src/**/*.rs"))
}

func TestParseSize(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"100", 100},
		{"10KB", 10 * 1024},
		{"5MB", 5 * 1024 * 1024},
		{"1.5GB", uint64(1.5 * 1024 * 1024 * 1024)},
	}
	for _, c := range cases {
		got, err := parseSize(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "parseSize(%q)", c.in)
	}
}

func TestEvaluateEmptyConditionsIsTrue(t *testing.T) {
	e := NewEvaluator()
	ok, err := e.Evaluate(nil, hookmodel.FromEvent(hookmodel.NewHookEvent(hookmodel.EventBeforeFileWrite, hookmodel.SourceSystemOrigin()), "exec-1"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateFilePattern(t *testing.T) {
	e := NewEvaluator()
	ctx := &hookmodel.ExecutionContext{Variables: map[string]interface{}{"file_path": "src/main.rs"}}

	ok, err := e.Evaluate([]hookmodel.HookCondition{
		hookmodel.FilePatternCondition{Pattern: "*.rs"},
	}, ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Evaluate([]hookmodel.HookCondition{
		hookmodel.FilePatternCondition{Pattern: "*.go"},
	}, ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.Evaluate([]hookmodel.HookCondition{
		hookmodel.FilePatternCondition{Pattern: "*.go", Negate: true},
	}, ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateFilePatternMissingContext(t *testing.T) {
	e := NewEvaluator()
	ctx := &hookmodel.ExecutionContext{Variables: map[string]interface{}{}}
	_, err := e.Evaluate([]hookmodel.HookCondition{
		hookmodel.FilePatternCondition{Pattern: "*.rs"},
	}, ctx)
	assert.Error(t, err)
}

func TestEvaluateEnvironmentVariable(t *testing.T) {
	t.Setenv("HOOKGUARD_TEST_VAR", "hello")
	e := NewEvaluator()
	ctx := &hookmodel.ExecutionContext{Variables: map[string]interface{}{}}

	exists := true
	ok, err := e.Evaluate([]hookmodel.HookCondition{
		hookmodel.EnvironmentVariableCondition{Name: "HOOKGUARD_TEST_VAR", Exists: &exists},
	}, ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	val := "hello"
	ok, err = e.Evaluate([]hookmodel.HookCondition{
		hookmodel.EnvironmentVariableCondition{Name: "HOOKGUARD_TEST_VAR", Value: &val},
	}, ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	missingExists := true
	ok, err = e.Evaluate([]hookmodel.HookCondition{
		hookmodel.EnvironmentVariableCondition{Name: "HOOKGUARD_DOES_NOT_EXIST_VAR", Exists: &missingExists},
	}, ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateContextVariable(t *testing.T) {
	e := NewEvaluator()
	ctx := &hookmodel.ExecutionContext{Variables: map[string]interface{}{
		"cost":  float64(5),
		"tags":  []interface{}{"alpha", "beta"},
		"label": "release-candidate",
	}}

	ok, err := e.Evaluate([]hookmodel.HookCondition{
		hookmodel.ContextVariableCondition{Key: "cost", Operator: hookmodel.OpLt, Value: float64(10)},
	}, ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Evaluate([]hookmodel.HookCondition{
		hookmodel.ContextVariableCondition{Key: "tags", Operator: hookmodel.OpContains, Value: "beta"},
	}, ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Evaluate([]hookmodel.HookCondition{
		hookmodel.ContextVariableCondition{Key: "label", Operator: hookmodel.OpStartsWith, Value: "release"},
	}, ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateTimeWindowOvernightEvaluatesFalse(t *testing.T) {
	// start > end denotes an overnight window, which is not supported:
	// it must evaluate false regardless of wall clock, rather than
	// reproducing the source's lexicographic wraparound bug.
	cond := hookmodel.TimeWindowCondition{Start: "22:00", End: "06:00"}
	ok, err := evaluateTimeWindow(cond)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateTimeWindowNoBoundsIsTrue(t *testing.T) {
	ok, err := evaluateTimeWindow(hookmodel.TimeWindowCondition{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateCostThresholdPermissiveWhenAbsent(t *testing.T) {
	e := NewEvaluator()
	ctx := &hookmodel.ExecutionContext{Variables: map[string]interface{}{}}
	ok, err := e.Evaluate([]hookmodel.HookCondition{
		hookmodel.CostThresholdCondition{Max: 1},
	}, ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateAndOrNot(t *testing.T) {
	e := NewEvaluator()
	ctx := &hookmodel.ExecutionContext{Variables: map[string]interface{}{"file_path": "a.go"}}

	ok, err := e.Evaluate([]hookmodel.HookCondition{
		hookmodel.AndCondition{Conditions: []hookmodel.HookCondition{
			hookmodel.FilePatternCondition{Pattern: "*.go"},
			hookmodel.NotCondition{Condition: hookmodel.FilePatternCondition{Pattern: "*.rs"}},
		}},
	}, ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Evaluate([]hookmodel.HookCondition{
		hookmodel.OrCondition{Conditions: []hookmodel.HookCondition{
			hookmodel.FilePatternCondition{Pattern: "*.rs"},
			hookmodel.FilePatternCondition{Pattern: "*.go"},
		}},
	}, ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateExpressionPlaceholder(t *testing.T) {
	e := NewEvaluator()
	ctx := &hookmodel.ExecutionContext{Variables: map[string]interface{}{"stage": "refiner"}}

	ok, err := e.Evaluate([]hookmodel.HookCondition{
		hookmodel.ExpressionCondition{Expression: `${stage} == "refiner"`},
	}, ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Evaluate([]hookmodel.HookCondition{
		hookmodel.ExpressionCondition{Expression: `${stage} == "curator"`},
	}, ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.Evaluate([]hookmodel.HookCondition{
		hookmodel.ExpressionCondition{Expression: "some unsupported form"},
	}, ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

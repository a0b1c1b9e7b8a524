// Package hookconditions evaluates HookCondition trees against an
// ExecutionContext. Every condition is a pure predicate: evaluation never
// mutates the context and never blocks beyond the occasional git or
// filesystem syscall needed by the Repository and FileSize variants.
package hookconditions

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hookguard/hookguard/pkg/hooks/hookerrors"
	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
)

// patternCacheSize caps the compiled file-pattern regex cache, matching
// the original's NonZeroUsize::new(100).
const patternCacheSize = 100

// Evaluator evaluates condition trees, caching compiled glob patterns.
type Evaluator struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *regexp.Regexp]
}

// NewEvaluator builds an Evaluator with its pattern cache ready to use.
func NewEvaluator() *Evaluator {
	cache, err := lru.New[string, *regexp.Regexp](patternCacheSize)
	if err != nil {
		// Only fails for a non-positive size, which patternCacheSize never is.
		panic(fmt.Sprintf("hookconditions: building pattern cache: %v", err))
	}
	return &Evaluator{cache: cache}
}

// Evaluate reports whether every condition in the list holds for ctx. An
// empty list is vacuously true. Evaluation short-circuits on first failure.
func (e *Evaluator) Evaluate(conditions []hookmodel.HookCondition, ctx *hookmodel.ExecutionContext) (bool, error) {
	for _, c := range conditions {
		ok, err := e.evaluateOne(c, ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (e *Evaluator) evaluateOne(c hookmodel.HookCondition, ctx *hookmodel.ExecutionContext) (bool, error) {
	switch cond := c.(type) {
	case hookmodel.FilePatternCondition:
		return e.evaluateFilePattern(cond, ctx)
	case hookmodel.FileSizeCondition:
		return e.evaluateFileSize(cond, ctx)
	case hookmodel.EnvironmentVariableCondition:
		return evaluateEnvVar(cond), nil
	case hookmodel.ContextVariableCondition:
		return evaluateContextVar(cond, ctx)
	case hookmodel.TimeWindowCondition:
		return evaluateTimeWindow(cond)
	case hookmodel.RepositoryCondition:
		return evaluateRepository(cond), nil
	case hookmodel.CostThresholdCondition:
		return evaluateCostThreshold(cond, ctx), nil
	case hookmodel.ExpressionCondition:
		return evaluateExpression(cond, ctx), nil
	case hookmodel.AndCondition:
		return e.Evaluate(cond.Conditions, ctx)
	case hookmodel.OrCondition:
		for _, child := range cond.Conditions {
			ok, err := e.evaluateOne(child, ctx)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case hookmodel.NotCondition:
		ok, err := e.evaluateOne(cond.Condition, ctx)
		if err != nil {
			return false, err
		}
		return !ok, nil
	default:
		return false, hookerrors.Newf("evaluate_condition", hookerrors.KindInternalInvariant, "unhandled condition type %T", c)
	}
}

func (e *Evaluator) evaluateFilePattern(cond hookmodel.FilePatternCondition, ctx *hookmodel.ExecutionContext) (bool, error) {
	raw, ok := ctx.Variables["file_path"]
	if !ok {
		return false, hookerrors.New("evaluate_file_pattern", hookerrors.KindValidation, hookerrors.ErrMissingContext).WithID("file_path")
	}
	filePath, ok := raw.(string)
	if !ok {
		return false, hookerrors.New("evaluate_file_pattern", hookerrors.KindValidation, hookerrors.ErrTypeMismatch).WithID("file_path")
	}

	re, err := e.compiledPattern(cond.Pattern)
	if err != nil {
		return false, hookerrors.New("evaluate_file_pattern", hookerrors.KindValidation, err)
	}

	matched := re.MatchString(filePath)
	if cond.Negate {
		return !matched, nil
	}
	return matched, nil
}

func (e *Evaluator) compiledPattern(pattern string) (*regexp.Regexp, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if re, ok := e.cache.Get(pattern); ok {
		return re, nil
	}

	re, err := regexp.Compile(globToRegex(pattern))
	if err != nil {
		return nil, fmt.Errorf("compile glob %q: %w", pattern, err)
	}
	e.cache.Add(pattern, re)
	return re, nil
}

func (e *Evaluator) evaluateFileSize(cond hookmodel.FileSizeCondition, ctx *hookmodel.ExecutionContext) (bool, error) {
	raw, ok := ctx.Variables["file_path"]
	if !ok {
		return false, hookerrors.New("evaluate_file_size", hookerrors.KindValidation, hookerrors.ErrMissingContext).WithID("file_path")
	}
	filePath, ok := raw.(string)
	if !ok {
		return false, hookerrors.New("evaluate_file_size", hookerrors.KindValidation, hookerrors.ErrTypeMismatch).WithID("file_path")
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return false, hookerrors.New("evaluate_file_size", hookerrors.KindIO, err).WithID(filePath)
	}
	fileSize := uint64(info.Size())

	switch cond.Operator {
	case hookmodel.SizeLessThan:
		limit, err := parseSize(cond.Value)
		if err != nil {
			return false, hookerrors.New("evaluate_file_size", hookerrors.KindValidation, err)
		}
		return fileSize < limit, nil
	case hookmodel.SizeGreaterThan:
		limit, err := parseSize(cond.Value)
		if err != nil {
			return false, hookerrors.New("evaluate_file_size", hookerrors.KindValidation, err)
		}
		return fileSize > limit, nil
	case hookmodel.SizeBetween:
		min, err := parseSize(cond.Min)
		if err != nil {
			return false, hookerrors.New("evaluate_file_size", hookerrors.KindValidation, err)
		}
		max, err := parseSize(cond.Max)
		if err != nil {
			return false, hookerrors.New("evaluate_file_size", hookerrors.KindValidation, err)
		}
		return fileSize >= min && fileSize <= max, nil
	default:
		return false, hookerrors.Newf("evaluate_file_size", hookerrors.KindValidation, "unknown size operator %q", cond.Operator)
	}
}

func evaluateEnvVar(cond hookmodel.EnvironmentVariableCondition) bool {
	value, ok := os.LookupEnv(cond.Name)
	exists := cond.Exists != nil && *cond.Exists

	if ok {
		if exists {
			return true
		}
		if cond.Value != nil {
			return value == *cond.Value
		}
		return true
	}
	return !exists
}

func evaluateContextVar(cond hookmodel.ContextVariableCondition, ctx *hookmodel.ExecutionContext) (bool, error) {
	actual, present := ctx.Variables[cond.Key]

	switch cond.Operator {
	case hookmodel.OpEq:
		return present && valuesEqual(actual, cond.Value), nil
	case hookmodel.OpNe:
		return !present || !valuesEqual(actual, cond.Value), nil
	case hookmodel.OpContains:
		if !present {
			return false, nil
		}
		switch av := actual.(type) {
		case string:
			expected, ok := cond.Value.(string)
			return ok && strings.Contains(av, expected), nil
		case []interface{}:
			for _, item := range av {
				if valuesEqual(item, cond.Value) {
					return true, nil
				}
			}
			return false, nil
		default:
			return false, nil
		}
	case hookmodel.OpStartsWith:
		av, aok := actual.(string)
		ev, eok := cond.Value.(string)
		return present && aok && eok && strings.HasPrefix(av, ev), nil
	case hookmodel.OpEndsWith:
		av, aok := actual.(string)
		ev, eok := cond.Value.(string)
		return present && aok && eok && strings.HasSuffix(av, ev), nil
	case hookmodel.OpGt:
		return compareNumeric(actual, cond.Value, func(a, b float64) bool { return a > b }), nil
	case hookmodel.OpLt:
		return compareNumeric(actual, cond.Value, func(a, b float64) bool { return a < b }), nil
	case hookmodel.OpGe:
		return compareNumeric(actual, cond.Value, func(a, b float64) bool { return a >= b }), nil
	case hookmodel.OpLe:
		return compareNumeric(actual, cond.Value, func(a, b float64) bool { return a <= b }), nil
	case hookmodel.OpMatches:
		av, aok := actual.(string)
		pattern, pok := cond.Value.(string)
		if !present || !aok || !pok {
			return false, nil
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, hookerrors.New("evaluate_context_variable", hookerrors.KindValidation, err)
		}
		return re.MatchString(av), nil
	default:
		return false, hookerrors.Newf("evaluate_context_variable", hookerrors.KindValidation, "unknown operator %q", cond.Operator)
	}
}

func valuesEqual(a, b interface{}) bool {
	af, aok := toFloat64(a)
	bf, bok := toFloat64(b)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func compareNumeric(a, b interface{}, cmp func(a, b float64) bool) bool {
	af, aok := toFloat64(a)
	bf, bok := toFloat64(b)
	if !aok || !bok {
		return false
	}
	return cmp(af, bf)
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// evaluateTimeWindow checks the current time against a TimeWindowCondition.
//
// The source compares "HH:MM" strings lexicographically (current >= start
// && current <= end), which breaks for windows that cross midnight (e.g.
// start="22:00", end="06:00" never matches). That bug is not reproduced:
// an overnight window (start > end) evaluates false rather than wrapping.
func evaluateTimeWindow(cond hookmodel.TimeWindowCondition) (bool, error) {
	loc := time.Local
	if cond.Timezone != "" {
		l, err := time.LoadLocation(cond.Timezone)
		if err != nil {
			return false, hookerrors.New("evaluate_time_window", hookerrors.KindValidation, err).WithID(cond.Timezone)
		}
		loc = l
	}
	now := time.Now().In(loc)

	if len(cond.Weekdays) > 0 {
		today := strings.ToLower(now.Weekday().String())
		found := false
		for _, d := range cond.Weekdays {
			if strings.ToLower(d) == today {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}

	if cond.Start == "" || cond.End == "" {
		return true, nil
	}

	current := fmt.Sprintf("%02d:%02d", now.Hour(), now.Minute())
	start, end := cond.Start, cond.End

	if start <= end {
		return current >= start && current <= end, nil
	}
	// Overnight window: e.g. 22:00..06:00. Not supported; evaluates false
	// rather than reproducing the source's lexicographic wraparound bug.
	return false, nil
}

func evaluateRepository(cond hookmodel.RepositoryCondition) bool {
	if cond.HasFile != "" {
		if _, err := os.Stat(cond.HasFile); err != nil {
			return false
		}
	}

	if cond.BranchPattern != "" {
		out, err := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD").Output()
		if err != nil {
			return false
		}
		branch := strings.TrimSpace(string(out))
		re, err := regexp.Compile(cond.BranchPattern)
		if err != nil || !re.MatchString(branch) {
			return false
		}
	}

	if cond.IsClean != nil {
		out, err := exec.Command("git", "status", "--porcelain").Output()
		if err != nil {
			return false
		}
		clean := strings.TrimSpace(string(out)) == ""
		if clean != *cond.IsClean {
			return false
		}
	}

	return true
}

func evaluateCostThreshold(cond hookmodel.CostThresholdCondition, ctx *hookmodel.ExecutionContext) bool {
	raw, ok := ctx.Variables["estimated_cost"]
	if !ok {
		return true
	}
	cost, ok := toFloat64(raw)
	if !ok {
		return true
	}
	return cost <= cond.Max
}

// evaluateExpression supports only `${var} == "literal"`, matching the
// original's narrow placeholder. Any other shape evaluates true.
func evaluateExpression(cond hookmodel.ExpressionCondition, ctx *hookmodel.ExecutionContext) bool {
	parts := strings.SplitN(cond.Expression, "==", 2)
	if len(parts) != 2 {
		return true
	}

	varName := strings.TrimSpace(parts[0])
	varName = strings.TrimPrefix(varName, "${")
	varName = strings.TrimSuffix(varName, "}")

	literal := strings.TrimSpace(parts[1])
	literal = strings.Trim(literal, `"`)

	actual, ok := ctx.Variables[varName]
	if !ok {
		return true
	}
	s, ok := actual.(string)
	if !ok {
		return true
	}
	return s == literal
}

package hookquality

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// StageResult is the subset of a stage's output a Gate evaluates.
type StageResult struct {
	Content      string
	QualityScore float64
	Model        string
	Stage        string
}

// GateStats tracks pass/fail history for one Gate.
type GateStats struct {
	Evaluations  int
	Passes       int
	Failures     int
	RecentFailures []Violation
}

// PassRate returns Passes/Evaluations, or 0 if never evaluated.
func (s GateStats) PassRate() float64 {
	if s.Evaluations == 0 {
		return 0
	}
	return float64(s.Passes) / float64(s.Evaluations)
}

const maxRecentFailures = 50

// Manager owns a set of named Gates and their evaluation statistics.
type Manager struct {
	mu               sync.RWMutex
	gates            map[string]Gate
	stats            map[string]*GateStats
	contentPredicate ContentPredicate
}

// New constructs a Manager with the permissive default ContentPredicate.
func New() *Manager {
	return &Manager{
		gates:            make(map[string]Gate),
		stats:            make(map[string]*GateStats),
		contentPredicate: PermissiveContentPredicate,
	}
}

// SetContentPredicate overrides the predicate used for
// CriterionInappropriateContent checks.
func (m *Manager) SetContentPredicate(p ContentPredicate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contentPredicate = p
}

// AddGate registers or replaces a Gate.
func (m *Manager) AddGate(gate Gate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gates[gate.Name] = gate
	if _, ok := m.stats[gate.Name]; !ok {
		m.stats[gate.Name] = &GateStats{}
	}
}

// RemoveGate deletes a Gate and its statistics.
func (m *Manager) RemoveGate(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gates, name)
	delete(m.stats, name)
}

// ListGates returns every registered Gate, enabled or not.
func (m *Manager) ListGates() []Gate {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Gate, 0, len(m.gates))
	for _, g := range m.gates {
		out = append(out, g)
	}
	return out
}

// Evaluate runs every enabled Gate against result, returning one Result
// per gate. Block overrides Warn for a single gate's Blocked flag; Warn
// accumulates into that gate's Warnings.
func (m *Manager) Evaluate(result StageResult) []Result {
	m.mu.RLock()
	gates := make([]Gate, 0, len(m.gates))
	for _, g := range m.gates {
		if g.Enabled {
			gates = append(gates, g)
		}
	}
	predicate := m.contentPredicate
	m.mu.RUnlock()

	results := make([]Result, 0, len(gates))
	for _, gate := range gates {
		results = append(results, m.evaluateGate(gate, result, predicate))
	}
	return results
}

func (m *Manager) evaluateGate(gate Gate, result StageResult, predicate ContentPredicate) Result {
	gateResult := Result{GateName: gate.Name, Passed: true}

	for _, criterion := range gate.Criteria {
		violated, message := evaluateCriterion(criterion, result, predicate)
		if !violated {
			continue
		}

		v := Violation{
			GateName:      gate.Name,
			CriterionName: criterion.Name,
			CriterionType: criterion.Type,
			Message:       message,
			Action:        criterion.Action,
		}

		if !criterion.Required {
			continue
		}

		gateResult.Violations = append(gateResult.Violations, v)

		switch criterion.Action {
		case ActionBlock:
			gateResult.Passed = false
			gateResult.Blocked = true
		case ActionWarn:
			gateResult.Warnings = append(gateResult.Warnings, message)
		case ActionRequestApproval:
			gateResult.Passed = false
		case ActionLog:
			// recorded in Violations; no further effect
		}
	}

	m.recordStats(gate.Name, gateResult)
	return gateResult
}

func (m *Manager) recordStats(gateName string, result Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.stats[gateName]
	if !ok {
		stats = &GateStats{}
		m.stats[gateName] = stats
	}
	stats.Evaluations++
	if result.Passed {
		stats.Passes++
	} else {
		stats.Failures++
		stats.RecentFailures = append(stats.RecentFailures, result.Violations...)
		if len(stats.RecentFailures) > maxRecentFailures {
			stats.RecentFailures = stats.RecentFailures[len(stats.RecentFailures)-maxRecentFailures:]
		}
	}
}

// Stats returns a copy of a Gate's current statistics.
func (m *Manager) Stats(gateName string) (GateStats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats, ok := m.stats[gateName]
	if !ok {
		return GateStats{}, false
	}
	return *stats, true
}

func evaluateCriterion(c Criterion, result StageResult, predicate ContentPredicate) (violated bool, message string) {
	switch c.Type {
	case CriterionMinLength:
		if len(result.Content) < c.MinLength {
			return true, fmt.Sprintf("content length %d is below minimum %d", len(result.Content), c.MinLength)
		}
	case CriterionMaxLength:
		if len(result.Content) > c.MaxLength {
			return true, fmt.Sprintf("content length %d exceeds maximum %d", len(result.Content), c.MaxLength)
		}
	case CriterionContainsText:
		if !strings.Contains(result.Content, c.Text) {
			return true, fmt.Sprintf("content does not contain required text %q", c.Text)
		}
	case CriterionNotContainsText:
		if strings.Contains(result.Content, c.Text) {
			return true, fmt.Sprintf("content contains forbidden text %q", c.Text)
		}
	case CriterionRegexMatch:
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return true, fmt.Sprintf("invalid regex pattern %q: %v", c.Pattern, err)
		}
		if !re.MatchString(result.Content) {
			return true, fmt.Sprintf("content does not match pattern %q", c.Pattern)
		}
	case CriterionMinQualityScore:
		if result.QualityScore < c.Threshold {
			return true, fmt.Sprintf("quality score %.2f is below threshold %.2f", result.QualityScore, c.Threshold)
		}
	case CriterionInappropriateContent:
		if flagged, reason := predicate(result.Content); flagged {
			return true, fmt.Sprintf("content flagged: %s", reason)
		}
	case CriterionCustom:
		return false, ""
	}
	return false, ""
}

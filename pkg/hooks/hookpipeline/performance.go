package hookpipeline

import (
	"sync"
	"time"
)

// AlertType classifies a performance alert.
type AlertType string

const (
	AlertSlowStage       AlertType = "slow_stage"
	AlertHighMemoryUsage AlertType = "high_memory_usage"
	AlertHighErrorRate   AlertType = "high_error_rate"
)

// PerformanceAlert records a single threshold breach.
type PerformanceAlert struct {
	Type      AlertType
	Stage     Stage
	Value     float64
	Threshold float64
	Timestamp time.Time
	Resolved  bool
}

// PerformanceStatus is a snapshot returned by Pipeline.PerformanceStatus.
type PerformanceStatus struct {
	StageDurations map[Stage][]float64
	MemoryUsageMB  map[Stage][]uint64
	ErrorRates     map[Stage]float64
	ActiveAlerts   []PerformanceAlert
	TotalAlerts    int
}

// performanceMonitor tracks per-stage duration/memory/error-rate history
// and raises cooldown-gated alerts when a stage crosses a configured
// threshold. Grounded on consensus_integration.rs's PerformanceMonitor.
type performanceMonitor struct {
	mu             sync.Mutex
	stageDurations map[Stage][]float64
	memoryUsage    map[Stage][]uint64
	errorRates     map[Stage]float64
	alerts         []PerformanceAlert
	lastAlertTimes map[Stage]time.Time
	thresholds     PerformanceThresholds
}

func newPerformanceMonitor(thresholds PerformanceThresholds) *performanceMonitor {
	return &performanceMonitor{
		stageDurations: make(map[Stage][]float64),
		memoryUsage:    make(map[Stage][]uint64),
		errorRates:     make(map[Stage]float64),
		lastAlertTimes: make(map[Stage]time.Time),
		thresholds:     thresholds,
	}
}

func (m *performanceMonitor) record(stage Stage, analytics *StageAnalytics) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stageDurations[stage] = append(m.stageDurations[stage], analytics.Duration)
	if analytics.MemoryUsageMB != nil {
		m.memoryUsage[stage] = append(m.memoryUsage[stage], *analytics.MemoryUsageMB)
	}

	errorRate := float64(analytics.ErrorCount) / 100.0
	m.errorRates[stage] = errorRate

	m.checkAlerts(stage, analytics, errorRate)
}

func (m *performanceMonitor) checkAlerts(stage Stage, analytics *StageAnalytics, errorRate float64) {
	now := time.Now()
	if last, ok := m.lastAlertTimes[stage]; ok && now.Sub(last) < m.thresholds.AlertCooldown {
		return
	}

	alerted := false

	if time.Duration(analytics.Duration*float64(time.Second)) > m.thresholds.SlowStageThreshold {
		m.alerts = append(m.alerts, PerformanceAlert{
			Type:      AlertSlowStage,
			Stage:     stage,
			Value:     analytics.Duration,
			Threshold: m.thresholds.SlowStageThreshold.Seconds(),
			Timestamp: now,
		})
		alerted = true
	}

	if analytics.MemoryUsageMB != nil && *analytics.MemoryUsageMB > m.thresholds.HighMemoryThresholdMB {
		m.alerts = append(m.alerts, PerformanceAlert{
			Type:      AlertHighMemoryUsage,
			Stage:     stage,
			Value:     float64(*analytics.MemoryUsageMB),
			Threshold: float64(m.thresholds.HighMemoryThresholdMB),
			Timestamp: now,
		})
		alerted = true
	}

	if errorRate > m.thresholds.HighErrorRateThreshold {
		m.alerts = append(m.alerts, PerformanceAlert{
			Type:      AlertHighErrorRate,
			Stage:     stage,
			Value:     errorRate,
			Threshold: m.thresholds.HighErrorRateThreshold,
			Timestamp: now,
		})
		alerted = true
	}

	if alerted {
		m.lastAlertTimes[stage] = now
	}
}

func (m *performanceMonitor) status() PerformanceStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	durations := make(map[Stage][]float64, len(m.stageDurations))
	for k, v := range m.stageDurations {
		durations[k] = append([]float64(nil), v...)
	}
	memory := make(map[Stage][]uint64, len(m.memoryUsage))
	for k, v := range m.memoryUsage {
		memory[k] = append([]uint64(nil), v...)
	}
	errorRates := make(map[Stage]float64, len(m.errorRates))
	for k, v := range m.errorRates {
		errorRates[k] = v
	}

	var active []PerformanceAlert
	for _, a := range m.alerts {
		if !a.Resolved {
			active = append(active, a)
		}
	}

	return PerformanceStatus{
		StageDurations: durations,
		MemoryUsageMB:  memory,
		ErrorRates:     errorRates,
		ActiveAlerts:   active,
		TotalAlerts:    len(m.alerts),
	}
}

func (m *performanceMonitor) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stageDurations = make(map[Stage][]float64)
	m.memoryUsage = make(map[Stage][]uint64)
	m.errorRates = make(map[Stage]float64)
	m.alerts = nil
	m.lastAlertTimes = make(map[Stage]time.Time)
}

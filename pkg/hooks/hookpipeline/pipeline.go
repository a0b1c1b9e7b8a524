package hookpipeline

import (
	"fmt"
	"time"

	"github.com/hookguard/hookguard/pkg/hooks/hookaudit"
	"github.com/hookguard/hookguard/pkg/hooks/hookcost"
	"github.com/hookguard/hookguard/pkg/hooks/hookdispatcher"
	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
	"github.com/hookguard/hookguard/pkg/hooks/hookquality"
	"github.com/hookguard/hookguard/pkg/logger"
)

var preEventByStage = map[Stage]hookmodel.EventType{
	StageGenerator: hookmodel.EventBeforeGeneratorStage,
	StageRefiner:   hookmodel.EventBeforeRefinerStage,
	StageValidator: hookmodel.EventBeforeValidatorStage,
	StageCurator:   hookmodel.EventBeforeCuratorStage,
}

var postEventByStage = map[Stage]hookmodel.EventType{
	StageGenerator: hookmodel.EventAfterGeneratorStage,
	StageRefiner:   hookmodel.EventAfterRefinerStage,
	StageValidator: hookmodel.EventAfterValidatorStage,
	StageCurator:   hookmodel.EventAfterCuratorStage,
}

// Pipeline runs pre/post-stage hooks for a multi-stage generation
// pipeline, gating on cost approval and quality before letting a stage
// proceed. Grounded on consensus_integration.rs's ConsensusIntegration.
type Pipeline struct {
	config     Config
	dispatcher *hookdispatcher.Dispatcher
	cost       *hookcost.Controller
	quality    *hookquality.Manager
	audit      *hookaudit.Logger
	perf       *performanceMonitor
	log        logger.Logger
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithLogger overrides the structured logger used for diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// New constructs a Pipeline wired to the given dispatcher, cost
// controller, quality manager, and audit logger.
func New(config Config, dispatcher *hookdispatcher.Dispatcher, cost *hookcost.Controller, quality *hookquality.Manager, audit *hookaudit.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		config:     config,
		dispatcher: dispatcher,
		cost:       cost,
		quality:    quality,
		audit:      audit,
		perf:       newPerformanceMonitor(config.Performance),
		log:        logger.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ExecutePreStageHooks checks the estimated cost against configured
// thresholds and, if it clears them, dispatches the stage's Before event.
func (p *Pipeline) ExecutePreStageHooks(stage Stage, conversationID, question, model string, estimatedCost float64) (Result, error) {
	start := time.Now()

	requirement, err := p.cost.CheckCostApprovalRequired(estimatedCost, hookcost.EstimationContext{
		ConversationID: conversationID,
	})
	if err != nil {
		return Result{}, fmt.Errorf("pre-stage cost check for %s: %w", stage, err)
	}
	if requirement != nil {
		return Result{
			Proceed:             false,
			ApprovalRequirement: requirement,
			Warnings:            []string{fmt.Sprintf("cost threshold exceeded for %s stage", stage)},
			Modifications:       map[string]interface{}{},
		}, nil
	}

	event := hookmodel.NewHookEvent(preEventByStage[stage], hookmodel.SourceFromConsensus(string(stage))).
		WithContext("conversation_id", conversationID).
		WithContext("question", question).
		WithContext("model", model).
		WithContext("estimated_cost", estimatedCost).
		WithContext("timestamp", time.Now().UTC().Format(time.RFC3339))

	if err := p.dispatcher.Dispatch(event); err != nil {
		p.log.Warn("failed to dispatch pre-stage hooks", map[string]interface{}{"stage": string(stage), "error": err.Error()})
		if !p.config.ContinueOnHookFailure {
			return Result{}, fmt.Errorf("pre-%s hook dispatch failed: %w", stage, err)
		}
	}

	p.logStageAudit(hookaudit.EventPreStageHooksRun, stage, start)

	return Result{Proceed: true, Modifications: map[string]interface{}{}}, nil
}

// ExecutePostStageHooks runs quality gates against stageResult, updates
// performance tracking, and dispatches the stage's After event.
func (p *Pipeline) ExecutePostStageHooks(stage Stage, stageResult StageResult) (Result, error) {
	start := time.Now()

	gateResult := p.checkQualityGates(stage, stageResult)
	if !gateResult.Proceed {
		return gateResult, nil
	}

	if stageResult.Analytics != nil {
		p.perf.record(stage, stageResult.Analytics)

		if err := p.cost.RecordOperationCost(string(stage), stageResult.Model, 0, stageResult.Analytics.QualityScore, stageResult.Analytics.Cost); err != nil {
			p.log.Warn("failed to record operation cost", map[string]interface{}{"stage": string(stage), "error": err.Error()})
		}
	}

	event := hookmodel.NewHookEvent(postEventByStage[stage], hookmodel.SourceFromConsensus(string(stage))).
		WithContext("conversation_id", stageResult.ConversationID).
		WithContext("stage_id", stageResult.StageID).
		WithContext("answer", stageResult.Answer).
		WithContext("model", stageResult.Model)

	if stageResult.Analytics != nil {
		event.WithContext("duration", stageResult.Analytics.Duration).
			WithContext("cost", stageResult.Analytics.Cost).
			WithContext("quality_score", stageResult.Analytics.QualityScore)
	}

	if err := p.dispatcher.Dispatch(event); err != nil {
		p.log.Warn("failed to dispatch post-stage hooks", map[string]interface{}{"stage": string(stage), "error": err.Error()})
		if !p.config.ContinueOnHookFailure {
			return Result{}, fmt.Errorf("post-%s hook dispatch failed: %w", stage, err)
		}
	}

	p.logStageAudit(hookaudit.EventPostStageHooksRun, stage, start)

	return Result{Proceed: true, Modifications: map[string]interface{}{}}, nil
}

func (p *Pipeline) checkQualityGates(stage Stage, stageResult StageResult) Result {
	results := p.quality.Evaluate(hookquality.StageResult{
		Content:      stageResult.Answer,
		QualityScore: qualityScoreOf(stageResult),
		Model:        stageResult.Model,
		Stage:        string(stage),
	})

	var warnings []string
	for _, r := range results {
		warnings = append(warnings, r.Warnings...)
		if r.Blocked {
			return Result{
				Proceed:       false,
				Warnings:      append(warnings, fmt.Sprintf("quality gate %q blocked %s stage output", r.GateName, stage)),
				Modifications: map[string]interface{}{},
			}
		}
	}

	return Result{Proceed: true, Warnings: warnings, Modifications: map[string]interface{}{}}
}

func qualityScoreOf(r StageResult) float64 {
	if r.Analytics == nil {
		return 0.8
	}
	return r.Analytics.QualityScore
}

func (p *Pipeline) logStageAudit(eventType hookaudit.EventType, stage Stage, start time.Time) {
	if p.audit == nil {
		return
	}
	event := hookaudit.NewEvent(eventType).
		WithContext("stage", string(stage)).
		WithContext("duration", time.Since(start).Seconds())
	if err := p.audit.LogEvent(event); err != nil {
		p.log.Warn("failed to write pipeline audit event", map[string]interface{}{"stage": string(stage), "error": err.Error()})
	}
}

// PerformanceStatus returns a snapshot of per-stage performance tracking.
func (p *Pipeline) PerformanceStatus() PerformanceStatus {
	return p.perf.status()
}

// ResetMonitoringData clears performance tracking history and alerts.
func (p *Pipeline) ResetMonitoringData() {
	p.perf.reset()
}

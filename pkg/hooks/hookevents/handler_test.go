package hookevents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookguard/hookguard/pkg/hooks/hookapproval"
	"github.com/hookguard/hookguard/pkg/hooks/hookconditions"
	"github.com/hookguard/hookguard/pkg/hooks/hookexecutor"
	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
	"github.com/hookguard/hookguard/pkg/hooks/hookregistry"
	"github.com/hookguard/hookguard/pkg/hooks/hooksecurity"
)

func newTestHandler(t *testing.T) (*Handler, *hookregistry.Registry) {
	t.Helper()
	registry := hookregistry.New()

	validator, err := hooksecurity.NewValidator()
	require.NoError(t, err)

	cfg := hookapproval.DefaultConfig()
	cfg.Notifications.Enabled = false
	workflow := hookapproval.NewWithConfig(cfg)
	t.Cleanup(workflow.Close)

	executor := hookexecutor.New(validator, hookconditions.NewEvaluator(), workflow)
	return New(registry, executor), registry
}

func orderedHook(id hookmodel.HookID, priority hookmodel.Priority) *hookmodel.Hook {
	return &hookmodel.Hook{
		ID:       id,
		Name:     string(id),
		Events:   []hookmodel.EventType{hookmodel.EventBeforeAnalysis},
		Actions:  []hookmodel.HookAction{hookmodel.ModifyContextAction{Operation: hookmodel.OpAppend, Key: "order", Value: []interface{}{string(id)}}},
		Priority: priority,
		Enabled:  true,
		Security: hookmodel.SecurityPolicy{MaxExecutionTime: 5, StopOnError: true},
	}
}

func TestHandleEventDispatchesToMatchingEnabledHooks(t *testing.T) {
	h, registry := newTestHandler(t)
	require.NoError(t, registry.Register(orderedHook("a", hookmodel.PriorityNormal)))

	disabled := orderedHook("b", hookmodel.PriorityHigh)
	disabled.Enabled = false
	require.NoError(t, registry.Register(disabled))

	event := hookmodel.NewHookEvent(hookmodel.EventBeforeAnalysis, hookmodel.SourceSystemOrigin())
	assert.NoError(t, h.HandleEvent(context.Background(), event))
}

func TestQueueEventAndProcessQueueOrdersByPriority(t *testing.T) {
	h, _ := newTestHandler(t)

	low := hookmodel.NewHookEvent(hookmodel.EventBeforeAnalysis, hookmodel.SourceSystemOrigin())
	high := hookmodel.NewHookEvent(hookmodel.EventAfterAnalysis, hookmodel.SourceSystemOrigin())

	h.QueueEvent(low, hookmodel.PriorityLow)
	h.QueueEvent(high, hookmodel.PriorityHigh)
	assert.Equal(t, 2, h.QueueLen())

	require.NoError(t, h.ProcessQueue(context.Background()))
	assert.Equal(t, 0, h.QueueLen())
}

func TestProcessQueueIsReentrantSafe(t *testing.T) {
	h, _ := newTestHandler(t)
	assert.NoError(t, h.ProcessQueue(context.Background()))
}

package hookdispatcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookguard/hookguard/pkg/hooks/hookerrors"
	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []*hookmodel.HookEvent
}

func (r *recordingHandler) HandleEvent(_ context.Context, event *hookmodel.HookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingHandler) seen() []*hookmodel.HookEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*hookmodel.HookEvent, len(r.events))
	copy(out, r.events)
	return out
}

func testEvent(eventType hookmodel.EventType) *hookmodel.HookEvent {
	return hookmodel.NewHookEvent(eventType, hookmodel.SourceSystemOrigin())
}

func TestDispatchRoutesToDefaultQueueWithoutRules(t *testing.T) {
	d := New(DefaultConfig(), &recordingHandler{})
	require.NoError(t, d.Dispatch(testEvent(hookmodel.EventBeforeAnalysis)))

	stats := d.GetStats()
	assert.EqualValues(t, 1, stats.EventsReceived)
	assert.Equal(t, 1, stats.QueueSizes[defaultQueueName])
}

func TestDispatchHonorsRoutingRuleTargetQueue(t *testing.T) {
	d := New(DefaultConfig(), &recordingHandler{})
	d.AddRoutingRule(RoutingRule{
		EventTypes:  []hookmodel.EventType{hookmodel.EventAfterAnalysis},
		TargetQueue: "analysis",
	})

	require.NoError(t, d.Dispatch(testEvent(hookmodel.EventAfterAnalysis)))

	stats := d.GetStats()
	assert.Equal(t, 1, stats.QueueSizes["analysis"])
	assert.Equal(t, 0, stats.QueueSizes[defaultQueueName])
}

func TestDispatchDropsEventsWhenQueueFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxQueueSize = 1
	d := New(cfg, &recordingHandler{})

	require.NoError(t, d.Dispatch(testEvent(hookmodel.EventBeforeAnalysis)))
	err := d.Dispatch(testEvent(hookmodel.EventBeforeAnalysis))
	require.Error(t, err)
	assert.True(t, hookerrors.IsKind(err, hookerrors.KindQueueFull))

	assert.EqualValues(t, 1, d.GetStats().EventsDropped)
}

func TestDispatchAppliesRateLimitFromRoutingRule(t *testing.T) {
	d := New(DefaultConfig(), &recordingHandler{})
	limit := uint32(1)
	d.AddRoutingRule(RoutingRule{
		EventTypes: []hookmodel.EventType{hookmodel.EventBeforeAnalysis},
		RateLimit:  &limit,
	})

	require.NoError(t, d.Dispatch(testEvent(hookmodel.EventBeforeAnalysis)))
	err := d.Dispatch(testEvent(hookmodel.EventBeforeAnalysis))
	require.Error(t, err)
	assert.True(t, hookerrors.IsKind(err, hookerrors.KindRateLimitExceeded))
}

func TestWorkerPoolDrainsQueueAndInvokesHandler(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProcessingInterval = 10 * time.Millisecond
	cfg.WorkerCount = 1
	handler := &recordingHandler{}
	d := New(cfg, handler)

	require.NoError(t, d.Dispatch(testEvent(hookmodel.EventBeforeAnalysis)))

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	defer func() {
		cancel()
		d.Stop()
	}()

	require.Eventually(t, func() bool {
		return len(handler.seen()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.EqualValues(t, 1, d.GetStats().EventsProcessed)
}

func TestClearQueuesEmptiesAllQueuesButKeepsCounters(t *testing.T) {
	d := New(DefaultConfig(), &recordingHandler{})
	require.NoError(t, d.Dispatch(testEvent(hookmodel.EventBeforeAnalysis)))

	d.ClearQueues()

	stats := d.GetStats()
	assert.Equal(t, 0, stats.QueueSizes[defaultQueueName])
	assert.EqualValues(t, 1, stats.EventsReceived)
}

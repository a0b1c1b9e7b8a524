// Package hookevents dispatches HookEvents to every matching, enabled
// hook in priority order, and offers a small priority-queued backlog for
// callers that want to defer processing rather than dispatch inline.
package hookevents

import (
	"container/heap"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hookguard/hookguard/pkg/hooks/hookexecutor"
	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
	"github.com/hookguard/hookguard/pkg/hooks/hookregistry"
	"github.com/hookguard/hookguard/pkg/logger"
)

// Handler dispatches events to the hooks registered for them.
type Handler struct {
	registry *hookregistry.Registry
	executor *hookexecutor.Executor
	log      logger.Logger

	queueMu sync.Mutex
	queue   eventQueue

	processingMu sync.Mutex
	processing   bool
}

// Option configures a Handler at construction time.
type Option func(*Handler)

// WithLogger overrides the structured logger used for per-hook dispatch
// diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(h *Handler) { h.log = log }
}

// New constructs a Handler over an existing registry and executor.
func New(registry *hookregistry.Registry, executor *hookexecutor.Executor, opts ...Option) *Handler {
	h := &Handler{
		registry: registry,
		executor: executor,
		log:      logger.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleEvent dispatches event to every enabled hook registered for its
// type, highest hook Priority first. A single hook's failure is logged
// and does not stop the remaining hooks from running; the returned error
// is non-nil only if Registry/Executor setup itself is broken, never for
// an individual hook's execution failure.
func (h *Handler) HandleEvent(ctx context.Context, event *hookmodel.HookEvent) error {
	hooks := h.registry.FindByEvent(event.EventType)

	sort.SliceStable(hooks, func(i, j int) bool { return hooks[i].Priority > hooks[j].Priority })

	execID := newExecutionID()
	base := hookmodel.FromEvent(event, execID)

	for _, hook := range hooks {
		execCtx := base.Clone()
		execCtx.HookID = string(hook.ID)

		result, err := h.executor.ExecuteHook(ctx, hook, execCtx)
		if err != nil {
			h.log.Error("hook execution failed", map[string]interface{}{
				"hook_id":   string(hook.ID),
				"hook_name": hook.Name,
				"error":     err.Error(),
			})
			continue
		}

		h.log.Debug("hook executed", map[string]interface{}{
			"hook_id":   string(hook.ID),
			"hook_name": hook.Name,
			"success":   result.Success,
		})
	}

	return nil
}

// QueueEvent enqueues event for later processing by ProcessQueue, ordered
// by priority and, within a priority, by submission time.
func (h *Handler) QueueEvent(event *hookmodel.HookEvent, priority hookmodel.Priority) {
	h.queueMu.Lock()
	defer h.queueMu.Unlock()
	heap.Push(&h.queue, &queuedEvent{event: event, priority: priority, queuedAt: time.Now()})
}

// ProcessQueue drains every currently queued event in priority order,
// dispatching each through HandleEvent. Re-entrant calls while a drain is
// already in flight are no-ops, matching the original's single-flight
// "processing" guard.
func (h *Handler) ProcessQueue(ctx context.Context) error {
	h.processingMu.Lock()
	if h.processing {
		h.processingMu.Unlock()
		return nil
	}
	h.processing = true
	h.processingMu.Unlock()

	defer func() {
		h.processingMu.Lock()
		h.processing = false
		h.processingMu.Unlock()
	}()

	for {
		h.queueMu.Lock()
		if h.queue.Len() == 0 {
			h.queueMu.Unlock()
			return nil
		}
		next := heap.Pop(&h.queue).(*queuedEvent)
		h.queueMu.Unlock()

		if err := h.HandleEvent(ctx, next.event); err != nil {
			return fmt.Errorf("process queued event: %w", err)
		}
	}
}

// QueueLen reports how many events are currently queued.
func (h *Handler) QueueLen() int {
	h.queueMu.Lock()
	defer h.queueMu.Unlock()
	return h.queue.Len()
}

var executionCounter uint64
var executionCounterMu sync.Mutex

// newExecutionID generates a process-local execution id. A counter
// rather than a random id keeps event dispatch allocation-free and
// collision-free without reaching for uuid on every single event.
func newExecutionID() string {
	executionCounterMu.Lock()
	defer executionCounterMu.Unlock()
	executionCounter++
	return fmt.Sprintf("exec-%d-%d", time.Now().UnixNano(), executionCounter)
}

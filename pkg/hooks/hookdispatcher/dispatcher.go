package hookdispatcher

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hookguard/hookguard/pkg/hooks/hookerrors"
	"github.com/hookguard/hookguard/pkg/hooks/hookevents"
	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
	"github.com/hookguard/hookguard/pkg/logger"
	"github.com/hookguard/hookguard/telemetry"
)

// EventHandler is the subset of hookevents.Handler the dispatcher drives.
// Declared as an interface so tests can substitute a recording stub.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *hookmodel.HookEvent) error
}

var _ EventHandler = (*hookevents.Handler)(nil)

// Dispatcher routes events into per-queue priority heaps and drains them
// with a pool of worker goroutines.
type Dispatcher struct {
	config  Config
	handler EventHandler
	log     logger.Logger

	mu              sync.Mutex
	queues          map[string]*eventHeap
	routingRules    []RoutingRule
	limiters        map[string]*rateLimiter
	errorLogLimiter *telemetry.RateLimiter
	stats           Stats

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// Option configures a Dispatcher at construction time.
type Option func(*Dispatcher)

// WithLogger overrides the structured logger used for worker diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// New constructs a Dispatcher. Call Start to spin up its worker pool.
func New(config Config, handler EventHandler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		config:          config,
		handler:         handler,
		log:             logger.NewDefaultLogger(),
		queues:          map[string]*eventHeap{defaultQueueName: {}},
		limiters:        make(map[string]*rateLimiter),
		errorLogLimiter: telemetry.NewRateLimiter(10 * time.Second),
		stats:           Stats{QueueSizes: make(map[string]int), ProcessingTimes: make(map[string]float64)},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start spawns config.WorkerCount worker goroutines, each draining every
// queue once per ProcessingInterval tick.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	workerCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true
	d.mu.Unlock()

	for i := 0; i < d.config.WorkerCount; i++ {
		d.wg.Add(1)
		go d.runWorker(workerCtx, fmt.Sprintf("worker-%d", i))
	}
}

// Stop cancels every worker and waits for them to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	cancel := d.cancel
	d.running = false
	d.mu.Unlock()

	cancel()
	d.wg.Wait()
}

func (d *Dispatcher) runWorker(ctx context.Context, workerID string) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("dispatcher worker panicked", map[string]interface{}{"worker_id": workerID, "panic": fmt.Sprintf("%v", r)})
		}
	}()

	ticker := time.NewTicker(d.config.ProcessingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.drainOnce(ctx, workerID)
		}
	}
}

// drainOnce pops up to BatchSize surviving events from every queue and
// hands them to the event handler. The queue lock is held only for the
// pop; handler execution happens outside it, matching SPEC_FULL.md §5's
// "short critical section" rule.
func (d *Dispatcher) drainOnce(ctx context.Context, workerID string) {
	d.mu.Lock()
	names := make([]string, 0, len(d.queues))
	for name := range d.queues {
		names = append(names, name)
	}
	d.mu.Unlock()

	for _, name := range names {
		batch := d.popBatch(name)
		for _, pe := range batch {
			start := time.Now()
			spanCtx, endSpan := telemetry.StartLinkedSpan(ctx, "hookdispatcher.process_event", "", "",
				map[string]string{"queue_name": name, "event_type": string(pe.event.EventType)})
			err := d.handler.HandleEvent(spanCtx, pe.event)
			endSpan()
			if err != nil {
				// A misbehaving handler can fail on every drained event;
				// rate-limit the log line so one bad hook doesn't flood
				// the log at ProcessingInterval frequency.
				if d.errorLogLimiter.Allow() {
					d.log.Error("dispatcher worker failed to process event", map[string]interface{}{
						"worker_id":  workerID,
						"queue_name": name,
						"error":      err.Error(),
					})
				}
				continue
			}

			duration := time.Since(start).Seconds()
			d.mu.Lock()
			d.stats.EventsProcessed++
			if prev, ok := d.stats.ProcessingTimes[name]; ok {
				d.stats.ProcessingTimes[name] = (prev + duration) / 2
			} else {
				d.stats.ProcessingTimes[name] = duration
			}
			d.mu.Unlock()
		}
	}
}

func (d *Dispatcher) popBatch(queueName string) []*prioritizedEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	q, ok := d.queues[queueName]
	if !ok {
		return nil
	}

	var batch []*prioritizedEvent
	now := time.Now()
	for len(batch) < d.config.BatchSize && q.Len() > 0 {
		pe := heap.Pop(q).(*prioritizedEvent)
		if pe.ttlAt.After(now) {
			batch = append(batch, pe)
		} else {
			d.stats.EventsExpired++
		}
	}
	d.stats.QueueSizes[queueName] = q.Len()
	return batch
}

// Dispatch routes event to its target queue, applying rate limiting and
// queue-capacity checks before enqueueing.
func (d *Dispatcher) Dispatch(event *hookmodel.HookEvent) error {
	d.mu.Lock()
	d.stats.EventsReceived++
	d.mu.Unlock()

	queueName, priority := d.routeEvent(event)

	if !d.checkRateLimit(event) {
		d.mu.Lock()
		d.stats.EventsDropped++
		d.mu.Unlock()
		return hookerrors.Newf("dispatch", hookerrors.KindRateLimitExceeded, "rate limit exceeded for event type %q", event.EventType)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	q, ok := d.queues[queueName]
	if !ok {
		q = &eventHeap{}
		d.queues[queueName] = q
	}

	if q.Len() >= d.config.MaxQueueSize {
		d.stats.EventsDropped++
		return hookerrors.Newf("dispatch", hookerrors.KindQueueFull, "queue %q is full", queueName)
	}

	now := time.Now()
	heap.Push(q, &prioritizedEvent{
		event:      event,
		priority:   priority,
		enqueuedAt: now,
		ttlAt:      now.Add(d.config.EventTTL),
		queueName:  queueName,
	})
	d.stats.QueueSizes[queueName] = q.Len()

	return nil
}

// routeEvent returns the first matching rule's target queue and priority
// override, or the default queue at Normal priority if none match.
func (d *Dispatcher) routeEvent(event *hookmodel.HookEvent) (string, hookmodel.Priority) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, rule := range d.routingRules {
		if !matchesEventType(rule.EventTypes, event.EventType) {
			continue
		}
		queue := rule.TargetQueue
		if queue == "" {
			queue = defaultQueueName
		}
		priority := hookmodel.PriorityNormal
		if rule.PriorityOverride != nil {
			priority = *rule.PriorityOverride
		}
		return queue, priority
	}
	return defaultQueueName, hookmodel.PriorityNormal
}

// checkRateLimit applies the first matching rule's rate limit, if any.
// An event type with no matching rule or no configured limit is always
// allowed through.
func (d *Dispatcher) checkRateLimit(event *hookmodel.HookEvent) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, rule := range d.routingRules {
		if !matchesEventType(rule.EventTypes, event.EventType) || rule.RateLimit == nil {
			continue
		}
		key := string(event.EventType)
		limiter, ok := d.limiters[key]
		if !ok {
			limiter = newRateLimiter(*rule.RateLimit)
			d.limiters[key] = limiter
		}
		return limiter.tryConsume()
	}
	return true
}

func matchesEventType(types []hookmodel.EventType, want hookmodel.EventType) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

// AddRoutingRule registers a new rule, evaluated in registration order.
func (d *Dispatcher) AddRoutingRule(rule RoutingRule) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routingRules = append(d.routingRules, rule)
}

// GetStats returns a snapshot of the dispatcher's counters and queue
// depths.
func (d *Dispatcher) GetStats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	queueSizes := make(map[string]int, len(d.stats.QueueSizes))
	for k, v := range d.stats.QueueSizes {
		queueSizes[k] = v
	}
	processingTimes := make(map[string]float64, len(d.stats.ProcessingTimes))
	for k, v := range d.stats.ProcessingTimes {
		processingTimes[k] = v
	}

	return Stats{
		EventsReceived:  d.stats.EventsReceived,
		EventsProcessed: d.stats.EventsProcessed,
		EventsDropped:   d.stats.EventsDropped,
		EventsExpired:   d.stats.EventsExpired,
		QueueSizes:      queueSizes,
		ProcessingTimes: processingTimes,
	}
}

// ClearQueues empties every queue without affecting lifetime counters.
func (d *Dispatcher) ClearQueues() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for name := range d.queues {
		d.queues[name] = &eventHeap{}
	}
	d.stats.QueueSizes = make(map[string]int)
}

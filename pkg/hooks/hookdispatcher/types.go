// Package hookdispatcher routes HookEvents into per-queue priority heaps,
// rate-limits and TTL-expires them, and drains each queue with a pool of
// worker goroutines that hand surviving events to a hookevents.Handler.
package hookdispatcher

import (
	"time"

	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
)

// defaultQueueName is the queue used when no routing rule matches.
const defaultQueueName = "default"

// Config controls queue capacity, worker concurrency, and event TTL.
type Config struct {
	MaxQueueSize       int
	WorkerCount        int
	ProcessingInterval time.Duration
	BatchSize          int
	EventTTL           time.Duration
}

// DefaultConfig mirrors the original's DispatcherConfig::default().
func DefaultConfig() Config {
	return Config{
		MaxQueueSize:       10000,
		WorkerCount:        4,
		ProcessingInterval: 100 * time.Millisecond,
		BatchSize:          50,
		EventTTL:           300 * time.Second,
	}
}

// RoutingRule sends matching event types to a named queue, optionally
// overriding their priority and capping their rate.
type RoutingRule struct {
	EventTypes       []hookmodel.EventType
	PriorityOverride *hookmodel.Priority
	TargetQueue      string
	RateLimit        *uint32
}

// Stats summarizes the dispatcher's lifetime counters and current queue
// depths.
type Stats struct {
	EventsReceived  uint64
	EventsProcessed uint64
	EventsDropped   uint64
	EventsExpired   uint64
	QueueSizes      map[string]int
	ProcessingTimes map[string]float64
}

// prioritizedEvent is one event waiting in a named queue.
type prioritizedEvent struct {
	event      *hookmodel.HookEvent
	priority   hookmodel.Priority
	enqueuedAt time.Time
	ttlAt      time.Time
	queueName  string
}

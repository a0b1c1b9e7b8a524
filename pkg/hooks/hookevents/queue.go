package hookevents

import (
	"time"

	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
)

// queuedEvent pairs a HookEvent with the priority and time it was queued.
type queuedEvent struct {
	event    *hookmodel.HookEvent
	priority hookmodel.Priority
	queuedAt time.Time
}

// eventQueue is a container/heap.Interface max-heap: higher priority
// pops first, and within equal priority the earlier-queued event pops
// first — the same ordering as the original's BinaryHeap<QueuedEvent>.
type eventQueue []*queuedEvent

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority > q[j].priority
	}
	return q[i].queuedAt.Before(q[j].queuedAt)
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x interface{}) {
	*q = append(*q, x.(*queuedEvent))
}

func (q *eventQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

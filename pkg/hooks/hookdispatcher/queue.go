package hookdispatcher

// eventHeap is a container/heap.Interface max-heap over prioritizedEvent:
// higher priority pops first; ties break to the earlier enqueue time.
// This is the Go form of dispatcher.rs's PrioritizedEvent Ord impl.
type eventHeap []*prioritizedEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].enqueuedAt.Before(h[j].enqueuedAt)
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(*prioritizedEvent))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

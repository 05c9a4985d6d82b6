package sim

import "container/heap"

// eventQueue is a priority queue of scheduled events ordered by
// (time, seq). Two events at the same time pop in scheduling order, which
// keeps runs with the same seed byte-for-byte reproducible.
type eventQueue struct {
	events eventHeap
}

func newEventQueue() *eventQueue {
	return &eventQueue{}
}

// Push schedules an event.
func (q *eventQueue) Push(e *event) {
	heap.Push(&q.events, e)
}

// Pop removes and returns the earliest event, or nil if the queue is
// empty.
func (q *eventQueue) Pop() *event {
	if len(q.events) == 0 {
		return nil
	}
	return heap.Pop(&q.events).(*event)
}

// Peek returns the earliest event without removing it.
func (q *eventQueue) Peek() *event {
	if len(q.events) == 0 {
		return nil
	}
	return q.events[0]
}

// Len returns the number of scheduled events.
func (q *eventQueue) Len() int {
	return len(q.events)
}

type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(*event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

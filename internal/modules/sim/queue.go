// README: Binary-heap event queue ordered by (timestamp, insertion sequence).
package sim

import "container/heap"

// Queue is the single ordered event queue that drives a run. Pops come out in
// non-decreasing timestamp order; equal timestamps come out in the order they
// were scheduled.
type Queue struct {
	h       eventHeap
	nextSeq uint64
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push schedules an event. Insertion during processing of another event lands
// in correct timestamp position.
func (q *Queue) Push(e Event) {
	e.seq = q.nextSeq
	q.nextSeq++
	heap.Push(&q.h, e)
}

// Pop removes and returns the earliest event. The second return is false when
// the queue is drained.
func (q *Queue) Pop() (Event, bool) {
	if len(q.h) == 0 {
		return Event{}, false
	}
	return heap.Pop(&q.h).(Event), true
}

func (q *Queue) Len() int { return len(q.h) }

type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if !h[i].At.Equal(h[j].At) {
		return h[i].At.Before(h[j].At)
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(Event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

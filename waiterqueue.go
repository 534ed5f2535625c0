package caqtipool

import "container/heap"

// waiter is a suspended acquirer. signal is closed exactly once, by
// whoever pops this waiter off the queue and frees a slot for it; the
// waiter's goroutine is blocked receiving from signal.
type waiter struct {
	priority float64
	seq      int64
	signal   chan struct{}
}

func newWaiter(priority float64, seq int64) *waiter {
	return &waiter{priority: priority, seq: seq, signal: make(chan struct{})}
}

func (w *waiter) wake() {
	close(w.signal)
}

// waiterHeap is a max-heap on priority, FIFO (lowest seq first) within a
// priority tier. It implements container/heap.Interface directly; callers
// should use the push/pop wrappers below rather than heap.Push/heap.Pop
// on the zero value, since waiterQueue tracks insertion order for them.
type waiterHeap []*waiter

func (h waiterHeap) Len() int { return len(h) }

func (h waiterHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h waiterHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *waiterHeap) Push(x any) {
	*h = append(*h, x.(*waiter))
}

func (h *waiterHeap) Pop() any {
	old := *h
	n := len(old)
	w := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return w
}

// waiterQueue is a priority queue of suspended acquirers: highest
// priority wakes first, insertion order breaks ties.
type waiterQueue struct {
	h       waiterHeap
	nextSeq int64
}

func (q *waiterQueue) push(priority float64) *waiter {
	w := newWaiter(priority, q.nextSeq)
	q.nextSeq++
	heap.Push(&q.h, w)
	return w
}

func (q *waiterQueue) popHighest() *waiter {
	if len(q.h) == 0 {
		return nil
	}
	return heap.Pop(&q.h).(*waiter)
}

func (q *waiterQueue) isEmpty() bool { return len(q.h) == 0 }

// remove drops w from the queue if it is still present (used by Drain's
// own waiter when a bounded wait aborts). No-op if w already popped.
func (q *waiterQueue) remove(w *waiter) {
	for i, cand := range q.h {
		if cand == w {
			heap.Remove(&q.h, i)
			return
		}
	}
}

package store

import "github.com/oshokin/alarm-scheduler/internal/domain/alarm"

// entry is one pending alarm plus its heap position.
type entry struct {
	alarm *alarm.Alarm
	// pos is the index in activeHeap, or -1 while suspended.
	pos int
}

// activeHeap is a min-heap of active entries ordered by (deadline, id).
// It satisfies heap.Interface.
type activeHeap []*entry

func (h activeHeap) Len() int { return len(h) }

func (h activeHeap) Less(i, j int) bool {
	return h[i].alarm.Before(h[j].alarm)
}

func (h activeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].pos = i
	h[j].pos = j
}

func (h *activeHeap) Push(x any) {
	e, _ := x.(*entry)
	e.pos = len(*h)
	*h = append(*h, e)
}

func (h *activeHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.pos = -1
	*h = old[:n-1]

	return e
}

package scheduler

import "container/heap"

// scheduleHeap orders entries by TriggerAt, earliest first.
type scheduleHeap []entry

func (h scheduleHeap) Len() int           { return len(h) }
func (h scheduleHeap) Less(i, j int) bool { return h[i].TriggerAt.Before(h[j].TriggerAt) }
func (h scheduleHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *scheduleHeap) Push(x any) {
	*h = append(*h, x.(entry))
}

func (h *scheduleHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func heapPush(h *scheduleHeap, e entry) {
	heap.Push(h, e)
}

// heapPop removes and returns the earliest entry. Panics if h is empty.
func heapPop(h *scheduleHeap) entry {
	return heap.Pop(h).(entry)
}

// heapRemoveByID removes the entry for id, if armed.
func heapRemoveByID(h *scheduleHeap, id int64) bool {
	for i, e := range *h {
		if e.ID == id {
			heap.Remove(h, i)
			return true
		}
	}
	return false
}

// heapFind returns the armed entry for id.
func heapFind(h scheduleHeap, id int64) (entry, bool) {
	for _, e := range h {
		if e.ID == id {
			return e, true
		}
	}
	return entry{}, false
}

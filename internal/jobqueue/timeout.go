package jobqueue

import (
	"container/heap"
	"sync"
	"time"
)

// jobHeap orders delivered jobs by delivery time, then by id.
type jobHeap []Job

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	if h[i].DeliveredAt.Equal(h[j].DeliveredAt) {
		return h[i].ID < h[j].ID
	}
	return h[i].DeliveredAt.Before(h[j].DeliveredAt)
}

func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x any) { *h = append(*h, x.(Job)) }

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	j := old[n-1]
	old[n-1] = Job{}
	*h = old[:n-1]
	return j
}

// timeoutHeap is the advisory expiry index. Entries may be stale; they are
// reconciled against the pending table by the sweeper.
type timeoutHeap struct {
	mu sync.Mutex
	h  jobHeap
}

func (t *timeoutHeap) push(j Job) {
	t.mu.Lock()
	heap.Push(&t.h, j)
	t.mu.Unlock()
}

// popExpired removes and returns the root if it was delivered at or before
// cutoff. It reports false when the heap is empty or the root is younger.
func (t *timeoutHeap) popExpired(cutoff time.Time) (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.h) == 0 || t.h[0].DeliveredAt.After(cutoff) {
		return Job{}, false
	}
	return heap.Pop(&t.h).(Job), true
}

func (t *timeoutHeap) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.h)
}

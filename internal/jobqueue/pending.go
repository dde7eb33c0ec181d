package jobqueue

import (
	"sort"
	"sync"
)

// pendingTable holds delivered, unacknowledged jobs keyed by id.
type pendingTable struct {
	mu   sync.Mutex
	jobs map[uint64]Job
}

func newPendingTable() pendingTable {
	return pendingTable{jobs: make(map[uint64]Job)}
}

func (p *pendingTable) insert(j Job) {
	p.mu.Lock()
	p.jobs[j.ID] = j
	p.mu.Unlock()
}

// remove deletes id and returns the job it held.
func (p *pendingTable) remove(id uint64) (Job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	j, ok := p.jobs[id]
	if ok {
		delete(p.jobs, id)
	}
	return j, ok
}

// removeDelivery deletes id only if the stored job belongs to the given
// delivery.
func (p *pendingTable) removeDelivery(id uint64, delivery uint32) (Job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	j, ok := p.jobs[id]
	if !ok || j.Deliveries != delivery {
		return Job{}, false
	}
	delete(p.jobs, id)
	return j, true
}

func (p *pendingTable) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

// snapshot copies up to limit jobs ordered by id; limit <= 0 copies all.
func (p *pendingTable) snapshot(limit int) []Job {
	p.mu.Lock()
	out := make([]Job, 0, len(p.jobs))
	for _, j := range p.jobs {
		out = append(out, j)
	}
	p.mu.Unlock()

	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

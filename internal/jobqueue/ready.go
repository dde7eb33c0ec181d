package jobqueue

import "sync"

// readyQueue is a mutex-guarded FIFO.
type readyQueue struct {
	mu   sync.Mutex
	jobs []Job
	head int
}

func (r *readyQueue) push(j Job) {
	r.mu.Lock()
	r.jobs = append(r.jobs, j)
	r.mu.Unlock()
}

func (r *readyQueue) pop() (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.head >= len(r.jobs) {
		return Job{}, false
	}
	j := r.jobs[r.head]
	r.jobs[r.head] = Job{}
	r.head++
	switch {
	case r.head == len(r.jobs):
		r.jobs = r.jobs[:0]
		r.head = 0
	case r.head >= 64 && r.head*2 >= len(r.jobs):
		n := copy(r.jobs, r.jobs[r.head:])
		clear(r.jobs[n:])
		r.jobs = r.jobs[:n]
		r.head = 0
	}
	return j, true
}

func (r *readyQueue) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs) - r.head
}

// snapshot copies up to limit jobs from the front; limit <= 0 copies all.
func (r *readyQueue) snapshot(limit int) []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	live := r.jobs[r.head:]
	if limit > 0 && limit < len(live) {
		live = live[:limit]
	}
	return append([]Job(nil), live...)
}

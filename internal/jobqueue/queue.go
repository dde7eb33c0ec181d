package jobqueue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rzbill/taxiway/pkg/id"
	"github.com/rzbill/taxiway/pkg/log"
)

const (
	DefaultAckTimeout    = 30 * time.Second
	DefaultSweepInterval = 30 * time.Second
)

// Observer receives job transitions after the engine has released its locks.
// Implementations must not call back into the Queue synchronously.
type Observer interface {
	JobAcked(job Job, at time.Time)
	JobReleased(job Job, at time.Time)
	// JobRequeued is called with the job as it was while pending, so
	// DeliveredAt still holds the expired delivery time.
	JobRequeued(job Job, at time.Time)
}

// Options configures a Queue.
type Options struct {
	AckTimeout    time.Duration    // deadline for Ack after Deliver (default: 30s)
	SweepInterval time.Duration    // sweeper period (default: 30s)
	Now           func() time.Time // clock (default: time.Now)
	Logger        log.Logger
	Observer      Observer
	// FirstID is the id handed to the first submitted job.
	FirstID uint64
}

// Queue is the job engine. All methods are safe for concurrent use.
type Queue struct {
	ready    readyQueue
	pending  pendingTable
	timeouts timeoutHeap
	ids      *id.Sequence

	ackTimeout time.Duration
	sweepIntv  time.Duration
	now        func() time.Time
	logger     log.Logger
	observer   Observer

	submitted atomic.Uint64
	delivered atomic.Uint64
	acked     atomic.Uint64
	requeued  atomic.Uint64
	released  atomic.Uint64

	sweepMu     sync.Mutex
	sweepCancel context.CancelFunc
	sweepWG     sync.WaitGroup
}

// New creates an empty Queue.
func New(opts Options) *Queue {
	if opts.AckTimeout <= 0 {
		opts.AckTimeout = DefaultAckTimeout
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.NewLogger(log.WithLevel(log.InfoLevel))
	}
	return &Queue{
		pending:    newPendingTable(),
		ids:        id.NewSequence(opts.FirstID),
		ackTimeout: opts.AckTimeout,
		sweepIntv:  opts.SweepInterval,
		now:        opts.Now,
		logger:     opts.Logger.With(log.Component("jobqueue")),
		observer:   opts.Observer,
	}
}

// Submit appends a copy of payload to the ready queue and returns its id.
func (q *Queue) Submit(payload []byte) (uint64, error) {
	if len(payload) == 0 {
		return 0, ErrEmptyInput
	}
	job := Job{
		ID:      q.ids.Next(),
		Payload: append([]byte(nil), payload...),
	}
	q.ready.push(job)
	q.submitted.Add(1)
	q.logger.Debug("job submitted", log.Uint64("job_id", job.ID), log.Int("size", job.Size()))
	return job.ID, nil
}

// Deliver hands the oldest ready job to the caller and starts its ack
// deadline. It reports false when the ready queue is empty.
func (q *Queue) Deliver() (Job, bool) {
	job, ok := q.ready.pop()
	if !ok {
		return Job{}, false
	}
	job.DeliveredAt = q.now()
	job.Deliveries++
	q.pending.insert(job)
	q.timeouts.push(job)
	q.delivered.Add(1)
	q.logger.Debug("job delivered",
		log.Uint64("job_id", job.ID),
		log.Int64("deliveries", int64(job.Deliveries)),
	)
	return job, true
}

// Ack permanently removes a delivered job. It returns ErrNoJob if the id is
// not pending (already acknowledged, released, requeued, or never delivered).
func (q *Queue) Ack(jobID uint64) error {
	job, ok := q.pending.remove(jobID)
	if !ok {
		return ErrNoJob
	}
	q.acked.Add(1)
	if q.observer != nil {
		q.observer.JobAcked(job, q.now())
	}
	q.logger.Debug("job acknowledged", log.Uint64("job_id", jobID))
	return nil
}

// Release returns a delivered job to the tail of the ready queue without
// waiting for its ack deadline.
func (q *Queue) Release(jobID uint64) error {
	job, ok := q.pending.remove(jobID)
	if !ok {
		return ErrNoJob
	}
	q.ready.push(job.reset())
	q.released.Add(1)
	if q.observer != nil {
		q.observer.JobReleased(job, q.now())
	}
	q.logger.Debug("job released", log.Uint64("job_id", jobID))
	return nil
}

// Len returns the number of ready jobs. Pending jobs are not counted.
func (q *Queue) Len() int { return q.ready.len() }

// Stats is a point-in-time view of the engine. Container sizes are read one
// lock at a time and may not add up during concurrent transitions.
type Stats struct {
	Ready           int    `json:"ready"`
	Pending         int    `json:"pending"`
	TimeoutEntries  int    `json:"timeoutEntries"`
	NextID          uint64 `json:"nextId"`
	Submitted       uint64 `json:"submitted"`
	Delivered       uint64 `json:"delivered"`
	Acked           uint64 `json:"acked"`
	Requeued        uint64 `json:"requeued"`
	Released        uint64 `json:"released"`
	AckTimeoutMs    int64  `json:"ackTimeoutMs"`
	SweepIntervalMs int64  `json:"sweepIntervalMs"`
}

// Stats returns counters and container sizes.
func (q *Queue) Stats() Stats {
	return Stats{
		Ready:           q.ready.len(),
		Pending:         q.pending.len(),
		TimeoutEntries:  q.timeouts.len(),
		NextID:          q.ids.Peek(),
		Submitted:       q.submitted.Load(),
		Delivered:       q.delivered.Load(),
		Acked:           q.acked.Load(),
		Requeued:        q.requeued.Load(),
		Released:        q.released.Load(),
		AckTimeoutMs:    q.ackTimeout.Milliseconds(),
		SweepIntervalMs: q.sweepIntv.Milliseconds(),
	}
}

// ReadySnapshot copies up to limit jobs from the front of the ready queue.
func (q *Queue) ReadySnapshot(limit int) []Job { return q.ready.snapshot(limit) }

// PendingSnapshot copies up to limit pending jobs ordered by id.
func (q *Queue) PendingSnapshot(limit int) []Job { return q.pending.snapshot(limit) }

// AckTimeout returns the configured ack deadline.
func (q *Queue) AckTimeout() time.Duration { return q.ackTimeout }

// Now returns the queue's clock reading.
func (q *Queue) Now() time.Time { return q.now() }

package history

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rzbill/taxiway/internal/jobqueue"
	"github.com/rzbill/taxiway/pkg/log"
)

// DefaultBuffer is the recorder channel size used when none is configured.
const DefaultBuffer = 1024

// RecorderOptions configures a Recorder.
type RecorderOptions struct {
	Buffer int
	Logger log.Logger
}

type item struct {
	entry Entry
	flush chan struct{}
}

// Recorder writes queue transitions to a Store in the background. When the
// buffer is full new transitions are dropped and counted.
type Recorder struct {
	store  *Store
	ch     chan item
	logger log.Logger

	dropped atomic.Uint64
	written atomic.Uint64
	failed  atomic.Uint64

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

var _ jobqueue.Observer = (*Recorder)(nil)

// NewRecorder returns a stopped recorder for store.
func NewRecorder(store *Store, opts RecorderOptions) *Recorder {
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	if opts.Logger == nil {
		opts.Logger = log.NewLogger(log.WithLevel(log.InfoLevel))
	}
	return &Recorder{
		store:  store,
		ch:     make(chan item, opts.Buffer),
		logger: opts.Logger.With(log.Component("history-recorder")),
	}
}

// Start launches the writer goroutine. It is a no-op when already running.
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.stopped = make(chan struct{})
	go r.run(ctx, r.stopped)
}

// Stop writes what is already buffered and stops the writer.
func (r *Recorder) Stop() {
	r.mu.Lock()
	cancel, stopped := r.cancel, r.stopped
	r.cancel, r.stopped = nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

// Flush blocks until every transition recorded before the call is written,
// or ctx is done.
func (r *Recorder) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case r.ch <- item{flush: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Counters returns written, dropped and failed entry counts.
func (r *Recorder) Counters() (written, dropped, failed uint64) {
	return r.written.Load(), r.dropped.Load(), r.failed.Load()
}

func (r *Recorder) JobAcked(job jobqueue.Job, at time.Time) {
	r.record(newEntry(KindAcked, job, at))
}

func (r *Recorder) JobReleased(job jobqueue.Job, at time.Time) {
	r.record(newEntry(KindReleased, job, at))
}

func (r *Recorder) JobRequeued(job jobqueue.Job, at time.Time) {
	r.record(newEntry(KindRequeued, job, at))
}

func newEntry(kind Kind, job jobqueue.Job, at time.Time) Entry {
	e := Entry{
		Kind:          kind,
		JobID:         job.ID,
		Deliveries:    job.Deliveries,
		PayloadSize:   job.Size(),
		DeliveredAtMs: millis(job.DeliveredAt),
		AtMs:          millis(at),
	}
	if job.Delivered() {
		e.PendingMs = at.Sub(job.DeliveredAt).Milliseconds()
	}
	return e
}

func (r *Recorder) record(e Entry) {
	select {
	case r.ch <- item{entry: e}:
	default:
		if r.dropped.Add(1)%1000 == 1 {
			r.logger.Warn("history buffer full; dropping entries",
				log.Uint64("dropped_total", r.dropped.Load()),
			)
		}
	}
}

func (r *Recorder) run(ctx context.Context, stopped chan struct{}) {
	defer close(stopped)
	r.logger.Info("recorder started", log.Int("buffer", cap(r.ch)))
	for {
		select {
		case <-ctx.Done():
			r.drain()
			r.logger.Info("recorder stopped")
			return
		case it := <-r.ch:
			r.handle(it)
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case it := <-r.ch:
			r.handle(it)
		default:
			return
		}
	}
}

func (r *Recorder) handle(it item) {
	if it.flush != nil {
		close(it.flush)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := r.store.Append(ctx, it.entry); err != nil {
		r.failed.Add(1)
		r.logger.Error("append history entry failed",
			log.Uint64("job_id", it.entry.JobID),
			log.Str("kind", string(it.entry.Kind)),
			log.Err(err),
		)
		return
	}
	r.written.Add(1)
}

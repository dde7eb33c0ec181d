package jobsvc

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rzbill/taxiway/internal/history"
	"github.com/rzbill/taxiway/internal/jobqueue"
	"github.com/rzbill/taxiway/internal/runtime"
	"github.com/rzbill/taxiway/pkg/id"
	logpkg "github.com/rzbill/taxiway/pkg/log"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
	previewBytes = 64
)

var (
	// ErrInvalidFilter wraps CEL compile errors.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidArgument reports a bad list parameter.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrHistoryDisabled is returned by ListHistory when history is off.
	ErrHistoryDisabled = errors.New("history disabled")
)

// Service answers admin queries against a runtime.
type Service struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
}

// New creates a Service with a default logger.
func New(rt *runtime.Runtime) *Service {
	return NewWithLogger(rt, nil)
}

// NewWithLogger creates a Service with a custom logger.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	return &Service{rt: rt, logger: logger.With(logpkg.Component("jobs"))}
}

// JobView is the admin representation of a job.
type JobView struct {
	ID            uint64 `json:"id"`
	IDHex         string `json:"idHex"`
	Size          int    `json:"size"`
	Deliveries    uint32 `json:"deliveries"`
	DeliveredAtMs int64  `json:"deliveredAtMs,omitempty"`
	AgeMs         int64  `json:"ageMs,omitempty"`
	// DeadlineMs is when the sweeper may requeue a pending job.
	DeadlineMs int64  `json:"deadlineMs,omitempty"`
	Preview    string `json:"preview,omitempty"`
	Payload    []byte `json:"payload"`
}

// RecorderStats counts history writes.
type RecorderStats struct {
	Written uint64 `json:"written"`
	Dropped uint64 `json:"dropped"`
	Failed  uint64 `json:"failed"`
}

// StatsView aggregates engine and history state.
type StatsView struct {
	Queue    jobqueue.Stats `json:"queue"`
	History  *history.Stats `json:"history,omitempty"`
	Recorder *RecorderStats `json:"recorder,omitempty"`
	UptimeMs int64          `json:"uptimeMs"`
}

// Stats returns engine counters and container sizes.
func (s *Service) Stats(_ context.Context) StatsView {
	v := StatsView{
		Queue:    s.rt.Queue().Stats(),
		UptimeMs: time.Since(s.rt.StartedAt()).Milliseconds(),
	}
	if h := s.rt.History(); h != nil {
		hs := h.Stats()
		v.History = &hs
	}
	if r := s.rt.Recorder(); r != nil {
		written, dropped, failed := r.Counters()
		v.Recorder = &RecorderStats{Written: written, Dropped: dropped, Failed: failed}
	}
	return v
}

// ListOptions selects jobs from a snapshot.
type ListOptions struct {
	Limit  int
	Filter string
}

func (o ListOptions) limit() (int, error) {
	switch {
	case o.Limit < 0:
		return 0, fmt.Errorf("%w: limit must not be negative", ErrInvalidArgument)
	case o.Limit == 0:
		return defaultLimit, nil
	case o.Limit > maxLimit:
		return maxLimit, nil
	default:
		return o.Limit, nil
	}
}

// ListReady returns ready jobs in delivery order.
func (s *Service) ListReady(ctx context.Context, opts ListOptions) ([]JobView, error) {
	return s.list(ctx, opts, s.rt.Queue().ReadySnapshot)
}

// ListPending returns delivered, unacknowledged jobs ordered by id.
func (s *Service) ListPending(ctx context.Context, opts ListOptions) ([]JobView, error) {
	return s.list(ctx, opts, s.rt.Queue().PendingSnapshot)
}

func (s *Service) list(ctx context.Context, opts ListOptions, snapshot func(int) []jobqueue.Job) ([]JobView, error) {
	limit, err := opts.limit()
	if err != nil {
		return nil, err
	}
	filter, err := newCELFilter(opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	// Without a filter the snapshot can be bounded up front.
	take := 0
	if !filter.enabled {
		take = limit
	}
	jobs := snapshot(take)

	q := s.rt.Queue()
	now := q.Now()
	out := make([]JobView, 0, min(len(jobs), limit))
	for _, job := range jobs {
		if len(out) >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !filter.Eval(job, now) {
			continue
		}
		out = append(out, view(job, now, q.AckTimeout()))
	}
	return out, nil
}

func view(job jobqueue.Job, now time.Time, ackTimeout time.Duration) JobView {
	v := JobView{
		ID:         job.ID,
		IDHex:      id.String(job.ID),
		Size:       job.Size(),
		Deliveries: job.Deliveries,
		Payload:    job.Payload,
	}
	if job.Delivered() {
		v.DeliveredAtMs = job.DeliveredAt.UnixMilli()
		v.AgeMs = now.Sub(job.DeliveredAt).Milliseconds()
		v.DeadlineMs = job.DeliveredAt.Add(ackTimeout).UnixMilli()
	}
	p := job.Payload
	if len(p) > previewBytes {
		p = p[:previewBytes]
	}
	if utf8.Valid(p) {
		v.Preview = string(p)
	}
	return v
}

// HistoryOptions selects history entries.
type HistoryOptions struct {
	Kind  string
	JobID *uint64
	Limit int
}

// ListHistory returns recorded transitions, newest first.
func (s *Service) ListHistory(ctx context.Context, opts HistoryOptions) ([]history.Entry, error) {
	h := s.rt.History()
	if h == nil {
		return nil, ErrHistoryDisabled
	}
	kind, err := history.ParseKind(opts.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if opts.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidArgument)
	}
	if r := s.rt.Recorder(); r != nil {
		flushCtx, cancel := context.WithTimeout(ctx, time.Second)
		if err := r.Flush(flushCtx); err != nil {
			s.logger.Debug("history flush before list timed out", logpkg.Err(err))
		}
		cancel()
	}
	return h.List(ctx, history.ListOptions{Kind: kind, JobID: opts.JobID, Limit: opts.Limit})
}

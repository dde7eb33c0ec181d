package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	pebblestore "github.com/rzbill/taxiway/internal/storage/pebble"
	"github.com/rzbill/taxiway/pkg/log"
)

// DefaultMaxEntries is the retention used when none is configured.
const DefaultMaxEntries = 10000

// Kind is the transition an entry records.
type Kind string

const (
	KindAcked    Kind = "acked"
	KindReleased Kind = "released"
	KindRequeued Kind = "requeued"
)

// ParseKind accepts the three kind names; the empty string means any kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindAcked, KindReleased, KindRequeued:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown history kind %q", s)
	}
}

// Entry is one recorded transition.
type Entry struct {
	Seq           uint64 `json:"seq"`
	Kind          Kind   `json:"kind"`
	JobID         uint64 `json:"jobId"`
	Deliveries    uint32 `json:"deliveries"`
	PayloadSize   int    `json:"payloadSize"`
	DeliveredAtMs int64  `json:"deliveredAtMs,omitempty"`
	AtMs          int64  `json:"atMs"`
	// PendingMs is how long the job was held before the transition.
	PendingMs int64 `json:"pendingMs"`
}

// Stats summarises the retained window.
type Stats struct {
	FirstSeq   uint64 `json:"firstSeq"`
	NextSeq    uint64 `json:"nextSeq"`
	Count      uint64 `json:"count"`
	MaxEntries int    `json:"maxEntries"`
	Trimmed    uint64 `json:"trimmed"`
}

// StoreOptions configures a Store.
type StoreOptions struct {
	MaxEntries int
	Logger     log.Logger
}

// Store appends and lists history entries.
type Store struct {
	db         *pebblestore.DB
	maxEntries int
	logger     log.Logger

	mu      sync.Mutex
	meta    meta
	trimmed uint64
}

// NewStore opens the history keyspace in db, resuming from stored metadata.
func NewStore(db *pebblestore.DB, opts StoreOptions) (*Store, error) {
	if db == nil {
		return nil, errors.New("history: nil db")
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Logger == nil {
		opts.Logger = log.NewLogger(log.WithLevel(log.InfoLevel))
	}
	s := &Store{
		db:         db,
		maxEntries: opts.MaxEntries,
		logger:     opts.Logger.With(log.Component("history")),
	}
	raw, err := db.Get([]byte(keyMeta))
	switch {
	case err == nil:
		m, err := decodeMeta(raw)
		if err != nil {
			return nil, err
		}
		s.meta = m
	case errors.Is(err, pebblestore.ErrNotFound):
	default:
		return nil, fmt.Errorf("read history meta: %w", err)
	}
	return s, nil
}

// Append assigns the next sequence number to e, stores it and trims the
// oldest entries beyond the retention limit.
func (s *Store) Append(ctx context.Context, e Entry) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.Seq = s.meta.nextSeq
	value, err := encodeEntry(e)
	if err != nil {
		return Entry{}, fmt.Errorf("encode entry: %w", err)
	}

	next := s.meta
	next.nextSeq++
	var trim uint64
	if count := next.nextSeq - next.firstSeq; count > uint64(s.maxEntries) {
		trim = count - uint64(s.maxEntries)
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(entryKey(e.Seq), value, nil); err != nil {
		return Entry{}, fmt.Errorf("set entry: %w", err)
	}
	if trim > 0 {
		if err := batch.DeleteRange(entryKey(next.firstSeq), entryKey(next.firstSeq+trim), nil); err != nil {
			return Entry{}, fmt.Errorf("trim entries: %w", err)
		}
		next.firstSeq += trim
	}
	if err := batch.Set([]byte(keyMeta), encodeMeta(next), nil); err != nil {
		return Entry{}, fmt.Errorf("update metadata: %w", err)
	}
	if err := s.db.CommitBatch(ctx, batch); err != nil {
		return Entry{}, fmt.Errorf("commit history batch: %w", err)
	}

	s.meta = next
	s.trimmed += trim
	return e, nil
}

// ListOptions filters List.
type ListOptions struct {
	Kind  Kind // empty: any
	JobID *uint64
	Limit int // default 100, capped at 1000
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	snap := s.db.NewSnapshot()
	defer snap.Close()

	lower, upper := entryBounds()
	iter, err := snap.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, fmt.Errorf("create iterator: %w", err)
	}
	defer iter.Close()

	entries := make([]Entry, 0, min(limit, 64))
	for ok := iter.Last(); ok && len(entries) < limit; ok = iter.Prev() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seq, valid := seqFromKey(iter.Key())
		if !valid {
			continue
		}
		e, err := decodeEntry(iter.Value())
		if err != nil {
			s.logger.Warn("skipping unreadable history entry", log.Uint64("seq", seq), log.Err(err))
			continue
		}
		if opts.Kind != "" && e.Kind != opts.Kind {
			continue
		}
		if opts.JobID != nil && e.JobID != *opts.JobID {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Stats returns the retained window.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		FirstSeq:   s.meta.firstSeq,
		NextSeq:    s.meta.nextSeq,
		Count:      s.meta.nextSeq - s.meta.firstSeq,
		MaxEntries: s.maxEntries,
		Trimmed:    s.trimmed,
	}
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

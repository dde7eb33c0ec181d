package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	cfgpkg "github.com/rzbill/taxiway/internal/config"
	"github.com/rzbill/taxiway/internal/history"
	"github.com/rzbill/taxiway/internal/jobqueue"
	pebblestore "github.com/rzbill/taxiway/internal/storage/pebble"
	"github.com/rzbill/taxiway/pkg/log"
)

// ErrClosed is returned by CheckHealth after Close.
var ErrClosed = errors.New("runtime closed")

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Logger log.Logger
	// Now overrides the queue clock.
	Now func() time.Time
	// DisableSweeper leaves the requeue loop stopped; Queue().Sweep still works.
	DisableSweeper bool
}

// Runtime owns the queue and its supporting components.
type Runtime struct {
	config  cfgpkg.Config
	logger  log.Logger
	started time.Time

	queue    *jobqueue.Queue
	db       *pebblestore.DB
	history  *history.Store
	recorder *history.Recorder

	mu     sync.Mutex
	closed bool
}

// Open validates the config, opens the history store when enabled and starts
// the sweeper.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewLogger(log.WithLevel(log.InfoLevel))
	}

	rt := &Runtime{config: cfg, logger: logger, started: time.Now()}

	var observer jobqueue.Observer
	if cfg.History.Enabled {
		if err := rt.openHistory(); err != nil {
			return nil, err
		}
		observer = rt.recorder
	}

	rt.queue = jobqueue.New(jobqueue.Options{
		AckTimeout:    cfg.AckTimeout(),
		SweepInterval: cfg.SweepInterval(),
		Now:           opts.Now,
		Logger:        logger,
		Observer:      observer,
	})
	if !opts.DisableSweeper {
		rt.queue.StartSweeper()
	}
	return rt, nil
}

func (r *Runtime) openHistory() error {
	h := r.config.History
	fsync, err := pebblestore.ParseFsyncMode(h.Fsync)
	if err != nil {
		return fmt.Errorf("history fsync: %w", err)
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:  h.DataDir,
		InMemory: h.DataDir == "",
		Fsync:    fsync,
		Logger:   r.logger,
	})
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	store, err := history.NewStore(db, history.StoreOptions{MaxEntries: h.MaxEntries, Logger: r.logger})
	if err != nil {
		_ = db.Close()
		return err
	}
	r.db = db
	r.history = store
	r.recorder = history.NewRecorder(store, history.RecorderOptions{Buffer: h.Buffer, Logger: r.logger})
	r.recorder.Start()
	return nil
}

// Close stops the sweeper, flushes history and closes the store. Jobs still
// in memory are discarded.
func (r *Runtime) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.queue.StopSweeper()
	if st := r.queue.Stats(); st.Ready > 0 || st.Pending > 0 {
		r.logger.Warn("discarding in-memory jobs on shutdown",
			log.Int("ready", st.Ready),
			log.Int("pending", st.Pending),
		)
	}
	if r.recorder != nil {
		r.recorder.Stop()
	}
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CheckHealth reports whether the runtime can serve requests.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if r.db != nil {
		it, err := r.db.NewIter(nil)
		if err != nil {
			return fmt.Errorf("history store: %w", err)
		}
		return it.Close()
	}
	return nil
}

// Queue returns the job engine.
func (r *Runtime) Queue() *jobqueue.Queue { return r.queue }

// History returns the history store, or nil when disabled.
func (r *Runtime) History() *history.Store { return r.history }

// Recorder returns the history recorder, or nil when disabled.
func (r *Runtime) Recorder() *history.Recorder { return r.recorder }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// StartedAt returns when the runtime was opened.
func (r *Runtime) StartedAt() time.Time { return r.started }

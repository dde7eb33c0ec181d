package runtime

import (
	"context"
	"errors"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/taxiway/internal/config"
	"github.com/rzbill/taxiway/internal/history"
	"github.com/rzbill/taxiway/pkg/log"
)

func quietLogger() log.Logger {
	return log.NewLogger(log.WithLevel(log.ErrorLevel), log.WithOutput(log.NullOutput{}))
}

func TestOpenCloseHealth(t *testing.T) {
	rt, err := Open(Options{Config: cfgpkg.Default(), Logger: quietLogger()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if rt.History() == nil || rt.Recorder() == nil {
		t.Fatalf("history should be enabled by default")
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := rt.CheckHealth(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("health after close: want ErrClosed, got %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.Workers = 0
	if _, err := Open(Options{Config: cfg, Logger: quietLogger()}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestHistoryDisabled(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.History.Enabled = false
	rt, err := Open(Options{Config: cfg, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()
	if rt.History() != nil || rt.Recorder() != nil {
		t.Fatalf("history should be disabled")
	}
	jobID, _ := rt.Queue().Submit([]byte("x"))
	rt.Queue().Deliver()
	if err := rt.Queue().Ack(jobID); err != nil {
		t.Fatalf("ack without observer: %v", err)
	}
}

func TestHistoryOnDisk(t *testing.T) {
	for _, mode := range []string{"always", "interval", "never"} {
		t.Run(mode, func(t *testing.T) {
			cfg := cfgpkg.Default()
			cfg.History.DataDir = t.TempDir()
			cfg.History.Fsync = mode
			rt, err := Open(Options{Config: cfg, Logger: quietLogger()})
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer rt.Close()
			if err := rt.CheckHealth(context.Background()); err != nil {
				t.Fatalf("health: %v", err)
			}
			jobID, _ := rt.Queue().Submit([]byte("x"))
			rt.Queue().Deliver()
			if err := rt.Queue().Ack(jobID); err != nil {
				t.Fatalf("ack: %v", err)
			}
			if err := rt.Recorder().Flush(context.Background()); err != nil {
				t.Fatalf("flush: %v", err)
			}
			if got := rt.History().Stats().Count; got != 1 {
				t.Fatalf("history count = %d, want 1", got)
			}
		})
	}
}

func TestQueueTransitionsReachHistory(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cfg := cfgpkg.Default()
	cfg.AckTimeoutMs = 1000
	rt, err := Open(Options{Config: cfg, Logger: quietLogger(), Now: func() time.Time { return now }, DisableSweeper: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()

	q := rt.Queue()
	if q.AckTimeout() != time.Second {
		t.Fatalf("ack timeout not applied: %v", q.AckTimeout())
	}
	q.Submit([]byte("a"))
	q.Deliver()
	if n := q.Sweep(now.Add(2 * time.Second)); n != 1 {
		t.Fatalf("sweep requeued %d", n)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.Recorder().Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	entries, err := rt.History().List(ctx, history.ListOptions{Kind: history.KindRequeued})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].JobID != 0 {
		t.Fatalf("entries = %+v", entries)
	}
}

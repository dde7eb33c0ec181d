package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rzbill/taxiway/internal/jobqueue"
	pebblestore "github.com/rzbill/taxiway/internal/storage/pebble"
	"github.com/rzbill/taxiway/pkg/log"
)

func quietLogger() log.Logger {
	return log.NewLogger(log.WithLevel(log.ErrorLevel), log.WithOutput(log.NullOutput{}))
}

func openMemDB(t *testing.T) *pebblestore.DB {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestStore(t *testing.T, maxEntries int) *Store {
	t.Helper()
	s, err := NewStore(openMemDB(t), StoreOptions{MaxEntries: maxEntries, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestAppendAndListNewestFirst(t *testing.T) {
	s := newTestStore(t, 100)
	ctx := context.Background()
	kinds := []Kind{KindAcked, KindRequeued, KindReleased, KindAcked}
	for i, k := range kinds {
		e, err := s.Append(ctx, Entry{Kind: k, JobID: uint64(i)})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if e.Seq != uint64(i) {
			t.Fatalf("seq = %d, want %d", e.Seq, i)
		}
	}

	all, err := s.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 || all[0].JobID != 3 || all[3].JobID != 0 {
		t.Fatalf("unexpected order: %+v", all)
	}

	acked, err := s.List(ctx, ListOptions{Kind: KindAcked})
	if err != nil {
		t.Fatalf("list acked: %v", err)
	}
	if len(acked) != 2 {
		t.Fatalf("acked entries = %d, want 2", len(acked))
	}

	jobID := uint64(1)
	byJob, err := s.List(ctx, ListOptions{JobID: &jobID})
	if err != nil {
		t.Fatalf("list by job: %v", err)
	}
	if len(byJob) != 1 || byJob[0].Kind != KindRequeued {
		t.Fatalf("by job = %+v", byJob)
	}

	limited, _ := s.List(ctx, ListOptions{Limit: 1})
	if len(limited) != 1 || limited[0].Seq != 3 {
		t.Fatalf("limited = %+v", limited)
	}
}

func TestRetentionTrimsOldest(t *testing.T) {
	s := newTestStore(t, 3)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		if _, err := s.Append(ctx, Entry{Kind: KindAcked, JobID: uint64(i)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got, err := s.List(ctx, ListOptions{Limit: 100})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].Seq != 9 || got[2].Seq != 7 {
		t.Fatalf("retained = %+v", got)
	}
	st := s.Stats()
	if st.Count != 3 || st.FirstSeq != 7 || st.NextSeq != 10 || st.Trimmed != 7 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestStoreResumesFromMeta(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	s1, err := NewStore(db, StoreOptions{MaxEntries: 10, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s1.Append(ctx, Entry{Kind: KindAcked}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	s2, err := NewStore(db, StoreOptions{MaxEntries: 10, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	e, err := s2.Append(ctx, Entry{Kind: KindReleased})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if e.Seq != 3 {
		t.Fatalf("seq after reopen = %d, want 3", e.Seq)
	}
}

func TestRecordChecksum(t *testing.T) {
	raw, err := encodeEntry(Entry{Seq: 1, Kind: KindAcked, JobID: 9})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := decodeEntry(raw)
	if err != nil || got.JobID != 9 {
		t.Fatalf("decode: %+v %v", got, err)
	}
	raw[0] ^= 0xff
	if _, err := decodeEntry(raw); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("want ErrCorrupt, got %v", err)
	}
	if _, err := decodeEntry([]byte{1}); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("short record: want ErrCorrupt, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"", "acked", "released", "requeued"} {
		if _, err := ParseKind(s); err != nil {
			t.Fatalf("ParseKind(%q): %v", s, err)
		}
	}
	if _, err := ParseKind("lost"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestRecorderWritesQueueTransitions(t *testing.T) {
	s := newTestStore(t, 100)
	rec := NewRecorder(s, RecorderOptions{Logger: quietLogger()})
	rec.Start()
	defer rec.Stop()

	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	q := jobqueue.New(jobqueue.Options{Now: clock, Logger: quietLogger(), Observer: rec})

	a, _ := q.Submit([]byte("aaaa"))
	b, _ := q.Submit([]byte("b"))
	c, _ := q.Submit([]byte("c"))
	q.Deliver()
	q.Deliver()
	q.Deliver()
	if err := q.Ack(a); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if err := q.Release(b); err != nil {
		t.Fatalf("release: %v", err)
	}
	q.Sweep(now.Add(time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rec.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	entries, err := s.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %+v", entries)
	}
	requeued, acked := entries[0], entries[2]
	if requeued.Kind != KindRequeued || requeued.JobID != c || requeued.PendingMs != time.Minute.Milliseconds() {
		t.Fatalf("requeued entry = %+v", requeued)
	}
	if entries[1].Kind != KindReleased || entries[1].JobID != b {
		t.Fatalf("released entry = %+v", entries[1])
	}
	if acked.Kind != KindAcked || acked.JobID != a || acked.PayloadSize != 4 || acked.Deliveries != 1 {
		t.Fatalf("acked entry = %+v", acked)
	}
	if written, dropped, failed := rec.Counters(); written != 3 || dropped != 0 || failed != 0 {
		t.Fatalf("counters = %d/%d/%d", written, dropped, failed)
	}
}

func TestRecorderDropsWhenFull(t *testing.T) {
	s := newTestStore(t, 100)
	rec := NewRecorder(s, RecorderOptions{Buffer: 2, Logger: quietLogger()})
	job := jobqueue.Job{ID: 1, Payload: []byte("x")}
	for i := 0; i < 5; i++ {
		rec.JobAcked(job, time.Now())
	}
	if _, dropped, _ := rec.Counters(); dropped != 3 {
		t.Fatalf("dropped = %d, want 3", dropped)
	}
	rec.Start()
	rec.Stop()
	if written, _, _ := rec.Counters(); written != 2 {
		t.Fatalf("written = %d, want 2", written)
	}
}

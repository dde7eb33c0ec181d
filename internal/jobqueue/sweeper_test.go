package jobqueue

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSweepRequeuesExpiredOnce(t *testing.T) {
	clock := newFakeClock()
	q := openTestQueue(t, clock)
	jobID, _ := q.Submit([]byte("x"))
	if _, ok := q.Deliver(); !ok {
		t.Fatalf("deliver: empty")
	}

	clock.Advance(29 * time.Second)
	if n := q.Sweep(clock.Now()); n != 0 {
		t.Fatalf("requeued %d before deadline", n)
	}

	clock.Advance(time.Second)
	if n := q.Sweep(clock.Now()); n != 1 {
		t.Fatalf("requeued %d at deadline, want 1", n)
	}
	if n := q.Sweep(clock.Now()); n != 0 {
		t.Fatalf("second sweep requeued %d, want 0", n)
	}
	if q.Len() != 1 {
		t.Fatalf("len = %d, want 1", q.Len())
	}
	if err := q.Ack(jobID); !errors.Is(err, ErrNoJob) {
		t.Fatalf("ack of requeued job: want ErrNoJob, got %v", err)
	}

	again, ok := q.Deliver()
	if !ok || again.ID != jobID || again.Deliveries != 2 {
		t.Fatalf("want redelivery of %d, got %+v", jobID, again)
	}
}

func TestSweepRequeuesBehindLaterSubmissions(t *testing.T) {
	clock := newFakeClock()
	q := openTestQueue(t, clock)
	a, _ := q.Submit([]byte("a"))
	if job, ok := q.Deliver(); !ok || job.ID != a {
		t.Fatalf("deliver = %+v, %v", job, ok)
	}
	b, _ := q.Submit([]byte("b"))

	clock.Advance(30 * time.Second)
	if n := q.Sweep(clock.Now()); n != 1 {
		t.Fatalf("requeued %d, want 1", n)
	}

	for _, want := range []uint64{b, a} {
		job, ok := q.Deliver()
		if !ok {
			t.Fatalf("deliver: empty, want %d", want)
		}
		if job.ID != want {
			t.Fatalf("delivered %d, want %d", job.ID, want)
		}
	}
}

func TestSweepStopsAtFirstYoungRoot(t *testing.T) {
	clock := newFakeClock()
	q := openTestQueue(t, clock)
	old, _ := q.Submit([]byte("old"))
	young, _ := q.Submit([]byte("young"))
	q.Deliver()
	clock.Advance(20 * time.Second)
	q.Deliver()
	clock.Advance(10 * time.Second)

	if n := q.Sweep(clock.Now()); n != 1 {
		t.Fatalf("requeued %d, want 1", n)
	}
	ready := q.ReadySnapshot(0)
	if len(ready) != 1 || ready[0].ID != old || ready[0].Delivered() {
		t.Fatalf("ready = %+v", ready)
	}
	pending := q.PendingSnapshot(0)
	if len(pending) != 1 || pending[0].ID != young {
		t.Fatalf("pending = %+v", pending)
	}
}

func TestSweepDiscardsStaleEntries(t *testing.T) {
	clock := newFakeClock()
	q := openTestQueue(t, clock)
	acked, _ := q.Submit([]byte("acked"))
	released, _ := q.Submit([]byte("released"))
	q.Deliver()
	q.Deliver()
	if err := q.Ack(acked); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if err := q.Release(released); err != nil {
		t.Fatalf("release: %v", err)
	}
	// redeliver the released job at the same instant as its stale entry
	redelivered, _ := q.Deliver()
	if redelivered.ID != released {
		t.Fatalf("want %d redelivered, got %d", released, redelivered.ID)
	}

	clock.Advance(30 * time.Second)
	// stale entries for both deliveries are dropped; the live second delivery
	// of the released job is requeued exactly once
	if n := q.Sweep(clock.Now()); n != 1 {
		t.Fatalf("requeued %d, want 1", n)
	}
	st := q.Stats()
	if st.TimeoutEntries != 0 || st.Pending != 0 || st.Ready != 1 {
		t.Fatalf("unexpected stats after sweep: %+v", st)
	}
}

func TestSweepTieBreaksByID(t *testing.T) {
	clock := newFakeClock()
	q := openTestQueue(t, clock)
	for i := 0; i < 5; i++ {
		q.Submit([]byte{byte(i + 1)})
	}
	for i := 0; i < 5; i++ {
		q.Deliver()
	}
	clock.Advance(time.Minute)
	if n := q.Sweep(clock.Now()); n != 5 {
		t.Fatalf("requeued %d, want 5", n)
	}
	for want := uint64(0); want < 5; want++ {
		job, _ := q.Deliver()
		if job.ID != want {
			t.Fatalf("requeue order: got %d, want %d", job.ID, want)
		}
	}
}

func TestAckRacesSweep(t *testing.T) {
	clock := newFakeClock()
	q := openTestQueue(t, clock)
	const jobs = 500
	for i := 0; i < jobs; i++ {
		q.Submit([]byte("r"))
	}
	ids := make([]uint64, 0, jobs)
	for i := 0; i < jobs; i++ {
		j, _ := q.Deliver()
		ids = append(ids, j.ID)
	}
	clock.Advance(time.Minute)

	var wg sync.WaitGroup
	var ackWins int
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, jobID := range ids {
			if q.Ack(jobID) == nil {
				ackWins++
			}
		}
	}()
	var sweepWins int
	go func() {
		defer wg.Done()
		sweepWins = q.Sweep(clock.Now())
	}()
	wg.Wait()

	if ackWins+sweepWins != jobs {
		t.Fatalf("ack=%d sweep=%d, want exactly %d winners", ackWins, sweepWins, jobs)
	}
	if q.Len() != sweepWins {
		t.Fatalf("ready = %d, want %d", q.Len(), sweepWins)
	}
}

func TestSweeperBackground(t *testing.T) {
	q := New(Options{
		AckTimeout:    10 * time.Millisecond,
		SweepInterval: 20 * time.Millisecond,
		Logger:        quietLogger(),
	})
	q.Submit([]byte("x"))
	q.Deliver()
	q.StartSweeper()
	q.StartSweeper()
	defer q.StopSweeper()

	deadline := time.Now().Add(2 * time.Second)
	for q.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("background sweeper did not requeue the job")
		}
		time.Sleep(5 * time.Millisecond)
	}
	q.StopSweeper()
	q.StopSweeper()
}

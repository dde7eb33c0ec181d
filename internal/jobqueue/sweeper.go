package jobqueue

import (
	"context"
	"time"

	"github.com/rzbill/taxiway/pkg/log"
)

// Sweep runs one requeue cycle at the given instant and returns the number of
// jobs moved back to the ready queue.
//
// The heap root is examined repeatedly: a root delivered less than the ack
// timeout ago ends the cycle; an expired root is popped and requeued if the
// pending table still holds that same delivery, otherwise it is a stale entry
// and is dropped.
func (q *Queue) Sweep(now time.Time) int {
	cutoff := now.Add(-q.ackTimeout)
	requeued := 0
	stale := 0
	for {
		entry, ok := q.timeouts.popExpired(cutoff)
		if !ok {
			break
		}
		job, ok := q.pending.removeDelivery(entry.ID, entry.Deliveries)
		if !ok {
			stale++
			continue
		}
		q.ready.push(job.reset())
		q.requeued.Add(1)
		requeued++
		q.logger.Info("job requeued after ack timeout",
			log.Uint64("job_id", job.ID),
			log.Int64("deliveries", int64(job.Deliveries)),
			log.Dur("pending_for", now.Sub(job.DeliveredAt)),
		)
		if q.observer != nil {
			q.observer.JobRequeued(job, now)
		}
	}
	if stale > 0 {
		q.logger.Debug("dropped stale timeout entries", log.Int("count", stale))
	}
	return requeued
}

// StartSweeper runs Sweep every sweep interval until StopSweeper is called.
// Calling it on a running sweeper is a no-op.
func (q *Queue) StartSweeper() {
	q.sweepMu.Lock()
	defer q.sweepMu.Unlock()
	if q.sweepCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	q.sweepCancel = cancel
	q.sweepWG.Add(1)
	go q.runSweeper(ctx)
}

// StopSweeper stops the background sweeper and waits for it to exit.
func (q *Queue) StopSweeper() {
	q.sweepMu.Lock()
	cancel := q.sweepCancel
	q.sweepCancel = nil
	q.sweepMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	q.sweepWG.Wait()
}

// runSweeper is the sweeper loop.
func (q *Queue) runSweeper(ctx context.Context) {
	defer q.sweepWG.Done()

	ticker := time.NewTicker(q.sweepIntv)
	defer ticker.Stop()

	q.logger.Info("sweeper started",
		log.Dur("interval", q.sweepIntv),
		log.Dur("ack_timeout", q.ackTimeout),
	)

	for {
		select {
		case <-ctx.Done():
			q.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			if n := q.Sweep(q.now()); n > 0 {
				q.logger.Info("sweep cycle requeued jobs", log.Int("requeued", n))
			}
		}
	}
}

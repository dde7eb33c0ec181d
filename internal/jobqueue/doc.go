// Package jobqueue implements the in-memory job engine: a FIFO of ready jobs,
// a table of delivered-but-unacknowledged jobs, and an ack-timeout sweeper
// that returns stalled deliveries to the ready queue.
//
// Each job is handed to exactly one worker at a time. Delivery is
// at-least-once: a worker that does not acknowledge within the ack timeout
// loses the job to the next sweep and another worker will receive it.
//
// # Containers
//
// Three containers, each behind its own mutex:
//
//	ready     FIFO of jobs awaiting (re)delivery
//	pending   map id -> job for delivered, unacknowledged jobs
//	timeouts  min-heap of delivered jobs by (delivered_at, id)
//
// No lock is ever held while another is acquired, and none is held across
// I/O. A job moving between containers is therefore briefly absent from all
// of them; no caller can name a job in that window, so the public contract
// is unaffected.
//
// # Lazy invalidation
//
// Ack and Release only touch the pending table. The heap entry they leave
// behind is stale and is dropped when the sweeper reaches it: the sweeper
// requeues a heap entry only if the pending table still holds the same
// delivery of that job (same id and delivery count). Whichever of
// {Ack, Release, sweeper} removes the pending entry first wins; the others
// become no-ops.
//
// # Message Lifecycle
//
//  1. Submit: job appended to ready
//  2. Deliver: popped from ready, stamped, inserted into pending and timeouts
//  3. Processing:
//     - Ack: removed from pending (terminal)
//     - Release: removed from pending, appended to ready
//  4. Expiry: sweeper moves it from pending back to the tail of ready
package jobqueue

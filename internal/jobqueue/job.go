package jobqueue

import "time"

// Job is the unit of work. Payload is shared between the copies held by the
// containers and must be treated as read-only.
type Job struct {
	ID      uint64
	Payload []byte
	// DeliveredAt is set when the job is handed to a worker and cleared when
	// it re-enters the ready queue. Zero means not currently delivered.
	DeliveredAt time.Time
	// Deliveries counts how many times the job has been handed out. It also
	// identifies a single delivery when reconciling heap entries.
	Deliveries uint32
}

// Delivered reports whether the job carries a delivery timestamp.
func (j Job) Delivered() bool { return !j.DeliveredAt.IsZero() }

// Size returns the payload length in bytes.
func (j Job) Size() int { return len(j.Payload) }

// reset returns the job as it should look when put back on the ready queue.
func (j Job) reset() Job {
	j.DeliveredAt = time.Time{}
	return j
}

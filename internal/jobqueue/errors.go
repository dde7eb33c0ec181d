package jobqueue

import "errors"

var (
	// ErrEmptyInput is returned by Submit for a zero-length payload.
	ErrEmptyInput = errors.New("jobqueue: empty payload")
	// ErrNoJob is returned by Ack and Release when the id is not pending.
	ErrNoJob = errors.New("jobqueue: job not pending")
)

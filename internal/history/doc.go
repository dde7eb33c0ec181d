// Package history keeps a bounded audit trail of job transitions (acked,
// released, requeued) in a Pebble store.
//
// The store is normally opened on an in-memory filesystem and is lost on
// restart like the queue itself; it exists for inspection through the admin
// API. Entries get dense sequence numbers, and once MaxEntries is exceeded the
// oldest are range-deleted.
//
// Recorder adapts the store to jobqueue.Observer. It buffers transitions on a
// channel and writes them from a single goroutine so queue callers never wait
// on storage.
package history

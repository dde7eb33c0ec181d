// Package runtime wires configuration, the job queue, its sweeper and the
// history store into a single-node taxiway instance. It exposes Open/Close,
// a health check and accessors used by the transports.
//
// Example:
//
//	rt, err := runtime.Open(runtime.Options{Config: config.Default()})
//	if err != nil { /* handle */ }
//	defer rt.Close()
//	id, _ := rt.Queue().Submit([]byte("hello"))
package runtime

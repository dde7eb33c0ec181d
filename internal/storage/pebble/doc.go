// Package pebblestore wraps Pebble with an fsync policy, an optional
// in-memory filesystem, batches, snapshots and a small metrics hook.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{InMemory: true})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	b := db.NewBatch()
//	_ = b.Set([]byte("k"), []byte("v"), nil)
//	_ = db.CommitBatch(context.Background(), b)
//	b.Close()
//
//	v, err := db.Get([]byte("k"))
//	if errors.Is(err, pebblestore.ErrNotFound) { /* missing */ }
package pebblestore

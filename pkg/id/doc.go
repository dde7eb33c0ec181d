// Package id provides the process-wide job identifier sequence.
//
// # Format
//
// Job IDs are plain uint64 values. On the wire they always travel as 8 bytes
// big-endian, so byte-wise comparison of encoded IDs preserves submission
// order.
//
// # Monotonicity
//
// A Sequence hands out 0, 1, 2, ... with a single atomic increment per call.
// Values are never reset and never reused for the lifetime of the Sequence.
//
// Usage
//
//	var seq id.Sequence
//	jobID := seq.Next()      // 0
//	b := id.Encode(jobID)    // 8-byte big-endian representation
//	s := id.String(jobID)    // 16-char hex string
package id

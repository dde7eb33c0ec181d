package id

import (
	"encoding/binary"
	"sync/atomic"
)

// Size is the encoded width of a job ID in bytes.
const Size = 8

// Sequence produces strictly increasing job IDs starting at zero. The zero
// value is ready to use and safe for concurrent callers.
type Sequence struct {
	next atomic.Uint64
}

// NewSequence returns a Sequence whose first Next call returns start.
func NewSequence(start uint64) *Sequence {
	s := &Sequence{}
	s.next.Store(start)
	return s
}

// Next returns the current value and advances the sequence.
func (s *Sequence) Next() uint64 {
	return s.next.Add(1) - 1
}

// Peek returns the value the next call to Next will hand out.
func (s *Sequence) Peek() uint64 {
	return s.next.Load()
}

// Encode returns the 8-byte big-endian form of v.
func Encode(v uint64) []byte {
	b := make([]byte, Size)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// String returns v as a fixed-width hex string.
func String(v uint64) string { return fmtHex(Encode(v)) }

// fmtHex is a small, allocation-lean hex encoder for fixed-size IDs.
func fmtHex(b []byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexdigits[v>>4]
		out[i*2+1] = hexdigits[v&0x0f]
	}
	return string(out)
}

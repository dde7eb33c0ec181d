package history

import "encoding/binary"

// Key layout:
//
//	hist/e/{seq(8B BE)} -> entry record
//	hist/meta           -> firstSeq(8B) | nextSeq(8B)
const (
	prefixEntry = "hist/e/"
	keyMeta     = "hist/meta"
)

// entryKey returns the key for seq. Big-endian keeps iteration in seq order.
func entryKey(seq uint64) []byte {
	key := make([]byte, len(prefixEntry)+8)
	copy(key, prefixEntry)
	binary.BigEndian.PutUint64(key[len(prefixEntry):], seq)
	return key
}

// entryBounds returns [lower, upper) covering every entry key.
func entryBounds() (lower, upper []byte) {
	lower = []byte(prefixEntry)
	upper = append([]byte(prefixEntry[:len(prefixEntry)-1]), prefixEntry[len(prefixEntry)-1]+1)
	return lower, upper
}

func seqFromKey(key []byte) (uint64, bool) {
	if len(key) != len(prefixEntry)+8 || string(key[:len(prefixEntry)]) != prefixEntry {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[len(prefixEntry):]), true
}

package history

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
)

// Entry record: json(Entry) | crc32c(json)
// Meta record:  firstSeq(8B BE) | nextSeq(8B BE)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// ErrCorrupt reports a record whose checksum does not match.
var ErrCorrupt = errors.New("history: corrupt record")

func encodeEntry(e Entry) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(body)+4)
	copy(out, body)
	binary.BigEndian.PutUint32(out[len(body):], crc32.Checksum(body, castagnoli))
	return out, nil
}

func decodeEntry(b []byte) (Entry, error) {
	if len(b) < 4 {
		return Entry{}, fmt.Errorf("%w: short record", ErrCorrupt)
	}
	body := b[:len(b)-4]
	if crc32.Checksum(body, castagnoli) != binary.BigEndian.Uint32(b[len(b)-4:]) {
		return Entry{}, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	var e Entry
	if err := json.Unmarshal(body, &e); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return e, nil
}

type meta struct {
	firstSeq uint64
	nextSeq  uint64
}

func encodeMeta(m meta) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], m.firstSeq)
	binary.BigEndian.PutUint64(buf[8:16], m.nextSeq)
	return buf
}

func decodeMeta(b []byte) (meta, error) {
	if len(b) < 16 {
		return meta{}, fmt.Errorf("%w: invalid metadata length %d", ErrCorrupt, len(b))
	}
	return meta{
		firstSeq: binary.BigEndian.Uint64(b[0:8]),
		nextSeq:  binary.BigEndian.Uint64(b[8:16]),
	}, nil
}

package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
)

// Opcodes.
const (
	OpSubmit  byte = 1
	OpDeliver byte = 2
	OpAck     byte = 3
	OpRelease byte = 4
	OpLength  byte = 5
	OpPing    byte = 6
)

// Response status bytes.
const (
	StatusOK            byte = 0
	StatusFailure       byte = 1
	StatusUnknownOpcode byte = 2
	StatusEmptyRequest  byte = 3
	StatusPong          byte = 69
)

// DefaultMaxPayload bounds the declared length of a submitted payload.
const DefaultMaxPayload = 1 << 20

const (
	lenSize = 4
	idSize  = 8
)

var (
	// ErrInvalidFormat reports a truncated frame or an oversize length.
	ErrInvalidFormat = errors.New("invalid request format")
	// ErrEmptyRequest reports a connection that sent no bytes.
	ErrEmptyRequest = errors.New("empty request")
	// ErrUnknownOpcode reports an opcode outside 1..6.
	ErrUnknownOpcode = errors.New("unknown opcode")
)

// Request is a decoded client request.
type Request struct {
	Op      byte
	Payload []byte // OpSubmit
	JobID   uint64 // OpAck, OpRelease
}

// OpName returns a short name for logs.
func OpName(op byte) string {
	switch op {
	case OpSubmit:
		return "submit"
	case OpDeliver:
		return "deliver"
	case OpAck:
		return "ack"
	case OpRelease:
		return "release"
	case OpLength:
		return "length"
	case OpPing:
		return "ping"
	default:
		return fmt.Sprintf("op(%d)", op)
	}
}

// ReadRequest reads one request from r, consuming only the bytes the opcode
// calls for. A zero-length submit passes framing; rejecting it is left to the
// queue. Truncated bodies, including a body still incomplete when a read
// deadline expires, yield ErrInvalidFormat; other read errors are returned
// wrapped.
func ReadRequest(r io.Reader, maxPayload int) (Request, error) {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	var op [1]byte
	if _, err := io.ReadFull(r, op[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Request{}, ErrEmptyRequest
		}
		return Request{}, fmt.Errorf("read opcode: %w", err)
	}
	req := Request{Op: op[0]}

	switch req.Op {
	case OpSubmit:
		var lb [lenSize]byte
		if err := readBody(r, lb[:]); err != nil {
			return req, err
		}
		n := binary.BigEndian.Uint32(lb[:])
		if uint64(n) > uint64(maxPayload) {
			return req, fmt.Errorf("%w: payload length %d exceeds %d", ErrInvalidFormat, n, maxPayload)
		}
		req.Payload = make([]byte, n)
		if err := readBody(r, req.Payload); err != nil {
			return req, err
		}
	case OpAck, OpRelease:
		var ib [idSize]byte
		if err := readBody(r, ib[:]); err != nil {
			return req, err
		}
		req.JobID = binary.BigEndian.Uint64(ib[:])
	case OpDeliver, OpLength, OpPing:
	default:
		return req, ErrUnknownOpcode
	}
	return req, nil
}

func readBody(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: truncated frame", ErrInvalidFormat)
		}
		// The opcode arrived but the rest of the frame did not before the
		// deadline; the client is still owed a status byte.
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return fmt.Errorf("%w: frame incomplete at deadline: %v", ErrInvalidFormat, err)
		}
		return fmt.Errorf("read frame: %w", err)
	}
	return nil
}

// DecodeRequest parses a complete request buffer. Bytes past the frame are
// ignored.
func DecodeRequest(b []byte, maxPayload int) (Request, error) {
	return ReadRequest(&sliceReader{b: b}, maxPayload)
}

type sliceReader struct {
	b []byte
}

func (s *sliceReader) Read(p []byte) (int, error) {
	if len(s.b) == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.b)
	s.b = s.b[n:]
	return n, nil
}

// Encode returns the wire form of req.
func (req Request) Encode() []byte {
	switch req.Op {
	case OpSubmit:
		out := make([]byte, 1+lenSize+len(req.Payload))
		out[0] = req.Op
		binary.BigEndian.PutUint32(out[1:], uint32(len(req.Payload)))
		copy(out[1+lenSize:], req.Payload)
		return out
	case OpAck, OpRelease:
		out := make([]byte, 1+idSize)
		out[0] = req.Op
		binary.BigEndian.PutUint64(out[1:], req.JobID)
		return out
	default:
		return []byte{req.Op}
	}
}

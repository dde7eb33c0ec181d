package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrRejected is the client-side view of StatusFailure.
var ErrRejected = errors.New("request rejected by server")

// StatusResponse returns a single status byte response.
func StatusResponse(status byte) []byte { return []byte{status} }

// SubmitResponse returns the success response for a submitted job.
func SubmitResponse(jobID uint64) []byte {
	out := make([]byte, 1+idSize)
	out[0] = StatusOK
	binary.BigEndian.PutUint64(out[1:], jobID)
	return out
}

// DeliverResponse returns the success response carrying a delivered job.
func DeliverResponse(jobID uint64, payload []byte) []byte {
	out := make([]byte, 1+idSize+lenSize+len(payload))
	out[0] = StatusOK
	binary.BigEndian.PutUint64(out[1:], jobID)
	binary.BigEndian.PutUint32(out[1+idSize:], uint32(len(payload)))
	copy(out[1+idSize+lenSize:], payload)
	return out
}

// LengthResponse returns the ready count. It has no status byte.
func LengthResponse(n uint64) []byte {
	out := make([]byte, idSize)
	binary.BigEndian.PutUint64(out, n)
	return out
}

// statusError maps a non-OK status byte to an error.
func statusError(status byte) error {
	switch status {
	case StatusFailure:
		return ErrRejected
	case StatusUnknownOpcode:
		return ErrUnknownOpcode
	case StatusEmptyRequest:
		return ErrEmptyRequest
	default:
		return fmt.Errorf("%w: unexpected status %d", ErrInvalidFormat, status)
	}
}

// ParseSubmitResponse returns the id assigned to a submitted job.
func ParseSubmitResponse(b []byte) (uint64, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("%w: empty response", ErrInvalidFormat)
	}
	if b[0] != StatusOK {
		return 0, statusError(b[0])
	}
	if len(b) < 1+idSize {
		return 0, fmt.Errorf("%w: short submit response", ErrInvalidFormat)
	}
	return binary.BigEndian.Uint64(b[1:]), nil
}

// ParseDeliverResponse decodes a delivered job. ok is false when the server
// had no ready job.
func ParseDeliverResponse(b []byte) (jobID uint64, payload []byte, ok bool, err error) {
	if len(b) == 0 {
		return 0, nil, false, fmt.Errorf("%w: empty response", ErrInvalidFormat)
	}
	switch b[0] {
	case StatusOK:
	case StatusFailure:
		return 0, nil, false, nil
	default:
		return 0, nil, false, statusError(b[0])
	}
	if len(b) < 1+idSize+lenSize {
		return 0, nil, false, fmt.Errorf("%w: short deliver response", ErrInvalidFormat)
	}
	jobID = binary.BigEndian.Uint64(b[1:])
	n := binary.BigEndian.Uint32(b[1+idSize:])
	body := b[1+idSize+lenSize:]
	if uint64(len(body)) < uint64(n) {
		return 0, nil, false, fmt.Errorf("%w: truncated payload", ErrInvalidFormat)
	}
	return jobID, append([]byte(nil), body[:n]...), true, nil
}

// ParseStatusResponse decodes an ack or release response.
func ParseStatusResponse(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("%w: empty response", ErrInvalidFormat)
	}
	if b[0] != StatusOK {
		return statusError(b[0])
	}
	return nil
}

// ParseLengthResponse decodes the ready count.
func ParseLengthResponse(b []byte) (uint64, error) {
	if len(b) < idSize {
		return 0, fmt.Errorf("%w: short length response", ErrInvalidFormat)
	}
	return binary.BigEndian.Uint64(b), nil
}

// ParsePingResponse checks a ping reply.
func ParsePingResponse(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("%w: empty response", ErrInvalidFormat)
	}
	if b[0] != StatusPong {
		return statusError(b[0])
	}
	return nil
}

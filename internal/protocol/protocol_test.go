package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    Request
		wantErr error
	}{
		{name: "submit", in: []byte{1, 0, 0, 0, 3, 0x61, 0x62, 0x63}, want: Request{Op: OpSubmit, Payload: []byte("abc")}},
		{name: "submit zero length passes framing", in: []byte{1, 0, 0, 0, 0}, want: Request{Op: OpSubmit, Payload: []byte{}}},
		{name: "submit truncated payload", in: []byte{1, 0, 0, 0, 5, 0x61}, wantErr: ErrInvalidFormat},
		{name: "submit truncated length", in: []byte{1, 0, 0}, wantErr: ErrInvalidFormat},
		{name: "submit trailing bytes ignored", in: []byte{1, 0, 0, 0, 1, 0x7a, 9, 9}, want: Request{Op: OpSubmit, Payload: []byte("z")}},
		{name: "deliver", in: []byte{2}, want: Request{Op: OpDeliver}},
		{name: "ack", in: []byte{3, 0, 0, 0, 0, 0, 0, 1, 2}, want: Request{Op: OpAck, JobID: 0x0102}},
		{name: "ack short id", in: []byte{3, 0, 0, 1}, wantErr: ErrInvalidFormat},
		{name: "release", in: []byte{4, 0, 0, 0, 0, 0, 0, 0, 7}, want: Request{Op: OpRelease, JobID: 7}},
		{name: "length", in: []byte{5}, want: Request{Op: OpLength}},
		{name: "ping with trailing bytes", in: []byte{6, 1, 2, 3}, want: Request{Op: OpPing}},
		{name: "unknown opcode", in: []byte{9}, wantErr: ErrUnknownOpcode},
		{name: "zero opcode", in: []byte{0}, wantErr: ErrUnknownOpcode},
		{name: "empty", in: nil, wantErr: ErrEmptyRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRequest(tt.in, 0)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Op != tt.want.Op || got.JobID != tt.want.JobID || !bytes.Equal(got.Payload, tt.want.Payload) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeRequestOversize(t *testing.T) {
	in := []byte{1, 0, 0, 1, 0} // 256 bytes declared
	if _, err := DecodeRequest(in, 128); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("want ErrInvalidFormat, got %v", err)
	}
	// a huge declared length must be rejected before allocating
	huge := []byte{1, 0xff, 0xff, 0xff, 0xff}
	if _, err := DecodeRequest(huge, 0); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("want ErrInvalidFormat, got %v", err)
	}
}

func TestRequestEncodeRoundTrip(t *testing.T) {
	reqs := []Request{
		{Op: OpSubmit, Payload: []byte("hello")},
		{Op: OpDeliver},
		{Op: OpAck, JobID: 1 << 40},
		{Op: OpRelease, JobID: 3},
		{Op: OpLength},
		{Op: OpPing},
	}
	for _, req := range reqs {
		got, err := DecodeRequest(req.Encode(), 0)
		if err != nil {
			t.Fatalf("%s: decode: %v", OpName(req.Op), err)
		}
		if got.Op != req.Op || got.JobID != req.JobID || !bytes.Equal(got.Payload, req.Payload) {
			t.Fatalf("%s: got %+v, want %+v", OpName(req.Op), got, req)
		}
	}
}

func TestWireBytes(t *testing.T) {
	if got := SubmitResponse(0); !bytes.Equal(got, []byte{0, 0, 0, 0, 0, 0, 0, 0, 0}) {
		t.Fatalf("submit response = %v", got)
	}
	want := []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2, 0x68, 0x69}
	if got := DeliverResponse(0, []byte("hi")); !bytes.Equal(got, want) {
		t.Fatalf("deliver response = %v", got)
	}
	if got := LengthResponse(2); !bytes.Equal(got, []byte{0, 0, 0, 0, 0, 0, 0, 2}) {
		t.Fatalf("length response = %v", got)
	}
	if got := (Request{Op: OpSubmit, Payload: []byte{0x41}}).Encode(); !bytes.Equal(got, []byte{1, 0, 0, 0, 1, 0x41}) {
		t.Fatalf("submit request = %v", got)
	}
}

func TestParseResponses(t *testing.T) {
	jobID, err := ParseSubmitResponse(SubmitResponse(42))
	if err != nil || jobID != 42 {
		t.Fatalf("submit: id=%d err=%v", jobID, err)
	}
	if _, err := ParseSubmitResponse([]byte{StatusFailure}); !errors.Is(err, ErrRejected) {
		t.Fatalf("submit failure: %v", err)
	}
	if _, err := ParseSubmitResponse([]byte{StatusOK, 1}); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("short submit: %v", err)
	}

	jobID, payload, ok, err := ParseDeliverResponse(DeliverResponse(7, []byte("job")))
	if err != nil || !ok || jobID != 7 || string(payload) != "job" {
		t.Fatalf("deliver: id=%d payload=%q ok=%v err=%v", jobID, payload, ok, err)
	}
	if _, _, ok, err := ParseDeliverResponse([]byte{StatusFailure}); ok || err != nil {
		t.Fatalf("empty deliver: ok=%v err=%v", ok, err)
	}
	truncated := DeliverResponse(7, []byte("job"))
	if _, _, _, err := ParseDeliverResponse(truncated[:len(truncated)-1]); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("truncated deliver: %v", err)
	}

	if err := ParseStatusResponse([]byte{StatusOK}); err != nil {
		t.Fatalf("ack ok: %v", err)
	}
	if err := ParseStatusResponse([]byte{StatusFailure}); !errors.Is(err, ErrRejected) {
		t.Fatalf("ack failure: %v", err)
	}
	if err := ParseStatusResponse([]byte{StatusUnknownOpcode}); !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("unknown opcode: %v", err)
	}
	if err := ParseStatusResponse([]byte{StatusEmptyRequest}); !errors.Is(err, ErrEmptyRequest) {
		t.Fatalf("empty request: %v", err)
	}

	n, err := ParseLengthResponse(LengthResponse(5))
	if err != nil || n != 5 {
		t.Fatalf("length: n=%d err=%v", n, err)
	}
	if err := ParsePingResponse([]byte{StatusPong}); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// stallReader returns its bytes and then fails with err, like a socket whose
// peer stopped sending before the read deadline.
type stallReader struct {
	b   []byte
	err error
}

func (r *stallReader) Read(p []byte) (int, error) {
	if len(r.b) == 0 {
		return 0, r.err
	}
	n := copy(p, r.b)
	r.b = r.b[n:]
	return n, nil
}

func TestReadRequestDeadlineMidFrame(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		err     error
		invalid bool
	}{
		{"submit body short", []byte{OpSubmit, 0, 0, 0, 9, 'a'}, timeoutError{}, true},
		{"submit length short", []byte{OpSubmit, 0, 0}, timeoutError{}, true},
		{"ack id short", []byte{OpAck, 0, 0}, timeoutError{}, true},
		{"release id missing", []byte{OpRelease}, timeoutError{}, true},
		{"no opcode", nil, timeoutError{}, false},
		{"reset mid frame", []byte{OpAck, 0}, io.ErrClosedPipe, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRequest(&stallReader{b: tt.in, err: tt.err}, 0)
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := errors.Is(err, ErrInvalidFormat); got != tt.invalid {
				t.Fatalf("errors.Is(%v, ErrInvalidFormat) = %v, want %v", err, got, tt.invalid)
			}
			if errors.Is(err, ErrEmptyRequest) {
				t.Fatalf("deadline must not read as an empty request: %v", err)
			}
		})
	}
}

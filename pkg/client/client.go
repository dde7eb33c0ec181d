package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rzbill/taxiway/internal/protocol"
)

// DefaultTimeout bounds a single request when the context has no deadline.
const DefaultTimeout = 5 * time.Second

// ErrRejected is returned when the server answers with the failure status,
// e.g. acking a job that is not pending or submitting an empty payload.
var ErrRejected = protocol.ErrRejected

// Job is a delivered job.
type Job struct {
	ID      uint64
	Payload []byte
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request deadline used when ctx has none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDialer replaces the dialer used for each request.
func WithDialer(d *net.Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// Client talks to one server address.
type Client struct {
	addr    string
	timeout time.Duration
	dialer  *net.Dialer
}

// New returns a Client for addr.
func New(addr string, opts ...Option) *Client {
	c := &Client{addr: addr, timeout: DefaultTimeout, dialer: &net.Dialer{}}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Addr returns the server address.
func (c *Client) Addr() string { return c.addr }

// Submit enqueues payload and returns the assigned job id.
func (c *Client) Submit(ctx context.Context, payload []byte) (uint64, error) {
	resp, err := c.roundTrip(ctx, protocol.Request{Op: protocol.OpSubmit, Payload: payload})
	if err != nil {
		return 0, err
	}
	return protocol.ParseSubmitResponse(resp)
}

// Deliver claims the next ready job. ok is false when the queue is empty.
func (c *Client) Deliver(ctx context.Context) (Job, bool, error) {
	resp, err := c.roundTrip(ctx, protocol.Request{Op: protocol.OpDeliver})
	if err != nil {
		return Job{}, false, err
	}
	id, payload, ok, err := protocol.ParseDeliverResponse(resp)
	if err != nil || !ok {
		return Job{}, false, err
	}
	return Job{ID: id, Payload: payload}, true, nil
}

// Ack acknowledges a delivered job.
func (c *Client) Ack(ctx context.Context, jobID uint64) error {
	resp, err := c.roundTrip(ctx, protocol.Request{Op: protocol.OpAck, JobID: jobID})
	if err != nil {
		return err
	}
	return protocol.ParseStatusResponse(resp)
}

// Release hands a delivered job back to the ready queue.
func (c *Client) Release(ctx context.Context, jobID uint64) error {
	resp, err := c.roundTrip(ctx, protocol.Request{Op: protocol.OpRelease, JobID: jobID})
	if err != nil {
		return err
	}
	return protocol.ParseStatusResponse(resp)
}

// Len returns the number of ready jobs.
func (c *Client) Len(ctx context.Context) (uint64, error) {
	resp, err := c.roundTrip(ctx, protocol.Request{Op: protocol.OpLength})
	if err != nil {
		return 0, err
	}
	return protocol.ParseLengthResponse(resp)
}

// Ping checks that the server answers.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.roundTrip(ctx, protocol.Request{Op: protocol.OpPing})
	if err != nil {
		return err
	}
	return protocol.ParsePingResponse(resp)
}

func (c *Client) roundTrip(ctx context.Context, req protocol.Request) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.addr, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Unix(1, 0)) })
	defer stop()

	if _, err := conn.Write(req.Encode()); err != nil {
		return nil, c.wrap(ctx, "write", err)
	}
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}
	resp, err := io.ReadAll(conn)
	if err != nil {
		return nil, c.wrap(ctx, "read", err)
	}
	return resp, nil
}

// wrap prefers the context error when the deadline was forced by ctx.
func (c *Client) wrap(ctx context.Context, op string, err error) error {
	if cerr := ctx.Err(); cerr != nil && !errors.Is(err, cerr) {
		return fmt.Errorf("%s %s: %w", op, c.addr, cerr)
	}
	return fmt.Errorf("%s %s: %w", op, c.addr, err)
}

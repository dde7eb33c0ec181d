// Package client speaks the taxiway binary protocol. Every call dials a
// fresh connection, writes one request, reads the complete response and
// closes, matching the server's one-request-per-connection model.
//
//	c := client.New("127.0.0.1:8294")
//	id, err := c.Submit(ctx, []byte("resize:42"))
//	job, ok, err := c.Deliver(ctx)
//	err = c.Ack(ctx, job.ID)
package client

// Package client provides the `taxiway` command-line client.
//
// The protocol commands (submit, deliver, ack, release, len, ping) speak the
// binary protocol through pkg/client, one connection per request. The admin
// commands (stats, jobs, history) read the HTTP admin API and health queries
// the gRPC health service.
//
// # Address configuration
//
// The protocol address comes from --addr (default $TAXIWAY_ADDR or
// 127.0.0.1:8294). The admin API base URL is supplied by the embedding
// application through a BaseURLFunc and can be overridden per command with
// --http; the standalone binary reads $TAXIWAY_HTTP (default
// http://127.0.0.1:8295). The gRPC address comes from --grpc or
// $TAXIWAY_GRPC (default 127.0.0.1:8296).
//
// Usage
//
//	taxiway submit '{"kind":"email","to":"ops@example.com"}'
//	taxiway submit --file job.bin
//	echo -n hello | taxiway submit --file -
//
//	taxiway deliver            # prints {"id": 0, "payload_json": {...}}
//	taxiway deliver --ack      # claim and acknowledge in one go
//	taxiway ack 0
//	taxiway release 0x2a       # ids accept decimal or 0x hex
//
//	taxiway len
//	taxiway ping
//	taxiway health --service ""
//
//	taxiway stats
//	taxiway jobs pending --filter 'age_ms > 10000'
//	taxiway history --kind requeued --limit 20
//
// Notes
//
//   - deliver leaves the job pending; without ack or release it returns to
//     the ready queue after the server's ack timeout.
//   - health exits non-zero unless the checked service is SERVING.
package client

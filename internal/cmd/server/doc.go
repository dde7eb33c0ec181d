// Package serverrun exposes the Run entrypoint used by the CLI to start the
// taxiway runtime with its protocol listener and optional HTTP and gRPC
// admin servers, handling lifecycle and shutdown.
//
// Example:
//
//	cfg, _ := serverrun.LoadConfig("")
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = serverrun.Run(ctx, serverrun.Options{Config: cfg})
package serverrun

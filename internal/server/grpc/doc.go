// Package grpcserver hosts the standard grpc.health.v1 service and server
// reflection for taxiway. Health is reported for the empty service name and
// for ServiceName, and follows runtime.CheckHealth.
//
// Example:
//
//	s := grpcserver.New(rt, logger)
//	_ = s.ListenAndServe(ctx, "127.0.0.1:8296")
package grpcserver

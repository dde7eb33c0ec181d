package grpcserver

import (
	"context"
	"net"
	"sync"

	"github.com/rzbill/taxiway/internal/runtime"
	logpkg "github.com/rzbill/taxiway/pkg/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name for the job queue.
const ServiceName = "taxiway.JobQueue"

// Server owns the gRPC server instance.
type Server struct {
	rt     *runtime.Runtime
	grpc   *grpc.Server
	health *health.Server
	logger logpkg.Logger

	// initial is the status published by New.
	initial healthpb.HealthCheckResponse_ServingStatus

	mu  sync.Mutex
	lis net.Listener
}

// New constructs a gRPC server and registers health and reflection.
func New(rt *runtime.Runtime, logger logpkg.Logger, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	s := &Server{
		rt:     rt,
		grpc:   grpc.NewServer(opts...),
		health: health.NewServer(),
		logger: logger.With(logpkg.Component("grpc")),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	s.initial = s.refreshHealth(context.Background())
	return s
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve serves on l until ctx is done, keeping health in sync with the
// runtime.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.mu.Lock()
	s.lis = l
	s.mu.Unlock()
	s.logger.Info("listening", logpkg.Str("addr", l.Addr().String()))

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.watchHealth(wctx)

	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(l) }()
	select {
	case <-ctx.Done():
		s.Close()
		return nil
	case err := <-errCh:
		return err
	}
}

// Addr returns the bound address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

// Close marks every service NOT_SERVING and stops the server.
func (s *Server) Close() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

package grpcserver

import (
	"context"
	"time"

	logpkg "github.com/rzbill/taxiway/pkg/log"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// healthInterval is how often runtime health is re-checked.
const healthInterval = 5 * time.Second

// refreshHealth publishes the runtime's current health and returns it.
func (s *Server) refreshHealth(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.rt.CheckHealth(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

func (s *Server) watchHealth(ctx context.Context) {
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()
	last := s.initial
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if status := s.refreshHealth(ctx); status != last {
				s.logger.Info("health changed", logpkg.Str("status", status.String()))
				last = status
			}
		}
	}
}

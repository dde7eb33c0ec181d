package grpcserver

import (
	"context"
	"net"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/taxiway/internal/config"
	"github.com/rzbill/taxiway/internal/runtime"
	logpkg "github.com/rzbill/taxiway/pkg/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1 << 20

func quietLogger() logpkg.Logger {
	return logpkg.NewLogger(logpkg.WithLevel(logpkg.ErrorLevel), logpkg.WithOutput(logpkg.NullOutput{}))
}

func startBufServer(t *testing.T) (*Server, *runtime.Runtime, healthpb.HealthClient) {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{Config: cfgpkg.Default(), Logger: quietLogger(), DisableSweeper: true})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })

	srv := New(rt, quietLogger())
	lis := bufconn.Listen(bufSize)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, lis)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return srv, rt, healthpb.NewHealthClient(conn)
}

func TestHealthOverGRPC(t *testing.T) {
	_, _, client := startBufServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, service := range []string{"", ServiceName} {
		res, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			t.Fatalf("check %q: %v", service, err)
		}
		if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("check %q: status %v", service, res.GetStatus())
		}
	}

	_, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: "unknown.Service"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("unknown service: want NotFound, got %v", err)
	}
}

func TestHealthFollowsRuntime(t *testing.T) {
	srv, rt, client := startBufServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = rt.Close()
	if got := srv.refreshHealth(ctx); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("refresh after close = %v", got)
	}
	res, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("status = %v", res.GetStatus())
	}
}

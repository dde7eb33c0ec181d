package serverrun

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	cfgpkg "github.com/rzbill/taxiway/internal/config"
	"github.com/rzbill/taxiway/internal/runtime"
	grpcserver "github.com/rzbill/taxiway/internal/server/grpc"
	httpserver "github.com/rzbill/taxiway/internal/server/http"
	tcpserver "github.com/rzbill/taxiway/internal/server/tcp"
	jobsvc "github.com/rzbill/taxiway/internal/services/jobs"
	logpkg "github.com/rzbill/taxiway/pkg/log"
)

// Options configures Run. Config is used as given; resolve it with LoadConfig
// and apply flag overrides first.
type Options struct {
	Config cfgpkg.Config
	// Logger overrides the process logger built from Config.Log.
	Logger logpkg.Logger
	// OnListen is called with the protocol listener address once bound.
	OnListen func(net.Addr)
}

// LoadConfig resolves configuration in order: defaults, the JSON file at path
// (if any), .env files, then TAXIWAY_* environment variables.
func LoadConfig(path string, envFiles ...string) (cfgpkg.Config, error) {
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	if err := cfgpkg.LoadDotEnv(envFiles...); err != nil {
		return cfgpkg.Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfgpkg.FromEnv(&cfg)
	return cfg, nil
}

// Run starts the protocol server and the optional admin servers, and blocks
// until ctx is cancelled or a server fails.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return err
	}

	procLogger := opts.Logger
	if procLogger == nil {
		l, err := logpkg.ApplyConfig(&logpkg.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
		if err != nil {
			return fmt.Errorf("log config: %w", err)
		}
		procLogger = l
		// Redirect stdlib logs (e.g., Pebble) to our logger
		logpkg.RedirectStdLog(procLogger)
	}

	rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: procLogger})
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			procLogger.Warn("runtime close failed", logpkg.Err(err))
		}
	}()

	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
	}

	procLogger.Info("Starting taxiway server",
		logpkg.Str("tcp", lis.Addr().String()),
		logpkg.Str("http", cfg.HTTPAddr),
		logpkg.Str("grpc", cfg.GRPCAddr),
		logpkg.Int("workers", cfg.Workers),
		logpkg.Dur("ack_timeout", cfg.AckTimeout()),
		logpkg.Dur("sweep_interval", cfg.SweepInterval()),
		logpkg.Bool("history", cfg.History.Enabled),
		logpkg.Str("level", cfg.Log.Level),
		logpkg.Str("format", cfg.Log.Format),
	)

	tsrv := tcpserver.New(rt.Queue(), tcpserver.Options{
		Workers:     cfg.Workers,
		ReadTimeout: cfg.ReadTimeout(),
		MaxPayload:  cfg.PayloadMaxBytes,
		Logger:      procLogger,
	})

	var (
		hsrv *httpserver.Server
		gsrv *grpcserver.Server
	)
	if cfg.HTTPAddr != "" {
		svc := jobsvc.NewWithLogger(rt, procLogger.With(logpkg.Component("jobs")))
		hsrv = httpserver.NewWithService(rt, svc, procLogger)
	}
	if cfg.GRPCAddr != "" {
		gsrv = grpcserver.New(rt, procLogger)
	}

	errCh := make(chan error, 3)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tsrv.Serve(sctx, lis); err != nil && sctx.Err() == nil {
			errCh <- fmt.Errorf("tcp: %w", err)
		}
	}()
	if hsrv != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := hsrv.ListenAndServe(sctx, cfg.HTTPAddr); err != nil && sctx.Err() == nil {
				errCh <- fmt.Errorf("http: %w", err)
			}
		}()
	}
	if gsrv != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gsrv.ListenAndServe(sctx, cfg.GRPCAddr); err != nil && sctx.Err() == nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
	}
	if opts.OnListen != nil {
		opts.OnListen(lis.Addr())
	}

	var runErr error
	select {
	case <-sctx.Done():
		procLogger.Info("Shutting down taxiway server")
	case runErr = <-errCh:
		procLogger.Error("server failed", logpkg.Err(runErr))
	}

	// Stop the servers before the runtime so no handler touches a closed queue.
	tsrv.Close()
	if hsrv != nil {
		hsrv.Close()
	}
	if gsrv != nil {
		gsrv.Close()
	}
	wg.Wait()
	return runErr
}

package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rzbill/taxiway/internal/runtime"
	"github.com/rzbill/taxiway/internal/server/http/controllers"
	jobsvc "github.com/rzbill/taxiway/internal/services/jobs"
	logpkg "github.com/rzbill/taxiway/pkg/log"
)

// Server owns the admin HTTP server.
type Server struct {
	rt     *runtime.Runtime
	engine *gin.Engine
	srv    *http.Server
	logger logpkg.Logger

	mu  sync.Mutex
	lis net.Listener
}

// New builds a Server with its own jobs service.
func New(rt *runtime.Runtime, logger logpkg.Logger) *Server {
	return NewWithService(rt, jobsvc.NewWithLogger(rt, logger), logger)
}

// NewWithService builds a Server around an existing jobs service.
func NewWithService(rt *runtime.Runtime, svc *jobsvc.Service, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	logger = logger.With(logpkg.Component("http"))

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger), cors())
	controllers.NewControllerRegistry(rt, svc).RegisterAllRoutes(engine)

	return &Server{
		rt:     rt,
		engine: engine,
		srv:    &http.Server{Handler: engine, ReadHeaderTimeout: 5 * time.Second},
		logger: logger,
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lis = l
	s.mu.Unlock()
	s.logger.Info("listening", logpkg.Str("addr", l.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Addr returns the bound address, or nil before ListenAndServe.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

// Close shuts the server down.
func (s *Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func requestLogger(logger logpkg.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			logpkg.Str("method", c.Request.Method),
			logpkg.Str("path", c.Request.URL.Path),
			logpkg.Int("status", c.Writer.Status()),
			logpkg.Dur("latency", time.Since(start)),
		)
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

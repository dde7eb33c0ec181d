package tcpserver

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/rzbill/taxiway/internal/executor"
	"github.com/rzbill/taxiway/internal/jobqueue"
	"github.com/rzbill/taxiway/internal/protocol"
	"github.com/rzbill/taxiway/pkg/log"
)

// DefaultReadTimeout bounds how long a client may take to send its request.
const DefaultReadTimeout = 5 * time.Second

// Engine is the queue surface the protocol needs.
type Engine interface {
	Submit(payload []byte) (uint64, error)
	Deliver() (jobqueue.Job, bool)
	Ack(jobID uint64) error
	Release(jobID uint64) error
	Len() int
}

// Options configures a Server.
type Options struct {
	Workers      int           // concurrent handlers (default: 32)
	ReadTimeout  time.Duration // per-connection request deadline (default: 5s)
	WriteTimeout time.Duration // response deadline (default: ReadTimeout)
	MaxPayload   int           // largest accepted submit payload (default: 1 MiB)
	Logger       log.Logger
}

// Server accepts protocol connections for one queue.
type Server struct {
	engine Engine
	opts   Options
	logger log.Logger
	exec   *executor.Executor

	mu     sync.Mutex
	lis    net.Listener
	closed bool
}

// New constructs a Server for engine.
func New(engine Engine, opts Options) *Server {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = opts.ReadTimeout
	}
	if opts.MaxPayload <= 0 {
		opts.MaxPayload = protocol.DefaultMaxPayload
	}
	if opts.Logger == nil {
		opts.Logger = log.NewLogger(log.WithLevel(log.InfoLevel))
	}
	return &Server{
		engine: engine,
		opts:   opts,
		logger: opts.Logger.With(log.Component("tcp")),
		exec:   executor.New(opts.Workers),
	}
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve accepts connections on l until ctx is done or Close is called. It
// returns after every in-flight handler has finished.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = l.Close()
		return net.ErrClosed
	}
	s.lis = l
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, s.Close)
	defer stop()

	s.logger.Info("listening",
		log.Str("addr", l.Addr().String()),
		log.Int("workers", s.exec.Workers()),
		log.Dur("read_timeout", s.opts.ReadTimeout),
	)

	var backoff time.Duration
	for {
		conn, err := l.Accept()
		if err != nil {
			if s.isClosed() || errors.Is(err, net.ErrClosed) {
				break
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				backoff = nextBackoff(backoff)
				s.logger.Warn("accept failed; retrying", log.Err(err), log.Dur("backoff", backoff))
				time.Sleep(backoff)
				continue
			}
			s.exec.Wait()
			return err
		}
		backoff = 0
		if !s.exec.TryGo(func() { s.handleConn(conn) }) {
			s.logger.Debug("handler pool saturated; waiting for a worker")
			s.exec.Go(func() { s.handleConn(conn) })
		}
	}

	s.exec.Wait()
	s.logger.Info("stopped")
	return nil
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
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

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close stops accepting connections. Handlers already running finish on
// their own; Serve waits for them.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

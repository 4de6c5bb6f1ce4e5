// Package server owns the accept loop, the bounded worker pool and the
// per-connection lifecycle of a minimal single-request HTTP server.
package server

import (
	"context"
	"log/slog"
	"sync"

	"rawserve/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

type Server struct {
	l      transport.ConnListener
	router *Router

	logger *slog.Logger
	clock  clock.Clock
	opts   Options

	cancelAccept context.CancelFunc
	cancelConns  context.CancelFunc
	wg           sync.WaitGroup

	mu    sync.Mutex
	conns map[*conn]struct{}
}

func New(
	l transport.ConnListener,
	logger *slog.Logger,
	clk clock.Clock,
	router *Router,
	opts Options,
) *Server {
	if opts.WorkerPoolSize == 0 {
		opts.WorkerPoolSize = defaultPoolSize()
	}
	if opts.GracePeriod == 0 {
		opts.GracePeriod = defaultGracePeriod
	}

	return &Server{
		l:      l,
		router: router,
		logger: logger,
		clock:  clk,
		opts:   opts,
		conns:  make(map[*conn]struct{}),
	}
}

func (s *Server) Router() *Router { return s.router }

// Start launches the accept loop. Each accepted connection is handed
// start-to-finish to one worker; when the pool is exhausted, the loop
// blocks until a worker frees up.
func (s *Server) Start() {
	acceptCtx, cancelAccept := context.WithCancel(context.Background())
	connCtx, cancelConns := context.WithCancel(context.Background())
	s.cancelAccept = cancelAccept
	s.cancelConns = cancelConns

	workers := make(chan struct{}, s.opts.WorkerPoolSize)

	go func() {
		for {
			con, err := s.l.Accept(acceptCtx)
			if err != nil {
				if !errors.Is(err, context.Canceled) &&
					!errors.Is(err, transport.ErrConnListenerClosed) {
					s.logger.Error(
						"unexpected error when accepting connection",
						"error", err.Error(),
					)
				}
				return
			}

			select {
			case workers <- struct{}{}:
			case <-acceptCtx.Done():
				_ = con.Close()
				return
			}

			c := newConn(con, s.router, s.clock, s.logger.With("conn", con.RemoteAddr()), s.opts)
			s.track(c)

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer func() { <-workers }()
				defer s.untrack(c)
				c.start(connCtx)
			}()
		}
	}()
}

// Close stops accepting and drains in-flight connections. Connections
// that outlive the grace period are force-closed.
func (s *Server) Close() error {
	s.cancelAccept()
	if err := s.l.Close(); err != nil && !errors.Is(err, transport.ErrConnListenerClosed) {
		s.logger.Error("closing listener", "error", err)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-s.clock.After(s.opts.GracePeriod):
		s.logger.Warn("grace period expired, force closing connections")
		s.cancelConns()
		s.closeRemaining()
		<-done
	}

	s.cancelConns()
	return nil
}

func (s *Server) track(c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c] = struct{}{}
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

func (s *Server) closeRemaining() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.con.Close()
	}
}

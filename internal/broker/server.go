// Package broker accepts client connections and runs one protocol
// session per connection against a single shared job store.
package broker

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"tubeq/internal/store"
)

// Server owns the shared store and turns accepted connections into
// sessions. Configure the exported fields before calling Serve.
type Server struct {
	Store           *store.Store
	Logger          *slog.Logger
	WriteTimeout    time.Duration
	MaxCommandBytes int

	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	sessions sync.WaitGroup
}

func NewServer(st *store.Store, logger *slog.Logger) *Server {
	return &Server{
		Store:           st,
		Logger:          logger,
		WriteTimeout:    10 * time.Second,
		MaxCommandBytes: 64 * 1024,
	}
}

// Serve accepts connections from the listener until ctx is cancelled,
// spawning one session goroutine per connection. On cancellation it
// stops accepting, closes live connections to unblock their reads, and
// waits for every session to finish before returning.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.Logger.Info("broker listening", "addr", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.Logger.Error("accept failed", "error", err)
			continue
		}

		s.track(conn)
		s.sessions.Add(1)
		go func() {
			defer s.sessions.Done()
			defer s.untrack(conn)
			newSession(conn, s).run()
		}()
	}

	s.closeLiveConns()
	s.sessions.Wait()
	s.Logger.Info("broker stopped")
	return nil
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		s.conns = make(map[net.Conn]struct{})
	}
	s.conns[conn] = struct{}{}
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeLiveConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

// Package server implements the TCP match server: one handler goroutine per
// player plus the match clock, all sharing a single game.State.
package server

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/sasha-s/go-deadlock"

	"tilewar/internal/game"
	"tilewar/pkg/logger"
)

const (
	DefaultTickInterval = time.Second
	DefaultAckTimeout   = 30 * time.Second
)

// Config holds the match and runtime settings of one server
type Config struct {
	Options      game.Options
	TickInterval time.Duration
	AckTimeout   time.Duration

	// Observer, if set, receives every broadcast and the tally
	Observer Observer

	// Rand seeds board placement; nil uses the process-wide source
	Rand *rand.Rand
}

// Server runs a single match
type Server struct {
	cfg      Config
	state    *game.State
	observer Observer
	logger   *logger.Logger

	mu       deadlock.RWMutex
	listener net.Listener
	sessions []*session

	wg sync.WaitGroup
}

// NewServer validates cfg and seeds the match state
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = DefaultAckTimeout
	}

	observer := cfg.Observer
	if observer == nil {
		observer = noopObserver{}
	}

	return &Server{
		cfg:      cfg,
		state:    game.NewState(cfg.Options, cfg.Rand),
		observer: observer,
		logger:   logger.Server,
		sessions: make([]*session, cfg.Options.Players),
	}, nil
}

// State exposes the shared match state
func (s *Server) State() *game.State {
	return s.state
}

// ListenAndServe listens on address and runs the match
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts exactly one connection per player slot and returns once
// every handler and the clock have finished. Cancelling ctx aborts the match.
// An accept failure is returned after the match has been torn down.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	opts := s.cfg.Options
	s.logger.Info(
		"match setup: players %d, board %dx%d, tiles %d, time %ds, listening on %s",
		opts.Players, opts.Size, opts.Size, opts.Tiles, opts.PlayTime, listener.Addr(),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		s.shutdown()
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runClock(ctx)
	}()

	acceptErr := s.acceptPlayers(ctx, listener)
	if acceptErr != nil {
		cancel()
	} else {
		listener.Close()
	}

	s.wg.Wait()

	if acceptErr != nil {
		return acceptErr
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("match aborted: %w", err)
	}
	s.logger.Info("match finished")
	return nil
}

func (s *Server) acceptPlayers(ctx context.Context, listener net.Listener) error {
	for id := 0; id < s.cfg.Options.Players; id++ {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}

		sess := newSession(id, conn)
		s.mu.Lock()
		s.sessions[id] = sess
		s.mu.Unlock()

		s.logger.Info("player %d has connected", id)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(sess)
		}()
	}
	return nil
}

// shutdown releases barrier waiters and closes every socket
func (s *Server) shutdown() {
	s.state.Abort()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener != nil {
		s.listener.Close()
	}
	for _, sess := range s.sessions {
		if sess != nil {
			sess.close()
		}
	}
}

func (s *Server) session(id int) *session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

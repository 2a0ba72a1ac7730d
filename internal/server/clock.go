package server

import (
	"context"
	"time"

	"tilewar/pkg/logger"
)

// runClock drives the match timer. It starts once the readiness barrier
// opens, ticks every TickInterval, broadcasts each tick and, when time runs
// out, wakes every handler so each one delivers the tally to its own client.
func (s *Server) runClock(ctx context.Context) {
	if err := s.state.WaitForStart(); err != nil {
		logger.Match.Info("clock not started: %v", err)
		return
	}

	logger.Match.Info("all %d players ready, match started", s.state.PlayerNum())

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Match.Info("clock stopped: %v", ctx.Err())
			return
		case <-ticker.C:
		}

		snap, over := s.state.Tick()
		logger.Match.Debug("tick, %d seconds left", snap.RemainingTime)
		s.broadcast(snap)

		if over {
			tally, _ := s.state.Tally()
			logger.Match.Info(
				"time is up: red %d, blue %d, winner %c",
				tally.Red, tally.Blue, tally.Winner,
			)
			s.observer.PublishTally(tally)
			s.interruptReads()
			return
		}
	}
}

func (s *Server) interruptReads() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sess := range s.sessions {
		if sess != nil {
			sess.interrupt()
		}
	}
}

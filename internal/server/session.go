package server

import (
	"bufio"
	"net"
	"sync"
	"time"

	"tilewar/internal/game"
	"tilewar/internal/network"
	"tilewar/pkg/logger"
)

// session owns one player socket. Reads happen only on the handler
// goroutine; writes from the handler and the dispatcher are serialized by mu.
type session struct {
	id     int
	conn   net.Conn
	reader *bufio.Reader
	logger *logger.Logger

	mu          sync.Mutex
	lastVersion uint64
	sentAny     bool
	sentFinal   bool
	finished    bool

	deadlineMu sync.Mutex
	finishing  bool
}

func newSession(id int, conn net.Conn) *session {
	return &session{
		id:     id,
		conn:   conn,
		reader: bufio.NewReader(conn),
		logger: logger.Server.With("player", id),
	}
}

func (s *session) write(frame []byte) error {
	_, err := s.conn.Write(frame)
	return err
}

func (s *session) sendPlayerID() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(network.EncodePlayerID(s.id))
}

// sendSnapshot writes frame unless a newer snapshot, the final snapshot or
// the tally already went out on this socket.
func (s *session) sendSnapshot(snap game.Snapshot, frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished || s.sentFinal {
		return nil
	}
	if s.sentAny && snap.Version <= s.lastVersion {
		return nil
	}
	if err := s.write(frame); err != nil {
		return err
	}

	s.sentAny = true
	s.lastVersion = snap.Version
	s.sentFinal = snap.RemainingTime == 0
	return nil
}

// sendFinal writes the time-zero snapshot (if not already sent) followed by
// the tally. It runs at most once per session.
func (s *session) sendFinal(final game.Snapshot, tally game.Tally) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return nil
	}
	s.finished = true

	if !s.sentFinal {
		if err := s.write(network.EncodeSnapshot(final)); err != nil {
			return err
		}
		s.sentFinal = true
	}
	return s.write(network.EncodeTally(tally))
}

// interrupt wakes a handler blocked in a command read so it can notice the
// end of the match. It is a no-op once the handler entered its finish step.
func (s *session) interrupt() {
	s.deadlineMu.Lock()
	defer s.deadlineMu.Unlock()

	if s.finishing {
		return
	}
	s.conn.SetReadDeadline(time.Now())
}

// beginFinish stops further interrupts and arms the ack deadline
func (s *session) beginFinish(ackTimeout time.Duration) {
	s.deadlineMu.Lock()
	defer s.deadlineMu.Unlock()

	s.finishing = true
	var deadline time.Time
	if ackTimeout > 0 {
		deadline = time.Now().Add(ackTimeout)
	}
	s.conn.SetReadDeadline(deadline)
}

// fail closes the socket after a write error. The handler sees the closed
// socket on its next read and records the disconnect.
func (s *session) fail(err error) {
	s.logger.Debug("write failed, closing connection: %v", err)
	s.conn.Close()
}

func (s *session) close() error {
	return s.conn.Close()
}

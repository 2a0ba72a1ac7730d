package server

import (
	"errors"
	"io"

	"tilewar/internal/game"
	"tilewar/internal/network"
)

// handleConnection drives one player through
// connected -> awaiting ready -> waiting for barrier -> in match -> finished.
// Any read or write failure before the finish step is a disconnect.
func (s *Server) handleConnection(sess *session) {
	defer sess.close()

	s.state.Attach(sess.id)
	if err := sess.sendPlayerID(); err != nil {
		sess.logger.Info("failed to send player id: %v", err)
		s.disconnect(sess)
		return
	}
	sess.logger.Info("player %d connected from %s", sess.id, sess.conn.RemoteAddr())

	if err := s.awaitReady(sess); err != nil {
		sess.logger.Info("player %d disconnected before ready: %v", sess.id, err)
		s.disconnect(sess)
		return
	}

	if err := s.state.WaitForStart(); err != nil {
		sess.logger.Info("player %d released without a match: %v", sess.id, err)
		s.disconnect(sess)
		return
	}

	snap := s.state.Snapshot()
	if err := sess.sendSnapshot(snap, network.EncodeSnapshot(snap)); err != nil {
		sess.logger.Info("failed to send initial snapshot: %v", err)
		s.disconnect(sess)
		return
	}

	if err := s.commandLoop(sess); err != nil {
		sess.logger.Info("player %d disconnected during match: %v", sess.id, err)
		s.disconnect(sess)
		return
	}

	s.finish(sess)
}

// awaitReady reads until the ready token. Other bytes are ignored.
func (s *Server) awaitReady(sess *session) error {
	for {
		b, err := sess.reader.ReadByte()
		if err != nil {
			return err
		}
		if b != network.ReadyToken {
			continue
		}

		started := s.state.MarkReady(sess.id)
		sess.logger.Info(
			"player %d is ready (%d/%d)",
			sess.id, s.state.ReadyCount(), s.state.PlayerNum(),
		)
		if started {
			sess.logger.Info("last player ready, releasing barrier")
		}
		return nil
	}
}

// commandLoop applies commands until the clock runs out. It returns nil when
// the match is over and an error when the client went away.
func (s *Server) commandLoop(sess *session) error {
	for !s.state.Over() {
		b, err := sess.reader.ReadByte()
		if err != nil {
			if s.state.Over() {
				return nil
			}
			return err
		}

		snap, applied, err := s.state.Apply(sess.id, game.Command(b))
		if errors.Is(err, game.ErrMatchOver) {
			return nil
		}
		if !applied {
			sess.logger.Debug("ignoring byte %q", b)
			continue
		}

		sess.logger.Debug("command %q applied", b)
		s.broadcast(snap)
	}
	return nil
}

// finish delivers the tally once and waits for the client's quit ack
func (s *Server) finish(sess *session) {
	sess.beginFinish(s.cfg.AckTimeout)

	tally, _ := s.state.Tally()

	if err := sess.sendFinal(s.state.Snapshot(), tally); err != nil {
		sess.logger.Info("failed to send tally: %v", err)
		s.disconnect(sess)
		return
	}

	err := awaitAck(sess)
	switch {
	case err == nil:
		sess.logger.Debug("quit ack received")
	case errors.Is(err, io.EOF):
		sess.logger.Debug("client closed without ack")
	default:
		sess.logger.Info("no quit ack: %v", err)
	}

	sess.logger.Info("player %d finished", sess.id)
	s.disconnect(sess)
}

// awaitAck reads until the quit ack. Late command bytes are discarded; the
// read deadline armed by beginFinish bounds the wait.
func awaitAck(sess *session) error {
	for {
		b, err := sess.reader.ReadByte()
		if err != nil {
			return err
		}
		if b == network.QuitAck {
			return nil
		}
		sess.logger.Debug("discarding byte %q after the tally", b)
	}
}

func (s *Server) disconnect(sess *session) {
	s.state.Disconnect(sess.id)
}

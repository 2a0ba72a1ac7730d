// Package client implements the terminal client for the tile match server
package client

import (
	"bufio"
	"fmt"
	"net"

	"tilewar/internal/game"
	"tilewar/internal/network"
)

// Frame is one server message after the handshake: a snapshot, or the tally
// that follows the snapshot whose remaining time is zero.
type Frame struct {
	Snapshot *game.Snapshot
	Tally    *game.Tally
}

// Session speaks the wire protocol over one connection
type Session struct {
	conn     net.Conn
	reader   *bufio.Reader
	PlayerID int
	sawFinal bool
}

// Dial connects to the server at address
func Dial(address string) (*Session, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return NewSession(conn), nil
}

func NewSession(conn net.Conn) *Session {
	return &Session{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

// Handshake reads the player id assigned by the server
func (s *Session) Handshake() (int, error) {
	id, err := network.ReadPlayerID(s.reader)
	if err != nil {
		return 0, err
	}
	s.PlayerID = id
	return id, nil
}

func (s *Session) SendReady() error {
	return s.send(network.ReadyToken)
}

func (s *Session) SendCommand(cmd game.Command) error {
	return s.send(byte(cmd))
}

// Ack acknowledges the tally
func (s *Session) Ack() error {
	return s.send(network.QuitAck)
}

func (s *Session) send(b byte) error {
	if _, err := s.conn.Write([]byte{b}); err != nil {
		return fmt.Errorf("failed to send %q: %w", b, err)
	}
	return nil
}

// Next blocks for the next frame
func (s *Session) Next() (Frame, error) {
	if s.sawFinal {
		tally, err := network.ReadTally(s.reader)
		if err != nil {
			return Frame{}, err
		}
		return Frame{Tally: &tally}, nil
	}

	snap, err := network.ReadSnapshot(s.reader)
	if err != nil {
		return Frame{}, err
	}
	s.sawFinal = snap.RemainingTime == 0
	return Frame{Snapshot: &snap}, nil
}

func (s *Session) Close() error {
	return s.conn.Close()
}

// Package network implements the binary wire protocol between server and clients.
//
// All integers are 4-byte big-endian. Frames carry no type tag; the order of
// frames is fixed by the session:
//
//	server -> client  player id
//	client -> server  ready token 'y' (other bytes ignored)
//	server -> client  snapshot, repeated
//	client -> server  command bytes
//	server -> client  tally, after the snapshot with remaining time 0
//	client -> server  quit ack 'q'
package network

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"tilewar/internal/game"
)

const (
	ReadyToken byte = 'y'
	QuitAck    byte = 'q'
)

const (
	intSize      = 4
	headerSize   = 4 * intSize
	playerSize   = intSize + 1 + 4*intSize
	tallySize    = 2*intSize + 1
	maxDimension = 1 << 12
	maxPlayers   = 1 << 12
)

var ErrMalformedFrame = errors.New("malformed frame")

// EncodePlayerID builds the handshake frame
func EncodePlayerID(id int) []byte {
	buf := make([]byte, intSize)
	binary.BigEndian.PutUint32(buf, uint32(int32(id)))
	return buf
}

// ReadPlayerID reads the handshake frame
func ReadPlayerID(r io.Reader) (int, error) {
	var buf [intSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("failed to read player id: %w", err)
	}
	return int(int32(binary.BigEndian.Uint32(buf[:]))), nil
}

// EncodeSnapshot serializes the snapshot as
// time, width, height, player_num, rows of tile bytes, player records.
// The server-local socket handle field of a player record is always zero.
func EncodeSnapshot(snap game.Snapshot) []byte {
	size := headerSize + snap.Width*snap.Height + len(snap.Players)*playerSize
	buf := make([]byte, 0, size)

	buf = appendInt(buf, snap.RemainingTime)
	buf = appendInt(buf, snap.Width)
	buf = appendInt(buf, snap.Height)
	buf = appendInt(buf, len(snap.Players))

	for _, row := range snap.Board {
		for _, tile := range row {
			buf = append(buf, byte(tile))
		}
	}

	for _, p := range snap.Players {
		buf = appendInt(buf, p.ID)
		buf = append(buf, byte(p.Team))
		buf = appendInt(buf, p.X)
		buf = appendInt(buf, p.Y)
		buf = appendInt(buf, boolInt(p.Ready))
		buf = appendInt(buf, 0)
	}

	return buf
}

// ReadSnapshot reads one snapshot frame. Online is not carried on the wire
// and is left false in the decoded players.
func ReadSnapshot(r io.Reader) (game.Snapshot, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return game.Snapshot{}, fmt.Errorf("failed to read snapshot header: %w", err)
	}

	snap := game.Snapshot{
		RemainingTime: getInt(header[0:]),
		Width:         getInt(header[4:]),
		Height:        getInt(header[8:]),
	}
	playerNum := getInt(header[12:])

	if snap.Width < 0 || snap.Width > maxDimension ||
		snap.Height < 0 || snap.Height > maxDimension ||
		playerNum < 0 || playerNum > maxPlayers {
		return game.Snapshot{}, fmt.Errorf(
			"%w: %dx%d board with %d players",
			ErrMalformedFrame, snap.Width, snap.Height, playerNum,
		)
	}

	snap.Board = make(game.Board, snap.Height)
	for y := range snap.Board {
		row := make([]byte, snap.Width)
		if _, err := io.ReadFull(r, row); err != nil {
			return game.Snapshot{}, fmt.Errorf("failed to read board row %d: %w", y, err)
		}
		tiles := make([]game.Tile, snap.Width)
		for x, b := range row {
			tiles[x] = game.Tile(b)
		}
		snap.Board[y] = tiles
	}

	records := make([]byte, playerNum*playerSize)
	if _, err := io.ReadFull(r, records); err != nil {
		return game.Snapshot{}, fmt.Errorf("failed to read player records: %w", err)
	}

	snap.Players = make([]game.Player, playerNum)
	for i := range snap.Players {
		rec := records[i*playerSize:]
		snap.Players[i] = game.Player{
			ID:    getInt(rec[0:]),
			Team:  game.Team(rec[4]),
			X:     getInt(rec[5:]),
			Y:     getInt(rec[9:]),
			Ready: getInt(rec[13:]) != 0,
		}
	}

	return snap, nil
}

// EncodeTally builds the end-of-match frame: red, blue, winner byte
func EncodeTally(t game.Tally) []byte {
	buf := make([]byte, 0, tallySize)
	buf = appendInt(buf, t.Red)
	buf = appendInt(buf, t.Blue)
	return append(buf, byte(t.Winner))
}

// ReadTally reads the end-of-match frame
func ReadTally(r io.Reader) (game.Tally, error) {
	var buf [tallySize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return game.Tally{}, fmt.Errorf("failed to read tally: %w", err)
	}

	t := game.Tally{
		Red:    getInt(buf[0:]),
		Blue:   getInt(buf[4:]),
		Winner: game.Outcome(buf[8]),
	}
	switch t.Winner {
	case game.RedWins, game.BlueWins, game.Tie:
	default:
		return game.Tally{}, fmt.Errorf("%w: unknown winner %q", ErrMalformedFrame, buf[8])
	}
	return t, nil
}

func appendInt(buf []byte, v int) []byte {
	return binary.BigEndian.AppendUint32(buf, uint32(int32(v)))
}

func getInt(buf []byte) int {
	return int(int32(binary.BigEndian.Uint32(buf)))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

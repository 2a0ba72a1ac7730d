package client

import (
	"net"
	"strings"
	"testing"

	"github.com/nsf/termbox-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tilewar/internal/game"
	"tilewar/internal/network"
)

func testSnapshot(remaining int) game.Snapshot {
	board := game.NewBoard(2, 2)
	board.Set(1, 0, game.Red)
	return game.Snapshot{
		RemainingTime: remaining,
		Width:         2,
		Height:        2,
		Board:         board,
		Players: []game.Player{
			{ID: 0, Team: game.TeamRed, X: 0, Y: 1, Ready: true},
		},
	}
}

func TestSessionFollowsFrameOrder(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	tally := game.Tally{Red: 1, Blue: 0, Winner: game.RedWins}
	received := make(chan []byte, 1)
	go func() {
		serverConn.Write(network.EncodePlayerID(3))

		buf := make([]byte, 1)
		serverConn.Read(buf)
		received <- buf

		serverConn.Write(network.EncodeSnapshot(testSnapshot(2)))
		serverConn.Write(network.EncodeSnapshot(testSnapshot(0)))
		serverConn.Write(network.EncodeTally(tally))
	}()

	s := NewSession(clientConn)
	id, err := s.Handshake()
	require.NoError(t, err)
	assert.Equal(t, 3, id)
	assert.Equal(t, 3, s.PlayerID)

	require.NoError(t, s.SendReady())
	assert.Equal(t, []byte{network.ReadyToken}, <-received)

	frame, err := s.Next()
	require.NoError(t, err)
	require.NotNil(t, frame.Snapshot)
	assert.Nil(t, frame.Tally)
	assert.Equal(t, 2, frame.Snapshot.RemainingTime)
	assert.Equal(t, game.Red, frame.Snapshot.Board.At(1, 0))

	frame, err = s.Next()
	require.NoError(t, err)
	require.NotNil(t, frame.Snapshot)
	assert.Zero(t, frame.Snapshot.RemainingTime)

	frame, err = s.Next()
	require.NoError(t, err)
	assert.Nil(t, frame.Snapshot)
	require.NotNil(t, frame.Tally)
	assert.Equal(t, tally, *frame.Tally)
}

func TestSessionNextFailsOnClosedConnection(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	serverConn.Close()

	s := NewSession(clientConn)
	defer s.Close()

	_, err := s.Next()
	assert.Error(t, err)
}

func TestCommandForKey(t *testing.T) {
	tests := []struct {
		key  termbox.Key
		want game.Command
	}{
		{termbox.KeyArrowUp, game.CmdUp},
		{termbox.KeyArrowDown, game.CmdDown},
		{termbox.KeyArrowLeft, game.CmdLeft},
		{termbox.KeyArrowRight, game.CmdRight},
		{termbox.KeyEnter, game.CmdFlip},
		{termbox.KeySpace, game.CmdFlip},
	}
	for _, tt := range tests {
		cmd, ok := CommandForKey(termbox.Event{Type: termbox.EventKey, Key: tt.key})
		assert.True(t, ok)
		assert.Equal(t, tt.want, cmd)
	}

	_, ok := CommandForKey(termbox.Event{Type: termbox.EventKey, Ch: 'z'})
	assert.False(t, ok)
	_, ok = CommandForKey(termbox.Event{Type: termbox.EventResize})
	assert.False(t, ok)

	assert.True(t, IsQuitKey(termbox.Event{Type: termbox.EventKey, Key: termbox.KeyEsc}))
	assert.False(t, IsQuitKey(termbox.Event{Type: termbox.EventKey, Key: termbox.KeyArrowUp}))
}

func TestWaitForReady(t *testing.T) {
	assert.NoError(t, WaitForReady(strings.NewReader("no\nmaybe\ny\n")))
	assert.Error(t, WaitForReady(strings.NewReader("nope\n")))
}

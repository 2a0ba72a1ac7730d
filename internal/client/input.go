package client

import (
	"bufio"
	"io"

	"github.com/nsf/termbox-go"

	"tilewar/internal/game"
	"tilewar/internal/network"
)

// CommandForKey maps a terminal key event to a command byte
func CommandForKey(ev termbox.Event) (game.Command, bool) {
	if ev.Type != termbox.EventKey {
		return 0, false
	}

	switch ev.Key {
	case termbox.KeyArrowUp:
		return game.CmdUp, true
	case termbox.KeyArrowDown:
		return game.CmdDown, true
	case termbox.KeyArrowLeft:
		return game.CmdLeft, true
	case termbox.KeyArrowRight:
		return game.CmdRight, true
	case termbox.KeyEnter, termbox.KeySpace:
		return game.CmdFlip, true
	}
	return 0, false
}

// IsQuitKey reports whether the event asks to leave the board view
func IsQuitKey(ev termbox.Event) bool {
	return ev.Type == termbox.EventKey && (ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC)
}

// WaitForReady reads r until the ready token is typed
func WaitForReady(r io.Reader) error {
	br := bufio.NewReader(r)
	for {
		b, err := br.ReadByte()
		if err != nil {
			return err
		}
		if b == network.ReadyToken {
			return nil
		}
	}
}

package client

import (
	"errors"
	"fmt"
	"io"

	"github.com/nsf/termbox-go"

	"tilewar/internal/game"
	"tilewar/pkg/logger"
)

// Client is the interactive terminal client
type Client struct {
	address string
	stdin   io.Reader
	display *Display
	logger  *logger.Logger
	session *Session
}

func NewClient(address string, stdin io.Reader) *Client {
	return &Client{
		address: address,
		stdin:   stdin,
		display: NewDisplay(),
		logger:  logger.Client,
	}
}

// Start connects, waits for the local ready confirmation and plays the match
// until the tally arrives.
func (c *Client) Start() error {
	session, err := Dial(c.address)
	if err != nil {
		c.display.PrintError(err.Error())
		return err
	}
	c.session = session
	defer session.Close()

	id, err := session.Handshake()
	if err != nil {
		return fmt.Errorf("error receiving player id: %w", err)
	}
	c.display.PrintConnected(c.address, id)
	c.logger.Info("connected to %s as player %d", c.address, id)

	c.display.PrintReadyPrompt()
	if err := WaitForReady(c.stdin); err != nil {
		return fmt.Errorf("error reading confirmation: %w", err)
	}
	if err := session.SendReady(); err != nil {
		return err
	}
	c.display.PrintWaiting()

	first, err := session.Next()
	if err != nil {
		return fmt.Errorf("error receiving game info: %w", err)
	}

	tally, err := c.play(first)
	if err != nil {
		return err
	}

	c.display.PrintTally(tally, id)
	return session.Ack()
}

// play runs the board view until the tally arrives
func (c *Client) play(first Frame) (game.Tally, error) {
	if err := termbox.Init(); err != nil {
		return game.Tally{}, fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer termbox.Close()

	frames := make(chan Frame)
	frameErr := make(chan error, 1)
	go func() {
		for {
			frame, err := c.session.Next()
			if err != nil {
				frameErr <- err
				return
			}
			frames <- frame
			if frame.Tally != nil {
				return
			}
		}
	}()

	events := make(chan termbox.Event)
	go func() {
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				return
			}
			events <- ev
		}
	}()
	defer termbox.Interrupt()

	id := c.session.PlayerID
	frame := first
	for {
		if frame.Tally != nil {
			return *frame.Tally, nil
		}
		if frame.Snapshot != nil {
			RenderBoard(*frame.Snapshot, id)
		}

		select {
		case frame = <-frames:
		case err := <-frameErr:
			return game.Tally{}, fmt.Errorf("error receiving updated game info: %w", err)
		case ev := <-events:
			frame = Frame{}
			if IsQuitKey(ev) {
				return game.Tally{}, errors.New("quit before the end of the match")
			}
			cmd, ok := CommandForKey(ev)
			if !ok {
				continue
			}
			if err := c.session.SendCommand(cmd); err != nil {
				return game.Tally{}, err
			}
		}
	}
}

// Close drops the connection, unblocking any pending read
func (c *Client) Close() {
	if c.session != nil {
		c.session.Close()
	}
}

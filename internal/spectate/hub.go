// Package spectate streams match snapshots to read-only websocket viewers.
package spectate

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"tilewar/internal/game"
	"tilewar/pkg/logger"
)

const (
	KindSnapshot = "snapshot"
	KindTally    = "tally"

	writeTimeout = 5 * time.Second
)

type PlayerView struct {
	ID     int    `cbor:"id"`
	Team   string `cbor:"team"`
	X      int    `cbor:"x"`
	Y      int    `cbor:"y"`
	Ready  bool   `cbor:"ready"`
	Online bool   `cbor:"online"`
}

type TallyView struct {
	Red    int    `cbor:"red"`
	Blue   int    `cbor:"blue"`
	Winner string `cbor:"winner"`
}

// Frame is one CBOR message on the spectator socket
type Frame struct {
	Kind          string       `cbor:"kind"`
	RemainingTime int          `cbor:"time"`
	Width         int          `cbor:"width,omitempty"`
	Height        int          `cbor:"height,omitempty"`
	Rows          []string     `cbor:"rows,omitempty"`
	Players       []PlayerView `cbor:"players,omitempty"`
	Tally         *TallyView   `cbor:"tally,omitempty"`
}

type subscriber struct {
	id        uuid.UUID
	send      chan []byte
	closeSlow func()
}

// Hub fans frames out to subscribers. Subscribers that fall behind are
// disconnected instead of slowing the match down.
type Hub struct {
	messageLimit int

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	last        [][]byte
}

func NewHub() *Hub {
	return &Hub{
		messageLimit: 16,
		subscribers:  make(map[*subscriber]struct{}),
	}
}

func SnapshotFrame(snap game.Snapshot) Frame {
	frame := Frame{
		Kind:          KindSnapshot,
		RemainingTime: snap.RemainingTime,
		Width:         snap.Width,
		Height:        snap.Height,
		Rows:          make([]string, len(snap.Board)),
		Players:       make([]PlayerView, len(snap.Players)),
	}
	for y, row := range snap.Board {
		b := make([]byte, len(row))
		for x, t := range row {
			b[x] = byte(t)
		}
		frame.Rows[y] = string(b)
	}
	for i, p := range snap.Players {
		frame.Players[i] = PlayerView{
			ID:     p.ID,
			Team:   string(rune(p.Team)),
			X:      p.X,
			Y:      p.Y,
			Ready:  p.Ready,
			Online: p.Online,
		}
	}
	return frame
}

func TallyFrame(t game.Tally) Frame {
	return Frame{
		Kind: KindTally,
		Tally: &TallyView{
			Red:    t.Red,
			Blue:   t.Blue,
			Winner: string(rune(t.Winner)),
		},
	}
}

// PublishSnapshot implements server.Observer
func (h *Hub) PublishSnapshot(snap game.Snapshot) {
	h.publish(SnapshotFrame(snap), false)
}

// PublishTally implements server.Observer
func (h *Hub) PublishTally(t game.Tally) {
	h.publish(TallyFrame(t), true)
}

// publish encodes frame and queues it for every subscriber. The latest
// snapshot (and the tally, once known) is kept for late joiners.
func (h *Hub) publish(frame Frame, keep bool) {
	msg, err := cbor.Marshal(frame)
	if err != nil {
		logger.Spectate.Error("failed to encode %s frame: %v", frame.Kind, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if keep {
		h.last = append(h.last, msg)
	} else {
		h.last = [][]byte{msg}
	}

	for sub := range h.subscribers {
		select {
		case sub.send <- msg:
		default:
			go sub.closeSlow()
		}
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logger.Spectate.Info("failed to accept spectator: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "spectator feed failed")

	err = h.subscribe(r.Context(), c)
	if errors.Is(err, context.Canceled) {
		return
	}
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
		websocket.CloseStatus(err) == websocket.StatusGoingAway {
		return
	}
	if err != nil {
		logger.Spectate.Debug("spectator left: %v", err)
	}
}

func (h *Hub) subscribe(ctx context.Context, c *websocket.Conn) error {
	ctx = c.CloseRead(ctx)

	sub := &subscriber{
		id:   uuid.New(),
		send: make(chan []byte, h.messageLimit),
		closeSlow: func() {
			c.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with messages")
		},
	}

	backlog := h.add(sub)
	defer h.remove(sub)

	log := logger.Spectate.With("spectator", sub.id.String())
	log.Info("spectator joined")

	for _, msg := range backlog {
		if err := writeTimeoutFrame(ctx, c, msg); err != nil {
			return err
		}
	}

	for {
		select {
		case msg := <-sub.send:
			if err := writeTimeoutFrame(ctx, c, msg); err != nil {
				return err
			}
		case <-ctx.Done():
			log.Info("spectator left")
			return ctx.Err()
		}
	}
}

func (h *Hub) add(sub *subscriber) [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[sub] = struct{}{}
	return append([][]byte(nil), h.last...)
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subscribers, sub)
	h.mu.Unlock()
}

// Subscribers returns the number of connected spectators
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func writeTimeoutFrame(ctx context.Context, c *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.Write(ctx, websocket.MessageBinary, msg)
}

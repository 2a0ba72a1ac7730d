package server

import (
	"tilewar/internal/game"
	"tilewar/internal/network"
)

// Observer receives every broadcast snapshot and the final tally. The
// spectator feed implements it.
type Observer interface {
	PublishSnapshot(game.Snapshot)
	PublishTally(game.Tally)
}

type noopObserver struct{}

func (noopObserver) PublishSnapshot(game.Snapshot) {}
func (noopObserver) PublishTally(game.Tally)       {}

// broadcast sends snap to every ready, connected player. snap was taken
// under the game lock; the socket writes happen without it. A failed write
// closes that recipient only.
func (s *Server) broadcast(snap game.Snapshot) {
	frame := network.EncodeSnapshot(snap)

	for _, id := range snap.Recipients() {
		sess := s.session(id)
		if sess == nil {
			continue
		}
		if err := sess.sendSnapshot(snap, frame); err != nil {
			sess.fail(err)
		}
	}

	s.observer.PublishSnapshot(snap)
}

package game

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/sasha-s/go-deadlock"
)

var (
	// ErrAborted is returned by WaitForStart when the match was torn down
	// before every player signaled ready.
	ErrAborted = errors.New("match aborted before start")

	// ErrMatchOver is returned for commands that arrive after time ran out.
	ErrMatchOver = errors.New("match is over")
)

// State is the single shared match object. Every field is guarded by mu; the
// start condition shares the same lock.
type State struct {
	mu    deadlock.Mutex
	start *sync.Cond

	board      Board
	players    []Player
	width      int
	height     int
	tileNum    int
	remaining  int
	readyCount int
	playerNum  int
	version    uint64

	started bool
	aborted bool
	tally   *Tally
}

// NewState seeds a board and roster for opts. Placement is uniform rejection
// sampling; pass nil rng to use the process-wide source. opts must have
// passed Validate.
func NewState(opts Options, rng *rand.Rand) *State {
	intn := rand.Intn
	if rng != nil {
		intn = rng.Intn
	}

	s := &State{
		board:     NewBoard(opts.Size, opts.Size),
		players:   make([]Player, opts.Players),
		width:     opts.Size,
		height:    opts.Size,
		tileNum:   opts.Tiles,
		remaining: opts.PlayTime,
		playerNum: opts.Players,
	}
	s.start = sync.NewCond(&s.mu)

	redTiles := opts.Tiles / 2
	for i := 0; i < opts.Tiles; i++ {
		x, y := s.freeCell(intn)
		if i < redTiles {
			s.board.Set(x, y, Red)
		} else {
			s.board.Set(x, y, Blue)
		}
	}

	for id := range s.players {
		x, y := s.freeCell(intn)
		s.players[id] = Player{
			ID:   id,
			Team: TeamFor(id),
			X:    x,
			Y:    y,
		}
	}

	return s
}

// freeCell picks a random cell holding neither a tile nor a placed player.
func (s *State) freeCell(intn func(int) int) (int, int) {
	for {
		x, y := intn(s.width), intn(s.height)
		if s.board.At(x, y) != Empty {
			continue
		}
		if s.occupied(x, y) {
			continue
		}
		return x, y
	}
}

func (s *State) occupied(x, y int) bool {
	for _, p := range s.players {
		// unplaced slots have no team yet
		if p.Team != 0 && p.X == x && p.Y == y {
			return true
		}
	}
	return false
}

// Attach marks the slot as occupied by a live connection
func (s *State) Attach(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.players[id].Online = true
	s.version++
}

// MarkReady records the ready signal of id. When the last expected signal
// arrives the start condition is broadcast. Repeated signals are ignored.
// It returns whether the match has started.
func (s *State) MarkReady(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &s.players[id]
	if !p.Ready {
		p.Ready = true
		s.readyCount++
		s.version++
	}

	if !s.started && s.readyCount == s.playerNum {
		s.started = true
		s.start.Broadcast()
	}
	return s.started
}

// WaitForStart blocks until every expected player is ready or the match is
// aborted. The target never shrinks: a player lost before signaling ready
// keeps the barrier closed until Abort.
func (s *State) WaitForStart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for !s.started && !s.aborted {
		s.start.Wait()
	}
	if !s.started {
		return ErrAborted
	}
	return nil
}

// Abort releases every barrier waiter with ErrAborted if the match has not
// started yet.
func (s *State) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.aborted = true
	s.start.Broadcast()
}

// Disconnect clears the slot's connection and readiness. The ready count is
// kept equal to the number of ready players.
func (s *State) Disconnect(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &s.players[id]
	p.Online = false
	if p.Ready {
		p.Ready = false
		s.readyCount--
	}
	s.version++
}

// Apply runs cmd for player id. Unrecognized commands are ignored and
// reported as not applied. Once the clock reached zero Apply returns
// ErrMatchOver.
func (s *State) Apply(id int, cmd Command) (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.remaining <= 0 {
		return Snapshot{}, false, ErrMatchOver
	}
	if !applyCommand(s.board, &s.players[id], cmd) {
		return Snapshot{}, false, nil
	}
	s.version++
	return s.snapshotLocked(), true, nil
}

// Tick takes one second off the clock. When the clock reaches zero the tally
// is computed and stored; over reports that transition.
func (s *State) Tick() (snap Snapshot, over bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.remaining > 0 {
		s.remaining--
		s.version++
	}
	if s.remaining == 0 && s.tally == nil {
		tally := ComputeTally(s.board)
		s.tally = &tally
		over = true
	}
	return s.snapshotLocked(), over
}

// Snapshot copies the full state atomically
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	return Snapshot{
		Version:       s.version,
		RemainingTime: s.remaining,
		Width:         s.width,
		Height:        s.height,
		Board:         s.board.Clone(),
		Players:       append([]Player(nil), s.players...),
	}
}

// Tally returns the final tally once the clock has expired. The tally is
// computed once; later calls return the same value.
func (s *State) Tally() (Tally, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.remaining > 0 {
		return Tally{}, false
	}
	if s.tally == nil {
		tally := ComputeTally(s.board)
		s.tally = &tally
	}
	return *s.tally, true
}

func (s *State) Over() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining <= 0
}

func (s *State) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *State) ReadyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readyCount
}

func (s *State) Player(id int) Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players[id]
}

func (s *State) PlayerNum() int { return s.playerNum }

func (s *State) TileNum() int { return s.tileNum }

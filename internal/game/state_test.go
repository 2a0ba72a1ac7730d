package game

import (
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T, opts Options) *State {
	t.Helper()
	require.NoError(t, opts.Validate())
	return NewState(opts, rand.New(rand.NewSource(1)))
}

func TestNewStatePlacement(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		opts := Options{Players: 4, Size: 4, Tiles: 7, PlayTime: 10}
		s := NewState(opts, rand.New(rand.NewSource(seed)))
		snap := s.Snapshot()

		red, blue := snap.Board.Count()
		assert.Equal(t, 3, red, "red gets the floor half")
		assert.Equal(t, 4, blue)

		seen := map[[2]int]bool{}
		for id, p := range snap.Players {
			assert.Equal(t, id, p.ID)
			assert.Equal(t, TeamFor(id), p.Team)
			assert.True(t, snap.Board.InBounds(p.X, p.Y))
			assert.Equal(t, Empty, snap.Board.At(p.X, p.Y), "players start on empty cells")
			assert.False(t, seen[[2]int{p.X, p.Y}], "players start on distinct cells")
			seen[[2]int{p.X, p.Y}] = true
			assert.False(t, p.Ready)
			assert.False(t, p.Online)
		}

		assert.Equal(t, 10, snap.RemainingTime)
		assert.Equal(t, 7, s.TileNum())
		assert.Zero(t, s.ReadyCount())
	}
}

func TestTeamsAlternate(t *testing.T) {
	assert.Equal(t, TeamRed, TeamFor(0))
	assert.Equal(t, TeamBlue, TeamFor(1))
	assert.Equal(t, TeamRed, TeamFor(2))
	assert.Equal(t, Blue, TeamBlue.Tile())
	assert.Equal(t, Red, TeamRed.Tile())
}

func waitAll(s *State, n int) <-chan error {
	released := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			released <- s.WaitForStart()
		}()
	}
	return released
}

func TestBarrierWaitsForEveryPlayer(t *testing.T) {
	s := newTestState(t, Options{Players: 3, Size: 3, Tiles: 2, PlayTime: 5})
	released := waitAll(s, 3)

	assert.False(t, s.MarkReady(0))
	assert.False(t, s.MarkReady(1))
	assert.Equal(t, 2, s.ReadyCount())

	select {
	case <-released:
		t.Fatal("barrier released with 2 of 3 players ready")
	case <-time.After(50 * time.Millisecond):
	}

	assert.True(t, s.MarkReady(2))
	for i := 0; i < 3; i++ {
		select {
		case err := <-released:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("barrier did not release every waiter")
		}
	}
	assert.True(t, s.Started())

	// late waiters pass straight through
	assert.NoError(t, s.WaitForStart())
}

func TestRepeatedReadyCountsOnce(t *testing.T) {
	s := newTestState(t, Options{Players: 2, Size: 3, Tiles: 2, PlayTime: 5})

	s.MarkReady(0)
	s.MarkReady(0)
	assert.Equal(t, 1, s.ReadyCount())
	assert.False(t, s.Started())
}

func TestDisconnectBeforeReadyStallsUntilAbort(t *testing.T) {
	s := newTestState(t, Options{Players: 2, Size: 3, Tiles: 2, PlayTime: 5})
	s.Attach(0)
	s.Attach(1)

	s.Disconnect(1)
	released := waitAll(s, 1)
	s.MarkReady(0)

	select {
	case <-released:
		t.Fatal("target must not shrink when a player leaves before ready")
	case <-time.After(50 * time.Millisecond):
	}

	s.Abort()
	select {
	case err := <-released:
		assert.ErrorIs(t, err, ErrAborted)
	case <-time.After(time.Second):
		t.Fatal("abort did not release the waiter")
	}
}

func TestDisconnectKeepsReadyCount(t *testing.T) {
	s := newTestState(t, Options{Players: 3, Size: 3, Tiles: 2, PlayTime: 5})
	for id := 0; id < 3; id++ {
		s.Attach(id)
		s.MarkReady(id)
	}
	require.True(t, s.Started())

	s.Disconnect(1)
	assert.Equal(t, 2, s.ReadyCount())
	p := s.Player(1)
	assert.False(t, p.Online)
	assert.False(t, p.Ready)

	s.Disconnect(1)
	assert.Equal(t, 2, s.ReadyCount())
	assert.True(t, s.Started(), "start is latched")
	assert.Equal(t, []int{0, 2}, s.Snapshot().Recipients())
}

func TestTickExpiresMatch(t *testing.T) {
	s := newTestState(t, Options{Players: 1, Size: 3, Tiles: 3, PlayTime: 2})

	_, ok := s.Tally()
	assert.False(t, ok)

	snap, over := s.Tick()
	assert.Equal(t, 1, snap.RemainingTime)
	assert.False(t, over)
	assert.False(t, s.Over())

	snap, over = s.Tick()
	assert.Equal(t, 0, snap.RemainingTime)
	assert.True(t, over)
	assert.True(t, s.Over())

	tally, ok := s.Tally()
	require.True(t, ok)
	assert.Equal(t, ComputeTally(snap.Board), tally)

	_, applied, err := s.Apply(0, CmdFlip)
	assert.ErrorIs(t, err, ErrMatchOver)
	assert.False(t, applied)

	snap, over = s.Tick()
	assert.Equal(t, 0, snap.RemainingTime, "time never goes negative")
	assert.False(t, over, "expiry is reported once")
}

type applied struct {
	version uint64
	id      int
	cmd     Command
}

// Concurrent commands end in the same state as replaying them one by one in
// the order the lock admitted them.
func TestConcurrentCommandsSerialize(t *testing.T) {
	const players = 6
	s := newTestState(t, Options{Players: players, Size: 5, Tiles: 12, PlayTime: 60})
	initial := s.Snapshot()

	var (
		mu  sync.Mutex
		log []applied
		wg  sync.WaitGroup
	)
	cmds := []Command{CmdUp, CmdDown, CmdLeft, CmdRight, CmdFlip, 'x'}

	for id := 0; id < players; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(id)))
			for i := 0; i < 200; i++ {
				cmd := cmds[rng.Intn(len(cmds))]
				snap, ok, err := s.Apply(id, cmd)
				if err != nil || !ok {
					continue
				}
				mu.Lock()
				log = append(log, applied{version: snap.Version, id: id, cmd: cmd})
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	sort.Slice(log, func(i, j int) bool { return log[i].version < log[j].version })
	for i := 1; i < len(log); i++ {
		require.NotEqual(t, log[i-1].version, log[i].version, "each mutation gets its own version")
	}

	board := initial.Board.Clone()
	roster := append([]Player(nil), initial.Players...)
	for _, a := range log {
		applyCommand(board, &roster[a.id], a.cmd)
	}

	final := s.Snapshot()
	assert.Equal(t, board, final.Board)
	assert.Equal(t, roster, final.Players)
}

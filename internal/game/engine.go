// Package game implements the match model: board, roster, commands and the
// lock-guarded shared state.
package game

// applyCommand mutates board and player for one command. Moves clamp to the
// board edges and ignore tiles and other players; a flip toggles the tile
// under the player. Callers hold the game lock.
func applyCommand(board Board, player *Player, cmd Command) bool {
	x, y := player.X, player.Y

	switch cmd {
	case CmdUp:
		y--
	case CmdDown:
		y++
	case CmdLeft:
		x--
	case CmdRight:
		x++
	case CmdFlip:
		board.Flip(player.X, player.Y)
		return true
	default:
		return false
	}

	player.X = clamp(x, 0, board.Width()-1)
	player.Y = clamp(y, 0, board.Height()-1)
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ComputeTally counts red and blue tiles and picks the winner
func ComputeTally(board Board) Tally {
	red, blue := board.Count()

	tally := Tally{Red: red, Blue: blue, Winner: Tie}
	switch {
	case red > blue:
		tally.Winner = RedWins
	case blue > red:
		tally.Winner = BlueWins
	}
	return tally
}

// Snapshot is a copy of the game state taken under the game lock
type Snapshot struct {
	Version       uint64
	RemainingTime int
	Width         int
	Height        int
	Board         Board
	Players       []Player
}

// Recipients returns the ids of players that should receive broadcasts:
// ready and still connected.
func (s Snapshot) Recipients() []int {
	ids := make([]int, 0, len(s.Players))
	for _, p := range s.Players {
		if p.Ready && p.Online {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

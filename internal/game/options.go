package game

import (
	"errors"
	"fmt"
)

// Options describes one match
type Options struct {
	Players  int // player_num
	Size     int // square board side
	Tiles    int // tile_num
	PlayTime int // seconds
}

var ErrInvalidOptions = errors.New("invalid match options")

// Validate enforces the preconditions NewState relies on, including that the
// board has room for every tile and every player on distinct cells.
func (o Options) Validate() error {
	switch {
	case o.Players < 1:
		return fmt.Errorf("%w: need at least one player, got %d", ErrInvalidOptions, o.Players)
	case o.Size < 1:
		return fmt.Errorf("%w: board size must be positive, got %d", ErrInvalidOptions, o.Size)
	case o.Tiles < 0:
		return fmt.Errorf("%w: tile count must not be negative, got %d", ErrInvalidOptions, o.Tiles)
	case o.PlayTime < 1:
		return fmt.Errorf("%w: play time must be at least one second, got %d", ErrInvalidOptions, o.PlayTime)
	case o.Size*o.Size < o.Tiles+o.Players:
		return fmt.Errorf(
			"%w: %dx%d board cannot hold %d tiles and %d players",
			ErrInvalidOptions, o.Size, o.Size, o.Tiles, o.Players,
		)
	}
	return nil
}

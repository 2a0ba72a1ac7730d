package game

// Tile is the ownership state of one board cell. The byte values are the ones
// sent on the wire.
type Tile byte

const (
	Empty Tile = ' '
	Red   Tile = 'R'
	Blue  Tile = 'B'
)

// Team is the side a player plays for
type Team byte

const (
	TeamRed  Team = 'R'
	TeamBlue Team = 'B'
)

// Tile returns the tile color owned by the team
func (t Team) Tile() Tile {
	if t == TeamBlue {
		return Blue
	}
	return Red
}

// TeamFor assigns Red to even ids and Blue to odd ids.
func TeamFor(id int) Team {
	if id%2 == 0 {
		return TeamRed
	}
	return TeamBlue
}

// Command is a single in-match command byte sent by a client
type Command byte

const (
	CmdUp    Command = 'u'
	CmdDown  Command = 'd'
	CmdLeft  Command = 'l'
	CmdRight Command = 'r'
	CmdFlip  Command = ' '
)

// Valid reports whether c is one of the recognized commands
func (c Command) Valid() bool {
	switch c {
	case CmdUp, CmdDown, CmdLeft, CmdRight, CmdFlip:
		return true
	}
	return false
}

// Player is one roster slot. Slots exist for the whole match; Online tracks
// whether a client currently occupies it.
type Player struct {
	ID     int
	Team   Team
	X      int
	Y      int
	Ready  bool
	Online bool
}

// Outcome is the winner byte of the final tally
type Outcome byte

const (
	RedWins  Outcome = 'R'
	BlueWins Outcome = 'B'
	Tie      Outcome = 'T'
)

// Tally is the end-of-match tile count
type Tally struct {
	Red    int
	Blue   int
	Winner Outcome
}

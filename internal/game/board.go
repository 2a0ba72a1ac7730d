package game

// Board is a height x width grid of tiles, indexed [y][x].
// It has no locking of its own; State guards it.
type Board [][]Tile

// NewBoard returns an all-empty board
func NewBoard(width, height int) Board {
	board := make(Board, height)
	for y := range board {
		row := make([]Tile, width)
		for x := range row {
			row[x] = Empty
		}
		board[y] = row
	}
	return board
}

func (b Board) Height() int { return len(b) }

func (b Board) Width() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

// InBounds reports whether (x, y) is a cell of the board
func (b Board) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && y < b.Height() && x < b.Width()
}

func (b Board) At(x, y int) Tile { return b[y][x] }

func (b Board) Set(x, y int, t Tile) { b[y][x] = t }

// Flip swaps Red and Blue at (x, y). Empty cells are left alone.
func (b Board) Flip(x, y int) {
	switch b[y][x] {
	case Red:
		b[y][x] = Blue
	case Blue:
		b[y][x] = Red
	}
}

// Count returns the number of red and blue tiles
func (b Board) Count() (red, blue int) {
	for _, row := range b {
		for _, t := range row {
			switch t {
			case Red:
				red++
			case Blue:
				blue++
			}
		}
	}
	return red, blue
}

// Clone returns a deep copy
func (b Board) Clone() Board {
	out := make(Board, len(b))
	for y, row := range b {
		out[y] = append([]Tile(nil), row...)
	}
	return out
}

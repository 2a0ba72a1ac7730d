package client

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/nsf/termbox-go"

	"tilewar/internal/game"
)

// Display prints status lines with colors and draws the board with termbox
type Display struct {
	infoColor    *color.Color
	connectColor *color.Color
	warningColor *color.Color
	errorColor   *color.Color
	redColor     *color.Color
	blueColor    *color.Color
	tieColor     *color.Color
}

func NewDisplay() *Display {
	return &Display{
		infoColor:    color.New(color.FgWhite),
		connectColor: color.New(color.FgGreen, color.Bold),
		warningColor: color.New(color.FgYellow),
		errorColor:   color.New(color.FgRed, color.Bold),
		redColor:     color.New(color.FgRed, color.Bold),
		blueColor:    color.New(color.FgBlue, color.Bold),
		tieColor:     color.New(color.FgYellow, color.Bold),
	}
}

func (d *Display) PrintConnected(address string, id int) {
	timestamp := time.Now().Format("15:04:05")
	d.connectColor.Printf("[%s] [CONNECTED] %s as player %d (%s team)\n",
		timestamp, address, id, teamName(game.TeamFor(id)))
}

func (d *Display) PrintReadyPrompt() {
	d.warningColor.Print("Press 'y' to confirm connection: ")
}

func (d *Display) PrintWaiting() {
	d.infoColor.Println("Waiting for the other players...")
}

func (d *Display) PrintError(message string) {
	d.errorColor.Printf("[ERROR] %s\n", message)
}

// PrintTally shows the final result from the point of view of player id
func (d *Display) PrintTally(t game.Tally, id int) {
	d.infoColor.Println("\n[GAME ENDED]")
	d.redColor.Printf("RED  %d\n", t.Red)
	d.blueColor.Printf("BLUE %d\n", t.Blue)

	mine := game.TeamFor(id)
	switch {
	case t.Winner == game.Tie:
		d.tieColor.Println("TIE!")
	case byte(t.Winner) == byte(mine):
		d.colorFor(mine).Println("VICTORY!")
	default:
		d.colorFor(mine).Println("DEFEAT!")
	}
}

func (d *Display) colorFor(t game.Team) *color.Color {
	if t == game.TeamBlue {
		return d.blueColor
	}
	return d.redColor
}

func teamName(t game.Team) string {
	if t == game.TeamBlue {
		return "blue"
	}
	return "red"
}

const cellWidth = 3

// RenderBoard draws the snapshot. Players are drawn as [O] in their team
// color on top of tiles.
func RenderBoard(snap game.Snapshot, id int) {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)

	drawText(0, 0, fmt.Sprintf("Player %d  |  time left %ds", id, snap.RemainingTime), termbox.ColorDefault)

	for y, row := range snap.Board {
		for x, tile := range row {
			text, fg := cellText(tile)
			if p, ok := playerAt(snap.Players, x, y); ok {
				text, fg = "[O]", teamColor(p.Team)
				if p.ID == id {
					fg |= termbox.AttrBold
				}
			}
			drawText(x*cellWidth, y+2, text, fg)
		}
	}

	drawText(0, len(snap.Board)+3, "arrows: move   enter: flip   esc: quit", termbox.ColorDefault)
	termbox.Flush()
}

func cellText(t game.Tile) (string, termbox.Attribute) {
	switch t {
	case game.Red:
		return "[R]", termbox.ColorRed
	case game.Blue:
		return "[B]", termbox.ColorBlue
	default:
		return "[ ]", termbox.ColorDefault
	}
}

func teamColor(t game.Team) termbox.Attribute {
	if t == game.TeamBlue {
		return termbox.ColorBlue
	}
	return termbox.ColorRed
}

func playerAt(players []game.Player, x, y int) (game.Player, bool) {
	for _, p := range players {
		if p.X == x && p.Y == y {
			return p, true
		}
	}
	return game.Player{}, false
}

func drawText(x, y int, text string, fg termbox.Attribute) {
	for i, r := range text {
		termbox.SetCell(x+i, y, r, fg, termbox.ColorDefault)
	}
}

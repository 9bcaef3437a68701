// Package render draws sessions as text frames for terminals and logs.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/nicksrusso/generals-bots/game"
)

// agentColors cycles ANSI foreground codes per agent index.
var agentColors = []string{"31", "34", "32", "33", "35", "36"}

const cellWidth = 6

// Renderer writes one frame per call to a caller-owned writer. Color
// wraps owned cells in per-agent ANSI codes; plain output stays free of
// escape sequences.
type Renderer struct {
	writer io.Writer
	color  bool
}

func New(writer io.Writer, color bool) *Renderer {
	return &Renderer{writer: writer, color: color}
}

// Frame writes the current board and scoreboard: one fixed-width token
// per cell (terrain symbol plus the rounded army total) and one score
// line per agent in priority order.
func (r *Renderer) Frame(g *game.Game) error {
	var b strings.Builder
	grid := g.Grid()

	fmt.Fprintf(&b, "tick %d\n", g.Tick())
	for row := 0; row < grid.Height(); row++ {
		var line strings.Builder
		for col := 0; col < grid.Width(); col++ {
			cell := grid.Index(row, col)
			token := r.token(grid, cell)
			line.WriteString(token)
			for pad := cellWidth - tokenWidth(token); pad > 0; pad-- {
				line.WriteByte(' ')
			}
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteByte('\n')
	}

	infos := g.Infos()
	for _, id := range g.AgentOrder() {
		info := infos[id]
		fmt.Fprintf(&b, "%s: army=%d land=%d", id, info.Army, info.Land)
		if info.IsWinner {
			b.WriteString(" (winner)")
		}
		b.WriteByte('\n')
	}

	if _, err := io.WriteString(r.writer, b.String()); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

func (r *Renderer) token(grid *game.Grid, cell int) string {
	if grid.Mountain(cell) {
		return "#"
	}

	symbol := "."
	switch {
	case grid.General(cell):
		symbol = "G"
	case grid.City(cell):
		symbol = "C"
	}

	token := symbol
	if army := grid.TotalArmy(cell); army > 0 {
		token = fmt.Sprintf("%s%d", symbol, int(army))
	}

	owner := grid.OwnerAt(cell)
	if r.color && owner != game.NeutralOwner {
		color := agentColors[owner%len(agentColors)]
		return "\x1b[" + color + "m" + token + "\x1b[0m"
	}
	return token
}

// tokenWidth counts printable characters, skipping ANSI escapes.
func tokenWidth(token string) int {
	width := 0
	inEscape := false
	for _, r := range token {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			width++
		}
	}
	return width
}

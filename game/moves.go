package game

import "github.com/nicksrusso/generals-bots/utils"

// pass is the canonical no-op action.
var pass = Action{Pass: true}

// ValidActions enumerates the moves this observation supports: one action
// per owned cell, unit type, and direction where at least one unit can
// move out. Destinations are always visible from an owned source, so the
// mountain check never guesses through fog. Passing is always allowed on
// top of the returned set.
func (o *Observation) ValidActions() []Action {
	var actions []Action
	for row := 0; row < o.Height; row++ {
		for col := 0; col < o.Width; col++ {
			src := o.Index(row, col)
			if !o.OwnedCells[src] {
				continue
			}
			for _, t := range UnitTypes {
				// Moving leaves one unit behind, so two are needed.
				if o.Units[t][src] < 2 {
					continue
				}
				for _, d := range Directions {
					destRow, destCol := neighbor(row, col, d)
					if !o.InBounds(destRow, destCol) {
						continue
					}
					if o.Mountains[o.Index(destRow, destCol)] {
						continue
					}
					actions = append(actions, Action{
						Row:       row,
						Col:       col,
						Direction: d,
						UnitType:  t,
					})
				}
			}
		}
	}
	return actions
}

// LegalActions enumerates an agent's actions against the true board, for
// search and engine-side validation. Passing is always legal and comes
// first. Split variants are included only when they move a different
// force than the full move.
func (g *Game) LegalActions(agentID string) []Action {
	agent := g.agentIndex(agentID)
	if agent < 0 {
		return nil
	}

	actions := []Action{pass}
	grid := g.grid
	for row := 0; row < grid.Height(); row++ {
		for col := 0; col < grid.Width(); col++ {
			src := grid.Index(row, col)
			if !grid.Owns(agent, src) {
				continue
			}
			for _, t := range UnitTypes {
				count := grid.UnitCount(t, src)
				if count < 2 {
					continue
				}
				for _, d := range Directions {
					destRow, destCol := neighbor(row, col, d)
					if !grid.InBounds(destRow, destCol) {
						continue
					}
					if grid.Mountain(grid.Index(destRow, destCol)) {
						continue
					}
					move := Action{
						Row:       row,
						Col:       col,
						Direction: d,
						UnitType:  t,
					}
					actions = append(actions, move)
					if count > 2 {
						move.Split = true
						actions = append(actions, move)
					}
				}
			}
		}
	}
	return actions
}

func (g *Game) agentIndex(agentID string) int {
	return utils.FindIndex(g.agents, agentID)
}

func neighbor(row, col int, d Direction) (int, int) {
	dr, dc := d.Offset()
	return row + dr, col + dc
}

package agents

import (
	"github.com/nicksrusso/generals-bots/game"
)

// captureThreshold is the minimum win probability before a fight is worth
// picking over a pass.
const captureThreshold = 0.5

// Expander grows territory greedily: each tick it scans every valid move,
// estimates the odds of taking the destination, and plays the most
// promising capture. Opponent cells are preferred over neutral ones, and
// fights it expects to lose are left alone.
type Expander struct {
	name string
}

func NewExpander(name string) *Expander {
	return &Expander{name: name}
}

func (a *Expander) Name() string {
	return a.name
}

func (a *Expander) Reset() {}

func (a *Expander) Act(observation game.Observation) game.Action {
	var bestOpponent, bestNeutral game.Action
	opponentOdds, neutralOdds := captureThreshold, captureThreshold

	for _, action := range observation.ValidActions() {
		dest := destination(&observation, action)
		if observation.OwnedCells[dest] {
			continue
		}

		src := observation.Index(action.Row, action.Col)
		// All but one unit joins the attack.
		committed := observation.Units[action.UnitType][src] - 1
		var defender game.Units
		for _, t := range game.UnitTypes {
			defender[t] = observation.Units[t][dest]
		}

		odds := game.PredictOutcome(action.UnitType, committed, defender)
		switch {
		case observation.OpponentCells[dest] && odds > opponentOdds:
			bestOpponent, opponentOdds = action, odds
		case observation.NeutralCells[dest] && odds > neutralOdds:
			bestNeutral, neutralOdds = action, odds
		}
	}

	if opponentOdds > captureThreshold {
		return bestOpponent
	}
	if neutralOdds > captureThreshold {
		return bestNeutral
	}
	return game.Action{Pass: true}
}

func destination(o *game.Observation, action game.Action) int {
	dr, dc := action.Direction.Offset()
	return o.Index(action.Row+dr, action.Col+dc)
}

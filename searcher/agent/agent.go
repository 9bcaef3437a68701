package agent

import (
	"github.com/nicksrusso/generals-bots/experiments/metrics"
	"github.com/nicksrusso/generals-bots/game"
	"github.com/nicksrusso/generals-bots/searcher"
)

type Agent interface {
	// FindMove returns an action and performance metrics (if collected) from
	// the simulation process.
	FindMove(state game.State, updates []searcher.Segment) (game.Action, metrics.SearchMetric)
}

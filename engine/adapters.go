package engine

import (
	"time"

	"github.com/nicksrusso/generals-bots/agents"
	"github.com/nicksrusso/generals-bots/experiments/metrics"
	"github.com/nicksrusso/generals-bots/game"
	"github.com/nicksrusso/generals-bots/searcher"
	"github.com/nicksrusso/generals-bots/searcher/agent"
)

// SearchAdapter runs a tree-search agent as a mover. The agent searches a
// view of the session with its own player staged first on every tick, and
// its answer is validated against the true legal set before it reaches
// the session.
type SearchAdapter struct {
	Internal agent.Agent
}

func (a SearchAdapter) FindAction(session *game.Game, player string, lineage []searcher.Segment) (game.Action, metrics.SearchMetric) {
	state := game.NewSearchStateFor(session, player)
	candidate, metric := a.Internal.FindMove(state, lineage)

	legal := session.LegalActions(player)
	if len(legal) == 0 {
		panic("no legal actions at all")
	}
	for _, action := range legal {
		if action == candidate {
			return candidate, metric
		}
	}
	// Pass always heads the legal set.
	return legal[0], metric
}

// BotAdapter runs an observation-driven bot as a mover. The metric
// carries only the decision time, there is no search to report.
type BotAdapter struct {
	Internal agents.Agent
}

func (a BotAdapter) FindAction(session *game.Game, player string, _ []searcher.Segment) (game.Action, metrics.SearchMetric) {
	start := time.Now()
	action := a.Internal.Act(session.Observations()[player])
	return action, metrics.SearchMetric{Duration: time.Since(start)}
}

// NewWithAgents wires observation-driven players into a local engine.
// Remote matches are this plus remote clients as the players.
func NewWithAgents(session *game.Game, players map[string]agents.Agent, options ...LocalOption) *Local {
	movers := make(map[string]Mover, len(players))
	for id, player := range players {
		movers[id] = BotAdapter{Internal: player}
	}
	return NewLocal(session, movers, options...)
}

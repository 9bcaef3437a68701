// Package engine drives complete sessions: it collects one action per
// agent per tick from pluggable movers, advances the shared session, and
// feeds every searching agent the tick history it needs for tree reuse.
package engine

import (
	"github.com/nicksrusso/generals-bots/experiments/metrics"
	"github.com/nicksrusso/generals-bots/game"
	"github.com/nicksrusso/generals-bots/searcher"
)

// Engine runs a session until a general falls or a truncation limit hits.
type Engine interface {
	Run() (winner string, gameMetric metrics.GameMetric, moveMetrics []metrics.MoveMetric)
}

// Mover produces one agent's action for the upcoming tick. The lineage
// lists the tick segments resolved since this mover last acted, hashed in
// the mover's own staging rotation.
type Mover interface {
	FindAction(session *game.Game, player string, lineage []searcher.Segment) (game.Action, metrics.SearchMetric)
}

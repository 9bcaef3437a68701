// Package agents provides observation-driven players: each sees only its
// own fogged view of the session and replies with one action per tick.
package agents

import "github.com/nicksrusso/generals-bots/game"

type Agent interface {
	Name() string
	Act(observation game.Observation) game.Action
	// Reset clears any per-session state before a new game starts.
	Reset()
}

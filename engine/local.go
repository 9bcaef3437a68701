package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nicksrusso/generals-bots/experiments/metrics"
	"github.com/nicksrusso/generals-bots/game"
	"github.com/nicksrusso/generals-bots/searcher"
)

// Observer sees every resolved tick: the joint action just applied and
// the session after it. Recorders and spectator streams hang off this.
type Observer interface {
	OnTick(session *game.Game, actions map[string]game.Action)
}

type LocalOption func(e *Local)

func WithObservers(observers ...Observer) LocalOption {
	return func(e *Local) {
		e.observers = append(e.observers, observers...)
	}
}

// Local runs a full session in-process, one joint action per tick.
type Local struct {
	session   *game.Game
	movers    map[string]Mover
	observers []Observer

	// pending accumulates, per agent, the tick segments resolved since that
	// agent last acted, each hashed in the agent's own staging rotation.
	pending map[string][]searcher.Segment
}

func NewLocal(session *game.Game, movers map[string]Mover, options ...LocalOption) *Local {
	if len(movers) != len(session.Agents()) {
		panic("number of movers does not match number of agents")
	}
	for _, id := range session.Agents() {
		if _, ok := movers[id]; !ok {
			panic(fmt.Sprintf("agent %q has no mover", id))
		}
	}
	e := &Local{
		session: session,
		movers:  movers,
		pending: make(map[string][]searcher.Segment, len(movers)),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Run plays the session until a general falls or a truncation limit hits.
// The winner is empty on truncation.
func (e *Local) Run() (string, metrics.GameMetric, []metrics.MoveMetric) {
	start := time.Now()
	startingPlayer := e.session.AgentOrder()[0]
	log.Info().Msgf("%s has first-move priority", startingPlayer)

	var moveMetrics []metrics.MoveMetric
	for !e.session.IsDone() && !e.session.Truncated() {
		step := e.session.Tick() + 1
		actions := make(map[string]game.Action, len(e.movers))
		for _, id := range e.session.AgentOrder() {
			lineage := e.pending[id]
			e.pending[id] = nil

			action, searchMetric := e.movers[id].FindAction(e.session, id, lineage)
			actions[id] = action
			moveMetrics = append(moveMetrics, metrics.MoveMetric{
				Step:         step,
				Player:       id,
				SearchMetric: searchMetric,
			})
		}

		e.recordSegments(actions)
		e.session.Step(actions)
		for _, observer := range e.observers {
			observer.OnTick(e.session, actions)
		}
	}

	end := time.Now()
	winner := e.session.Winner()
	if winner != "" {
		log.Info().Msgf("%s wins after %d ticks", winner, e.session.Tick())
	} else {
		log.Info().Msgf("session truncated after %d ticks", e.session.Tick())
	}

	return winner, metrics.GameMetric{
		StartingPlayer: startingPlayer,
		Winner:         winner,
		StartTime:      start,
		EndTime:        end,
		Duration:       end.Sub(start),
		TotalMoves:     len(moveMetrics),
	}, moveMetrics
}

// recordSegments replays the tick once per agent in that agent's own
// staging rotation, so each recorded hash matches a node in that agent's
// search tree.
func (e *Local) recordSegments(actions map[string]game.Action) {
	for _, id := range e.session.AgentOrder() {
		var state game.State = game.NewSearchStateFor(e.session, id)
		for range e.session.Agents() {
			action := actions[state.Player()]
			state = state.Play(action)
			e.pending[id] = append(e.pending[id], searcher.Segment{
				Action:    action,
				StateHash: state.Hash(),
			})
		}
	}
}

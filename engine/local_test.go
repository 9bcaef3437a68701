package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nicksrusso/generals-bots/agents"
	"github.com/nicksrusso/generals-bots/experiments/metrics"
	"github.com/nicksrusso/generals-bots/game"
	"github.com/nicksrusso/generals-bots/searcher"
	"github.com/nicksrusso/generals-bots/searcher/agent"
)

/**
Tests the local engine:
- mover wiring panics and truncation-bounded runs with per-move accounting
- recorded tick segments hash to each agent's own next search view, which
  is what lets searching movers reuse their trees
- adapter behavior: legal-set validation with pass fallback, observation
  hand-off for bots
*/

func newSession(t *testing.T, options ...game.Option) *game.Game {
	t.Helper()
	g, err := game.New("A..\n...\n..B", []string{"alice", "bob"}, options...)
	require.NoError(t, err)
	return g
}

type stubSearchAgent struct {
	action game.Action
	metric metrics.SearchMetric
}

func (s stubSearchAgent) FindMove(state game.State, updates []searcher.Segment) (game.Action, metrics.SearchMetric) {
	return s.action, s.metric
}

type recordingBot struct {
	name   string
	seen   []game.Observation
	action game.Action
}

func (b *recordingBot) Name() string { return b.name }

func (b *recordingBot) Reset() {}

func (b *recordingBot) Act(observation game.Observation) game.Action {
	b.seen = append(b.seen, observation)
	return b.action
}

func TestNewLocal(t *testing.T) {
	t.Run("rejects a mover count mismatch", func(t *testing.T) {
		session := newSession(t)
		require.Panics(t, func() {
			NewLocal(session, map[string]Mover{
				"alice": BotAdapter{Internal: agents.NewRandom("alice", 1)},
			})
		}, "Every agent needs a mover")
	})

	t.Run("rejects movers for unknown agents", func(t *testing.T) {
		session := newSession(t)
		require.Panics(t, func() {
			NewLocal(session, map[string]Mover{
				"alice": BotAdapter{Internal: agents.NewRandom("alice", 1)},
				"carol": BotAdapter{Internal: agents.NewRandom("carol", 2)},
			})
		}, "A mover for a stranger cannot cover bob")
	})

	t.Run("wires plain agents through bot adapters", func(t *testing.T) {
		session := newSession(t, game.WithMaxTimestep(1))
		engine := NewWithAgents(session, map[string]agents.Agent{
			"alice": agents.NewRandom("alice", 1),
			"bob":   agents.NewRandom("bob", 2),
		})

		_, gameMetric, _ := engine.Run()
		require.Equal(t, 2, gameMetric.TotalMoves)
	})
}

func TestLocalRun(t *testing.T) {
	t.Run("truncation bounds a bot match", func(t *testing.T) {
		session := newSession(t, game.WithMaxTimestep(5))
		engine := NewLocal(session, map[string]Mover{
			"alice": BotAdapter{Internal: agents.NewRandom("alice", 1)},
			"bob":   BotAdapter{Internal: agents.NewRandom("bob", 2)},
		})

		winner, gameMetric, moveMetrics := engine.Run()

		require.Empty(t, winner,
			"Generals hold pure infantry this early, so neither can fall")
		require.Empty(t, gameMetric.Winner)
		require.Equal(t, "alice", gameMetric.StartingPlayer)
		require.Equal(t, 10, gameMetric.TotalMoves, "Five ticks with two movers each")
		require.Len(t, moveMetrics, 10)
		require.GreaterOrEqual(t, gameMetric.Duration, time.Duration(0))

		for i, metric := range moveMetrics {
			require.Equal(t, i/2+1, metric.Step)
		}
		require.Equal(t, "alice", moveMetrics[0].Player)
		require.Equal(t, "bob", moveMetrics[2].Player,
			"Priority alternates, so bob moves first on the second tick")
	})

	t.Run("a searching mover reuses its tree between ticks", func(t *testing.T) {
		session := newSession(t, game.WithMaxTimestep(3))
		mcts := searcher.NewMCTS(2,
			searcher.WithEpisodes(8), searcher.WithCutoff(4), searcher.WithMetrics())
		engine := NewLocal(session, map[string]Mover{
			"alice": SearchAdapter{Internal: agent.NewEvaluationAgent(mcts)},
			"bob":   BotAdapter{Internal: agents.NewRandom("bob", 7)},
		})

		_, gameMetric, moveMetrics := engine.Run()

		require.Equal(t, 6, gameMetric.TotalMoves)
		var searched []metrics.MoveMetric
		for _, metric := range moveMetrics {
			if metric.Player == "alice" {
				searched = append(searched, metric)
			}
		}
		require.Len(t, searched, 3)
		for _, metric := range searched {
			require.Equal(t, 8, metric.Episodes)
			require.Equal(t, 2, metric.Goroutines)
			require.Equal(t, 4, metric.Cutoff)
		}
		require.True(t, searched[0].IsTreeReset, "The first search has no tree to inherit")
		require.False(t, searched[1].IsTreeReset,
			"The recorded lineage should lead into the previous tree")
		require.False(t, searched[2].IsTreeReset)
	})
}

func TestRecordSegments(t *testing.T) {
	session := newSession(t)
	engine := NewLocal(session, map[string]Mover{
		"alice": BotAdapter{Internal: agents.NewRandom("alice", 1)},
		"bob":   BotAdapter{Internal: agents.NewRandom("bob", 2)},
	})
	actions := map[string]game.Action{
		"alice": {Pass: true},
		"bob":   {Pass: true},
	}

	engine.recordSegments(actions)

	next := session.Copy()
	next.Step(actions)
	for _, id := range []string{"alice", "bob"} {
		segments := engine.pending[id]
		require.Len(t, segments, 2, "One segment per ply of the tick")
		require.Equal(t, game.NewSearchStateFor(next, id).Hash(), segments[1].StateHash,
			"The final segment must hash to the agent's next search view")
	}
	require.NotEqual(t,
		engine.pending["alice"][1].StateHash, engine.pending["bob"][1].StateHash,
		"Each agent records the tick in its own staging rotation")
}

func TestSearchAdapter(t *testing.T) {
	session := newSession(t)
	session.Step(nil)
	session.Step(nil)
	legal := session.LegalActions("alice")
	require.Greater(t, len(legal), 1, "Production should have unlocked real moves")

	t.Run("passes a legal action through", func(t *testing.T) {
		adapter := SearchAdapter{Internal: stubSearchAgent{
			action: legal[1],
			metric: metrics.SearchMetric{Episodes: 99},
		}}

		action, metric := adapter.FindAction(session, "alice", nil)

		require.Equal(t, legal[1], action)
		require.Equal(t, 99, metric.Episodes)
	})

	t.Run("falls back to pass on an illegal action", func(t *testing.T) {
		adapter := SearchAdapter{Internal: stubSearchAgent{
			action: game.Action{Row: 9, Col: 9, Direction: game.Up, UnitType: game.Cavalry},
		}}

		action, _ := adapter.FindAction(session, "alice", nil)

		require.Equal(t, game.Action{Pass: true}, action,
			"Pass heads the legal set and absorbs bad answers")
	})
}

func TestBotAdapter(t *testing.T) {
	session := newSession(t)
	bot := &recordingBot{name: "bob", action: game.Action{Pass: true}}
	adapter := BotAdapter{Internal: bot}

	action, metric := adapter.FindAction(session, "bob", nil)

	require.Equal(t, game.Action{Pass: true}, action)
	require.Zero(t, metric.Episodes, "Bots report no search work")
	require.Zero(t, metric.Goroutines, "Bots report no search work")
	require.GreaterOrEqual(t, metric.Duration, time.Duration(0), "The decision time is still measured")
	require.Len(t, bot.seen, 1)
	observation := bot.seen[0]
	require.True(t, observation.OwnedCells[observation.Index(2, 2)],
		"The adapter must hand the bot its own player's view")
}

package searcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nicksrusso/generals-bots/experiments/metrics"
	"github.com/nicksrusso/generals-bots/game"
)

/**
Tests move-level search on real sessions:
- options: missing episodes and duration -> panic
- search: policy over legal actions summing to 1, episode accounting
- tree reuse: matching lineage -> reused subtree, mismatched hash -> fresh root
- traverse: segment walk over expanded children
- rollout: cutoff scoring and full playouts
*/

// newSearchSession returns a 3x3 two-general session stepped through two
// production ticks, so the priority agent has real moves at the root.
func newSearchSession(t *testing.T) *game.Game {
	t.Helper()
	g, err := game.New("A..\n...\n..B", []string{"alice", "bob"})
	require.NoError(t, err, "Session should initialize")

	g.Step(map[string]game.Action{})
	g.Step(map[string]game.Action{})
	return g
}

func TestNewMCTS(t *testing.T) {
	t.Run("panics without a search budget", func(t *testing.T) {
		require.Panics(t, func() { NewMCTS(1) },
			"Search needs an episode or duration budget")
	})

	t.Run("accepts an episode budget", func(t *testing.T) {
		require.NotPanics(t, func() { NewMCTS(1, WithEpisodes(10)) })
	})

	t.Run("accepts a duration budget", func(t *testing.T) {
		require.NotPanics(t, func() { NewMCTS(1, WithDuration(time.Millisecond)) })
	})
}

func TestSimulate(t *testing.T) {
	t.Run("builds a policy over legal actions", func(t *testing.T) {
		state := game.NewSearchState(newSearchSession(t))
		mcts := NewMCTS(2, WithEpisodes(64), WithCutoff(16), WithMetrics())

		policy, metric := mcts.Simulate(state, nil)

		require.NotEmpty(t, policy, "Search should expand at least one action")
		legal := state.LegalActions()
		total := 0.0
		for action, probability := range policy {
			require.Contains(t, legal, action, "Policy should cover only legal actions")
			total += probability
		}
		require.InDelta(t, 1.0, total, 1e-9, "Policy should normalize to 1")

		require.Equal(t, 64, metric.Episodes, "Every episode should be accounted for")
		require.Equal(t, 2, metric.Goroutines)
		require.Equal(t, 16, metric.Cutoff)
		require.True(t, metric.IsTreeReset, "First search starts a fresh tree")
	})

	t.Run("reuses the subtree along the played lineage", func(t *testing.T) {
		state := game.NewSearchState(newSearchSession(t))
		mcts := NewMCTS(1, WithEpisodes(128), WithCutoff(12), WithMetrics())

		policy, _ := mcts.Simulate(state, nil)
		require.NotEmpty(t, policy, "Search should expand the root")

		var action game.Action
		for a := range policy {
			action = a
			break
		}
		next := state.Play(action)

		_, metric := mcts.Simulate(next, []Segment{{Action: action, StateHash: next.Hash()}})

		require.False(t, metric.IsTreeReset,
			"Search should re-root inside the previous tree")
	})

	t.Run("resets on a diverged lineage", func(t *testing.T) {
		state := game.NewSearchState(newSearchSession(t))
		mcts := NewMCTS(1, WithEpisodes(64), WithCutoff(12), WithMetrics())

		policy, _ := mcts.Simulate(state, nil)
		require.NotEmpty(t, policy, "Search should expand the root")

		var action game.Action
		for a := range policy {
			action = a
			break
		}
		next := state.Play(action)

		_, metric := mcts.Simulate(next, []Segment{{Action: action, StateHash: 12345}})

		require.True(t, metric.IsTreeReset,
			"A hash mismatch should discard the previous tree")
	})
}

func TestTraverse(t *testing.T) {
	action := game.Action{Pass: true}
	child := &decision{hash: 42}
	root := &decision{children: map[game.Action]*decision{action: child}}

	t.Run("walks expanded segments", func(t *testing.T) {
		got := traverse(root, []Segment{{Action: action, StateHash: 42}})

		require.Equal(t, child, got, "Traverse should reach the expanded child")
	})

	t.Run("stops on an unexpanded action", func(t *testing.T) {
		unexpanded := game.Action{Row: 1, Col: 1, Direction: game.Up, UnitType: game.Siege}

		got := traverse(root, []Segment{{Action: unexpanded, StateHash: 42}})

		require.Nil(t, got, "Traverse should give up on unexpanded actions")
	})

	t.Run("stops on a state hash mismatch", func(t *testing.T) {
		got := traverse(root, []Segment{{Action: action, StateHash: 7}})

		require.Nil(t, got, "Traverse should give up when the states diverge")
	})

	t.Run("handles a missing root", func(t *testing.T) {
		require.Nil(t, traverse(nil, nil), "A nil root reuses nothing")
	})
}

func TestRollout(t *testing.T) {
	t.Run("scores a cutoff state from the acting player's perspective", func(t *testing.T) {
		g, err := game.New("A..\n...\n..B", []string{"alice", "bob"})
		require.NoError(t, err)
		state := game.NewSearchState(g)

		player, score := rollout(state, 1, game.EvaluateResources, metrics.NewDummyCollector())

		require.Equal(t, "bob", player, "The cutoff lands on the next ply's agent")
		require.InDelta(t, 0.5, score, 1e-9,
			"A symmetric position maps to an even reward")
	})

	t.Run("plays a finished session to its winner", func(t *testing.T) {
		collector := metrics.NewCollector()
		collector.Start(1, 1, nil)

		player, score := rollout(mockState{winner: "alice"}, 5, game.EvaluateResources, collector)

		require.Equal(t, "alice", player, "The winner takes the playout")
		require.Equal(t, Win, score, "A finished playout scores a full win")
		require.Equal(t, 1, collector.Complete().FullPlayouts,
			"Full playouts should be counted")
	})
}

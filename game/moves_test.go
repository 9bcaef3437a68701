package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

/**
Tests action enumeration:
- from an observation: owned cells with a movable stack, per type and
  direction, bounds and visible mountains respected
- from the true state: pass first, split variants only when they move a
  different force than the full move
*/

func TestObservationValidActions(t *testing.T) {
	t.Run("corner cell offers two directions", func(t *testing.T) {
		g, err := New("A..\n...\n..B", []string{"alice", "bob"})
		require.NoError(t, err)
		g.grid.SetUnits(Infantry, g.grid.Index(0, 0), 10)

		obs := g.Observations()["alice"]
		actions := obs.ValidActions()

		require.Len(t, actions, 2, "Only in-bounds directions should appear")
		require.Contains(t, actions, Action{Row: 0, Col: 0, Direction: Down, UnitType: Infantry})
		require.Contains(t, actions, Action{Row: 0, Col: 0, Direction: Right, UnitType: Infantry})
	})

	t.Run("mountains are never destinations", func(t *testing.T) {
		g, err := New("A#.\n...\n..B", []string{"alice", "bob"})
		require.NoError(t, err)
		g.grid.SetUnits(Infantry, g.grid.Index(0, 0), 10)

		obs := g.Observations()["alice"]
		actions := obs.ValidActions()

		require.Len(t, actions, 1)
		require.Equal(t, Action{Row: 0, Col: 0, Direction: Down, UnitType: Infantry},
			actions[0])
	})

	t.Run("single units cannot move", func(t *testing.T) {
		g, err := New("A..\n...\n..B", []string{"alice", "bob"})
		require.NoError(t, err)

		obs := g.Observations()["alice"]
		actions := obs.ValidActions()

		require.Empty(t, actions,
			"The starting single infantry should have no moves")
	})

	t.Run("each movable type moves separately", func(t *testing.T) {
		g, err := New("A..\n...\n..B", []string{"alice", "bob"})
		require.NoError(t, err)
		g.grid.SetUnits(Infantry, g.grid.Index(0, 0), 3)
		g.grid.SetUnits(Siege, g.grid.Index(0, 0), 2)
		g.grid.SetUnits(Cavalry, g.grid.Index(0, 0), 1)

		obs := g.Observations()["alice"]
		actions := obs.ValidActions()

		require.Len(t, actions, 4, "Two types with two units, two directions each")
		for _, a := range actions {
			require.NotEqual(t, Cavalry, a.UnitType,
				"A single cavalry unit should not be movable")
		}
	})
}

func TestLegalActions(t *testing.T) {
	t.Run("pass is always first", func(t *testing.T) {
		g, err := New("A..\n...\n..B", []string{"alice", "bob"})
		require.NoError(t, err)

		actions := g.LegalActions("alice")

		require.Equal(t, Action{Pass: true}, actions[0])
		require.Len(t, actions, 1,
			"The starting single infantry offers nothing but the pass")
	})

	t.Run("split variants only when they differ", func(t *testing.T) {
		g, err := New("A..\n...\n..B", []string{"alice", "bob"})
		require.NoError(t, err)
		g.grid.SetUnits(Infantry, g.grid.Index(0, 0), 10)
		g.grid.SetUnits(Archers, g.grid.Index(0, 0), 2)

		actions := g.LegalActions("alice")

		// Pass + infantry (2 directions x full/split) + archers (2 directions,
		// full only: splitting 2 units moves the same single unit).
		require.Len(t, actions, 7)
		require.Contains(t, actions,
			Action{Row: 0, Col: 0, Direction: Down, UnitType: Infantry, Split: true})
		require.NotContains(t, actions,
			Action{Row: 0, Col: 0, Direction: Down, UnitType: Archers, Split: true})
	})

	t.Run("unknown agents have no actions", func(t *testing.T) {
		g, err := New("A..\n...\n..B", []string{"alice", "bob"})
		require.NoError(t, err)

		require.Nil(t, g.LegalActions("mallory"))
	})
}

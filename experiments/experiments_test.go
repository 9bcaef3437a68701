package experiments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nicksrusso/generals-bots/agents"
	"github.com/nicksrusso/generals-bots/experiments/metrics"
	"github.com/nicksrusso/generals-bots/game"
	"github.com/nicksrusso/generals-bots/gridgen"
)

/**
Tests the experiment runners:
- matchup games produce one record per game and one move row per agent
  per tick, with decision times merged in
- self-play seats stay distinguishable
- search games carry per-move search internals
- throughput counts every tick across parallel workers
*/

// smallBoard keeps test games on a fixed open 6x6 layout so generation
// never retries and no general can fall before the truncation tick.
func smallBoard() Option {
	return WithFactoryOptions(
		gridgen.WithMinDims(6, 6),
		gridgen.WithMaxDims(6, 6),
		gridgen.WithMountainDensity(0),
		gridgen.WithCityDensity(0),
	)
}

func TestRunMatchups(t *testing.T) {
	pairings := [][2]AgentConfig{{
		{Name: "random", Construct: func() agents.Agent { return agents.NewRandom("random", 7) }},
		{Name: "expander", Construct: func() agents.Agent { return agents.NewExpander("expander") }},
	}}

	gameRecords, moveRecords, err := RunMatchups(pairings,
		WithGames(2), WithSeed(11), smallBoard(),
		WithGameOptions(game.WithMaxTimestep(5)))
	require.NoError(t, err, "small matchups must run")

	require.Len(t, gameRecords, 2, "one record per game")
	for i, record := range gameRecords {
		require.Equal(t, i+1, record.ID, "game ids count up from one")
		require.Equal(t, []string{"random", "expander"}, record.Agents, "records carry the config names")
		require.Equal(t, 5, record.Ticks, "games truncate at the tick limit")
		require.Empty(t, record.Winner, "no general falls before the limit")
		require.Greater(t, record.Duration, time.Duration(0), "duration is measured")
	}

	require.Len(t, moveRecords, 2*5*2, "one row per agent per tick per game")
	for _, move := range moveRecords {
		require.Contains(t, []string{"random", "expander"}, move.Agent, "rows name a seat")
		require.NotEmpty(t, move.Action, "rows carry the chosen action")
		require.GreaterOrEqual(t, move.ArmyAfter, 1, "an agent always holds its general's army")
		require.GreaterOrEqual(t, move.LandAfter, 1, "an agent always holds its general's cell")
		require.GreaterOrEqual(t, move.DecisionMS, 0.0, "decision time merges in")
	}
	require.Equal(t, 1, moveRecords[0].Tick, "move rows start at the first tick")
	require.Equal(t, 2, moveRecords[len(moveRecords)-1].GameID, "later rows belong to the second game")
}

func TestSelfPlaySeats(t *testing.T) {
	require.Equal(t, []string{"random", "random#2"}, seatNames("random", "random"),
		"duplicate names get a seat suffix")
	require.Equal(t, []string{"a", "b"}, seatNames("a", "b"), "distinct names pass through")

	pairings := [][2]AgentConfig{{
		{Name: "random", Construct: func() agents.Agent { return agents.NewRandom("random", 1) }},
		{Name: "random", Construct: func() agents.Agent { return agents.NewRandom("random", 2) }},
	}}
	gameRecords, _, err := RunMatchups(pairings,
		WithGames(1), WithSeed(3), smallBoard(),
		WithGameOptions(game.WithMaxTimestep(2)))
	require.NoError(t, err, "self-play must run")
	require.Equal(t, []string{"random", "random#2"}, gameRecords[0].Agents,
		"self-play seats stay distinguishable in the records")
}

func TestRunSearchGame(t *testing.T) {
	r := newRunner([]Option{
		WithSeed(5), smallBoard(),
		WithGameOptions(game.WithMaxTimestep(2)),
	})
	factory := gridgen.NewFactory(r.seed, r.factoryOptions...)
	matchup := [2]metrics.AgentConfig{
		{ID: 1, Goroutines: 1, Episodes: 2, Cutoff: 2},
		{ID: 2, Goroutines: 2, Episodes: 2, Cutoff: 2},
	}

	record, searches, err := r.runSearchGame(9, factory, matchup)
	require.NoError(t, err, "search game must run")

	require.Equal(t, 9, record.ID, "the caller numbers the game")
	require.Equal(t, []string{"agent1", "agent2"}, record.Agents, "seats name the configs")
	require.Equal(t, 2, record.Ticks, "the game truncates at the tick limit")

	require.Len(t, searches, 4, "one search row per agent per tick")
	for _, search := range searches {
		require.Equal(t, 9, search.GameID, "rows are stamped with the game id")
		require.Equal(t, 2, search.Episodes, "the episode budget is spent every move")
	}
	require.Equal(t, 1, searches[0].Goroutines, "rows keep each agent's parallelism")
	require.Equal(t, 2, searches[1].Goroutines, "rows keep each agent's parallelism")
}

func TestMeasureThroughput(t *testing.T) {
	result, err := MeasureThroughput(2, 1,
		WithSeed(21), smallBoard(),
		WithGameOptions(game.WithMaxTimestep(4)))
	require.NoError(t, err, "saturation run must finish")

	require.Equal(t, 2, result.Workers)
	require.Equal(t, 2, result.Games, "every worker plays its games")
	require.Equal(t, 8, result.Ticks, "truncated sessions contribute exactly the tick limit")
	require.Greater(t, result.TicksPerSecond, 0.0, "rate is computed")

	_, err = MeasureThroughput(0, 1)
	require.Error(t, err, "zero workers is rejected")
}

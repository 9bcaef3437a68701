// Package experiments pits agent configurations against each other and
// measures engine performance, storing the results as CSV for offline
// analysis.
package experiments

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nicksrusso/generals-bots/agents"
	"github.com/nicksrusso/generals-bots/engine"
	"github.com/nicksrusso/generals-bots/experiments/metrics"
	"github.com/nicksrusso/generals-bots/game"
	"github.com/nicksrusso/generals-bots/gridgen"
)

const (
	defaultGames = 10
	defaultSeed  = 1
)

// AgentConfig names an agent constructor under comparison. Construct is
// called once per game so no state leaks between games.
type AgentConfig struct {
	Name      string
	Construct func() agents.Agent
}

// Option tunes a run.
type Option func(*runner)

// WithGames sets how many games each pairing plays.
func WithGames(games int) Option {
	return func(r *runner) {
		if games > 0 {
			r.games = games
		}
	}
}

// WithSeed sets the layout generation seed.
func WithSeed(seed uint64) Option {
	return func(r *runner) {
		r.seed = seed
	}
}

// WithFactoryOptions forwards options to the layout factory.
func WithFactoryOptions(options ...gridgen.Option) Option {
	return func(r *runner) {
		r.factoryOptions = append(r.factoryOptions, options...)
	}
}

// WithGameOptions forwards options to every session.
func WithGameOptions(options ...game.Option) Option {
	return func(r *runner) {
		r.gameOptions = append(r.gameOptions, options...)
	}
}

type runner struct {
	games          int
	seed           uint64
	factoryOptions []gridgen.Option
	gameOptions    []game.Option
}

func newRunner(options []Option) *runner {
	r := &runner{games: defaultGames, seed: defaultSeed}
	for _, option := range options {
		option(r)
	}
	return r
}

// RunMatchups plays every pairing for the configured number of games on
// freshly generated layouts and returns the flattened records. Priority
// rotates inside each session, so seats need no alternation between
// games.
func RunMatchups(pairings [][2]AgentConfig, options ...Option) ([]metrics.GameRecord, []metrics.MoveRecord, error) {
	r := newRunner(options)
	factory := gridgen.NewFactory(r.seed, r.factoryOptions...)

	var gameRecords []metrics.GameRecord
	var moveRecords []metrics.MoveRecord
	id := 0
	for pi, pairing := range pairings {
		log.Info().Msgf("starting matchup %d of %d between %s and %s",
			pi+1, len(pairings), pairing[0].Name, pairing[1].Name)

		for i := 0; i < r.games; i++ {
			id++
			record, moves, err := r.playGame(id, factory, pairing)
			if err != nil {
				return nil, nil, fmt.Errorf("matchup %s vs %s game %d: %w",
					pairing[0].Name, pairing[1].Name, i+1, err)
			}
			gameRecords = append(gameRecords, record)
			moveRecords = append(moveRecords, moves...)
			log.Info().Msgf("completed game %d of %d, winner %q after %d ticks",
				i+1, r.games, record.Winner, record.Ticks)
		}
	}
	return gameRecords, moveRecords, nil
}

// RunAndStore runs the pairings and writes the records under the named
// experiment directory.
func RunAndStore(name string, pairings [][2]AgentConfig, options ...Option) error {
	gameRecords, moveRecords, err := RunMatchups(pairings, options...)
	if err != nil {
		return err
	}

	writer, err := metrics.NewWriter(name)
	if err != nil {
		return fmt.Errorf("create experiment writer: %w", err)
	}
	if err := writer.WriteGameRecords(gameRecords); err != nil {
		return err
	}
	if err := writer.WriteMoveRecords(moveRecords); err != nil {
		return err
	}
	log.Info().Msgf("stored %d games and %d moves under %s",
		len(gameRecords), len(moveRecords), writer.BaseDir())
	return nil
}

func (r *runner) playGame(id int, factory *gridgen.Factory, pairing [2]AgentConfig) (metrics.GameRecord, []metrics.MoveRecord, error) {
	seats := seatNames(pairing[0].Name, pairing[1].Name)
	layout, err := factory.Generate(len(seats))
	if err != nil {
		return metrics.GameRecord{}, nil, fmt.Errorf("generate layout: %w", err)
	}
	session, err := game.New(layout, seats, r.gameOptions...)
	if err != nil {
		return metrics.GameRecord{}, nil, fmt.Errorf("start session: %w", err)
	}

	players := map[string]agents.Agent{
		seats[0]: pairing[0].Construct(),
		seats[1]: pairing[1].Construct(),
	}
	recorder := &tickRecorder{gameID: id}
	winner, gameMetric, moveMetrics := engine.NewWithAgents(session, players, engine.WithObservers(recorder)).Run()
	recorder.fillDecisionTimes(moveMetrics)

	return metrics.GameRecord{
		ID:       id,
		Agents:   seats,
		Winner:   winner,
		Ticks:    session.Tick(),
		Duration: gameMetric.Duration,
	}, recorder.moves, nil
}

// seatNames keeps self-play seats distinguishable in the records.
func seatNames(first, second string) []string {
	if first == second {
		second += "#2"
	}
	return []string{first, second}
}

// tickRecorder collects one move record per agent per resolved tick.
type tickRecorder struct {
	gameID int
	moves  []metrics.MoveRecord
}

func (r *tickRecorder) OnTick(session *game.Game, actions map[string]game.Action) {
	infos := session.Infos()
	for _, seat := range session.Agents() {
		r.moves = append(r.moves, metrics.MoveRecord{
			GameID:    r.gameID,
			Tick:      session.Tick(),
			Agent:     seat,
			Action:    actions[seat].String(),
			ArmyAfter: infos[seat].Army,
			LandAfter: infos[seat].Land,
		})
	}
}

type moveKey struct {
	tick  int
	agent string
}

// fillDecisionTimes merges the engine's per-move timings into the
// recorded moves.
func (r *tickRecorder) fillDecisionTimes(moveMetrics []metrics.MoveMetric) {
	durations := make(map[moveKey]time.Duration, len(moveMetrics))
	for _, metric := range moveMetrics {
		durations[moveKey{metric.Step, metric.Player}] = metric.Duration
	}
	for i := range r.moves {
		move := &r.moves[i]
		move.DecisionMS = durations[moveKey{move.Tick, move.Agent}].Seconds() * 1e3
	}
}

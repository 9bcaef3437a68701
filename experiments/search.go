package experiments

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/nicksrusso/generals-bots/engine"
	"github.com/nicksrusso/generals-bots/experiments/metrics"
	"github.com/nicksrusso/generals-bots/game"
	"github.com/nicksrusso/generals-bots/gridgen"
	"github.com/nicksrusso/generals-bots/searcher"
	"github.com/nicksrusso/generals-bots/searcher/agent"
)

// searchTickLimit truncates search studies so a stalemate between two
// careful searchers cannot run a matchup forever.
const searchTickLimit = 300

var parallelConfigs = []metrics.AgentConfig{
	{ID: 1, Goroutines: 1, Episodes: 128},
	{ID: 2, Goroutines: 2, Episodes: 128},
	{ID: 3, Goroutines: 4, Episodes: 128},
	{ID: 4, Goroutines: 8, Episodes: 128},
	{ID: 5, Goroutines: 16, Episodes: 128},
	{ID: 6, Goroutines: 32, Episodes: 128},
}

// RunParallelizationExperiment pits each parallel search configuration
// against the single-goroutine baseline with the same episode budget.
func RunParallelizationExperiment(options ...Option) error {
	baseline := metrics.AgentConfig{ID: 0, Goroutines: 1, Episodes: 128}
	matchups := make([][2]metrics.AgentConfig, 0, len(parallelConfigs))
	for _, config := range parallelConfigs {
		matchups = append(matchups, [2]metrics.AgentConfig{baseline, config})
	}
	return runSearchExperiment("parallelization", append([]metrics.AgentConfig{baseline}, parallelConfigs...), matchups, options...)
}

// RunCutoffExperiment pits full rollouts against rollouts cut off at
// increasing depths, all at the same parallelism.
func RunCutoffExperiment(options ...Option) error {
	baseline := metrics.AgentConfig{ID: 0, Goroutines: 8, Episodes: 128}
	cutoffConfigs := []metrics.AgentConfig{
		{ID: 1, Goroutines: baseline.Goroutines, Episodes: baseline.Episodes, Cutoff: 10},
		{ID: 2, Goroutines: baseline.Goroutines, Episodes: baseline.Episodes, Cutoff: 25},
		{ID: 3, Goroutines: baseline.Goroutines, Episodes: baseline.Episodes, Cutoff: 50},
		{ID: 4, Goroutines: baseline.Goroutines, Episodes: baseline.Episodes, Cutoff: 100},
	}
	matchups := make([][2]metrics.AgentConfig, 0, len(cutoffConfigs))
	for _, config := range cutoffConfigs {
		matchups = append(matchups, [2]metrics.AgentConfig{baseline, config})
	}
	return runSearchExperiment("cutoff", append([]metrics.AgentConfig{baseline}, cutoffConfigs...), matchups, options...)
}

func runSearchExperiment(name string, configs []metrics.AgentConfig, matchups [][2]metrics.AgentConfig, options ...Option) error {
	r := newRunner(options)
	r.gameOptions = append(r.gameOptions, game.WithMaxTimestep(searchTickLimit))
	factory := gridgen.NewFactory(r.seed, r.factoryOptions...)

	log.Info().Msgf("starting %s experiment", name)

	var gameRecords []metrics.GameRecord
	var searchRecords []metrics.SearchRecord
	id := 0
	for mi, matchup := range matchups {
		log.Info().Msgf("starting matchup %d of %d between agent%d and agent%d",
			mi+1, len(matchups), matchup[0].ID, matchup[1].ID)

		for i := 0; i < r.games; i++ {
			id++
			record, searches, err := r.runSearchGame(id, factory, matchup)
			if err != nil {
				return fmt.Errorf("%s matchup %d game %d: %w", name, mi+1, i+1, err)
			}
			gameRecords = append(gameRecords, record)
			searchRecords = append(searchRecords, searches...)
			log.Info().Msgf("completed game %d of %d, winner %q after %d ticks",
				i+1, r.games, record.Winner, record.Ticks)
		}
	}

	writer, err := metrics.NewWriter(name)
	if err != nil {
		return fmt.Errorf("create experiment writer: %w", err)
	}
	if err := writer.WriteAgentConfigs(configs); err != nil {
		return err
	}
	if err := writer.WriteGameRecords(gameRecords); err != nil {
		return err
	}
	if err := writer.WriteSearchRecords(searchRecords); err != nil {
		return err
	}
	log.Info().Msgf("completed %s experiment, results under %s", name, writer.BaseDir())
	return nil
}

func (r *runner) runSearchGame(id int, factory *gridgen.Factory, matchup [2]metrics.AgentConfig) (metrics.GameRecord, []metrics.SearchRecord, error) {
	seats := seatNames(fmt.Sprintf("agent%d", matchup[0].ID), fmt.Sprintf("agent%d", matchup[1].ID))
	layout, err := factory.Generate(len(seats))
	if err != nil {
		return metrics.GameRecord{}, nil, fmt.Errorf("generate layout: %w", err)
	}
	session, err := game.New(layout, seats, r.gameOptions...)
	if err != nil {
		return metrics.GameRecord{}, nil, fmt.Errorf("start session: %w", err)
	}

	movers := map[string]engine.Mover{
		seats[0]: engine.SearchAdapter{Internal: agent.NewEvaluationAgent(newSearcher(matchup[0]))},
		seats[1]: engine.SearchAdapter{Internal: agent.NewEvaluationAgent(newSearcher(matchup[1]))},
	}
	winner, gameMetric, moveMetrics := engine.NewLocal(session, movers).Run()

	searches := make([]metrics.SearchRecord, 0, len(moveMetrics))
	for _, metric := range moveMetrics {
		searches = append(searches, metrics.SearchRecord{GameID: id, MoveMetric: metric})
	}
	return metrics.GameRecord{
		ID:       id,
		Agents:   seats,
		Winner:   winner,
		Ticks:    session.Tick(),
		Duration: gameMetric.Duration,
	}, searches, nil
}

func newSearcher(config metrics.AgentConfig) *searcher.MCTS {
	options := []searcher.Option{searcher.WithMetrics()}
	if config.Episodes > 0 {
		options = append(options, searcher.WithEpisodes(config.Episodes))
	}
	if config.Duration > 0 {
		options = append(options, searcher.WithDuration(config.Duration))
	}
	if config.Cutoff > 0 {
		options = append(options, searcher.WithCutoff(config.Cutoff))
	}
	if config.Evaluate != nil {
		options = append(options, searcher.WithEvaluationFn(config.Evaluate))
	}
	return searcher.NewMCTS(config.Goroutines, options...)
}

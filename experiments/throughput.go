package experiments

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nicksrusso/generals-bots/agents"
	"github.com/nicksrusso/generals-bots/game"
	"github.com/nicksrusso/generals-bots/gridgen"
)

// ThroughputResult summarizes a saturation run.
type ThroughputResult struct {
	Workers        int
	Games          int
	Ticks          int
	Duration       time.Duration
	TicksPerSecond float64
}

// MeasureThroughput saturates workers goroutines with back-to-back random
// self-play sessions and reports aggregate ticks per second. Sessions are
// stepped directly, without engine bookkeeping, so the number reflects
// the resolver and the agents alone. Each worker draws layouts from its
// own seed stream.
func MeasureThroughput(workers, gamesPerWorker int, options ...Option) (ThroughputResult, error) {
	if workers < 1 || gamesPerWorker < 1 {
		return ThroughputResult{}, fmt.Errorf("need at least one worker and one game, got %d and %d", workers, gamesPerWorker)
	}
	r := newRunner(options)

	var ticks, games atomic.Int64
	errs := make(chan error, workers)
	start := time.Now()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			factory := gridgen.NewFactory(r.seed+uint64(worker), r.factoryOptions...)
			for i := 0; i < gamesPerWorker; i++ {
				played, err := r.selfPlay(factory, uint64(worker*gamesPerWorker+i))
				if err != nil {
					errs <- fmt.Errorf("worker %d game %d: %w", worker, i+1, err)
					return
				}
				ticks.Add(int64(played))
				games.Add(1)
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		return ThroughputResult{}, err
	}

	result := ThroughputResult{
		Workers:  workers,
		Games:    int(games.Load()),
		Ticks:    int(ticks.Load()),
		Duration: time.Since(start),
	}
	if result.Duration > 0 {
		result.TicksPerSecond = float64(result.Ticks) / result.Duration.Seconds()
	}
	log.Info().Msgf("%d workers played %d games, %.0f ticks/s", result.Workers, result.Games, result.TicksPerSecond)
	return result, nil
}

// selfPlay runs one random-vs-random session to its end and reports how
// many ticks it lasted.
func (r *runner) selfPlay(factory *gridgen.Factory, seed uint64) (int, error) {
	layout, err := factory.Generate(2)
	if err != nil {
		return 0, fmt.Errorf("generate layout: %w", err)
	}
	seats := []string{"left", "right"}
	session, err := game.New(layout, seats, r.gameOptions...)
	if err != nil {
		return 0, fmt.Errorf("start session: %w", err)
	}

	players := map[string]agents.Agent{
		seats[0]: agents.NewRandom(seats[0], seed*2+1),
		seats[1]: agents.NewRandom(seats[1], seed*2+2),
	}
	for !session.IsDone() && !session.Truncated() {
		observations := session.Observations()
		actions := make(map[string]game.Action, len(seats))
		for seat, player := range players {
			actions[seat] = player.Act(observations[seat])
		}
		session.Step(actions)
	}
	return session.Tick(), nil
}

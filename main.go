// Runs one watchable match between two flag-selected agents, drawing the
// board to stdout after every tick.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nicksrusso/generals-bots/agents"
	"github.com/nicksrusso/generals-bots/engine"
	"github.com/nicksrusso/generals-bots/game"
	"github.com/nicksrusso/generals-bots/gridgen"
	"github.com/nicksrusso/generals-bots/neural"
	"github.com/nicksrusso/generals-bots/remote"
	"github.com/nicksrusso/generals-bots/render"
	"github.com/nicksrusso/generals-bots/searcher"
	"github.com/nicksrusso/generals-bots/searcher/agent"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		first    string
		second   string
		seed     uint64
		maxTicks int
		height   int
		width    int
		model    string
		think    time.Duration
		delay    time.Duration
		color    bool
		debug    bool
	)

	flag.StringVar(&first, "a", "expander", "First agent: random, expander, search, policy or remote:<url>")
	flag.StringVar(&second, "b", "random", "Second agent, same choices as -a")
	flag.Uint64Var(&seed, "seed", 42, "Seed for the layout and the agents")
	flag.IntVar(&maxTicks, "max-ticks", 500, "Tick limit before the match is called a draw")
	flag.IntVar(&height, "height", 12, "Board height")
	flag.IntVar(&width, "width", 12, "Board width")
	flag.StringVar(&model, "model", envOrDefault("POLICY_MODEL_PATH", "models/policy.onnx"), "ONNX weights for the policy agent")
	flag.DurationVar(&think, "think", 100*time.Millisecond, "Per-move budget for the search agent")
	flag.DurationVar(&delay, "delay", 0, "Pause between frames, for watching at human speed")
	flag.BoolVar(&color, "color", true, "Color the board by owner")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	factory := gridgen.NewFactory(seed,
		gridgen.WithMinDims(height, width),
		gridgen.WithMaxDims(height, width),
	)
	layout, err := factory.Generate(2)
	if err != nil {
		log.Fatal().Msgf("could not generate a layout: %v", err)
	}

	seats := []string{seatName(first), seatName(second)}
	if seats[0] == seats[1] {
		seats[1] += "#2"
	}
	session, err := game.New(layout, seats, game.WithMaxTimestep(maxTicks))
	if err != nil {
		log.Fatal().Msgf("could not start the session: %v", err)
	}

	movers := map[string]engine.Mover{}
	for i, spec := range []string{first, second} {
		mover, err := buildMover(spec, seats[i], seed+uint64(i), model, think)
		if err != nil {
			log.Fatal().Msgf("bad agent %q: %v", spec, err)
		}
		movers[seats[i]] = mover
	}

	log.Info().Msgf("%s vs %s on a %dx%d board, seed %d", seats[0], seats[1], height, width, seed)

	screen := &frameObserver{frame: render.New(os.Stdout, color), delay: delay}
	winner, gameMetric, _ := engine.NewLocal(session, movers, engine.WithObservers(screen)).Run()

	if winner == "" {
		fmt.Printf("draw after %d ticks (%s)\n", session.Tick(), gameMetric.Duration)
		return
	}
	fmt.Printf("%s wins after %d ticks (%s)\n", winner, session.Tick(), gameMetric.Duration)
}

// frameObserver draws the board after every resolved tick.
type frameObserver struct {
	frame *render.Renderer
	delay time.Duration
}

func (f *frameObserver) OnTick(session *game.Game, actions map[string]game.Action) {
	if err := f.frame.Frame(session); err != nil {
		log.Warn().Msgf("could not draw tick %d: %v", session.Tick(), err)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// seatName strips the transport detail so remote agents sit at a short name.
func seatName(spec string) string {
	if strings.HasPrefix(spec, "remote:") {
		return "remote"
	}
	return spec
}

func buildMover(spec, seat string, seed uint64, model string, think time.Duration) (engine.Mover, error) {
	if url, ok := strings.CutPrefix(spec, "remote:"); ok {
		return engine.BotAdapter{Internal: remote.NewClient(seat, url)}, nil
	}
	switch spec {
	case "random":
		return engine.BotAdapter{Internal: agents.NewRandom(seat, seed)}, nil
	case "expander":
		return engine.BotAdapter{Internal: agents.NewExpander(seat)}, nil
	case "policy":
		return engine.BotAdapter{Internal: neural.NewPolicyAgent(seat, model, agents.NewExpander(seat))}, nil
	case "search":
		mcts := searcher.NewMCTS(4,
			searcher.WithDuration(think),
			searcher.WithCutoff(200),
		)
		return engine.SearchAdapter{Internal: agent.NewEvaluationAgent(mcts)}, nil
	}
	return nil, fmt.Errorf("unknown agent %q, want random, expander, search, policy or remote:<url>", spec)
}

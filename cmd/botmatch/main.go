// Runs a matchup between two observation-driven agents over many games on
// a worker pool, storing per-game results as CSV. Spectators can watch the
// running games over WebSocket and every game can leave a replay behind.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nicksrusso/generals-bots/agents"
	"github.com/nicksrusso/generals-bots/engine"
	"github.com/nicksrusso/generals-bots/experiments/metrics"
	"github.com/nicksrusso/generals-bots/game"
	"github.com/nicksrusso/generals-bots/gridgen"
	"github.com/nicksrusso/generals-bots/live"
	"github.com/nicksrusso/generals-bots/neural"
	"github.com/nicksrusso/generals-bots/remote"
	"github.com/nicksrusso/generals-bots/replay"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		matchup   string
		numGames  int
		workers   int
		seed      uint64
		maxTicks  int
		model     string
		liveAddr  string
		replayDir string
		outDir    string
		jsonOut   bool
		debug     bool
	)

	flag.StringVar(&matchup, "matchup", "expander-vs-random", "Pairing as <agent>-vs-<agent>: random, expander, policy or remote:<url>")
	flag.IntVar(&numGames, "n", 10, "Number of games to play")
	flag.IntVar(&workers, "workers", 4, "Games running at the same time")
	flag.Uint64Var(&seed, "seed", 1, "Base seed, each game derives its own from it")
	flag.IntVar(&maxTicks, "max-ticks", 500, "Tick limit before a game is called a draw")
	flag.StringVar(&model, "model", envOrDefault("POLICY_MODEL_PATH", "models/policy.onnx"), "ONNX weights for the policy agent")
	flag.StringVar(&liveAddr, "live", "", "Serve a WebSocket spectator stream on this address")
	flag.StringVar(&replayDir, "replays", "", "Write one replay per game into this directory")
	flag.StringVar(&outDir, "out", "", "CSV directory (default experiments/botmatch/<timestamp>)")
	flag.BoolVar(&jsonOut, "json", false, "Print the summary as JSON")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	first, second, err := parseMatchup(matchup, model)
	if err != nil {
		log.Fatal().Msgf("bad -matchup: %v", err)
	}
	if numGames < 1 || workers < 1 {
		log.Fatal().Msgf("need at least one game and one worker, got %d and %d", numGames, workers)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("stopping, running games will finish")
		cancel()
	}()

	cfg := runConfig{
		seed:      seed,
		maxTicks:  maxTicks,
		first:     first,
		second:    second,
		replayDir: replayDir,
	}
	if liveAddr != "" {
		cfg.hub = live.NewHub()
		go serveSpectators(liveAddr, cfg.hub)
	}
	if replayDir != "" {
		if err := os.MkdirAll(replayDir, 0755); err != nil {
			log.Fatal().Msgf("could not create the replay directory: %v", err)
		}
	}

	log.Info().Msgf("%s vs %s, %d games on %d workers, base seed %d",
		first.name, second.name, numGames, workers, seed)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		results  = make([]*metrics.GameRecord, numGames)
		errCount int
	)
	sem := make(chan struct{}, workers)
	for i := 0; i < numGames; i++ {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			record, err := playGame(idx, cfg)
			if err != nil {
				log.Error().Msgf("game %d failed: %v", idx+1, err)
				mu.Lock()
				errCount++
				mu.Unlock()
				return
			}
			mu.Lock()
			results[idx] = &record
			mu.Unlock()
			log.Info().Msgf("game %d done after %d ticks, winner %q",
				record.ID, record.Ticks, record.Winner)
		}(i)
	}
	wg.Wait()

	var records []metrics.GameRecord
	for _, record := range results {
		if record != nil {
			records = append(records, *record)
		}
	}

	if len(records) > 0 {
		writer, err := openWriter(outDir)
		if err != nil {
			log.Fatal().Msgf("could not open the result directory: %v", err)
		}
		if err := writer.WriteGameRecords(records); err != nil {
			log.Fatal().Msgf("could not store the results: %v", err)
		}
		log.Info().Msgf("stored %d games under %s", len(records), writer.BaseDir())
	}

	if jsonOut {
		if err := json.NewEncoder(os.Stdout).Encode(summarize(records, errCount)); err != nil {
			log.Fatal().Msgf("could not encode the summary: %v", err)
		}
		return
	}
	printSummary(records, errCount)
}

// runConfig is everything one game needs beyond its index.
type runConfig struct {
	seed      uint64
	maxTicks  int
	first     agentSpec
	second    agentSpec
	hub       *live.Hub
	replayDir string
}

// agentSpec builds a fresh agent per game so no state leaks between games.
type agentSpec struct {
	name      string
	construct func(seat string, seed uint64) agents.Agent
}

func parseMatchup(matchup, model string) (agentSpec, agentSpec, error) {
	parts := strings.SplitN(matchup, "-vs-", 2)
	if len(parts) != 2 {
		return agentSpec{}, agentSpec{}, fmt.Errorf("want <agent>-vs-<agent>, got %q", matchup)
	}
	first, err := resolveAgent(parts[0], model)
	if err != nil {
		return agentSpec{}, agentSpec{}, err
	}
	second, err := resolveAgent(parts[1], model)
	if err != nil {
		return agentSpec{}, agentSpec{}, err
	}
	return first, second, nil
}

func resolveAgent(spec, model string) (agentSpec, error) {
	if url, ok := strings.CutPrefix(spec, "remote:"); ok {
		return agentSpec{name: "remote", construct: func(seat string, _ uint64) agents.Agent {
			return remote.NewClient(seat, url)
		}}, nil
	}
	switch spec {
	case "random":
		return agentSpec{name: "random", construct: func(seat string, seed uint64) agents.Agent {
			return agents.NewRandom(seat, seed)
		}}, nil
	case "expander":
		return agentSpec{name: "expander", construct: func(seat string, _ uint64) agents.Agent {
			return agents.NewExpander(seat)
		}}, nil
	case "policy":
		return agentSpec{name: "policy", construct: func(seat string, _ uint64) agents.Agent {
			return neural.NewPolicyAgent(seat, model, agents.NewExpander(seat))
		}}, nil
	}
	return agentSpec{}, fmt.Errorf("unknown agent %q, want random, expander, policy or remote:<url>", spec)
}

// playGame runs one full game. Each game owns its layout factory so the
// pool never shares generator state across goroutines.
func playGame(idx int, cfg runConfig) (metrics.GameRecord, error) {
	gameSeed := cfg.seed + uint64(idx)
	layout, err := gridgen.NewFactory(gameSeed).Generate(2)
	if err != nil {
		return metrics.GameRecord{}, fmt.Errorf("generate layout: %w", err)
	}

	seats := []string{cfg.first.name, cfg.second.name}
	if seats[0] == seats[1] {
		seats[1] += "#2"
	}
	session, err := game.New(layout, seats, game.WithMaxTimestep(cfg.maxTicks))
	if err != nil {
		return metrics.GameRecord{}, fmt.Errorf("start session: %w", err)
	}

	players := map[string]agents.Agent{
		seats[0]: cfg.first.construct(seats[0], gameSeed*2+1),
		seats[1]: cfg.second.construct(seats[1], gameSeed*2+2),
	}

	var options []engine.LocalOption
	var recorder *replay.Recorder
	if cfg.replayDir != "" {
		recorder = replay.NewRecorder(layout, session)
		options = append(options, engine.WithObservers(recorder))
	}
	if cfg.hub != nil {
		broadcaster := live.NewBroadcaster(cfg.hub, fmt.Sprintf("game-%d", idx+1))
		options = append(options, engine.WithObservers(broadcaster))
	}

	winner, gameMetric, _ := engine.NewWithAgents(session, players, options...).Run()

	if recorder != nil {
		path := filepath.Join(cfg.replayDir, fmt.Sprintf("game-%03d.json", idx+1))
		if err := replay.Save(path, recorder.Finish(session)); err != nil {
			return metrics.GameRecord{}, fmt.Errorf("save replay: %w", err)
		}
	}

	return metrics.GameRecord{
		ID:       idx + 1,
		Agents:   seats,
		Winner:   winner,
		Ticks:    session.Tick(),
		Duration: gameMetric.Duration,
	}, nil
}

func serveSpectators(addr string, hub *live.Hub) {
	mux := http.NewServeMux()
	mux.Handle("/ws", live.NewHandler(hub))
	log.Info().Msgf("spectators welcome on ws://%s/ws", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Msgf("spectator server stopped: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func openWriter(outDir string) (*metrics.Writer, error) {
	if outDir != "" {
		return metrics.NewWriterAt(outDir)
	}
	return metrics.NewWriter("botmatch")
}

type matchSummary struct {
	Games     int            `json:"games"`
	Wins      map[string]int `json:"wins"`
	Draws     int            `json:"draws"`
	Errors    int            `json:"errors"`
	MeanTicks float64        `json:"mean_ticks"`
}

func summarize(records []metrics.GameRecord, errCount int) matchSummary {
	summary := matchSummary{Games: len(records), Wins: map[string]int{}, Errors: errCount}
	ticks := 0
	for _, record := range records {
		if record.Winner == "" {
			summary.Draws++
		} else {
			summary.Wins[record.Winner]++
		}
		ticks += record.Ticks
	}
	if len(records) > 0 {
		summary.MeanTicks = float64(ticks) / float64(len(records))
	}
	return summary
}

func printSummary(records []metrics.GameRecord, errCount int) {
	summary := summarize(records, errCount)
	fmt.Printf("\n=== %d games ===\n", summary.Games)
	names := make([]string, 0, len(summary.Wins))
	for name := range summary.Wins {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-12s %d wins\n", name, summary.Wins[name])
	}
	if summary.Draws > 0 {
		fmt.Printf("%-12s %d\n", "draws", summary.Draws)
	}
	if summary.Games > 0 {
		fmt.Printf("mean length: %.1f ticks\n", summary.MeanTicks)
	}
	if errCount > 0 {
		fmt.Printf("failed games: %d\n", errCount)
	}
}

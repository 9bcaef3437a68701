// Serves one observation-driven agent over HTTP so engines elsewhere can
// seat it in their matches.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nicksrusso/generals-bots/agents"
	"github.com/nicksrusso/generals-bots/neural"
	"github.com/nicksrusso/generals-bots/remote"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		addr  string
		kind  string
		name  string
		seed  uint64
		model string
		debug bool
	)

	flag.StringVar(&addr, "addr", envOrDefault("AGENTSERVER_ADDR", ":8080"), "Listen address")
	flag.StringVar(&kind, "agent", "expander", "Agent to serve: random, expander or policy")
	flag.StringVar(&name, "name", "", "Agent name on the wire (defaults to the agent kind)")
	flag.Uint64Var(&seed, "seed", 1, "Seed for the random agent")
	flag.StringVar(&model, "model", envOrDefault("POLICY_MODEL_PATH", "models/policy.onnx"), "ONNX weights for the policy agent")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if name == "" {
		name = kind
	}

	served, err := buildAgent(kind, name, seed, model)
	if err != nil {
		log.Fatal().Msgf("bad -agent: %v", err)
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      remote.NewServer(served),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Warn().Msgf("shutdown was not clean: %v", err)
		}
	}()

	log.Info().Msgf("serving %s on %s", name, addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Msgf("server stopped: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func buildAgent(kind, name string, seed uint64, model string) (agents.Agent, error) {
	switch kind {
	case "random":
		return agents.NewRandom(name, seed), nil
	case "expander":
		return agents.NewExpander(name), nil
	case "policy":
		return neural.NewPolicyAgent(name, model, agents.NewExpander(name)), nil
	}
	return nil, fmt.Errorf("unknown agent %q, want random, expander or policy", kind)
}

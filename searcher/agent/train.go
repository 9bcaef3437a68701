package agent

import (
	"math"
	"math/rand"

	"github.com/nicksrusso/generals-bots/experiments/metrics"
	"github.com/nicksrusso/generals-bots/game"
	"github.com/nicksrusso/generals-bots/searcher"
)

type trainingAgent struct {
	mcts *searcher.MCTS
}

// NewTrainingAgent returns a new agent for self-play during training.
func NewTrainingAgent(mcts *searcher.MCTS) Agent {
	return trainingAgent{mcts: mcts}
}

func (a trainingAgent) FindMove(state game.State, updates []searcher.Segment) (game.Action, metrics.SearchMetric) {
	policy, metric := a.mcts.Simulate(state, updates)
	// TODO: apply a temperature schedule as training progresses
	policy = adjustTemperature(policy, 1.0)
	return sample(policy), metric
}

func adjustTemperature(policy map[game.Action]float64, temperature float64) map[game.Action]float64 {
	// Compute temperature-adjusted move probabilities
	exponent := 1.0 / temperature
	sum := 0.0
	adjusted := make(map[game.Action]float64, len(policy))
	for action, visit := range policy {
		prob := math.Pow(visit, exponent)
		sum += prob
		adjusted[action] = prob
	}
	// Normalize
	for action := range adjusted {
		adjusted[action] /= sum
	}
	return adjusted
}

func sample(policy map[game.Action]float64) game.Action {
	sampled := rand.Float64()
	cumulative := 0.0
	var lastAction game.Action
	for action, prob := range policy {
		lastAction = action
		cumulative += prob
		if sampled < cumulative {
			return action
		}
	}
	return lastAction // Fallback in case of rounding errors
}

package searcher

import "math"

// Hyperparameters for MCTS

const CSquared = 2.0 // Exploration constant

// Rewards estimate the chance of winning
const Win = 1.0
const Loss = 1 - Win

// MaxCutoff leaves rollouts effectively uncapped.
const MaxCutoff = math.MaxInt32

func ucb1(rewards float64, visits float64, c2LnN float64) float64 {
	// Prioritize unexplored nodes
	if visits == 0 {
		return math.Inf(1)
	}

	return rewards/visits + math.Sqrt(c2LnN/visits)
}

// computeReward converts a score on player's [0, 1] scale to the node
// owner's perspective. Opponents share the complementary reward.
func computeReward(player string, score float64, owner string) float64 {
	if owner == player {
		return score
	}
	return Win - score
}

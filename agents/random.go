package agents

import (
	"golang.org/x/exp/rand"

	"github.com/nicksrusso/generals-bots/game"
)

const (
	defaultIdleProbability  = 0.05
	defaultSplitProbability = 0.25
)

type RandomOption func(a *Random)

func WithIdleProbability(p float64) RandomOption {
	return func(a *Random) {
		a.idleProb = p
	}
}

func WithSplitProbability(p float64) RandomOption {
	return func(a *Random) {
		a.splitProb = p
	}
}

// Random plays a uniformly random valid action, occasionally idling and
// occasionally splitting its moving stack.
type Random struct {
	name      string
	idleProb  float64
	splitProb float64
	rng       *rand.Rand
}

func NewRandom(name string, seed uint64, options ...RandomOption) *Random {
	a := &Random{
		name:      name,
		idleProb:  defaultIdleProbability,
		splitProb: defaultSplitProbability,
		rng:       rand.New(rand.NewSource(seed)),
	}
	for _, option := range options {
		option(a)
	}
	return a
}

func (a *Random) Name() string {
	return a.name
}

func (a *Random) Reset() {}

func (a *Random) Act(observation game.Observation) game.Action {
	actions := observation.ValidActions()
	if len(actions) == 0 || a.rng.Float64() < a.idleProb {
		return game.Action{Pass: true}
	}

	action := actions[a.rng.Intn(len(actions))]
	if a.rng.Float64() < a.splitProb {
		action.Split = true
	}
	return action
}

package neural

import (
	"fmt"
	"math"
	"sync"

	gonnx "github.com/advancedclimatesystems/gonnx"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"gorgonia.org/tensor"

	"github.com/nicksrusso/generals-bots/agents"
	"github.com/nicksrusso/generals-bots/game"
)

// Tensor names expected in the ONNX graph. A model whose output is named
// differently still works: the first output tensor is taken instead.
const (
	inputName  = "observation"
	outputName = "action_logits"
)

// PolicyOption configures a PolicyAgent.
type PolicyOption func(*PolicyAgent)

// WithTemperature switches action selection from argmax to seeded softmax
// sampling. Temperatures at or below zero keep argmax.
func WithTemperature(temperature float64, seed uint64) PolicyOption {
	return func(a *PolicyAgent) {
		if temperature > 0 {
			a.temperature = temperature
			a.rng = rand.New(rand.NewSource(seed))
		}
	}
}

// PolicyAgent picks actions with an ONNX policy network. Inference runs
// under a mutex so one agent instance can serve parallel sessions. Load
// and inference failures degrade to the fallback agent, so a missing or
// broken model never stalls a match.
type PolicyAgent struct {
	name        string
	model       *gonnx.Model
	fallback    agents.Agent
	temperature float64
	rng         *rand.Rand
	mu          sync.Mutex
}

// NewPolicyAgent loads the model at path. When loading fails the agent
// logs the error once and serves every action from fallback instead.
func NewPolicyAgent(name, path string, fallback agents.Agent, options ...PolicyOption) *PolicyAgent {
	a := &PolicyAgent{name: name, fallback: fallback}
	for _, option := range options {
		option(a)
	}

	model, err := gonnx.NewModelFromFile(path)
	if err != nil {
		log.Warn().Msgf("%s could not load %s, serving %s instead: %v", name, path, fallback.Name(), err)
		return a
	}
	a.model = model
	return a
}

func (a *PolicyAgent) Name() string {
	return a.name
}

// Act encodes the observation, runs the policy, and selects the valid
// action with the best logit. Logits outside the valid set are never
// consulted, so the network cannot order an illegal move.
func (a *PolicyAgent) Act(observation game.Observation) game.Action {
	actions := observation.ValidActions()
	if len(actions) == 0 {
		return game.Action{Pass: true}
	}
	if a.model == nil {
		return a.fallback.Act(observation)
	}

	logits, err := a.run(&observation)
	if err != nil {
		log.Warn().Msgf("%s inference failed, falling back to %s: %v", a.name, a.fallback.Name(), err)
		return a.fallback.Act(observation)
	}
	if len(logits) < PolicySize(observation.Height, observation.Width) {
		log.Warn().Msgf("%s emits %d logits for a %dx%d board, falling back to %s",
			a.name, len(logits), observation.Height, observation.Width, a.fallback.Name())
		return a.fallback.Act(observation)
	}

	if a.temperature > 0 {
		return a.sample(&observation, actions, logits)
	}
	return a.argmax(&observation, actions, logits)
}

// Reset clears the fallback; the policy itself is stateless.
func (a *PolicyAgent) Reset() {
	a.fallback.Reset()
}

func (a *PolicyAgent) run(o *game.Observation) ([]float32, error) {
	input := tensor.New(
		tensor.WithShape(1, NumPlanes, o.Height, o.Width),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(EncodeObservation(o)),
	)

	a.mu.Lock()
	outputs, err := a.model.Run(gonnx.Tensors{inputName: input})
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out, ok := outputs[outputName]
	if !ok {
		for _, candidate := range outputs {
			out = candidate
			break
		}
	}
	if out == nil {
		return nil, fmt.Errorf("model produced no output tensor")
	}

	switch data := out.Data().(type) {
	case []float32:
		return data, nil
	case []float64:
		logits := make([]float32, len(data))
		for i, v := range data {
			logits[i] = float32(v)
		}
		return logits, nil
	default:
		return nil, fmt.Errorf("unexpected output type %T", data)
	}
}

func (a *PolicyAgent) argmax(o *game.Observation, actions []game.Action, logits []float32) game.Action {
	best := actions[0]
	bestLogit := logits[ActionIndex(o, best)]
	for _, action := range actions[1:] {
		if logit := logits[ActionIndex(o, action)]; logit > bestLogit {
			best, bestLogit = action, logit
		}
	}
	return best
}

func (a *PolicyAgent) sample(o *game.Observation, actions []game.Action, logits []float32) game.Action {
	weights := make([]float64, len(actions))
	hottest := math.Inf(-1)
	for i, action := range actions {
		weights[i] = float64(logits[ActionIndex(o, action)]) / a.temperature
		if weights[i] > hottest {
			hottest = weights[i]
		}
	}

	total := 0.0
	for i := range weights {
		weights[i] = math.Exp(weights[i] - hottest)
		total += weights[i]
	}

	draw := a.rng.Float64() * total
	for i, weight := range weights {
		draw -= weight
		if draw <= 0 {
			return actions[i]
		}
	}
	return actions[len(actions)-1]
}

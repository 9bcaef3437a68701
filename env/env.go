// Package env wraps sessions in a reinforcement-learning loop: Reset
// builds a fresh session on a generated grid, Step applies one joint
// action and reports per-agent rewards alongside termination and
// truncation signals.
package env

import (
	"fmt"

	"github.com/nicksrusso/generals-bots/game"
	"github.com/nicksrusso/generals-bots/gridgen"
)

// RewardFn scores one agent's standing on the stepped session.
type RewardFn func(agentID string, g *game.Game) float64

// WinLossReward pays +1 to the winner and -1 to everyone else once the
// session is decided, and 0 while it runs. The default reward.
func WinLossReward(agentID string, g *game.Game) float64 {
	if !g.IsDone() {
		return 0
	}
	if g.Winner() == agentID {
		return 1
	}
	return -1
}

type Option func(e *Env)

// WithLayout pins every reset to one fixed layout instead of generating
// a fresh grid per seed.
func WithLayout(layout string) Option {
	return func(e *Env) {
		e.layout = layout
	}
}

func WithFactoryOptions(options ...gridgen.Option) Option {
	return func(e *Env) {
		e.factoryOptions = options
	}
}

func WithGameOptions(options ...game.Option) Option {
	return func(e *Env) {
		e.gameOptions = options
	}
}

func WithRewardFn(reward RewardFn) Option {
	return func(e *Env) {
		if reward != nil {
			e.reward = reward
		}
	}
}

// Env is a sequential harness around one session at a time. It is not
// safe for concurrent use; run parallel rollouts on separate Envs.
type Env struct {
	agents         []string
	layout         string
	factoryOptions []gridgen.Option
	gameOptions    []game.Option
	reward         RewardFn

	session *game.Game
}

func NewEnv(agents []string, options ...Option) *Env {
	e := &Env{
		agents: append([]string(nil), agents...),
		reward: WinLossReward,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Reset discards any running session and starts a new one. The seed
// drives grid generation, so equal seeds reproduce equal starts.
func (e *Env) Reset(seed uint64) (map[string]game.Observation, map[string]game.Info, error) {
	layout := e.layout
	if layout == "" {
		generated, err := gridgen.NewFactory(seed, e.factoryOptions...).Generate(len(e.agents))
		if err != nil {
			return nil, nil, fmt.Errorf("generate grid: %w", err)
		}
		layout = generated
	}

	session, err := game.New(layout, e.agents, e.gameOptions...)
	if err != nil {
		return nil, nil, fmt.Errorf("start session: %w", err)
	}
	e.session = session
	return session.Observations(), session.Infos(), nil
}

// Step advances the session by one tick. Missing entries count as a pass
// for that agent. Terminated and truncated are mutually exclusive, with
// termination taking precedence.
func (e *Env) Step(actions map[string]game.Action) (map[string]game.Observation, map[string]float64, bool, bool, map[string]game.Info) {
	if e.session == nil {
		panic("Step before Reset")
	}

	observations, infos := e.session.Step(actions)
	terminated := e.session.IsDone()
	truncated := !terminated && e.session.Truncated()

	rewards := make(map[string]float64, len(e.agents))
	for _, id := range e.agents {
		rewards[id] = e.reward(id, e.session)
	}
	return observations, rewards, terminated, truncated, infos
}

// Session exposes the running session for renderers and debugging, nil
// before the first Reset.
func (e *Env) Session() *game.Game {
	return e.session
}

// Agents returns the configured agent IDs in priority order for a fresh
// session.
func (e *Env) Agents() []string {
	return append([]string(nil), e.agents...)
}

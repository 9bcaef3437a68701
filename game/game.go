package game

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/nicksrusso/generals-bots/utils"
)

// Default session limits. Both signal truncation to the harness; the engine
// itself never stops on them.
const (
	DefaultMaxArmyValue = 100_000
	DefaultMaxTimestep  = 100_000
)

// incrementRate is the tick period of the global all-types production bump.
const incrementRate = 50

// Info summarizes one agent's standing after a tick.
type Info struct {
	Army     int  `json:"army"`
	Land     int  `json:"land"`
	IsDone   bool `json:"is_done"`
	IsWinner bool `json:"is_winner"`
}

// Game is the authoritative turn engine for one session. It owns its Grid
// exclusively, applies one joint action per Step in the current priority
// order, resolves combat, runs production, and detects the win condition.
// It is single-threaded: Step runs to completion with no internal
// concurrency, and concurrent use of one Game is not allowed.
type Game struct {
	grid   *Grid
	agents []string

	// order holds agent indices in the priority order for the upcoming
	// tick; it is reversed at the end of every Step.
	order []int

	tick   int
	winner int
	loser  int

	maxArmyValue float64
	maxTimestep  int

	// rng is non-nil only when stochastic combat is configured.
	rng rand.Source
}

// Option configures a Game at construction.
type Option func(*Game)

// WithMaxArmyValue sets the army total that signals truncation.
func WithMaxArmyValue(value float64) Option {
	return func(g *Game) {
		if value > 0 {
			g.maxArmyValue = value
		}
	}
}

// WithMaxTimestep sets the tick count that signals truncation.
func WithMaxTimestep(ticks int) Option {
	return func(g *Game) {
		if ticks > 0 {
			g.maxTimestep = ticks
		}
	}
}

// WithStochasticCombat switches combat losses from the deterministic
// fraction to Beta-sampled casualties drawn from the given seed. Winner
// selection stays deterministic.
func WithStochasticCombat(seed uint64) Option {
	return func(g *Game) {
		g.rng = rand.NewSource(seed)
	}
}

// New builds a session from a symbolic grid layout and the agent IDs, in
// priority order for the first tick. Construction fails on malformed
// layouts, duplicate IDs, or an agent/general mismatch.
func New(layout string, agents []string, options ...Option) (*Game, error) {
	if len(agents) < 2 {
		return nil, fmt.Errorf("need at least 2 agents, got %d", len(agents))
	}
	seen := make(map[string]bool, len(agents))
	for _, id := range agents {
		if id == "" {
			return nil, fmt.Errorf("empty agent ID")
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate agent ID %q", id)
		}
		seen[id] = true
	}

	grid, err := ParseGrid(layout, len(agents))
	if err != nil {
		return nil, fmt.Errorf("parse grid: %w", err)
	}

	g := &Game{
		grid:         grid,
		agents:       append([]string(nil), agents...),
		order:        make([]int, len(agents)),
		winner:       -1,
		loser:        -1,
		maxArmyValue: DefaultMaxArmyValue,
		maxTimestep:  DefaultMaxTimestep,
	}
	for i := range g.order {
		g.order[i] = i
	}
	for _, option := range options {
		option(g)
	}
	return g, nil
}

// Agents returns the agent IDs in construction order.
func (g *Game) Agents() []string {
	return append([]string(nil), g.agents...)
}

// AgentOrder returns the agent IDs in priority order for the upcoming tick.
func (g *Game) AgentOrder() []string {
	ids := make([]string, len(g.order))
	for i, idx := range g.order {
		ids[i] = g.agents[idx]
	}
	return ids
}

// Grid exposes the board for read-only consumers such as renderers.
func (g *Game) Grid() *Grid {
	return g.grid
}

// Tick returns the current tick counter.
func (g *Game) Tick() int {
	return g.tick
}

// IsDone reports whether a general has been captured.
func (g *Game) IsDone() bool {
	return g.winner >= 0
}

// Winner returns the winning agent's ID, or "" while in progress.
func (g *Game) Winner() string {
	if g.winner < 0 {
		return ""
	}
	return g.agents[g.winner]
}

// Truncated reports whether a configured limit has been reached: the tick
// counter or any agent's army total. It is advisory; the engine keeps
// stepping regardless.
func (g *Game) Truncated() bool {
	if g.tick >= g.maxTimestep {
		return true
	}
	for i := range g.agents {
		if g.grid.ArmyCount(i) >= g.maxArmyValue {
			return true
		}
	}
	return false
}

// Observations builds every agent's current fogged view without advancing
// the session.
func (g *Game) Observations() map[string]Observation {
	return g.observations()
}

// Infos returns the per-agent standing summary.
func (g *Game) Infos() map[string]Info {
	infos := make(map[string]Info, len(g.agents))
	for i, id := range g.agents {
		infos[id] = Info{
			Army:     int(g.grid.ArmyCount(i)),
			Land:     g.grid.LandCount(i),
			IsDone:   g.IsDone(),
			IsWinner: g.winner == i,
		}
	}
	return infos
}

// Step advances the session by one tick with a joint action: one entry per
// agent ID, applied strictly sequentially in the current priority order, so
// earlier agents' mutations are visible to later ones. Invalid or missing
// actions are skipped for that agent only. Once a general has been captured
// the session is finished and every further Step is a pure pass-through
// that returns the final observations without touching state.
func (g *Game) Step(actions map[string]Action) (map[string]Observation, map[string]Info) {
	if g.IsDone() {
		return g.observations(), g.Infos()
	}

	for _, idx := range g.order {
		action, ok := actions[g.agents[idx]]
		if !ok {
			// A missing entry counts as a pass.
			continue
		}
		g.apply(idx, action)
	}

	// Alternate priority so neither agent keeps first-mover advantage.
	utils.Reverse(g.order)
	g.tick++

	if g.IsDone() {
		g.grid.TransferOwnership(g.loser, g.winner)
	} else {
		g.produce()
	}

	return g.observations(), g.Infos()
}

// apply executes one agent's action. Every reason to reject it is a silent
// skip: the rest of the tick must be unaffected.
func (g *Game) apply(agent int, action Action) {
	if action.Pass || !action.Direction.Valid() || !action.UnitType.Valid() {
		return
	}
	if !g.grid.InBounds(action.Row, action.Col) {
		return
	}
	src := g.grid.Index(action.Row, action.Col)

	count := g.grid.UnitCount(action.UnitType, src)
	toMove := count - 1
	if action.Split {
		toMove = count / 2
	}
	if toMove < 1 {
		return
	}
	// An earlier move this tick may have drained the source.
	toMove = math.Min(toMove, g.grid.UnitCount(action.UnitType, src)-1)
	if toMove < 1 || !g.grid.Owns(agent, src) {
		return
	}

	dr, dc := action.Direction.Offset()
	destRow, destCol := action.Row+dr, action.Col+dc
	if !g.grid.InBounds(destRow, destCol) {
		return
	}
	dest := g.grid.Index(destRow, destCol)
	if g.grid.Mountain(dest) {
		return
	}

	target := g.grid.OwnerAt(dest)
	g.grid.AddUnits(action.UnitType, src, -toMove)

	if target == agent {
		// Reinforcing an owned cell, no combat.
		g.grid.AddUnits(action.UnitType, dest, toMove)
		return
	}

	var attacker Units
	attacker[action.UnitType] = toMove
	attackerWon, remaining := g.resolve(attacker, g.grid.UnitCounts(dest))
	g.grid.SetUnitCounts(dest, remaining)

	if attackerWon {
		g.grid.SetOwner(dest, agent)
		if target != NeutralOwner && g.grid.GeneralCell(target) == dest {
			// Terminal, but agents later in this tick's order still act.
			g.winner = agent
			g.loser = target
		}
	}
}

func (g *Game) resolve(attacker, defender Units) (bool, Units) {
	if g.rng != nil {
		return resolveCombatStochastic(attacker, defender, g.rng)
	}
	return ResolveCombat(attacker, defender)
}

// produce runs the production schedule for the tick that just completed.
func (g *Game) produce() {
	everyCell := g.tick%incrementRate == 0
	structures := g.tick%2 == 0 && g.tick > 0
	if !everyCell && !structures {
		return
	}

	for agent := range g.agents {
		owned := g.grid.OwnedMask(agent)
		for cell, isOwned := range owned {
			if !isOwned {
				continue
			}
			if everyCell {
				for _, t := range UnitTypes {
					g.grid.AddUnits(t, cell, 1)
				}
			}
			if structures && (g.grid.General(cell) || g.grid.City(cell)) {
				g.grid.AddUnits(Infantry, cell, 1)
				if g.tick%6 == 0 {
					g.grid.AddUnits(Cavalry, cell, 1)
				}
				if g.tick%8 == 0 {
					g.grid.AddUnits(Archers, cell, 1)
				}
			}
		}
	}
}

// Copy returns a deep copy of the session. The board, order, and counters
// are independent; a stochastic combat source, if configured, is shared
// with the original, so copies meant for concurrent search should be built
// from deterministic sessions.
func (g *Game) Copy() *Game {
	clone := &Game{
		grid:         g.grid.Copy(),
		agents:       append([]string(nil), g.agents...),
		order:        append([]int(nil), g.order...),
		tick:         g.tick,
		winner:       g.winner,
		loser:        g.loser,
		maxArmyValue: g.maxArmyValue,
		maxTimestep:  g.maxTimestep,
		rng:          g.rng,
	}
	return clone
}

package game

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
)

// SearchState adapts a simultaneous-move session to the sequential State
// interface: agents stage their actions one ply at a time, and the tick
// resolves when the last agent has staged. Staging order fixes who sees
// whose commitment inside the search tree; resolution inside Step still
// follows the session's priority order. The underlying session is shared
// between plies of the same tick and copied once per resolved tick, so
// Play never disturbs the session the search started from.
type SearchState struct {
	game   *Game
	order  []int // staging order, lead agent first
	staged map[string]Action
	turn   int
}

// NewSearchState starts a sequential search view from a session snapshot,
// with the current priority agent staging first.
func NewSearchState(g *Game) *SearchState {
	return NewSearchStateFor(g, g.agents[g.order[0]])
}

// NewSearchStateFor starts a search view in which agentID stages first on
// every tick. Searching agents model themselves as committing before
// their opponents respond. Panics on an unknown agent.
func NewSearchStateFor(g *Game, agentID string) *SearchState {
	lead := -1
	for idx, id := range g.agents {
		if id == agentID {
			lead = idx
		}
	}
	if lead < 0 {
		panic(fmt.Sprintf("unknown agent %q", agentID))
	}

	snapshot := g.Copy()
	return &SearchState{
		game:   snapshot,
		order:  rotateToFront(snapshot.order, lead),
		staged: make(map[string]Action),
	}
}

// Player returns the agent to act on the current ply.
func (s *SearchState) Player() string {
	return s.game.agents[s.order[s.turn]]
}

// LegalActions returns the acting agent's moves, or nil on a finished
// session so search treats it as terminal.
func (s *SearchState) LegalActions() []Action {
	if s.game.IsDone() {
		return nil
	}
	return s.game.LegalActions(s.Player())
}

// Play stages the acting agent's action. When every agent has staged, the
// tick resolves on a fresh copy of the session and the lead agent stages
// first again.
func (s *SearchState) Play(action Action) State {
	staged := make(map[string]Action, len(s.staged)+1)
	for id, a := range s.staged {
		staged[id] = a
	}
	staged[s.Player()] = action

	if s.turn+1 < len(s.order) {
		return &SearchState{game: s.game, order: s.order, staged: staged, turn: s.turn + 1}
	}

	next := s.game.Copy()
	next.Step(staged)
	return &SearchState{
		game:   next,
		order:  rotateToFront(next.order, s.order[0]),
		staged: make(map[string]Action),
	}
}

// Winner returns the winning agent's ID, or "" while undecided.
func (s *SearchState) Winner() string {
	return s.game.Winner()
}

// Hash folds the dynamic session state and the staged plies into one
// digest. Slices are hashed in fixed index order so equal states always
// collide.
func (s *SearchState) Hash() StateHash {
	h := fnv.New64a()
	g := s.game

	binary.Write(h, binary.LittleEndian, int64(g.tick))
	binary.Write(h, binary.LittleEndian, int64(g.winner))
	binary.Write(h, binary.LittleEndian, int64(s.turn))
	for _, idx := range g.order {
		binary.Write(h, binary.LittleEndian, int64(idx))
	}
	for _, idx := range s.order {
		binary.Write(h, binary.LittleEndian, int64(idx))
	}

	for cell := 0; cell < g.grid.Cells(); cell++ {
		binary.Write(h, binary.LittleEndian, g.grid.UnitCounts(cell))
		binary.Write(h, binary.LittleEndian, int64(g.grid.OwnerAt(cell)))
	}

	for i := 0; i < s.turn; i++ {
		a := s.staged[g.agents[s.order[i]]]
		binary.Write(h, binary.LittleEndian, a.Pass)
		binary.Write(h, binary.LittleEndian, int64(a.Row))
		binary.Write(h, binary.LittleEndian, int64(a.Col))
		binary.Write(h, binary.LittleEndian, int64(a.Direction))
		binary.Write(h, binary.LittleEndian, int64(a.UnitType))
		binary.Write(h, binary.LittleEndian, a.Split)
	}

	return StateHash(h.Sum64())
}

// Session exposes the adapted session snapshot for evaluation functions.
func (s *SearchState) Session() *Game {
	return s.game
}

func rotateToFront(order []int, lead int) []int {
	start := 0
	for i, idx := range order {
		if idx == lead {
			start = i
			break
		}
	}

	rotated := make([]int, 0, len(order))
	rotated = append(rotated, order[start:]...)
	rotated = append(rotated, order[:start]...)
	return rotated
}

package game

// StateHash identifies a search state, used to re-root a tree between moves.
type StateHash uint64

// State is the sequential view of a session that tree search operates on:
// one agent acts per ply, in the session's priority order. Implementations
// are immutable - Play always returns a new state and never mutates the
// receiver.
type State interface {
	Player() string
	LegalActions() []Action
	Play(Action) State
	Hash() StateHash
	Winner() string
}

// Evaluate scores a state between -1 and 1 from the current player's
// perspective, positive when the position favors them.
type Evaluate func(State) float64

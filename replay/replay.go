// Package replay records session transcripts and re-simulates them. A
// record carries everything a fresh process needs to replay the exact
// session: the layout, the agents in starting priority order, every
// joint action, and periodic state hashes for drift detection.
package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nicksrusso/generals-bots/game"
)

// checkpointInterval is how often a state hash lands in the record.
const checkpointInterval = 100

// Checkpoint pins the session hash at one tick.
type Checkpoint struct {
	Tick int            `json:"tick"`
	Hash game.StateHash `json:"hash"`
}

// Record is a complete session transcript. Stochastic sessions replay
// exactly only when the record carries their combat seed.
type Record struct {
	Layout      string                   `json:"layout"`
	Agents      []string                 `json:"agents"`
	Stochastic  bool                     `json:"stochastic,omitempty"`
	Seed        uint64                   `json:"seed,omitempty"`
	Actions     []map[string]game.Action `json:"actions"`
	Winner      string                   `json:"winner"`
	Ticks       int                      `json:"ticks"`
	Checkpoints []Checkpoint             `json:"checkpoints"`
}

type RecorderOption func(r *Recorder)

// WithStochasticSeed marks the record as stochastic so re-simulation
// reseeds combat identically.
func WithStochasticSeed(seed uint64) RecorderOption {
	return func(r *Recorder) {
		r.record.Stochastic = true
		r.record.Seed = seed
	}
}

// Recorder accumulates a record tick by tick. It satisfies the engine's
// observer contract, so wiring it in is one option on the engine.
type Recorder struct {
	record Record
}

func NewRecorder(layout string, session *game.Game, options ...RecorderOption) *Recorder {
	r := &Recorder{record: Record{
		Layout: layout,
		Agents: session.AgentOrder(),
	}}
	for _, option := range options {
		option(r)
	}
	r.checkpoint(session)
	return r
}

func (r *Recorder) OnTick(session *game.Game, actions map[string]game.Action) {
	r.record.Actions = append(r.record.Actions, actions)
	if session.Tick()%checkpointInterval == 0 {
		r.checkpoint(session)
	}
}

// Finish seals the record with the outcome and a final checkpoint.
func (r *Recorder) Finish(session *game.Game) Record {
	r.record.Winner = session.Winner()
	r.record.Ticks = session.Tick()
	last := len(r.record.Checkpoints) - 1
	if r.record.Checkpoints[last].Tick != session.Tick() {
		r.checkpoint(session)
	}
	return r.record
}

func (r *Recorder) checkpoint(session *game.Game) {
	r.record.Checkpoints = append(r.record.Checkpoints, Checkpoint{
		Tick: session.Tick(),
		Hash: game.NewSearchState(session).Hash(),
	})
}

// Save writes the record as indented JSON.
func Save(path string, record Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode replay: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write replay: %w", err)
	}
	return nil
}

func Load(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("failed to read replay: %w", err)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("failed to decode replay: %w", err)
	}
	return record, nil
}

// Resimulate replays the record from the start and verifies every stored
// checkpoint and the final outcome. It returns the replayed session.
func Resimulate(record Record) (*game.Game, error) {
	var options []game.Option
	if record.Stochastic {
		options = append(options, game.WithStochasticCombat(record.Seed))
	}
	session, err := game.New(record.Layout, record.Agents, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild session: %w", err)
	}

	next := 0
	verify := func() error {
		for next < len(record.Checkpoints) && record.Checkpoints[next].Tick == session.Tick() {
			got := game.NewSearchState(session).Hash()
			if got != record.Checkpoints[next].Hash {
				return fmt.Errorf("tick %d hash %d does not match recorded %d",
					session.Tick(), got, record.Checkpoints[next].Hash)
			}
			next++
		}
		return nil
	}

	if err := verify(); err != nil {
		return nil, err
	}
	for _, actions := range record.Actions {
		session.Step(actions)
		if err := verify(); err != nil {
			return nil, err
		}
	}
	if winner := session.Winner(); winner != record.Winner {
		return nil, fmt.Errorf("replayed winner %q does not match recorded %q",
			winner, record.Winner)
	}
	return session, nil
}

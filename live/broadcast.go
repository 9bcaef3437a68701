package live

import (
	"bytes"

	"github.com/rs/zerolog/log"

	"github.com/nicksrusso/generals-bots/game"
	"github.com/nicksrusso/generals-bots/render"
)

// TickUpdate is the per-tick payload pushed to spectators.
type TickUpdate struct {
	Tick    int                    `json:"tick"`
	Board   string                 `json:"board"`
	Scores  map[string]game.Info   `json:"scores"`
	Actions map[string]game.Action `json:"actions"`
}

// EndUpdate closes a match stream once the session is decided.
type EndUpdate struct {
	Winner string `json:"winner"`
	Ticks  int    `json:"ticks"`
}

// Broadcaster turns resolved engine ticks into hub events so spectators
// see the board as it evolves. One Broadcaster serves one match; the
// engine calls it from its own goroutine, never concurrently.
type Broadcaster struct {
	hub     *Hub
	matchID string
	board   bytes.Buffer
	frame   *render.Renderer
}

// NewBroadcaster creates a Broadcaster publishing matchID onto hub.
func NewBroadcaster(hub *Hub, matchID string) *Broadcaster {
	b := &Broadcaster{hub: hub, matchID: matchID}
	b.frame = render.New(&b.board, false)
	return b
}

// OnTick renders the board after a resolved tick and broadcasts it with
// the scores and the joint action that produced it. A decided session
// gets a closing ended event after its final tick.
func (b *Broadcaster) OnTick(session *game.Game, actions map[string]game.Action) {
	b.board.Reset()
	if err := b.frame.Frame(session); err != nil {
		log.Error().Msgf("failed to render match %s: %v", b.matchID, err)
		return
	}

	b.hub.Broadcast(b.matchID, Event{
		Type:    EventTick,
		MatchID: b.matchID,
		Data: TickUpdate{
			Tick:    session.Tick(),
			Board:   b.board.String(),
			Scores:  session.Infos(),
			Actions: actions,
		},
	})

	if session.IsDone() {
		b.hub.Broadcast(b.matchID, Event{
			Type:    EventEnded,
			MatchID: b.matchID,
			Data:    EndUpdate{Winner: session.Winner(), Ticks: session.Tick()},
		})
	}
}

package replay

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nicksrusso/generals-bots/game"
)

/**
Tests session transcripts:
- record a decided session and re-simulate it to the same winner
- save/load round trip through JSON
- tampered checkpoints and actions fail re-simulation
*/

// playDecidedSession steps a 1x3 session to a capture: production builds
// mixed garrisons, then two infantry pushes take the middle cell and the
// opposing general.
func playDecidedSession(t *testing.T) (*game.Game, *Recorder) {
	t.Helper()
	session, err := game.New("A.B", []string{"alice", "bob"})
	require.NoError(t, err)
	recorder := NewRecorder("A.B", session)

	script := make([]map[string]game.Action, 6)
	script = append(script,
		map[string]game.Action{
			"alice": {Row: 0, Col: 0, Direction: game.Right, UnitType: game.Infantry},
		},
		map[string]game.Action{
			"alice": {Row: 0, Col: 1, Direction: game.Right, UnitType: game.Infantry},
		},
	)
	for _, actions := range script {
		session.Step(actions)
		recorder.OnTick(session, actions)
	}
	require.Equal(t, "alice", session.Winner())
	return session, recorder
}

func TestRecordAndResimulate(t *testing.T) {
	session, recorder := playDecidedSession(t)
	record := recorder.Finish(session)

	require.Equal(t, "alice", record.Winner)
	require.Equal(t, 8, record.Ticks)
	require.Len(t, record.Actions, 8)
	require.Len(t, record.Checkpoints, 2, "Start and final hashes bracket a short session")

	replayed, err := Resimulate(record)
	require.NoError(t, err)
	require.Equal(t, "alice", replayed.Winner())
	require.Equal(t, record.Checkpoints[1].Hash, game.NewSearchState(replayed).Hash())
}

func TestSaveLoad(t *testing.T) {
	session, recorder := playDecidedSession(t)
	record := recorder.Finish(session)
	path := filepath.Join(t.TempDir(), "session.json")

	require.NoError(t, Save(path, record))
	loaded, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, record, loaded)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestResimulateDetectsDrift(t *testing.T) {
	t.Run("a corrupted checkpoint fails", func(t *testing.T) {
		session, recorder := playDecidedSession(t)
		record := recorder.Finish(session)
		record.Checkpoints[1].Hash++

		_, err := Resimulate(record)
		require.ErrorContains(t, err, "does not match recorded")
	})

	t.Run("a corrupted action changes the outcome", func(t *testing.T) {
		session, recorder := playDecidedSession(t)
		record := recorder.Finish(session)
		record.Actions[7] = map[string]game.Action{"alice": {Pass: true}}

		_, err := Resimulate(record)
		require.Error(t, err)
	})

	t.Run("a bad layout cannot rebuild", func(t *testing.T) {
		session, recorder := playDecidedSession(t)
		record := recorder.Finish(session)
		record.Layout = "??"

		_, err := Resimulate(record)
		require.ErrorContains(t, err, "failed to rebuild session")
	})
}

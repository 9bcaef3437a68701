package metrics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

/**
Tests the CSV store:
- each writer emits a header row plus one row per record
- multi-agent cells and decision times survive formatting
*/

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err, "file must exist")
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err, "file must parse as CSV")
	return rows
}

func TestWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	writer, err := NewWriterAt(dir)
	require.NoError(t, err, "writer must create its directory")
	require.Equal(t, dir, writer.BaseDir())

	t.Run("agent configs", func(t *testing.T) {
		configs := []AgentConfig{
			{ID: 0, Goroutines: 1, Episodes: 128},
			{ID: 1, Goroutines: 8, Duration: 10 * time.Millisecond, Cutoff: 50},
		}
		require.NoError(t, writer.WriteAgentConfigs(configs))

		rows := readCSV(t, filepath.Join(dir, "agent_configs.csv"))
		require.Equal(t, []string{"id", "goroutines", "duration", "episodes", "cutoff"}, rows[0])
		require.Len(t, rows, 3, "header plus one row per config")
		require.Equal(t, []string{"1", "8", "10ms", "0", "50"}, rows[2])
	})

	t.Run("game records", func(t *testing.T) {
		records := []GameRecord{
			{ID: 1, Agents: []string{"random", "expander"}, Winner: "expander", Ticks: 48, Duration: time.Second},
			{ID: 2, Agents: []string{"random", "random#2"}, Ticks: 300, Duration: 2 * time.Second},
		}
		require.NoError(t, writer.WriteGameRecords(records))

		rows := readCSV(t, filepath.Join(dir, "game_records.csv"))
		require.Equal(t, []string{"id", "agents", "winner", "ticks", "duration"}, rows[0])
		require.Equal(t, []string{"1", "random|expander", "expander", "48", "1s"}, rows[1])
		require.Equal(t, "", rows[2][2], "a truncated game has no winner")
	})

	t.Run("move records", func(t *testing.T) {
		records := []MoveRecord{
			{GameID: 1, Tick: 3, Agent: "expander", Action: "infantry (2,4) right", ArmyAfter: 12, LandAfter: 5, DecisionMS: 1.5},
		}
		require.NoError(t, writer.WriteMoveRecords(records))

		rows := readCSV(t, filepath.Join(dir, "move_records.csv"))
		require.Equal(t, []string{"game", "tick", "agent", "action", "army_after", "land_after", "decision_ms"}, rows[0])
		require.Equal(t, []string{"1", "3", "expander", "infantry (2,4) right", "12", "5", "1.500"}, rows[1])
	})

	t.Run("search records", func(t *testing.T) {
		records := []SearchRecord{
			{GameID: 2, MoveMetric: MoveMetric{Step: 7, Player: "agent1", SearchMetric: SearchMetric{
				Duration: 5 * time.Millisecond, Episodes: 128, FullPlayouts: 40, IsTreeReset: true,
			}}},
		}
		require.NoError(t, writer.WriteSearchRecords(records))

		rows := readCSV(t, filepath.Join(dir, "search_records.csv"))
		require.Equal(t, []string{"game", "step", "player", "duration", "episodes", "full_playouts", "is_tree_reset"}, rows[0])
		require.Equal(t, []string{"2", "7", "agent1", "5ms", "128", "40", "true"}, rows[1])
	})
}

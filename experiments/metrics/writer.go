package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// GameRecord summarizes one completed match.
type GameRecord struct {
	ID       int
	Agents   []string
	Winner   string // Empty when truncated
	Ticks    int
	Duration time.Duration
}

// MoveRecord is one agent decision inside a recorded match.
type MoveRecord struct {
	GameID     int
	Tick       int
	Agent      string
	Action     string
	ArmyAfter  int
	LandAfter  int
	DecisionMS float64
}

// SearchRecord carries the search internals behind one recorded move.
type SearchRecord struct {
	GameID int
	MoveMetric
}

// Writer stores one experiment's records as CSV files under a base
// directory.
type Writer struct {
	baseDir string
}

// NewWriter creates a writer under experiments/<name>/<timestamp>.
func NewWriter(name string) (*Writer, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	return NewWriterAt(filepath.Join("experiments", name, timestamp))
}

// NewWriterAt creates a writer using the given directory as is.
func NewWriterAt(baseDir string) (*Writer, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &Writer{baseDir: baseDir}, nil
}

// BaseDir reports where the writer stores its files.
func (w *Writer) BaseDir() string {
	return w.baseDir
}

func (w *Writer) write(filename string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, filename)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", filename, err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write %s row: %w", filename, err)
		}
	}
	return nil
}

// WriteAgentConfigs stores the search configurations under comparison.
func (w *Writer) WriteAgentConfigs(configs []AgentConfig) error {
	header := []string{"id", "goroutines", "duration", "episodes", "cutoff"}
	rows := make([][]string, 0, len(configs))
	for _, config := range configs {
		rows = append(rows, []string{
			strconv.Itoa(config.ID),
			strconv.Itoa(config.Goroutines),
			config.Duration.String(),
			strconv.Itoa(config.Episodes),
			strconv.Itoa(config.Cutoff),
		})
	}
	return w.write("agent_configs.csv", header, rows)
}

// WriteGameRecords stores one row per completed match.
func (w *Writer) WriteGameRecords(records []GameRecord) error {
	header := []string{"id", "agents", "winner", "ticks", "duration"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.ID),
			strings.Join(record.Agents, "|"),
			record.Winner,
			strconv.Itoa(record.Ticks),
			record.Duration.String(),
		})
	}
	return w.write("game_records.csv", header, rows)
}

// WriteMoveRecords stores one row per agent decision.
func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	header := []string{"game", "tick", "agent", "action", "army_after", "land_after", "decision_ms"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.GameID),
			strconv.Itoa(record.Tick),
			record.Agent,
			record.Action,
			strconv.Itoa(record.ArmyAfter),
			strconv.Itoa(record.LandAfter),
			strconv.FormatFloat(record.DecisionMS, 'f', 3, 64),
		})
	}
	return w.write("move_records.csv", header, rows)
}

// WriteSearchRecords stores the per-move search internals.
func (w *Writer) WriteSearchRecords(records []SearchRecord) error {
	header := []string{"game", "step", "player", "duration", "episodes", "full_playouts", "is_tree_reset"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.GameID),
			strconv.Itoa(record.Step),
			record.Player,
			record.Duration.String(),
			strconv.Itoa(record.Episodes),
			strconv.Itoa(record.FullPlayouts),
			strconv.FormatBool(record.IsTreeReset),
		})
	}
	return w.write("search_records.csv", header, rows)
}

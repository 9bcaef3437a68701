package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nicksrusso/generals-bots/game"
)

/**
Tests text frames:
- plain snapshot: terrain symbols, army counts, aligned columns, scores
- colored owned cells wrapped in ANSI codes, neutral cells untouched
- writer failures surface as errors
*/

func newBoard(t *testing.T) *game.Game {
	t.Helper()
	g, err := game.New("A#.\n.2.\n..B", []string{"alice", "bob"})
	require.NoError(t, err)
	return g
}

func TestFramePlain(t *testing.T) {
	var out strings.Builder
	renderer := New(&out, false)

	require.NoError(t, renderer.Frame(newBoard(t)))

	want := "tick 0\n" +
		"G1    #     .\n" +
		".     C42   .\n" +
		".     .     G1\n" +
		"alice: army=1 land=1\n" +
		"bob: army=1 land=1\n"
	require.Equal(t, want, out.String())
}

func TestFrameColor(t *testing.T) {
	var out strings.Builder
	renderer := New(&out, true)

	require.NoError(t, renderer.Frame(newBoard(t)))
	frame := out.String()

	require.Contains(t, frame, "\x1b[31mG1\x1b[0m", "alice's general wears her color")
	require.Contains(t, frame, "\x1b[34mG1\x1b[0m", "bob's general wears his color")
	require.Contains(t, frame, "C42 ", "Neutral cities stay uncolored and aligned")
	require.NotContains(t, frame, "\x1b[31mC42")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestFrameWriteError(t *testing.T) {
	renderer := New(failingWriter{}, false)
	require.Error(t, renderer.Frame(newBoard(t)))
}

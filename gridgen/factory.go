// Package gridgen builds random symbolic grid layouts for new sessions.
package gridgen

import (
	"fmt"
	"strings"

	"golang.org/x/exp/rand"

	"github.com/nicksrusso/generals-bots/game"
)

// Default generation parameters.
const (
	DefaultMinDim          = 15
	DefaultMaxDim          = 23
	DefaultMountainDensity = 0.2
	DefaultCityDensity     = 0.05
)

// maxAttempts bounds regeneration when mountains keep disconnecting the
// generals.
const maxAttempts = 100

// placementTries bounds the search for a general position that keeps its
// distance from the others within one layout.
const placementTries = 32

type Option func(f *Factory)

func WithMinDims(height, width int) Option {
	return func(f *Factory) {
		if height > 0 && width > 0 {
			f.minHeight, f.minWidth = height, width
		}
	}
}

func WithMaxDims(height, width int) Option {
	return func(f *Factory) {
		if height > 0 && width > 0 {
			f.maxHeight, f.maxWidth = height, width
		}
	}
}

func WithMountainDensity(density float64) Option {
	return func(f *Factory) {
		if density >= 0 && density <= 1 {
			f.mountainDensity = density
		}
	}
}

func WithCityDensity(density float64) Option {
	return func(f *Factory) {
		if density >= 0 && density <= 1 {
			f.cityDensity = density
		}
	}
}

// Factory samples layouts: random dimensions within the configured range,
// mountains and cities by density, then mutually distant generals with a
// connectivity guarantee between them. A given seed always reproduces the
// same sequence of layouts.
type Factory struct {
	minHeight, minWidth int
	maxHeight, maxWidth int
	mountainDensity     float64
	cityDensity         float64
	rng                 *rand.Rand
}

func NewFactory(seed uint64, options ...Option) *Factory {
	f := &Factory{
		minHeight:       DefaultMinDim,
		minWidth:        DefaultMinDim,
		maxHeight:       DefaultMaxDim,
		maxWidth:        DefaultMaxDim,
		mountainDensity: DefaultMountainDensity,
		cityDensity:     DefaultCityDensity,
		rng:             rand.New(rand.NewSource(seed)),
	}
	for _, option := range options {
		option(f)
	}
	if f.maxHeight < f.minHeight {
		f.maxHeight = f.minHeight
	}
	if f.maxWidth < f.minWidth {
		f.maxWidth = f.minWidth
	}
	return f
}

// Generate returns a parseable layout holding numAgents generals that can
// all reach each other around the mountains. It fails only when no such
// layout shows up within the attempt budget.
func (f *Factory) Generate(numAgents int) (string, error) {
	if numAgents < 2 {
		return "", fmt.Errorf("need at least 2 generals, got %d", numAgents)
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		layout, ok := f.sample(numAgents)
		if !ok {
			continue
		}
		if _, err := game.ParseGrid(layout, numAgents); err != nil {
			continue
		}
		return layout, nil
	}
	return "", fmt.Errorf("no connected layout for %d agents after %d attempts",
		numAgents, maxAttempts)
}

func (f *Factory) sample(numAgents int) (string, bool) {
	height := f.minHeight + f.rng.Intn(f.maxHeight-f.minHeight+1)
	width := f.minWidth + f.rng.Intn(f.maxWidth-f.minWidth+1)

	rows := make([][]byte, height)
	for r := range rows {
		rows[r] = make([]byte, width)
		for c := range rows[r] {
			rows[r][c] = f.terrain()
		}
	}

	generals, ok := f.placeGenerals(rows, numAgents)
	if !ok || !connected(rows, generals) {
		return "", false
	}

	lines := make([]string, height)
	for r, row := range rows {
		lines[r] = string(row)
	}
	return strings.Join(lines, "\n"), true
}

// terrain draws one cell symbol so the expected mountain and city shares
// match the configured densities.
func (f *Factory) terrain() byte {
	p := f.rng.Float64()
	switch {
	case p < f.mountainDensity:
		return '#'
	case p < f.mountainDensity+f.cityDensity:
		if d := f.rng.Intn(11); d < 10 {
			return byte('0' + d)
		}
		return 'x'
	default:
		return '.'
	}
}

// placeGenerals marks numAgents plain cells with general symbols, keeping
// every pair at least a quarter of the board apart.
func (f *Factory) placeGenerals(rows [][]byte, numAgents int) ([][2]int, bool) {
	var plain [][2]int
	for r, row := range rows {
		for c, cell := range row {
			if cell == '.' {
				plain = append(plain, [2]int{r, c})
			}
		}
	}
	if len(plain) < numAgents {
		return nil, false
	}

	minDistance := (len(rows) + len(rows[0])) / 4
	generals := make([][2]int, 0, numAgents)
	for i := 0; i < numAgents; i++ {
		placed := false
		for try := 0; try < placementTries && !placed; try++ {
			cand := plain[f.rng.Intn(len(plain))]
			if rows[cand[0]][cand[1]] != '.' {
				continue
			}
			distant := true
			for _, g := range generals {
				if manhattan(cand, g) < minDistance {
					distant = false
					break
				}
			}
			if distant {
				rows[cand[0]][cand[1]] = byte('A' + i)
				generals = append(generals, cand)
				placed = true
			}
		}
		if !placed {
			return nil, false
		}
	}
	return generals, true
}

// connected reports whether every general can reach the first one without
// crossing a mountain.
func connected(rows [][]byte, generals [][2]int) bool {
	height, width := len(rows), len(rows[0])
	visited := make([]bool, height*width)
	queue := [][2]int{generals[0]}
	visited[generals[0][0]*width+generals[0][1]] = true

	for len(queue) > 0 {
		cell := queue[0]
		queue = queue[1:]
		for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			r, c := cell[0]+d[0], cell[1]+d[1]
			if r < 0 || r >= height || c < 0 || c >= width {
				continue
			}
			if rows[r][c] == '#' || visited[r*width+c] {
				continue
			}
			visited[r*width+c] = true
			queue = append(queue, [2]int{r, c})
		}
	}

	for _, g := range generals[1:] {
		if !visited[g[0]*width+g[1]] {
			return false
		}
	}
	return true
}

func manhattan(a, b [2]int) int {
	dr, dc := a[0]-b[0], a[1]-b[1]
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

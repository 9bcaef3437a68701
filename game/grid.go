package game

import (
	"fmt"
	"strings"
)

// Grid symbols.
const (
	symbolPassable = '.'
	symbolMountain = '#'
	symbolCityMax  = 'x'
)

const cityBasePopulation = 40

// NeutralOwner is the owner index of unowned passable cells.
const NeutralOwner = -1

// Grid owns the per-cell board state: troop counts per unit type, terrain,
// structures, and one ownership mask per faction. Cells are indexed
// row-major as row*Width()+col. All mutation goes through accessors that
// keep counts non-negative and ownership mutually exclusive.
type Grid struct {
	height int
	width  int

	units    [NumUnitTypes][]float64
	mountain []bool
	city     []bool
	general  []bool

	// owners[0] is the neutral mask, owners[1+i] is agent i's mask.
	owners [][]bool

	// generalCell[i] is the cell index of agent i's general.
	generalCell []int
}

// ParseGrid builds a Grid from the symbolic layout: '.' passable neutral,
// '#' mountain, 'A'+i agent i's general, digit d a neutral city of
// population 40+d, 'x' a neutral city of population 50. Rows are newline
// separated and must form a rectangle. The layout must contain exactly one
// general per agent.
func ParseGrid(layout string, numAgents int) (*Grid, error) {
	if numAgents < 2 {
		return nil, fmt.Errorf("need at least 2 agents, got %d", numAgents)
	}

	var rows []string
	for _, row := range strings.Split(strings.TrimSpace(layout), "\n") {
		row = strings.TrimSpace(row)
		if row != "" {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty grid layout")
	}

	height := len(rows)
	width := len(rows[0])
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(row), width)
		}
	}

	g := newGrid(height, width, numAgents)

	for r, row := range rows {
		for c := 0; c < width; c++ {
			cell := g.Index(r, c)
			symbol := row[c]
			switch {
			case symbol == symbolPassable:
				g.owners[0][cell] = true
			case symbol == symbolMountain:
				g.mountain[cell] = true
			case symbol >= '0' && symbol <= '9':
				g.city[cell] = true
				g.owners[0][cell] = true
				g.units[Infantry][cell] = float64(cityBasePopulation + int(symbol-'0'))
			case symbol == symbolCityMax:
				g.city[cell] = true
				g.owners[0][cell] = true
				g.units[Infantry][cell] = cityBasePopulation + 10
			case symbol >= 'A' && symbol <= 'Z':
				agent := int(symbol - 'A')
				if agent >= numAgents {
					return nil, fmt.Errorf("general %q exceeds the %d configured agents", symbol, numAgents)
				}
				if g.generalCell[agent] >= 0 {
					return nil, fmt.Errorf("duplicate general %q", symbol)
				}
				g.general[cell] = true
				g.generalCell[agent] = cell
				g.owners[1+agent][cell] = true
				g.units[Infantry][cell] = 1
			default:
				return nil, fmt.Errorf("unknown grid symbol %q at (%d,%d)", symbol, r, c)
			}
		}
	}

	for agent, cell := range g.generalCell {
		if cell < 0 {
			return nil, fmt.Errorf("no general for agent %d: grid has fewer generals than agents", agent)
		}
	}

	return g, nil
}

func newGrid(height, width, numAgents int) *Grid {
	cells := height * width
	g := &Grid{
		height:      height,
		width:       width,
		mountain:    make([]bool, cells),
		city:        make([]bool, cells),
		general:     make([]bool, cells),
		owners:      make([][]bool, 1+numAgents),
		generalCell: make([]int, numAgents),
	}
	for t := range g.units {
		g.units[t] = make([]float64, cells)
	}
	for i := range g.owners {
		g.owners[i] = make([]bool, cells)
	}
	for i := range g.generalCell {
		g.generalCell[i] = -1
	}
	return g
}

func (g *Grid) Height() int { return g.height }
func (g *Grid) Width() int  { return g.width }

// Cells returns the number of cells on the board.
func (g *Grid) Cells() int { return g.height * g.width }

// NumAgents returns the number of agent factions on the board.
func (g *Grid) NumAgents() int { return len(g.owners) - 1 }

// Index converts row and column to a flat cell index.
func (g *Grid) Index(r, c int) int { return r*g.width + c }

func (g *Grid) InBounds(r, c int) bool {
	return r >= 0 && r < g.height && c >= 0 && c < g.width
}

func (g *Grid) Mountain(cell int) bool { return g.mountain[cell] }
func (g *Grid) City(cell int) bool     { return g.city[cell] }
func (g *Grid) General(cell int) bool  { return g.general[cell] }

// GeneralCell returns the cell index of the agent's general.
func (g *Grid) GeneralCell(agent int) int { return g.generalCell[agent] }

// UnitCount returns the troop count of one unit type at a cell.
func (g *Grid) UnitCount(t UnitType, cell int) float64 {
	return g.units[t][cell]
}

// UnitCounts returns the full composition at a cell.
func (g *Grid) UnitCounts(cell int) Units {
	var u Units
	for t := range g.units {
		u[t] = g.units[t][cell]
	}
	return u
}

// TotalArmy returns the combined troop count across unit types at a cell.
func (g *Grid) TotalArmy(cell int) float64 {
	total := 0.0
	for t := range g.units {
		total += g.units[t][cell]
	}
	return total
}

// SetUnits writes one unit type's count at a cell, clamping negatives to 0.
func (g *Grid) SetUnits(t UnitType, cell int, count float64) {
	if count < 0 {
		count = 0
	}
	g.units[t][cell] = count
}

// AddUnits adjusts one unit type's count at a cell, clamping negatives to 0.
func (g *Grid) AddUnits(t UnitType, cell int, delta float64) {
	g.SetUnits(t, cell, g.units[t][cell]+delta)
}

// SetUnitCounts writes a full composition at a cell, clamping negatives to 0.
func (g *Grid) SetUnitCounts(cell int, u Units) {
	for t, count := range u {
		g.SetUnits(UnitType(t), cell, count)
	}
}

// OwnerAt resolves the owner of a cell: NeutralOwner, or the agent index.
// Neutral is checked first, then agents in index order; the exclusivity
// invariant means at most one mask is set, so the order is only a defensive
// tie-break. Mountains resolve to NeutralOwner.
func (g *Grid) OwnerAt(cell int) int {
	if g.owners[0][cell] {
		return NeutralOwner
	}
	for i := 1; i < len(g.owners); i++ {
		if g.owners[i][cell] {
			return i - 1
		}
	}
	return NeutralOwner
}

// SetOwner transfers a cell to the given owner (NeutralOwner or an agent
// index), clearing every other faction's bit. Mountains are never owned and
// the write is ignored for them.
func (g *Grid) SetOwner(cell, owner int) {
	if g.mountain[cell] {
		return
	}
	for i := range g.owners {
		g.owners[i][cell] = false
	}
	// NeutralOwner (-1) lands on the neutral mask at index 0.
	g.owners[1+owner][cell] = true
}

// Owns reports whether the agent owns the cell.
func (g *Grid) Owns(agent, cell int) bool {
	return g.owners[1+agent][cell]
}

// OwnedMask returns the agent's ownership mask. The slice is shared with the
// grid and must not be mutated by callers.
func (g *Grid) OwnedMask(agent int) []bool {
	return g.owners[1+agent]
}

// NeutralMask returns the neutral ownership mask. Shared, read-only.
func (g *Grid) NeutralMask() []bool {
	return g.owners[0]
}

// TransferOwnership hands every cell owned by one agent to another, clearing
// the source mask entirely. Unit counts at transferred cells are untouched.
func (g *Grid) TransferOwnership(from, to int) {
	src := g.owners[1+from]
	dst := g.owners[1+to]
	for cell, owned := range src {
		if owned {
			dst[cell] = true
			src[cell] = false
		}
	}
}

// Visibility returns the agent's sight mask: its ownership mask dilated by
// one cell in all eight directions (a 3x3 max-filter clipped to the board).
func (g *Grid) Visibility(agent int) []bool {
	owned := g.owners[1+agent]
	visible := make([]bool, len(owned))
	for r := 0; r < g.height; r++ {
		for c := 0; c < g.width; c++ {
			if !owned[g.Index(r, c)] {
				continue
			}
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					if g.InBounds(r+dr, c+dc) {
						visible[g.Index(r+dr, c+dc)] = true
					}
				}
			}
		}
	}
	return visible
}

// ArmyCount sums the agent's troops across all owned cells and unit types.
func (g *Grid) ArmyCount(agent int) float64 {
	owned := g.owners[1+agent]
	total := 0.0
	for cell, isOwned := range owned {
		if isOwned {
			total += g.TotalArmy(cell)
		}
	}
	return total
}

// LandCount counts the agent's owned cells.
func (g *Grid) LandCount(agent int) int {
	count := 0
	for _, owned := range g.owners[1+agent] {
		if owned {
			count++
		}
	}
	return count
}

// Copy returns a deep copy of the grid.
func (g *Grid) Copy() *Grid {
	clone := &Grid{
		height:      g.height,
		width:       g.width,
		mountain:    append([]bool(nil), g.mountain...),
		city:        append([]bool(nil), g.city...),
		general:     append([]bool(nil), g.general...),
		owners:      make([][]bool, len(g.owners)),
		generalCell: append([]int(nil), g.generalCell...),
	}
	for t := range g.units {
		clone.units[t] = append([]float64(nil), g.units[t]...)
	}
	for i := range g.owners {
		clone.owners[i] = append([]bool(nil), g.owners[i]...)
	}
	return clone
}

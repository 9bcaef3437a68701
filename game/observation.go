package game

// Observation is one agent's fogged view of the board after a tick. Cell
// masks are flat row-major slices of length Height*Width. Everything
// outside the visibility dilation is zeroed except the two fog masks,
// which partition the invisible area into plain fog and fog known to hold
// a structure. With more than two agents the opponent fields aggregate
// all rivals into one.
type Observation struct {
	Height int `json:"height"`
	Width  int `json:"width"`

	// Units holds the visible per-type counts, indexed by UnitType.
	Units  [NumUnitTypes][]float64 `json:"units"`
	Armies []float64               `json:"armies"`

	Generals      []bool `json:"generals"`
	Cities        []bool `json:"cities"`
	Mountains     []bool `json:"mountains"`
	NeutralCells  []bool `json:"neutral_cells"`
	OwnedCells    []bool `json:"owned_cells"`
	OpponentCells []bool `json:"opponent_cells"`

	FogCells        []bool `json:"fog_cells"`
	StructuresInFog []bool `json:"structures_in_fog"`

	OwnedLandCount    int `json:"owned_land_count"`
	OwnedArmyCount    int `json:"owned_army_count"`
	OpponentLandCount int `json:"opponent_land_count"`
	OpponentArmyCount int `json:"opponent_army_count"`

	Timestep int `json:"timestep"`
	Priority int `json:"priority"`
}

// Index converts row/col coordinates to a flat cell index.
func (o *Observation) Index(row, col int) int {
	return row*o.Width + col
}

// InBounds reports whether the coordinates are on the board.
func (o *Observation) InBounds(row, col int) bool {
	return row >= 0 && row < o.Height && col >= 0 && col < o.Width
}

func (g *Game) observations() map[string]Observation {
	obs := make(map[string]Observation, len(g.agents))
	for i, id := range g.agents {
		obs[id] = g.observationFor(i)
	}
	return obs
}

func (g *Game) observationFor(agent int) Observation {
	grid := g.grid
	cells := grid.Cells()
	visible := grid.Visibility(agent)

	o := Observation{
		Height:          grid.Height(),
		Width:           grid.Width(),
		Armies:          make([]float64, cells),
		Generals:        make([]bool, cells),
		Cities:          make([]bool, cells),
		Mountains:       make([]bool, cells),
		NeutralCells:    make([]bool, cells),
		OwnedCells:      make([]bool, cells),
		OpponentCells:   make([]bool, cells),
		FogCells:        make([]bool, cells),
		StructuresInFog: make([]bool, cells),
		Timestep:        g.tick,
	}
	for t := range o.Units {
		o.Units[t] = make([]float64, cells)
	}

	for cell := 0; cell < cells; cell++ {
		if !visible[cell] {
			structure := grid.Mountain(cell) || grid.City(cell)
			o.StructuresInFog[cell] = structure
			o.FogCells[cell] = !structure
			continue
		}
		total := 0.0
		for _, t := range UnitTypes {
			count := grid.UnitCount(t, cell)
			o.Units[t][cell] = count
			total += count
		}
		o.Armies[cell] = total
		o.Generals[cell] = grid.General(cell)
		o.Cities[cell] = grid.City(cell)
		o.Mountains[cell] = grid.Mountain(cell)

		switch owner := grid.OwnerAt(cell); owner {
		case NeutralOwner:
			o.NeutralCells[cell] = true
		case agent:
			o.OwnedCells[cell] = true
		default:
			o.OpponentCells[cell] = true
		}
	}

	// Scores come from the true board, not the fogged view.
	o.OwnedArmyCount = int(grid.ArmyCount(agent))
	o.OwnedLandCount = grid.LandCount(agent)
	for other := range g.agents {
		if other == agent {
			continue
		}
		o.OpponentArmyCount += int(grid.ArmyCount(other))
		o.OpponentLandCount += grid.LandCount(other)
	}

	if g.order[0] == agent {
		o.Priority = 1
	}
	return o
}

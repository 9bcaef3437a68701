package game

import "math"

// EvaluateResources tallies each side's controlled resources (land, army
// value, and production structures) to produce a relative score between -1
// and 1 from the current player's perspective.
func EvaluateResources(s State) float64 {
	ss, ok := s.(*SearchState)
	if !ok {
		panic("unexpected state type")
	}
	landScore, armyScore := ss.calculateResourceScores()
	structureScore := ss.calculateStructureScore()

	return (landScore + armyScore + structureScore) / 3.0
}

// EvaluateBorderStrength considers each side's border strength, in addition
// to controlled resources, to produce a score between -1 and 1 from the
// current player's perspective.
func EvaluateBorderStrength(s State) float64 {
	ss, ok := s.(*SearchState)
	if !ok {
		panic("unexpected state type")
	}
	landScore, armyScore := ss.calculateResourceScores()
	structureScore := ss.calculateStructureScore()
	borderScore := ss.calculateBorderScore()

	return (landScore + armyScore + structureScore + borderScore) / 4
}

// EvaluateConnectivity considers each side's connectedness, in addition to
// controlled resources, to produce a score between -1 and 1 from the
// current player's perspective.
func EvaluateConnectivity(s State) float64 {
	ss, ok := s.(*SearchState)
	if !ok {
		panic("unexpected state type")
	}
	landScore, armyScore := ss.calculateResourceScores()
	structureScore := ss.calculateStructureScore()
	connectivityScore := ss.calculateConnectivityScore()

	return (landScore + armyScore + structureScore + connectivityScore) / 4
}

func EvaluateBorderConnectivity(s State) float64 {
	ss, ok := s.(*SearchState)
	if !ok {
		panic("unexpected state type")
	}
	landScore, armyScore := ss.calculateResourceScores()
	structureScore := ss.calculateStructureScore()
	borderScore := ss.calculateBorderScore()
	connectivityScore := ss.calculateConnectivityScore()

	return (landScore + armyScore + structureScore + borderScore + connectivityScore) / 5
}

func (s *SearchState) calculateResourceScores() (landScore, armyScore float64) {
	grid := s.game.grid
	current := s.game.agentIndex(s.Player())

	var ownLand, otherLand, ownArmy, otherArmy float64
	for agent := range s.game.agents {
		land := float64(grid.LandCount(agent))
		army := grid.ArmyCount(agent)
		if agent == current {
			ownLand, ownArmy = land, army
		} else {
			otherLand += land
			otherArmy += army
		}
	}

	landScore = normalize(ownLand, otherLand)
	armyScore = normalize(ownArmy, otherArmy)
	return landScore, armyScore
}

func (s *SearchState) calculateStructureScore() float64 {
	grid := s.game.grid
	current := s.game.agentIndex(s.Player())

	// Tally owned production structures: generals and cities
	var own, other float64
	for cell := 0; cell < grid.Cells(); cell++ {
		if !grid.General(cell) && !grid.City(cell) {
			continue
		}
		owner := grid.OwnerAt(cell)
		if owner == NeutralOwner {
			continue
		}
		if owner == current {
			own++
		} else {
			other++
		}
	}

	return normalize(own, other)
}

func (s *SearchState) calculateBorderScore() float64 {
	grid := s.game.grid
	current := s.game.agentIndex(s.Player())
	borderStrength := make(map[int]float64) // By agent

	// Tally army difference along every contested border cell
	// factors in connectedness: more exposed sides, higher strategic value
	// (e.g. more opportunities to attack, potentially a chokepoint, etc)
	for row := 0; row < grid.Height(); row++ {
		for col := 0; col < grid.Width(); col++ {
			cell := grid.Index(row, col)
			owner := grid.OwnerAt(cell)
			if owner == NeutralOwner {
				continue
			}

			myArmy := grid.TotalArmy(cell)
			enemyBorders := 0
			armyDiff := 0.0
			for _, d := range Directions {
				nr, nc := neighbor(row, col, d)
				if !grid.InBounds(nr, nc) {
					continue
				}
				n := grid.Index(nr, nc)
				if grid.Mountain(n) {
					continue
				}
				if grid.OwnerAt(n) != owner {
					enemyBorders++
					// Army difference mimics line of attack
					armyDiff += myArmy - grid.TotalArmy(n)
				}
			}
			// Scale by square root to favor but not overly favor having
			// multiple lines of attack (conversely, if the difference is
			// negative, penalize under multiple lines of attack)
			if enemyBorders > 0 {
				borderStrength[owner] += armyDiff / math.Sqrt(float64(enemyBorders))
			}
		}
	}

	var other float64
	for agent, strength := range borderStrength {
		if agent != current {
			other += strength
		}
	}
	return normalize(borderStrength[current], other)
}

func (s *SearchState) calculateConnectivityScore() float64 {
	grid := s.game.grid
	current := s.game.agentIndex(s.Player())

	var own, other float64
	for agent := range s.game.agents {
		// Largest connected component of the agent's territory
		visited := make([]bool, grid.Cells())
		maxComponent := 0
		for cell := 0; cell < grid.Cells(); cell++ {
			if grid.Owns(agent, cell) && !visited[cell] {
				size := grid.component(agent, cell, visited)
				if size > maxComponent {
					maxComponent = size
				}
			}
		}

		if agent == current {
			own = float64(maxComponent)
		} else {
			other += float64(maxComponent)
		}
	}

	return normalize(own, other)
}

// component performs depth-first search from a cell to find the size of the
// agent's connected territory containing it.
func (g *Grid) component(agent, start int, visited []bool) int {
	if visited[start] {
		return 0
	}
	visited[start] = true

	size := 1
	row, col := start/g.width, start%g.width
	for _, d := range Directions {
		nr, nc := neighbor(row, col, d)
		if !g.InBounds(nr, nc) {
			continue
		}
		n := g.Index(nr, nc)
		if g.Owns(agent, n) {
			size += g.component(agent, n, visited)
		}
	}
	return size
}

// normalize normalizes value relative to otherValue to a score between -1
// and 1.
func normalize(value float64, otherValue float64) float64 {
	total := math.Abs(value) + math.Abs(otherValue)
	if total == 0 {
		return 0
	}
	return (value - otherValue) / total
}

// Package neural drives actions with a learned policy. Observations are
// encoded as stacked feature planes, fed through an ONNX model, and the
// logits are read back over the valid-action set; a heuristic fallback
// keeps matches running when the model is missing or misbehaves.
package neural

import "github.com/nicksrusso/generals-bots/game"

// Feature plane layout of the encoded observation. The first NumUnitTypes
// planes hold per-type unit counts; the rest follow in this order.
const (
	PlaneArmies = game.NumUnitTypes + iota
	PlaneGenerals
	PlaneCities
	PlaneMountains
	PlaneNeutral
	PlaneOwned
	PlaneOpponent
	PlaneFog
	PlaneStructuresInFog
	PlaneOwnedLand
	PlaneOwnedArmy
	PlaneOpponentLand
	PlaneOpponentArmy
	PlaneTimestep
	PlanePriority

	// NumPlanes is the channel dimension of the encoded observation.
	NumPlanes = PlanePriority + 1
)

// NumMoveChannels is the number of policy outputs per cell, one per
// direction and unit type pairing.
const NumMoveChannels = len(game.Directions) * game.NumUnitTypes

// EncodeObservation flattens an observation into NumPlanes stacked planes
// of Height*Width cells each, row-major, ready to back a
// (1, NumPlanes, Height, Width) tensor. Boolean masks become 0/1 planes
// and the scalar counters are broadcast across their whole plane.
func EncodeObservation(o *game.Observation) []float32 {
	cells := o.Height * o.Width
	planes := make([]float32, NumPlanes*cells)

	for t := range o.Units {
		fillCounts(planes, t, o.Units[t])
	}
	fillCounts(planes, PlaneArmies, o.Armies)

	fillMask(planes, PlaneGenerals, o.Generals)
	fillMask(planes, PlaneCities, o.Cities)
	fillMask(planes, PlaneMountains, o.Mountains)
	fillMask(planes, PlaneNeutral, o.NeutralCells)
	fillMask(planes, PlaneOwned, o.OwnedCells)
	fillMask(planes, PlaneOpponent, o.OpponentCells)
	fillMask(planes, PlaneFog, o.FogCells)
	fillMask(planes, PlaneStructuresInFog, o.StructuresInFog)

	fillScalar(planes, PlaneOwnedLand, float32(o.OwnedLandCount), cells)
	fillScalar(planes, PlaneOwnedArmy, float32(o.OwnedArmyCount), cells)
	fillScalar(planes, PlaneOpponentLand, float32(o.OpponentLandCount), cells)
	fillScalar(planes, PlaneOpponentArmy, float32(o.OpponentArmyCount), cells)
	fillScalar(planes, PlaneTimestep, float32(o.Timestep), cells)
	fillScalar(planes, PlanePriority, float32(o.Priority), cells)

	return planes
}

// PolicySize is the number of logits the policy head must emit for a
// board: one per cell, direction, and unit type.
func PolicySize(height, width int) int {
	return height * width * NumMoveChannels
}

// ActionIndex maps a move to its logit position in a policy head laid out
// (cells, directions, unit types) row-major.
func ActionIndex(o *game.Observation, action game.Action) int {
	cell := o.Index(action.Row, action.Col)
	return (cell*len(game.Directions)+int(action.Direction))*game.NumUnitTypes + int(action.UnitType)
}

func fillCounts(planes []float32, plane int, counts []float64) {
	base := plane * len(counts)
	for cell, count := range counts {
		planes[base+cell] = float32(count)
	}
}

func fillMask(planes []float32, plane int, mask []bool) {
	base := plane * len(mask)
	for cell, set := range mask {
		if set {
			planes[base+cell] = 1
		}
	}
}

func fillScalar(planes []float32, plane int, value float32, cells int) {
	base := plane * cells
	for cell := 0; cell < cells; cell++ {
		planes[base+cell] = value
	}
}

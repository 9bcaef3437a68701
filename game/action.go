package game

import "fmt"

// UnitType identifies one of the four army unit types.
type UnitType int

const (
	Cavalry UnitType = iota
	Infantry
	Archers
	Siege
)

// NumUnitTypes is the number of distinct unit types.
const NumUnitTypes = 4

// UnitTypes lists every unit type in index order.
var UnitTypes = [NumUnitTypes]UnitType{Cavalry, Infantry, Archers, Siege}

func (t UnitType) Valid() bool {
	return t >= Cavalry && t <= Siege
}

func (t UnitType) String() string {
	switch t {
	case Cavalry:
		return "cavalry"
	case Infantry:
		return "infantry"
	case Archers:
		return "archers"
	case Siege:
		return "siege"
	default:
		return fmt.Sprintf("unit(%d)", int(t))
	}
}

// Direction is one of the four orthogonal movement directions.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists every movement direction in index order.
var Directions = [4]Direction{Up, Down, Left, Right}

var offsets = [4][2]int{
	Up:    {-1, 0},
	Down:  {1, 0},
	Left:  {0, -1},
	Right: {0, 1},
}

func (d Direction) Valid() bool {
	return d >= Up && d <= Right
}

// Offset returns the row and column delta of the direction.
func (d Direction) Offset() (int, int) {
	return offsets[d][0], offsets[d][1]
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Action is one agent's order for a single tick: either a pass, or moving
// units of one type from (Row, Col) one cell in Direction. Split moves half
// the stack, otherwise all but one unit moves. A malformed action is treated
// as an invalid move and skipped, never rejected with an error.
type Action struct {
	Pass      bool      `json:"pass"`
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Direction Direction `json:"direction"`
	UnitType  UnitType  `json:"unit_type"`
	Split     bool      `json:"split"`
}

func (a Action) String() string {
	if a.Pass {
		return "pass"
	}
	move := fmt.Sprintf("%s (%d,%d) %s", a.UnitType, a.Row, a.Col, a.Direction)
	if a.Split {
		move += " split"
	}
	return move
}

package game

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// effectiveness holds the combat multiplier of each attacking unit type
// against each defending unit type. Values above 1.0 favor the attacker.
var effectiveness = [NumUnitTypes][NumUnitTypes]float64{
	Cavalry:  {Cavalry: 1.0, Infantry: 0.75, Archers: 1.25, Siege: 1.5},
	Infantry: {Cavalry: 1.25, Infantry: 1.0, Archers: 0.75, Siege: 1.0},
	Archers:  {Cavalry: 1.5, Infantry: 0.75, Archers: 1.0, Siege: 1.25},
	Siege:    {Cavalry: 0.5, Infantry: 0.75, Archers: 0.75, Siege: 1.0},
}

// Effectiveness returns the combat multiplier of an attacking unit type
// against a defending unit type.
func Effectiveness(attacker, defender UnitType) float64 {
	return effectiveness[attacker][defender]
}

// Units holds a troop count per unit type, indexed by UnitType. Counts are
// real-valued: splits and combat losses produce fractional armies.
type Units [NumUnitTypes]float64

// Total returns the combined count across all unit types.
func (u Units) Total() float64 {
	total := 0.0
	for _, count := range u {
		total += count
	}
	return total
}

func (u Units) scale(fraction float64) Units {
	var scaled Units
	for t, count := range u {
		scaled[t] = count * fraction
	}
	return scaled
}

// Power weighs one side's counts by their effectiveness against the other
// side's composition.
func Power(side, other Units) float64 {
	power := 0.0
	for t := 0; t < NumUnitTypes; t++ {
		contribution := 0.0
		for u := 0; u < NumUnitTypes; u++ {
			contribution += effectiveness[t][u] * other[u]
		}
		power += side[t] * contribution
	}
	return power
}

// ResolveCombat decides a fight between an attacking and a defending
// composition. An empty side loses outright to a non-empty side. Otherwise
// the side with strictly greater power wins; ties favor the defender. The
// winner keeps a uniform fraction of every unit type, never below 10%, and
// the loser's units are discarded. Defenders lose proportionally less than
// attackers would (0.5 vs 0.8 loss coefficient).
func ResolveCombat(attacker, defender Units) (attackerWon bool, remaining Units) {
	if attacker.Total() == 0 {
		return false, defender
	}
	if defender.Total() == 0 {
		return true, attacker
	}

	attackerPower := Power(attacker, defender)
	defenderPower := Power(defender, attacker)

	if attackerPower > defenderPower {
		lossRatio := defenderPower / attackerPower
		fraction := math.Max(0.1, 1-lossRatio*0.8)
		return true, attacker.scale(fraction)
	}
	lossRatio := attackerPower / defenderPower
	fraction := math.Max(0.1, 1-lossRatio*0.5)
	return false, defender.scale(fraction)
}

// WinProbCoef shapes the sigmoid of PredictOutcome.
const WinProbCoef = 2.85

// PredictOutcome estimates the chance that a single-type attacking force
// beats the defending composition. Advisory only: agents use it for planning,
// the authoritative result always comes from ResolveCombat.
func PredictOutcome(attackerType UnitType, attackerCount float64, defender Units) float64 {
	if attackerCount <= 0 {
		return 0
	}
	var attacker Units
	attacker[attackerType] = attackerCount

	attackerPower := Power(attacker, defender)
	defenderPower := Power(defender, attacker)
	if defenderPower == 0 {
		return 1
	}

	ratio := attackerPower / defenderPower
	powered := math.Pow(ratio, WinProbCoef)
	return powered / (powered + 1)
}

// ExpectedLossRatio returns the proportion of the winning force expected to
// be lost at the given strength ratio, bounded to [0.2, 0.8]. Used by agents
// for planning and as the mean of the stochastic casualty distribution.
func ExpectedLossRatio(strengthRatio float64) float64 {
	loss := math.Min(0.8, 1-(strengthRatio-1)*0.2)
	return math.Max(0.2, loss)
}

// casualtyVariance controls how tight the sampled loss distribution sits
// around its expectation. Higher is tighter.
const casualtyVariance = 5.0

// SampleLossRatio draws an actual casualty ratio for one fought battle from
// a Beta distribution centered on ExpectedLossRatio, rescaled to [0.2, 0.8].
func SampleLossRatio(strengthRatio float64, src rand.Source) float64 {
	expected := ExpectedLossRatio(strengthRatio)

	// Scale the expectation onto [0, 1] for the Beta parameters.
	mean := (expected - 0.2) / 0.6
	beta := distuv.Beta{
		Alpha: math.Max(0.1, mean*casualtyVariance),
		Beta:  math.Max(0.1, (1-mean)*casualtyVariance),
		Src:   src,
	}
	return 0.2 + beta.Rand()*0.6
}

// resolveCombatStochastic mirrors ResolveCombat but samples the winner's
// casualty ratio instead of applying the deterministic fraction. Winner
// selection and the zero-force edge cases stay deterministic.
func resolveCombatStochastic(attacker, defender Units, src rand.Source) (bool, Units) {
	if attacker.Total() == 0 {
		return false, defender
	}
	if defender.Total() == 0 {
		return true, attacker
	}

	attackerPower := Power(attacker, defender)
	defenderPower := Power(defender, attacker)

	if attackerPower > defenderPower {
		loss := SampleLossRatio(attackerPower/defenderPower, src)
		return true, attacker.scale(1 - loss)
	}
	loss := SampleLossRatio(defenderPower/attackerPower, src)
	return false, defender.scale(1 - loss)
}

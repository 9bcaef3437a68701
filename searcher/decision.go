package searcher

import (
	"math"
	"sync"

	"github.com/nicksrusso/generals-bots/game"
)

type decision struct {
	sync.RWMutex
	parent     *decision
	player     string
	hash       game.StateHash
	unexplored []game.Action
	children   map[game.Action]*decision
	rewards    float64
	visits     float64
}

func newDecision(parent *decision, state game.State) *decision {
	actions := state.LegalActions()

	return &decision{
		parent:     parent,
		player:     state.Player(),
		hash:       state.Hash(),
		unexplored: actions,
		children:   make(map[game.Action]*decision, len(actions)),
	}
}

// SelectOrExpand descends one ply: it expands the next untried action, or
// selects the max-UCB child of a fully expanded node. selected reports
// whether an existing child was picked, so callers keep descending only
// then. The chosen child carries a virtual loss until Backup reverses it.
func (d *decision) SelectOrExpand(state game.State) (*decision, game.State, bool) {
	d.Lock()
	defer d.Unlock()

	if len(d.unexplored) == 0 && len(d.children) == 0 { // Terminal node
		return d, state, false
	}

	if len(d.unexplored) > 0 { // Expandable node
		child, childState := d.addChild(state)
		child.applyLoss()
		return child, childState, false
	}

	// Fully expanded node
	action := d.pickChild()
	child := d.children[action]
	child.applyLoss()
	return child, state.Play(action), true
}

func (d *decision) addChild(state game.State) (*decision, game.State) {
	action := d.unexplored[0]
	d.unexplored = d.unexplored[1:]

	childState := state.Play(action)
	child := newDecision(d, childState)
	d.children[action] = child
	return child, childState
}

func (d *decision) pickChild() game.Action {
	if d.visits == 0 {
		panic("node has children but no visits")
	}

	normalizer := CSquared * math.Log(d.visits)

	var best game.Action
	maxScore := math.Inf(-1)
	for action, child := range d.children {
		score := child.score(normalizer)
		if score == math.Inf(1) {
			return action
		}
		if score > maxScore {
			maxScore = score
			best = action
		}
	}
	return best
}

func (d *decision) applyLoss() {
	d.Lock()
	defer d.Unlock()

	d.rewards += Loss
	d.visits++
}

func (d *decision) score(normalizer float64) float64 {
	d.RLock()
	defer d.RUnlock()

	return ucb1(d.rewards, d.visits, normalizer)
}

func (d *decision) stats() (player string, rewards float64, visits float64) {
	d.RLock()
	defer d.RUnlock()

	return d.player, d.rewards, d.visits
}

// Backup folds a playout score into the node and returns its parent so
// callers can walk up to the root. Rewards accumulate from the
// perspective of the player whose action entered the node, so selection
// can maximize over children directly.
func (d *decision) Backup(player string, score float64) *decision {
	d.Lock()
	defer d.Unlock()

	owner := d.player
	if d.parent != nil { // Non-root node
		d.reverseLoss()
		owner = d.parent.player
	}

	d.rewards += computeReward(player, score, owner)
	d.visits++

	return d.parent
}

func (d *decision) reverseLoss() {
	d.rewards -= Loss
	d.visits--
}

// Policy returns the visit distribution over the node's expanded actions.
func (d *decision) Policy() map[game.Action]float64 {
	d.RLock()
	defer d.RUnlock()

	policy := make(map[game.Action]float64, len(d.children))
	total := 0.0
	for action, child := range d.children {
		_, _, visits := child.stats()
		policy[action] = visits
		total += visits
	}

	if total > 0 {
		for action := range policy {
			policy[action] /= total
		}
	}
	return policy
}

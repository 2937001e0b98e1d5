package actor

import (
	"github.com/zeusync/spacelife/internal/core/world"
)

// MoveState walks a precomputed path until arrived reports true or the path
// runs out.
type MoveState struct {
	base
	arrived  func(*world.Tile) bool
	path     []*world.Tile
	progress float64
}

func NewMoveState(c *Character, arrived func(*world.Tile) bool, path []*world.Tile, next State) *MoveState {
	return &MoveState{
		base:    base{name: "Move", c: c, next: next},
		arrived: arrived,
		path:    path,
	}
}

func (s *MoveState) Update(dt float64) {
	if s.done() {
		s.finished()
		return
	}
	s.progress += s.c.speed * dt
	for len(s.path) > 0 {
		step := s.path[0]
		if !step.Walkable() {
			// The world changed under us; let the owner re-plan.
			s.debug("path blocked", logTile(step))
			s.finished()
			return
		}
		cost := step.MovementCost()
		if s.progress < cost {
			return
		}
		s.progress -= cost
		s.c.tile = step
		s.path = s.path[1:]
		if s.done() {
			s.finished()
			return
		}
	}
}

func (s *MoveState) done() bool {
	return len(s.path) == 0 || (s.arrived != nil && s.arrived(s.c.tile))
}

package actor

import (
	"github.com/zeusync/spacelife/internal/core/job"
	"github.com/zeusync/spacelife/internal/core/observability/log"
	"github.com/zeusync/spacelife/internal/core/world"
)

// HaulState fetches one load of a job's missing material and delivers it.
type HaulState struct {
	base
	job *job.Job
}

func NewHaulState(c *Character, j *job.Job, next State) *HaulState {
	return &HaulState{base: base{name: "Haul", c: c, next: next}, job: j}
}

func (s *HaulState) Update(float64) {
	c, j := s.c, s.job
	if j.IsStopped() {
		c.dropCarried()
		s.finished()
		return
	}

	if c.carried != nil && c.carried.StackSize > 0 {
		s.deliver()
		return
	}

	req, ok := j.UnmetRequirement()
	if !ok {
		s.finished()
		return
	}
	src, ok := c.env.World.FindNearestInventory(c.tile, req.Type)
	if !ok {
		s.fail()
		return
	}
	if src == c.tile {
		c.carried = c.env.World.TakeInventory(src, j.AmountDesired(req.Type))
		s.debug("picked up", log.Stringer("inventory", c.carried))
		return
	}
	path := c.env.World.FindPath(c.tile, src, false)
	if len(path) == 0 {
		s.debug("material unreachable", logTile(src))
		s.fail()
		return
	}
	c.SetState(NewMoveState(c, func(t *world.Tile) bool { return t == src }, path, s))
}

func (s *HaulState) deliver() {
	c, j := s.c, s.job
	if j.AmountDesired(c.carried.Type) == 0 {
		c.dropCarried()
		return
	}
	if j.IsTileAtJobSite(c.tile) {
		n := j.Deliver(c.carried)
		s.debug("delivered", log.String("type", c.carried.Type), log.Int("amount", n))
		c.dropCarried()
		s.finished()
		return
	}
	path := c.env.World.FindPath(c.tile, j.Tile(), j.IsAdjacent())
	if len(path) == 0 {
		c.dropCarried()
		s.fail()
		return
	}
	c.SetState(NewMoveState(c, j.IsTileAtJobSite, path, s))
}

// fail tells the owning JobState the haul cannot make progress, so it gives
// the job up instead of hauling again.
func (s *HaulState) fail() {
	if p, ok := s.next.(*JobState); ok {
		p.haulFailed = true
	}
	s.finished()
}

func (s *HaulState) Interrupt() {
	s.c.dropCarried()
	s.base.Interrupt()
}

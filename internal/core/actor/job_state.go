package actor

import (
	"github.com/zeusync/spacelife/internal/core/events/bus"
	"github.com/zeusync/spacelife/internal/core/job"
	"github.com/zeusync/spacelife/internal/core/observability/log"
)

// JobState drives one job to completion, hauling materials and walking to
// the site as needed.
type JobState struct {
	base
	job  *job.Job
	done bool
	// haulFailed is set by a child HaulState that could not reach material.
	haulFailed bool
	subs       []bus.Subscription
}

func NewJobState(c *Character, j *job.Job, next State) *JobState {
	s := &JobState{base: base{name: "Job", c: c, next: next}, job: j}
	for _, kind := range []string{job.KindCompleted, job.KindStopped} {
		sub, err := j.On(kind, s.onJobEnded)
		if err != nil {
			c.log.Error("cannot follow job", log.Stringer("job", j), log.Error(err))
			continue
		}
		s.subs = append(s.subs, sub)
	}
	j.SetBeingWorked(true)
	s.debug("created", log.Stringer("job", j))
	return s
}

// Job is nil once the state let go of it.
func (s *JobState) Job() *job.Job { return s.job }

func (s *JobState) Update(dt float64) {
	if s.done || s.job == nil || s.job.IsStopped() {
		s.release()
		s.finished()
		return
	}

	j, c := s.job, s.c
	switch {
	case !j.MaterialNeedsMet():
		if s.haulFailed || !j.IsRequiredInventoriesAvailable(c.env.World) {
			s.giveUp()
			return
		}
		s.debug("next action: haul material")
		c.SetState(NewHaulState(c, j, s))
	case !j.IsTileAtJobSite(c.tile):
		path := c.env.World.FindPath(c.tile, j.Tile(), j.IsAdjacent())
		if len(path) == 0 {
			s.debug("job site unreachable", logTile(j.Tile()))
			s.giveUp()
			return
		}
		s.debug("next action: go to job")
		c.SetState(NewMoveState(c, j.IsTileAtJobSite, path, s))
	default:
		if j.Tile() != nil && j.Tile() != c.tile {
			c.FaceTile(j.Tile())
		}
		j.DoWork(dt)
	}
}

// Interrupt hands a still-owned job back to the queue. A Low job comes back
// Low since there is no lower priority to drop to.
func (s *JobState) Interrupt() {
	if s.job != nil && !s.done {
		s.abandon()
	}
	s.base.Interrupt()
}

// giveUp abandons the job and drops any chained states along with it.
func (s *JobState) giveUp() {
	s.abandon()
	s.Interrupt()
	s.finished()
}

func (s *JobState) onJobEnded(j *job.Job) {
	if j != s.job {
		s.c.log.Error("told about a job this character does not own", log.Stringer("job", j))
		return
	}
	s.done = true
	s.release()
}

func (s *JobState) release() {
	for _, sub := range s.subs {
		_ = sub.Cancel()
	}
	s.subs = nil
	if s.job != nil {
		s.job.SetBeingWorked(false)
	}
}

// abandon returns the job to the global queue one priority lower. Need jobs
// are personal and end here instead.
func (s *JobState) abandon() {
	j := s.job
	s.c.log.Info("job abandoned", log.Stringer("job", j))
	s.release()
	s.job = nil
	j.Cancel()
	if j.IsNeed() {
		j.Stop()
		return
	}
	j.DropPriority()
	s.c.lastAbandoned = j
	s.c.env.Jobs.Enqueue(j)
}

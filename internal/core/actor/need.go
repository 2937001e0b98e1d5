package actor

import (
	"fmt"

	"github.com/zeusync/spacelife/internal/core/events/bus"
	"github.com/zeusync/spacelife/internal/core/job"
	"github.com/zeusync/spacelife/internal/core/observability/log"
	"github.com/zeusync/spacelife/internal/core/prototype"
)

const (
	// Needs above this are queued for restoring after current work.
	needSoonThreshold = 50.0
	// A need at this value has failed.
	needMax = 100.0
	// Critical restore jobs take this much longer than a normal restore.
	criticalRestoreFactor = 10.0
)

// Need grows over time from 0 to 100 and is reset by its restore job.
type Need struct {
	proto   prototype.Need
	amount  float64
	pending *job.Job
	subs    []bus.Subscription
}

func NewNeed(proto prototype.Need) *Need {
	return &Need{proto: proto}
}

func (n *Need) Type() string        { return n.proto.Type }
func (n *Need) Amount() float64     { return n.amount }
func (n *Need) Pending() *job.Job   { return n.pending }
func (n *Need) SetAmount(v float64) { n.amount = min(max(v, 0), needMax) }

func (n *Need) Update(dt float64) {
	n.SetAmount(n.amount + n.proto.GrowthRate*dt)
}

func (n *Need) Restore() {
	n.amount = 0
}

// track follows j until it stops, restoring the need if it completes.
func (n *Need) track(j *job.Job) error {
	n.untrack()
	n.pending = j
	done, err := j.On(job.KindCompleted, func(*job.Job) { n.Restore() })
	if err != nil {
		return err
	}
	stopped, err := j.On(job.KindStopped, func(*job.Job) { n.untrack() })
	if err != nil {
		_ = done.Cancel()
		return err
	}
	n.subs = []bus.Subscription{done, stopped}
	return nil
}

func (n *Need) untrack() {
	for _, s := range n.subs {
		_ = s.Cancel()
	}
	n.subs = nil
	n.pending = nil
}

// NeedState watches a character's needs every tick. It queues a restore
// job once the biggest need passes half way and, for needs that complete on
// failure, drops everything when it maxes out.
type NeedState struct {
	base
}

func NewNeedState(c *Character) *NeedState {
	return &NeedState{base: base{name: "Need", c: c}}
}

func (s *NeedState) Update(dt float64) {
	var biggest *Need
	for _, n := range s.c.needs {
		n.Update(dt)
		if biggest == nil || n.amount > biggest.amount {
			biggest = n
		}
	}
	if biggest == nil {
		return
	}

	switch {
	case biggest.amount >= needMax && biggest.proto.CompleteOnFail:
		if biggest.pending != nil && biggest.pending.IsCritical() {
			return
		}
		s.critical(biggest)
	case biggest.amount > needSoonThreshold && biggest.amount < needMax && biggest.pending == nil:
		s.restoreSoon(biggest)
	}
}

func (s *NeedState) restoreSoon(n *Need) {
	c := s.c
	target := n.proto.RestoreBuildable
	if target == "" || c.env.Facilities == nil || c.env.Facilities.CountWithType(target) == 0 {
		return
	}
	tile, ok := c.env.Facilities.NearestWithType(target, c.tile)
	if !ok {
		return
	}
	j := job.New(c.env.Bus, tile, target, n.proto.RestoreTime,
		job.WithPriority(job.High), job.Adjacent(), job.AsNeed(), job.WithLogger(c.log),
		job.WithDescription(fmt.Sprintf("Restoring %s at %s", n.Type(), target)))
	if err := n.track(j); err != nil {
		c.log.Error("cannot track need job", log.Error(err))
		return
	}
	s.debug("queued restore job", log.String("need", n.Type()))
	c.QueueState(NewJobState(c, j, nil))
}

func (s *NeedState) critical(n *Need) {
	c := s.c
	if n.pending != nil {
		n.pending.Stop()
	}
	j := job.New(c.env.Bus, c.tile, "", n.proto.RestoreTime*criticalRestoreFactor,
		job.WithPriority(job.High), job.AsNeed(), job.Critical(), job.WithLogger(c.log),
		job.WithDescription(fmt.Sprintf("Recovering from %s", n.Type())))
	if err := n.track(j); err != nil {
		c.log.Error("cannot track need job", log.Error(err))
		return
	}
	c.log.Warn("need failed, dropping current work", log.String("need", n.Type()))
	c.InterruptState()
	c.ClearStateQueue()
	c.SetState(NewJobState(c, j, nil))
}

package buildable

import (
	"fmt"

	"github.com/zeusync/spacelife/internal/core/events/bus"
	"github.com/zeusync/spacelife/internal/core/job"
	"github.com/zeusync/spacelife/internal/core/observability/log"
	"github.com/zeusync/spacelife/internal/core/world"
)

// DeconstructJobType is the job prototype used to tear buildables down.
const DeconstructJobType = "deconstruct"

// QueueBuild puts a construction job for protoType on the global queue. The
// buildable is placed when the job completes. One build may be pending per
// tile.
func (m *Manager) QueueBuild(protoType string, tile *world.Tile) (*job.Job, error) {
	if err := m.IsPlacementValid(protoType, tile); err != nil {
		return nil, err
	}
	if pending, ok := m.pending[tile]; ok {
		return nil, fmt.Errorf("%w: build of %s already pending", ErrOccupied, pending.Type())
	}

	j := job.FromPrototype(m.env.Bus, m.env.Catalog, protoType, tile,
		job.Adjacent(), job.WithLogger(m.log),
		job.WithDescription(fmt.Sprintf("Building %s", protoType)))
	err := m.follow(j, func() {
		if _, err := m.Place(protoType, tile); err != nil {
			m.log.Warn("construction finished on a blocked site", logTile(tile), log.Error(err))
		}
	}, func() { delete(m.pending, tile) })
	if err != nil {
		return nil, err
	}
	m.pending[tile] = j
	m.env.Jobs.Enqueue(j)
	return j, nil
}

// PendingBuild returns the construction job waiting on tile.
func (m *Manager) PendingBuild(tile *world.Tile) (*job.Job, bool) {
	j, ok := m.pending[tile]
	return j, ok
}

// QueueDeconstruct queues a job that removes b when completed.
func (m *Manager) QueueDeconstruct(b *Buildable) (*job.Job, error) {
	if b == nil || b.IsBeingDestroyed() {
		return nil, ErrRemoved
	}
	j := job.FromPrototype(m.env.Bus, m.env.Catalog, DeconstructJobType, b.tile,
		job.Adjacent(), job.WithLogger(m.log), job.WithOwner(b.id),
		job.WithDescription(fmt.Sprintf("Deconstructing %s", b.Name())))
	err := m.follow(j, func() {
		if err := m.Remove(b); err != nil {
			m.log.Warn("deconstructed buildable was already gone", log.String("buildable", b.id))
		}
	}, nil)
	if err != nil {
		return nil, err
	}
	m.env.Jobs.Enqueue(j)
	return j, nil
}

// follow runs onComplete when j completes and onStop once it stops, then
// drops both subscriptions.
func (m *Manager) follow(j *job.Job, onComplete, onStop func()) error {
	completed, err := j.On(job.KindCompleted, func(*job.Job) { onComplete() })
	if err != nil {
		return err
	}
	var stopped bus.Subscription
	stopped, err = j.On(job.KindStopped, func(*job.Job) {
		_ = completed.Cancel()
		_ = stopped.Cancel()
		if onStop != nil {
			onStop()
		}
	})
	if err != nil {
		_ = completed.Cancel()
		return err
	}
	return nil
}

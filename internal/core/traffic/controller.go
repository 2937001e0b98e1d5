package traffic

import (
	"math/rand/v2"
	"slices"

	"github.com/zeusync/spacelife/internal/core/buildable"
	"github.com/zeusync/spacelife/internal/core/observability/log"
	"github.com/zeusync/spacelife/internal/core/prototype"
	"github.com/zeusync/spacelife/internal/core/scheduler"
	"github.com/zeusync/spacelife/internal/core/world"
)

// LandingPadTag marks buildables ships can land on.
const LandingPadTag = "LandingPad"

// Env is what the controllers need from the simulation.
type Env struct {
	World      *world.World
	Buildables *buildable.Manager
	Scheduler  *scheduler.Scheduler
	Catalog    *prototype.Catalog
	Rand       *rand.Rand
	Log        log.Log
}

func (e *Env) defaults() {
	if e.Log == nil {
		e.Log = log.NewNop()
	}
	if e.Rand == nil {
		e.Rand = rand.New(rand.NewPCG(3, 4))
	}
}

// fleet is the set of ships one controller has in flight.
type fleet struct {
	env   Env
	dirs  directions
	ships []*Ship
	log   log.Log
}

func (f *fleet) Ships() []*Ship {
	return slices.Clone(f.ships)
}

// FixedUpdate advances every ship. Ships that leave during the pass are
// removed from the fleet by their departure callback.
func (f *fleet) FixedUpdate(dt float64) {
	for _, s := range slices.Clone(f.ships) {
		s.FixedUpdate(dt)
	}
}

func (f *fleet) remove(s *Ship) {
	f.ships = slices.DeleteFunc(f.ships, func(c *Ship) bool { return c == s })
}

func (f *fleet) hasShipAt(pad *buildable.Buildable) bool {
	return slices.ContainsFunc(f.ships, func(s *Ship) bool { return s.pad == pad })
}

// launch creates a ship for pad, entering and leaving through two different
// random map edges.
func (f *fleet) launch(proto prototype.Ship, pad *buildable.Buildable, landingOffset int, defaultSpeed float64) *Ship {
	if proto.Speed <= 0 {
		proto.Speed = defaultSpeed
	}
	entry := edgePoint(f.dirs.next(), f.env.World, f.env.Rand)
	exit := edgePoint(f.dirs.next(), f.env.World, f.env.Rand)
	landing := Vec{X: float64(pad.Tile().X + landingOffset), Y: float64(pad.Tile().Y + landingOffset)}
	s := newShip(proto, pad, entry, landing, exit)
	f.ships = append(f.ships, s)
	f.log.Info("ship inbound", log.String("ship", s.Type()), log.Stringer("from", entry), log.Stringer("landing", landing))
	return s
}

// oneShot registers a transient single-fire event.
func (f *fleet) oneShot(name string, cooldown float64, owner scheduler.Owner, fn func()) {
	evt, err := scheduler.NewEvent(name, scheduler.Native(func(*scheduler.Event) error {
		fn()
		return nil
	}), cooldown, scheduler.Transient(), scheduler.WithOwner(owner))
	if err != nil {
		f.log.Error("cannot schedule phase event", log.String("event", name), log.Error(err))
		return
	}
	f.env.Scheduler.RegisterEvent(evt)
}

func pick[T any](rng *rand.Rand, items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[rng.IntN(len(items))], true
}

// Package traffic runs the ships that visit the colony: traders that land
// on a pad for a trade window and mining drones that drop off ore, refuel
// and fly home. Each lifecycle phase change is a one-shot scheduled event;
// flight itself is advanced by FixedUpdate.
package traffic

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/zeusync/spacelife/internal/core/buildable"
	"github.com/zeusync/spacelife/internal/core/prototype"
	"github.com/zeusync/spacelife/internal/core/world"
)

// Vec is a position in tile units; ships fly off-grid.
type Vec struct {
	X, Y float64
}

func (v Vec) Dist(o Vec) float64 {
	return math.Hypot(o.X-v.X, o.Y-v.Y)
}

func (v Vec) String() string {
	return fmt.Sprintf("(%.1f,%.1f)", v.X, v.Y)
}

type Direction uint8

const (
	North Direction = iota
	East
	South
	West
)

func (d Direction) String() string {
	return [...]string{"N", "E", "S", "W"}[d]
}

// directions draws a cardinal direction uniformly, never the same one twice
// in a row.
type directions struct {
	rng  *rand.Rand
	last Direction
	used bool
}

func (d *directions) next() Direction {
	for {
		dir := Direction(d.rng.IntN(4))
		if d.used && dir == d.last {
			continue
		}
		d.last, d.used = dir, true
		return dir
	}
}

// offscreen is how far outside the map ships appear and vanish.
const offscreen = 100

func edgePoint(dir Direction, w *world.World, rng *rand.Rand) Vec {
	switch dir {
	case North:
		return Vec{X: float64(rng.IntN(w.Width())), Y: float64(w.Height() + offscreen)}
	case South:
		return Vec{X: float64(rng.IntN(w.Width())), Y: -offscreen}
	case East:
		return Vec{X: float64(w.Width() + offscreen), Y: float64(rng.IntN(w.Height()))}
	default:
		return Vec{X: -offscreen, Y: float64(rng.IntN(w.Height()))}
	}
}

type Phase uint8

const (
	Arriving Phase = iota
	Landed
	Leaving
	Gone
)

func (p Phase) String() string {
	return [...]string{"arriving", "landed", "leaving", "gone"}[p]
}

// reachedThreshold is how close a ship must get to count as arrived.
const reachedThreshold = 0.1

// Ship flies from an entry point to a landing pad, waits there until told
// to depart and then flies to its exit point.
type Ship struct {
	id      string
	proto   prototype.Ship
	pad     *buildable.Buildable
	pos     Vec
	landing Vec
	exit    Vec
	phase   Phase

	onLanded   func(*Ship)
	onDeparted func(*Ship)
}

func newShip(proto prototype.Ship, pad *buildable.Buildable, entry, landing, exit Vec) *Ship {
	return &Ship{id: uuid.NewString(), proto: proto, pad: pad, pos: entry, landing: landing, exit: exit}
}

func (s *Ship) ID() string                { return s.id }
func (s *Ship) Type() string              { return s.proto.Type }
func (s *Ship) Pad() *buildable.Buildable { return s.pad }
func (s *Ship) Position() Vec             { return s.pos }
func (s *Ship) Landing() Vec              { return s.landing }
func (s *Ship) Exit() Vec                 { return s.exit }
func (s *Ship) Phase() Phase              { return s.phase }

// Depart sends a landed ship to its exit point.
func (s *Ship) Depart() {
	if s.phase == Landed {
		s.phase = Leaving
	}
}

// FixedUpdate moves the ship toward its current destination.
func (s *Ship) FixedUpdate(dt float64) {
	var dest Vec
	switch s.phase {
	case Arriving:
		dest = s.landing
	case Leaving:
		dest = s.exit
	default:
		return
	}

	dist := s.pos.Dist(dest)
	if dist > reachedThreshold {
		step := min(s.proto.Speed*dt, dist)
		s.pos.X += (dest.X - s.pos.X) / dist * step
		s.pos.Y += (dest.Y - s.pos.Y) / dist * step
		return
	}

	s.pos = dest
	if s.phase == Arriving {
		s.phase = Landed
		if s.onLanded != nil {
			s.onLanded(s)
		}
		return
	}
	s.phase = Gone
	if s.onDeparted != nil {
		s.onDeparted(s)
	}
}

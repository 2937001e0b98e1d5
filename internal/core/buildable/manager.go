package buildable

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/zeusync/spacelife/internal/core/events/bus"
	"github.com/zeusync/spacelife/internal/core/job"
	"github.com/zeusync/spacelife/internal/core/observability/log"
	"github.com/zeusync/spacelife/internal/core/params"
	"github.com/zeusync/spacelife/internal/core/prototype"
	"github.com/zeusync/spacelife/internal/core/world"
	"github.com/zeusync/spacelife/pkg/sequence"
)

// Topic carries manager wide notifications: KindPlaced and KindRemoved with
// the *Buildable as data.
const (
	Topic      = "buildables"
	KindPlaced = "placed"
)

// Env is what the manager and its components need from the simulation.
type Env struct {
	World   *world.World
	Catalog *prototype.Catalog
	Bus     bus.EventBus
	Jobs    *job.Queue
	Log     log.Log
}

type Manager struct {
	env       Env
	list      []*Buildable
	byID      map[string]*Buildable
	factories []ComponentFactory
	pending   map[*world.Tile]*job.Job
	log       log.Log
}

// NewManager creates a manager. Workshops are always available; extra
// factories add further component kinds.
func NewManager(env Env, factories ...ComponentFactory) *Manager {
	if env.Log == nil {
		env.Log = log.NewNop()
	}
	return &Manager{
		env:       env,
		byID:      make(map[string]*Buildable),
		factories: append([]ComponentFactory{newWorkshopComponent}, factories...),
		pending:   make(map[*world.Tile]*job.Job),
		log:       env.Log.Named("buildables"),
	}
}

// IsPlacementValid checks that protoType fits at tile.
func (m *Manager) IsPlacementValid(protoType string, tile *world.Tile) error {
	proto, ok := m.env.Catalog.Buildable(protoType)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPrototype, protoType)
	}
	_, err := m.footprint(proto, tile)
	return err
}

func (m *Manager) footprint(proto prototype.Buildable, tile *world.Tile) ([]*world.Tile, error) {
	if tile == nil {
		return nil, ErrOutOfBounds
	}
	tiles := make([]*world.Tile, 0, proto.Width*proto.Height)
	for dy := 0; dy < proto.Height; dy++ {
		for dx := 0; dx < proto.Width; dx++ {
			t, ok := m.env.World.TileAt(tile.X+dx, tile.Y+dy, tile.Z)
			if !ok {
				return nil, fmt.Errorf("%w: %s at %v", ErrOutOfBounds, proto.Type, tile)
			}
			if t.Occupant != nil {
				return nil, fmt.Errorf("%w: %v holds %s", ErrOccupied, t, t.Occupant.ID())
			}
			tiles = append(tiles, t)
		}
	}
	return tiles, nil
}

// Place creates a buildable of protoType with its base at tile.
func (m *Manager) Place(protoType string, tile *world.Tile) (*Buildable, error) {
	proto, ok := m.env.Catalog.Buildable(protoType)
	if !ok {
		m.log.Error("no buildable prototype", log.String("type", protoType))
		return nil, fmt.Errorf("%w: %s", ErrUnknownPrototype, protoType)
	}
	tiles, err := m.footprint(proto, tile)
	if err != nil {
		return nil, err
	}

	b := &Buildable{
		id:        uuid.NewString(),
		proto:     proto,
		tile:      tile,
		footprint: tiles,
		params:    params.New(),
		status:    StatusPlaced,
		operating: proto.Power == nil || proto.Power.Input == 0,
		stored:    make(map[string]int),
		bus:       m.env.Bus,
	}
	b.log = m.log.With(log.String("buildable", b.id), log.String("type", proto.Type))
	b.jobs = job.NewList(b.id, m.env.Jobs)
	for _, t := range tiles {
		t.Occupant = b
	}
	for _, factory := range m.factories {
		c := factory(m, b)
		if c == nil {
			continue
		}
		if err := c.OnAttach(b); err != nil {
			b.log.Error("component failed to attach", log.String("component", c.TypeName()), log.Error(err))
			continue
		}
		b.components = append(b.components, c)
	}

	m.list = append(m.list, b)
	m.byID[b.id] = b
	b.log.Debug("placed", logTile(tile))
	m.announce(KindPlaced, b)
	return b, nil
}

// Remove tears b down: components detach, its jobs stop, every handler bound
// to it is dropped and its tiles are freed.
func (m *Manager) Remove(b *Buildable) error {
	if b == nil || b.status == StatusRemoved {
		return ErrRemoved
	}
	b.status = StatusBeingDestroyed
	for _, c := range b.components {
		if err := c.OnDetach(b); err != nil {
			b.log.Error("component failed to detach", log.String("component", c.TypeName()), log.Error(err))
		}
	}
	b.jobs.CancelAll()
	b.publish(KindRemoved, b)
	m.announce(KindRemoved, b)

	for _, t := range b.footprint {
		if t.Occupant == b {
			t.Occupant = nil
		}
	}
	b.status = StatusRemoved
	m.env.Bus.DropTopic(b.id)

	delete(m.byID, b.id)
	if i := slices.Index(m.list, b); i >= 0 {
		m.list = slices.Delete(m.list, i, i+1)
	}
	b.log.Debug("removed")
	return nil
}

func (m *Manager) Get(id string) (*Buildable, bool) {
	b, ok := m.byID[id]
	return b, ok
}

// All returns the live buildables in placement order.
func (m *Manager) All() []*Buildable {
	return slices.Clone(m.list)
}

func (m *Manager) Len() int {
	return len(m.list)
}

func (m *Manager) Find(pred func(*Buildable) bool) []*Buildable {
	return sequence.From(m.list).Filter(pred).Collect()
}

func (m *Manager) CountWithType(t string) int {
	return m.ofType(t).Count()
}

// NearestWithType returns the base tile of the closest buildable of type t
// on from's layer.
func (m *Manager) NearestWithType(t string, from *world.Tile) (*world.Tile, bool) {
	sameLayer := m.ofType(t).Filter(func(b *Buildable) bool { return b.tile.Z == from.Z })
	b, ok := sequence.MinBy(sameLayer, func(b *Buildable) int {
		return abs(b.tile.X-from.X) + abs(b.tile.Y-from.Y)
	})
	if !ok {
		return nil, false
	}
	return b.tile, true
}

func (m *Manager) ofType(t string) *sequence.Iterator[*Buildable] {
	return sequence.From(m.list).Filter(func(b *Buildable) bool { return b.Type() == t })
}

// FixedUpdate runs every component once. Buildables placed during the pass
// start next tick; removed ones are skipped.
func (m *Manager) FixedUpdate(dt float64) {
	for _, b := range slices.Clone(m.list) {
		b.update(dt)
	}
}

func (m *Manager) announce(kind string, b *Buildable) {
	if err := m.env.Bus.Publish(Topic, bus.NewEvent(kind, b.id, b)); err != nil {
		m.log.Error("buildable listener failed", log.String("kind", kind), log.Error(err))
	}
}

func logTile(t *world.Tile) log.Field {
	return log.Stringer("tile", t)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sortedKeys(m map[string]int) []string {
	return slices.Sorted(maps.Keys(m))
}

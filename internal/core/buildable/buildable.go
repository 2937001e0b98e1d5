// Package buildable holds placed structures, the manager that owns them and
// the per-instance components that give them behaviour.
package buildable

import (
	"fmt"
	"maps"

	"github.com/zeusync/spacelife/internal/core/events/bus"
	"github.com/zeusync/spacelife/internal/core/job"
	"github.com/zeusync/spacelife/internal/core/observability/log"
	"github.com/zeusync/spacelife/internal/core/params"
	"github.com/zeusync/spacelife/internal/core/prototype"
	"github.com/zeusync/spacelife/internal/core/world"
)

// Event kinds published with the buildable id as topic.
const (
	KindRemoved          = "removed"
	KindOperatingChanged = "operating_changed"
	KindRunningChanged   = "running_changed"
)

type Status uint8

const (
	StatusPlaced Status = iota + 1
	StatusBeingDestroyed
	StatusRemoved
)

func (s Status) String() string {
	switch s {
	case StatusPlaced:
		return "placed"
	case StatusBeingDestroyed:
		return "being destroyed"
	case StatusRemoved:
		return "removed"
	}
	return "unknown"
}

// Buildable is a structure placed on one or more tiles.
type Buildable struct {
	id         string
	proto      prototype.Buildable
	tile       *world.Tile
	footprint  []*world.Tile
	params     *params.Bag
	jobs       *job.List
	components []Component
	status     Status
	operating  bool
	stored     map[string]int

	bus bus.EventBus
	log log.Log
}

func (b *Buildable) ID() string                     { return b.id }
func (b *Buildable) Type() string                   { return b.proto.Type }
func (b *Buildable) Prototype() prototype.Buildable { return b.proto }
func (b *Buildable) Tile() *world.Tile              { return b.tile }
func (b *Buildable) Footprint() []*world.Tile       { return append([]*world.Tile(nil), b.footprint...) }
func (b *Buildable) Params() *params.Bag            { return b.params }
func (b *Buildable) Jobs() *job.List                { return b.jobs }
func (b *Buildable) Status() Status                 { return b.status }
func (b *Buildable) IsBeingDestroyed() bool         { return b.status != StatusPlaced }
func (b *Buildable) IsOperating() bool              { return b.operating }
func (b *Buildable) HasTag(tag string) bool         { return b.proto.HasTag(tag) }

func (b *Buildable) Name() string {
	if b.proto.Name != "" {
		return b.proto.Name
	}
	return b.proto.Type
}

// MovementCost makes the buildable a world.Occupant.
func (b *Buildable) MovementCost() float64 {
	return b.proto.MovementCost
}

// Component returns the attached component with the given type name.
func (b *Buildable) Component(name string) (Component, bool) {
	for _, c := range b.components {
		if c.TypeName() == name {
			return c, true
		}
	}
	return nil, false
}

// SetOperating records whether the buildable has what it needs to work,
// usually power, and announces changes.
func (b *Buildable) SetOperating(v bool) {
	if b.operating == v {
		return
	}
	b.operating = v
	b.publish(KindOperatingChanged, v)
}

// Store puts items into the buildable's internal inventory.
func (b *Buildable) Store(itemType string, amount int) {
	if amount <= 0 {
		return
	}
	b.stored[itemType] += amount
}

// Stored reports the internal inventory amount of itemType.
func (b *Buildable) Stored(itemType string) int {
	return b.stored[itemType]
}

// StoredItems copies the internal inventory.
func (b *Buildable) StoredItems() map[string]int {
	return maps.Clone(b.stored)
}

// TakeStored empties the internal inventory.
func (b *Buildable) TakeStored() []*world.Inventory {
	out := make([]*world.Inventory, 0, len(b.stored))
	for _, t := range sortedKeys(b.stored) {
		out = append(out, &world.Inventory{Type: t, StackSize: b.stored[t]})
	}
	clear(b.stored)
	return out
}

// On subscribes h to kind on this buildable's topic.
func (b *Buildable) On(kind string, h func(bus.Event)) (bus.Subscription, error) {
	return b.bus.Subscribe(b.id, kind, func(e bus.Event) error {
		h(e)
		return nil
	})
}

func (b *Buildable) update(dt float64) {
	if b.IsBeingDestroyed() {
		return
	}
	for _, c := range b.components {
		if err := c.OnUpdate(dt); err != nil {
			b.log.Error("component update failed", log.String("component", c.TypeName()), log.Error(err))
		}
	}
}

func (b *Buildable) publish(kind string, data any) {
	if err := b.bus.Publish(b.id, bus.NewEvent(kind, b.id, data)); err != nil {
		b.log.Error("buildable event handler failed", log.String("kind", kind), log.Error(err))
	}
}

func (b *Buildable) String() string {
	return fmt.Sprintf("%s@%v", b.Name(), b.tile)
}

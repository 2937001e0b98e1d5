package buildable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/spacelife/internal/core/events/bus"
	"github.com/zeusync/spacelife/internal/core/job"
	"github.com/zeusync/spacelife/internal/core/prototype"
	"github.com/zeusync/spacelife/internal/core/world"
)

func catalog(t *testing.T) *prototype.Catalog {
	t.Helper()
	steel := prototype.ProductionChain{
		Name:           "Steel",
		ProcessingTime: 5,
		Input:          []prototype.Item{{ObjectType: "Raw Iron", Amount: 5, SlotPosX: -1}},
		Output:         []prototype.Item{{ObjectType: "Steel Plate", Amount: 1, SlotPosX: 1}},
	}
	wire := prototype.ProductionChain{
		Name:           "Copper Wire",
		ProcessingTime: 2,
		Input:          []prototype.Item{{ObjectType: "Raw Copper", Amount: 2, SlotPosX: -1}},
		Output:         []prototype.Item{{ObjectType: "Copper Wire", Amount: 1, SlotPosX: 1}},
	}
	c, err := prototype.Build(prototype.File{
		Inventory: []prototype.Inventory{
			{Type: "Raw Iron", MaxStackSize: 50},
			{Type: "Steel Plate", MaxStackSize: 50},
			{Type: "Raw Copper", MaxStackSize: 50},
			{Type: "Copper Wire", MaxStackSize: 50},
		},
		Jobs: []prototype.Job{
			{Type: "Metal Smelter", WorkTime: 1},
			{Type: DeconstructJobType, WorkTime: 0.5},
		},
		Buildables: []prototype.Buildable{
			{Type: "Metal Smelter", Workshop: &prototype.Workshop{Chains: []prototype.ProductionChain{steel}}},
			{Type: "Fabricator", Workshop: &prototype.Workshop{Chains: []prototype.ProductionChain{steel, wire}}},
			{Type: "Wall", Width: 2},
			{Type: "Bed", MovementCost: 1},
		},
	})
	require.NoError(t, err)
	return c
}

type fixture struct {
	world *world.World
	bus   bus.EventBus
	jobs  *job.Queue
	m     *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := catalog(t)
	w, err := world.New(6, 3, 1, c, nil)
	require.NoError(t, err)
	f := &fixture{world: w, bus: bus.New(), jobs: job.NewQueue(nil)}
	f.m = NewManager(Env{World: w, Catalog: c, Bus: f.bus, Jobs: f.jobs})
	return f
}

func (f *fixture) tile(t *testing.T, x, y int) *world.Tile {
	t.Helper()
	tile, ok := f.world.TileAt(x, y, 0)
	require.True(t, ok)
	return tile
}

func (f *fixture) workshop(t *testing.T, protoType string) (*Buildable, *Workshop) {
	t.Helper()
	b, err := f.m.Place(protoType, f.tile(t, 2, 1))
	require.NoError(t, err)
	c, ok := b.Component(WorkshopComponent)
	require.True(t, ok)
	return b, c.(*Workshop)
}

func (f *fixture) tick(n int, dt float64) {
	for i := 0; i < n; i++ {
		f.m.FixedUpdate(dt)
	}
}

func TestPlaceValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.m.Place("Rocket", f.tile(t, 0, 0))
	assert.ErrorIs(t, err, ErrUnknownPrototype)

	_, err = f.m.Place("Wall", f.tile(t, 5, 0))
	assert.ErrorIs(t, err, ErrOutOfBounds)

	wall, err := f.m.Place("Wall", f.tile(t, 0, 0))
	require.NoError(t, err)
	assert.Same(t, wall, f.tile(t, 1, 0).Occupant)
	assert.False(t, f.tile(t, 1, 0).Walkable())

	_, err = f.m.Place("Bed", f.tile(t, 1, 0))
	assert.ErrorIs(t, err, ErrOccupied)
	assert.Equal(t, 1, f.m.CountWithType("Wall"))
}

func TestWorkshopParamsOnPlacement(t *testing.T) {
	f := newFixture(t)
	_, single := f.workshop(t, "Metal Smelter")
	assert.Equal(t, "Steel", single.CurrentChain())

	f2 := newFixture(t)
	b, multi := f2.workshop(t, "Fabricator")
	assert.Empty(t, multi.CurrentChain())
	assert.Equal(t, []string{"Steel", "Copper Wire"}, multi.Chains())
	assert.ElementsMatch(t, []string{ParamProductionChain, ParamProcessingTime, ParamMaxProcessingTime, ParamProcessedInv}, b.Params().Names())

	f2.tick(3, 1)
	assert.Zero(t, b.Jobs().Len())
	assert.Equal(t, "No selected production", multi.Description())
}

func TestWorkshopProducesAfterProcessingTime(t *testing.T) {
	f := newFixture(t)
	b, w := f.workshop(t, "Metal Smelter")
	in, out := f.tile(t, 1, 1), f.tile(t, 3, 1)
	require.True(t, f.world.PlaceInventory(in, world.NewInventory("Raw Iron", 5, 0)))

	var running []bool
	_, err := b.On(KindRunningChanged, func(e bus.Event) { running = append(running, e.Data().(bool)) })
	require.NoError(t, err)

	f.tick(1, 1)
	assert.Nil(t, in.Inventory)
	_, total, inProgress := w.Processing()
	assert.Equal(t, 1, inProgress)
	assert.Equal(t, 5.0, total)

	f.tick(4, 1)
	assert.Nil(t, out.Inventory)
	f.tick(1, 1)
	require.NotNil(t, out.Inventory)
	assert.Equal(t, "Steel Plate", out.Inventory.Type)
	assert.Equal(t, 1, out.Inventory.StackSize)
	_, _, inProgress = w.Processing()
	assert.Zero(t, inProgress)
	assert.Equal(t, []bool{true}, running)

	require.True(t, f.world.PlaceInventory(in, world.NewInventory("Raw Iron", 5, 0)))
	f.tick(1, 1)
	_, _, inProgress = w.Processing()
	assert.Equal(t, 1, inProgress)
	assert.Equal(t, []bool{true, false}, running)
}

func TestWorkshopWaitsForOutputRoom(t *testing.T) {
	f := newFixture(t)
	_, w := f.workshop(t, "Metal Smelter")
	in, out := f.tile(t, 1, 1), f.tile(t, 3, 1)
	f.world.PlaceInventory(in, world.NewInventory("Raw Iron", 5, 0))
	f.world.PlaceInventory(out, world.NewInventory("Raw Copper", 1, 0))

	f.tick(8, 1)
	_, _, inProgress := w.Processing()
	assert.Equal(t, 1, inProgress)

	out.Inventory = nil
	f.tick(1, 1)
	_, _, inProgress = w.Processing()
	assert.Zero(t, inProgress)
	assert.Equal(t, "Steel Plate", out.Inventory.Type)
}

func TestChainChangeRejectedWhileProcessing(t *testing.T) {
	f := newFixture(t)
	b, w := f.workshop(t, "Fabricator")
	require.True(t, w.ChangeProductionChain("Steel"))
	f.world.PlaceInventory(f.tile(t, 1, 1), world.NewInventory("Raw Iron", 5, 0))
	f.tick(2, 1)

	before := b.Params().Snapshot()
	jobs := b.Jobs().Jobs()
	assert.False(t, w.ChangeProductionChain("Copper Wire"))
	assert.Equal(t, before, b.Params().Snapshot())
	assert.Equal(t, jobs, b.Jobs().Jobs())

	assert.False(t, w.ChangeProductionChain("Gold"))
}

func TestChainChangeCancelsJobsAndUnlocks(t *testing.T) {
	f := newFixture(t)
	b, w := f.workshop(t, "Fabricator")
	require.True(t, w.ChangeProductionChain("Steel"))
	in := f.tile(t, 1, 1)
	f.world.PlaceInventory(in, world.NewInventory("Raw Iron", 3, 0))
	in.Inventory.Locked = true

	f.tick(1, 1)
	require.Equal(t, 1, b.Jobs().Len())
	haul := b.Jobs().Jobs()[0]
	assert.Equal(t, 47, haul.AmountDesired("Raw Iron"))
	assert.Equal(t, 1, f.jobs.Len())

	assert.False(t, w.ChangeProductionChain("Steel"))
	require.True(t, w.ChangeProductionChain("Copper Wire"))
	assert.True(t, haul.IsStopped())
	assert.Zero(t, f.jobs.Len())
	assert.False(t, in.Inventory.Locked)
	assert.Equal(t, "Copper Wire", w.CurrentChain())
}

func TestHaulingDeliveryLocksInput(t *testing.T) {
	f := newFixture(t)
	b, w := f.workshop(t, "Metal Smelter")
	in := f.tile(t, 1, 1)

	f.tick(1, 1)
	haul, ok := f.jobs.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "Hauling 'Raw Iron' to 'Metal Smelter'", haul.Description())

	haul.Deliver(world.NewInventory("Raw Iron", 20, 50))
	haul.DoWork(0.4)
	assert.True(t, haul.IsStopped())
	require.NotNil(t, in.Inventory)
	assert.Equal(t, 20, in.Inventory.StackSize)
	assert.True(t, in.Inventory.Locked)
	assert.Zero(t, b.Jobs().Len())

	f.tick(1, 1)
	assert.Equal(t, 15, in.Inventory.StackSize)
	_, _, inProgress := w.Processing()
	assert.Equal(t, 1, inProgress)
	next, ok := f.jobs.Dequeue()
	require.True(t, ok)
	assert.Equal(t, 35, next.AmountDesired("Raw Iron"))
}

func TestRemoveTearsDown(t *testing.T) {
	f := newFixture(t)
	b, _ := f.workshop(t, "Metal Smelter")
	in := f.tile(t, 1, 1)
	f.world.PlaceInventory(in, world.NewInventory("Raw Iron", 3, 0))
	in.Inventory.Locked = true
	f.tick(1, 1)
	haul := b.Jobs().Jobs()[0]

	var removed []string
	_, err := f.bus.Subscribe(Topic, KindRemoved, func(e bus.Event) error {
		removed = append(removed, e.Source())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, f.m.Remove(b))
	assert.Equal(t, []string{b.ID()}, removed)
	assert.False(t, in.Inventory.Locked)
	assert.True(t, haul.IsStopped())
	assert.Nil(t, f.tile(t, 2, 1).Occupant)
	assert.Zero(t, f.bus.Len(b.ID()))
	assert.Zero(t, f.m.Len())
	assert.Equal(t, StatusRemoved, b.Status())
	assert.ErrorIs(t, f.m.Remove(b), ErrRemoved)

	f.tick(1, 1)
}

func TestQueueBuildAndDeconstruct(t *testing.T) {
	f := newFixture(t)
	site := f.tile(t, 4, 2)

	_, err := f.m.QueueBuild("Rocket", site)
	assert.ErrorIs(t, err, ErrUnknownPrototype)

	j, err := f.m.QueueBuild("Metal Smelter", site)
	require.NoError(t, err)
	assert.Equal(t, 1.0, j.WorkTime())
	_, err = f.m.QueueBuild("Bed", site)
	assert.ErrorIs(t, err, ErrOccupied)

	queued, ok := f.jobs.Dequeue()
	require.True(t, ok)
	require.Same(t, j, queued)
	j.DoWork(1)

	built := f.m.Find(func(b *Buildable) bool { return b.Tile() == site })
	require.Len(t, built, 1)
	_, pending := f.m.PendingBuild(site)
	assert.False(t, pending)

	tile, ok := f.m.NearestWithType("Metal Smelter", f.tile(t, 0, 0))
	require.True(t, ok)
	assert.Same(t, site, tile)

	d, err := f.m.QueueDeconstruct(built[0])
	require.NoError(t, err)
	d.DoWork(0.5)
	assert.Zero(t, f.m.CountWithType("Metal Smelter"))
	assert.Nil(t, site.Occupant)
}

func TestStoredInventory(t *testing.T) {
	f := newFixture(t)
	b, err := f.m.Place("Bed", f.tile(t, 0, 0))
	require.NoError(t, err)
	b.Store("Raw Iron", 3)
	b.Store("Raw Copper", 2)
	b.Store("Raw Iron", 0)
	assert.Equal(t, 3, b.Stored("Raw Iron"))

	got := b.TakeStored()
	require.Len(t, got, 2)
	assert.Equal(t, "Raw Copper", got[0].Type)
	assert.Zero(t, b.Stored("Raw Iron"))
}

package power

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/spacelife/internal/core/buildable"
	"github.com/zeusync/spacelife/internal/core/events/bus"
	"github.com/zeusync/spacelife/internal/core/job"
	"github.com/zeusync/spacelife/internal/core/prototype"
	"github.com/zeusync/spacelife/internal/core/scheduler"
	"github.com/zeusync/spacelife/internal/core/world"
)

func TestGridOperatesWhenSupplyCoversDemand(t *testing.T) {
	g := NewGrid()
	assert.False(t, g.Tick())
	assert.False(t, g.IsOperating())

	gen := &Connection{ID: "gen", Output: 10}
	lamp := &Connection{ID: "lamp", Input: 10}
	require.True(t, g.PlugIn(gen))
	assert.False(t, g.PlugIn(gen))
	g.PlugIn(lamp)
	assert.True(t, g.Tick())
	assert.True(t, g.IsOperating())
	assert.Zero(t, g.Balance())

	g.PlugIn(&Connection{ID: "heater", Input: 1})
	assert.True(t, g.Tick())
	assert.False(t, g.IsOperating())
	assert.Len(t, g.Connections(), 3)
}

func TestNetworkPlugging(t *testing.T) {
	n := New(nil)
	c := &Connection{ID: "a", Output: 1}
	_, err := n.PlugIn(nil)
	assert.ErrorIs(t, err, ErrNilConnection)

	ok, err := n.PlugIn(c)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, n.CanPlugIn(c))

	second := NewGrid()
	other := &Connection{ID: "b", Input: 1}
	ok, err = n.PlugInto(other, second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, n.Grids(), 2)

	n.Tick()
	assert.True(t, n.HasPower(c))
	assert.False(t, n.HasPower(other))

	n.Unplug(other)
	n.Tick()
	assert.Len(t, n.Grids(), 1)
}

func TestNetworkFollowsBuildables(t *testing.T) {
	c, err := prototype.Build(prototype.File{Buildables: []prototype.Buildable{
		{Type: "Generator", Power: &prototype.Power{Output: 10}},
		{Type: "Lamp", Power: &prototype.Power{Input: 5}},
		{Type: "Heater", Power: &prototype.Power{Input: 10}},
		{Type: "Wall"},
	}})
	require.NoError(t, err)
	w, err := world.New(5, 1, 1, c, nil)
	require.NoError(t, err)
	b := bus.New()
	sched := scheduler.New(nil)
	m := buildable.NewManager(buildable.Env{World: w, Catalog: c, Bus: b, Jobs: job.NewQueue(nil)})

	n := New(nil)
	require.NoError(t, n.Attach(sched, b))
	require.Equal(t, 1, sched.Len())
	assert.False(t, sched.Events()[0].IsSaveable())

	place := func(typ string, x int) *buildable.Buildable {
		tile, _ := w.TileAt(x, 0, 0)
		bb, err := m.Place(typ, tile)
		require.NoError(t, err)
		return bb
	}
	gen := place("Generator", 0)
	lamp := place("Lamp", 1)
	wall := place("Wall", 2)
	assert.False(t, lamp.IsOperating())
	assert.True(t, wall.IsOperating())

	var changes []bool
	_, err = lamp.On(buildable.KindOperatingChanged, func(e bus.Event) { changes = append(changes, e.Data().(bool)) })
	require.NoError(t, err)

	sched.Tick(0.5)
	assert.False(t, lamp.IsOperating())
	sched.Tick(0.5)
	assert.True(t, lamp.IsOperating())

	heater := place("Heater", 3)
	assert.False(t, heater.IsOperating())
	sched.Tick(1)
	assert.False(t, lamp.IsOperating())

	require.NoError(t, m.Remove(heater))
	sched.Tick(1)
	assert.True(t, lamp.IsOperating())
	assert.Equal(t, []bool{true, false, true}, changes)

	require.NoError(t, m.Remove(gen))
	sched.Tick(1)
	assert.False(t, lamp.IsOperating())

	n.Detach()
	sched.Tick(1)
	assert.Zero(t, sched.Len())
}

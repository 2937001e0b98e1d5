// Package actor drives characters: a state machine of behaviour states, the
// needs that can preempt them, and the hauling and job work they perform.
package actor

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/zeusync/spacelife/internal/core/events/bus"
	"github.com/zeusync/spacelife/internal/core/job"
	"github.com/zeusync/spacelife/internal/core/observability/log"
	"github.com/zeusync/spacelife/internal/core/prototype"
	"github.com/zeusync/spacelife/internal/core/world"
)

// DefaultSpeed is in tiles per second on floor of cost 1.
const DefaultSpeed = 5.0

// dropRadius bounds where unwanted carried items are put down.
const dropRadius = 2

// Facilities finds placed buildables by type.
type Facilities interface {
	CountWithType(t string) int
	NearestWithType(t string, from *world.Tile) (*world.Tile, bool)
}

// Env is what a character needs from the simulation.
type Env struct {
	World      *world.World
	Jobs       *job.Queue
	Bus        bus.EventBus
	Facilities Facilities
	Rand       *rand.Rand
	Log        log.Log
}

type Character struct {
	id      string
	name    string
	tile    *world.Tile
	facing  world.Point
	speed   float64
	carried *world.Inventory
	needs   []*Need

	machine       *Machine
	needState     *NeedState
	lastAbandoned *job.Job

	env Env
	log log.Log
}

func NewCharacter(env Env, name string, tile *world.Tile, needs ...prototype.Need) *Character {
	if env.Log == nil {
		env.Log = log.NewNop()
	}
	if env.Rand == nil {
		env.Rand = rand.New(rand.NewPCG(1, 2))
	}
	c := &Character{
		id:    uuid.NewString(),
		name:  name,
		tile:  tile,
		speed: DefaultSpeed,
		env:   env,
	}
	c.log = env.Log.Named("character").With(log.String("character", name))
	for _, n := range needs {
		c.needs = append(c.needs, NewNeed(n))
	}
	c.machine = NewMachine(c.nextWork, c.log)
	c.needState = NewNeedState(c)
	return c
}

func (c *Character) ID() string                { return c.id }
func (c *Character) Name() string              { return c.name }
func (c *Character) Tile() *world.Tile         { return c.tile }
func (c *Character) Facing() world.Point       { return c.facing }
func (c *Character) Carried() *world.Inventory { return c.carried }
func (c *Character) Needs() []*Need            { return append([]*Need(nil), c.needs...) }
func (c *Character) State() State              { return c.machine.Current() }
func (c *Character) Machine() *Machine         { return c.machine }

func (c *Character) SetSpeed(tilesPerSecond float64) {
	if tilesPerSecond > 0 {
		c.speed = tilesPerSecond
	}
}

// Need returns the need of type t.
func (c *Character) Need(t string) (*Need, bool) {
	for _, n := range c.needs {
		if n.Type() == t {
			return n, true
		}
	}
	return nil, false
}

func (c *Character) SetState(s State)   { c.machine.SetState(s) }
func (c *Character) QueueState(s State) { c.machine.QueueState(s) }
func (c *Character) InterruptState()    { c.machine.InterruptState() }
func (c *Character) ClearStateQueue()   { c.machine.ClearStateQueue() }

// Update runs needs first so an urgent need can preempt this tick's work.
func (c *Character) Update(dt float64) {
	c.needState.Update(dt)
	c.machine.Update(dt)
}

func (c *Character) FaceTile(t *world.Tile) {
	c.facing = t.Point
}

// nextWork takes the most urgent job from the global queue, or idles. A job
// this character just abandoned is put back and skipped until it idled.
func (c *Character) nextWork() State {
	j, ok := c.env.Jobs.Dequeue()
	if ok && j == c.lastAbandoned {
		c.env.Jobs.Enqueue(j)
		ok = false
	}
	if ok {
		return NewJobState(c, j, nil)
	}
	return NewIdleState(c, nil)
}

func (c *Character) dropCarried() {
	if c.carried == nil {
		return
	}
	if c.carried.StackSize > 0 && !c.env.World.PlaceInventoryAround(c.tile, c.carried, dropRadius) {
		c.log.Warn("carried inventory lost", log.Stringer("inventory", c.carried))
	}
	c.carried = nil
}

func logTile(t *world.Tile) log.Field {
	return log.Stringer("tile", t)
}

// Package simulation owns every piece of simulation state and advances it
// one fixed step at a time. There are no globals: whatever a component needs
// is handed to it from here.
package simulation

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/zeusync/spacelife/internal/core/actor"
	"github.com/zeusync/spacelife/internal/core/buildable"
	"github.com/zeusync/spacelife/internal/core/events/bus"
	"github.com/zeusync/spacelife/internal/core/job"
	"github.com/zeusync/spacelife/internal/core/observability/log"
	"github.com/zeusync/spacelife/internal/core/power"
	"github.com/zeusync/spacelife/internal/core/prototype"
	"github.com/zeusync/spacelife/internal/core/scheduler"
	"github.com/zeusync/spacelife/internal/core/traffic"
	"github.com/zeusync/spacelife/internal/core/world"
)

// MiningCompleteFunc is the script global that calls a drone to a landing pad.
const MiningCompleteFunc = "mining_complete"

type Options struct {
	Width, Height, Depth int
	Seed                 uint64
	TimeScale            float64
	StartPaused          bool
	MaxFiresPerUpdate    int
}

// Binder is implemented by script hosts that can call back into Go.
type Binder interface {
	Bind(name string, fn func(arg string) error)
}

type Simulation struct {
	log        log.Log
	bus        bus.EventBus
	catalog    *prototype.Catalog
	world      *world.World
	jobs       *job.Queue
	scheduler  *scheduler.Scheduler
	buildables *buildable.Manager
	power      *power.Network
	trade      *traffic.TradeController
	drones     *traffic.DroneController
	characters []*actor.Character
	rng        *rand.Rand

	paused    bool
	timeScale float64
	elapsed   float64
}

// New builds a simulation over catalog. Every scheduled-event prototype in
// the catalog becomes a scripted scheduler prototype resolved through host.
func New(opts Options, catalog *prototype.Catalog, host scheduler.ScriptHost, logger log.Log) (*Simulation, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	if opts.TimeScale == 0 {
		opts.TimeScale = 1
	}
	if opts.TimeScale < 0 {
		return nil, ErrInvalidTimeScale
	}

	w, err := world.New(opts.Width, opts.Height, opts.Depth, catalog, logger)
	if err != nil {
		return nil, fmt.Errorf("create world: %w", err)
	}
	schedOpts := []scheduler.SchedulerOption{}
	if host != nil {
		schedOpts = append(schedOpts, scheduler.WithScriptHost(host))
	}
	if opts.MaxFiresPerUpdate > 0 {
		schedOpts = append(schedOpts, scheduler.WithMaxFiresPerUpdate(opts.MaxFiresPerUpdate))
	}

	s := &Simulation{
		bus:       bus.New(),
		catalog:   catalog,
		world:     w,
		rng:       rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		paused:    opts.StartPaused,
		timeScale: opts.TimeScale,
	}
	logger = logger.WithClock(func() float64 { return s.elapsed })
	s.log = logger.Named("simulation")
	s.jobs = job.NewQueue(logger)
	s.scheduler = scheduler.New(logger, schedOpts...)
	s.power = power.New(logger)
	for _, evt := range catalog.Events() {
		err := s.scheduler.RegisterPrototype(scheduler.Prototype{Name: evt.Name, Callback: scheduler.Scripted(evt.OnFire)})
		if err != nil {
			return nil, fmt.Errorf("register event prototype %s: %w", evt.Name, err)
		}
	}

	s.buildables = buildable.NewManager(buildable.Env{
		World:   w,
		Catalog: catalog,
		Bus:     s.bus,
		Jobs:    s.jobs,
		Log:     logger,
	})
	if _, err := s.bus.Subscribe(buildable.Topic, buildable.KindPlaced, s.onPlaced); err != nil {
		return nil, fmt.Errorf("subscribe to placements: %w", err)
	}
	if err := s.power.Attach(s.scheduler, s.bus); err != nil {
		return nil, fmt.Errorf("attach power network: %w", err)
	}

	env := traffic.Env{
		World:      w,
		Buildables: s.buildables,
		Scheduler:  s.scheduler,
		Catalog:    catalog,
		Rand:       s.rng,
		Log:        logger,
	}
	if s.trade, err = traffic.NewTradeController(env); err != nil {
		return nil, fmt.Errorf("start trade controller: %w", err)
	}
	s.drones = traffic.NewDroneController(env)

	if b, ok := host.(Binder); ok {
		b.Bind(MiningCompleteFunc, s.miningComplete)
	}
	return s, nil
}

func (s *Simulation) Log() log.Log                     { return s.log }
func (s *Simulation) Bus() bus.EventBus                { return s.bus }
func (s *Simulation) Catalog() *prototype.Catalog      { return s.catalog }
func (s *Simulation) World() *world.World              { return s.world }
func (s *Simulation) Jobs() *job.Queue                 { return s.jobs }
func (s *Simulation) Scheduler() *scheduler.Scheduler  { return s.scheduler }
func (s *Simulation) Buildables() *buildable.Manager   { return s.buildables }
func (s *Simulation) Power() *power.Network            { return s.power }
func (s *Simulation) Trade() *traffic.TradeController  { return s.trade }
func (s *Simulation) Drones() *traffic.DroneController { return s.drones }
func (s *Simulation) Characters() []*actor.Character   { return slices.Clone(s.characters) }
func (s *Simulation) Elapsed() float64                 { return s.elapsed }
func (s *Simulation) IsPaused() bool                   { return s.paused }
func (s *Simulation) TimeScale() float64               { return s.timeScale }

func (s *Simulation) Pause()  { s.paused = true }
func (s *Simulation) Resume() { s.paused = false }

func (s *Simulation) SetTimeScale(scale float64) error {
	if !(scale > 0) {
		return ErrInvalidTimeScale
	}
	s.timeScale = scale
	return nil
}

// AddCharacter spawns a character with every need in the catalog.
func (s *Simulation) AddCharacter(name string, x, y, z int) (*actor.Character, error) {
	tile, ok := s.world.TileAt(x, y, z)
	if !ok {
		return nil, fmt.Errorf("%w: %d,%d,%d", ErrNoTile, x, y, z)
	}
	c := actor.NewCharacter(actor.Env{
		World:      s.world,
		Jobs:       s.jobs,
		Bus:        s.bus,
		Facilities: s.buildables,
		Rand:       s.rng,
		Log:        s.log,
	}, name, tile, s.catalog.Needs()...)
	s.characters = append(s.characters, c)
	return c, nil
}

// Place puts a buildable down immediately, bypassing construction.
func (s *Simulation) Place(protoType string, x, y, z int) (*buildable.Buildable, error) {
	tile, ok := s.world.TileAt(x, y, z)
	if !ok {
		return nil, fmt.Errorf("%w: %d,%d,%d", ErrNoTile, x, y, z)
	}
	return s.buildables.Place(protoType, tile)
}

// MiningComplete calls a mining drone to pad.
func (s *Simulation) MiningComplete(pad *buildable.Buildable) error {
	if !pad.HasTag(traffic.LandingPadTag) {
		return fmt.Errorf("%w: %s", ErrNotLandingPad, pad)
	}
	return s.drones.MiningComplete(pad)
}

func (s *Simulation) miningComplete(padID string) error {
	pad, ok := s.buildables.Get(padID)
	if !ok {
		return fmt.Errorf("%w: %s", buildable.ErrRemoved, padID)
	}
	return s.MiningComplete(pad)
}

func (s *Simulation) onPlaced(e bus.Event) error {
	b, ok := e.Data().(*buildable.Buildable)
	if !ok || !b.HasTag(traffic.LandingPadTag) {
		return nil
	}
	return traffic.DefineLandingPad(b)
}

// FixedUpdate advances the whole simulation by dt seconds of wall time scaled
// by the time scale. Nothing moves while paused.
func (s *Simulation) FixedUpdate(dt float64) {
	if s.paused || dt <= 0 {
		return
	}
	dt *= s.timeScale
	s.elapsed += dt

	s.scheduler.Tick(dt)
	s.buildables.FixedUpdate(dt)
	for _, c := range slices.Clone(s.characters) {
		c.Update(dt)
	}
	s.trade.FixedUpdate(dt)
	s.drones.FixedUpdate(dt)
}

// Close releases subscriptions held outside of entities.
func (s *Simulation) Close() {
	s.power.Detach()
}

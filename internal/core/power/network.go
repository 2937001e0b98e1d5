package power

import (
	"errors"

	"github.com/zeusync/spacelife/internal/core/buildable"
	"github.com/zeusync/spacelife/internal/core/events/bus"
	"github.com/zeusync/spacelife/internal/core/observability/log"
	"github.com/zeusync/spacelife/internal/core/scheduler"
)

const (
	// TickEvent is the scheduled event that advances the network.
	TickEvent = "power_tick"
	// TickInterval is in simulation seconds.
	TickInterval = 1.0
)

var ErrNilConnection = errors.New("power: nil connection")

// Network owns the grids. It ticks from a repeating, unsaved scheduler event
// and follows buildable placement through the bus.
type Network struct {
	grids  []*Grid
	owners map[string]*buildable.Buildable
	tick   *scheduler.Event
	subs   []bus.Subscription
	log    log.Log
}

// New creates an empty network. It is not attached to anything until Attach.
func New(logger log.Log) *Network {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Network{owners: make(map[string]*buildable.Buildable), log: logger.Named("power")}
}

// Attach registers the network's tick with sched and starts following
// buildables placed and removed through b.
func (n *Network) Attach(sched *scheduler.Scheduler, b bus.EventBus) error {
	evt, err := scheduler.NewEvent(TickEvent, scheduler.Native(func(*scheduler.Event) error {
		n.Tick()
		return nil
	}), TickInterval, scheduler.RepeatsForever(), scheduler.Transient())
	if err != nil {
		return err
	}
	placed, err := b.Subscribe(buildable.Topic, buildable.KindPlaced, n.onPlaced)
	if err != nil {
		return err
	}
	removed, err := b.Subscribe(buildable.Topic, buildable.KindRemoved, n.onRemoved)
	if err != nil {
		_ = placed.Cancel()
		return err
	}
	n.subs = []bus.Subscription{placed, removed}
	n.tick = evt
	sched.RegisterEvent(evt)
	return nil
}

// Detach stops ticking and following buildables.
func (n *Network) Detach() {
	for _, s := range n.subs {
		_ = s.Cancel()
	}
	n.subs = nil
	if n.tick != nil {
		n.tick.Stop()
		n.tick = nil
	}
}

func (n *Network) IsEmpty() bool { return len(n.grids) == 0 }
func (n *Network) Grids() []*Grid {
	return append([]*Grid(nil), n.grids...)
}

func (n *Network) CanPlugIn(c *Connection) bool {
	if c == nil {
		return false
	}
	for _, g := range n.grids {
		if g.CanPlugIn(c) {
			return true
		}
	}
	return false
}

// PlugIn connects c to the first grid that takes it, creating the first
// grid on demand.
func (n *Network) PlugIn(c *Connection) (bool, error) {
	if c == nil {
		return false, ErrNilConnection
	}
	if n.IsEmpty() {
		n.grids = append(n.grids, NewGrid())
	}
	for _, g := range n.grids {
		if g.CanPlugIn(c) {
			return g.PlugIn(c), nil
		}
	}
	return false, nil
}

// PlugInto connects c to a specific grid, adding the grid if it is new.
func (n *Network) PlugInto(c *Connection, g *Grid) (bool, error) {
	if c == nil {
		return false, ErrNilConnection
	}
	if g == nil {
		return false, nil
	}
	if !n.has(g) {
		n.grids = append(n.grids, g)
	}
	return g.PlugIn(c), nil
}

func (n *Network) IsPluggedIn(c *Connection) (*Grid, bool) {
	if c == nil {
		return nil, false
	}
	for _, g := range n.grids {
		if g.IsPluggedIn(c) {
			return g, true
		}
	}
	return nil, false
}

func (n *Network) Unplug(c *Connection) {
	if g, ok := n.IsPluggedIn(c); ok {
		g.Unplug(c)
	}
}

func (n *Network) HasPower(c *Connection) bool {
	g, ok := n.IsPluggedIn(c)
	return ok && g.IsOperating()
}

// Tick drops empty grids, recomputes each grid and updates the operating
// flag of the consumers on grids whose state changed.
func (n *Network) Tick() {
	if n.IsEmpty() {
		return
	}
	live := n.grids[:0]
	for _, g := range n.grids {
		if !g.IsEmpty() {
			live = append(live, g)
		}
	}
	clear(n.grids[len(live):])
	n.grids = live

	for _, g := range n.grids {
		if !g.Tick() {
			continue
		}
		n.log.Debug("grid state changed", log.Bool("operating", g.IsOperating()), log.Float64("balance", g.Balance()))
		for _, c := range g.Connections() {
			if b, ok := n.owners[c.ID]; ok && c.IsConsumer() {
				b.SetOperating(g.IsOperating())
			}
		}
	}
}

func (n *Network) has(g *Grid) bool {
	for _, cand := range n.grids {
		if cand == g {
			return true
		}
	}
	return false
}

func (n *Network) onPlaced(e bus.Event) error {
	b, ok := e.Data().(*buildable.Buildable)
	if !ok || b.Prototype().Power == nil {
		return nil
	}
	p := b.Prototype().Power
	c := &Connection{ID: b.ID(), Input: p.Input, Output: p.Output}
	if _, err := n.PlugIn(c); err != nil {
		return err
	}
	n.owners[b.ID()] = b
	if c.IsConsumer() {
		g, _ := n.IsPluggedIn(c)
		b.SetOperating(g != nil && g.IsOperating() && g.Balance() >= 0)
	}
	return nil
}

func (n *Network) onRemoved(e bus.Event) error {
	b, ok := e.Data().(*buildable.Buildable)
	if !ok {
		return nil
	}
	if _, tracked := n.owners[b.ID()]; !tracked {
		return nil
	}
	delete(n.owners, b.ID())
	n.Unplug(&Connection{ID: b.ID()})
	return nil
}

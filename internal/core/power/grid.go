// Package power simulates electricity grids. Buildables with a power
// connection plug into a grid; a grid operates while its supply covers its
// demand, and consumers only operate on an operating grid.
package power

import (
	"maps"
	"slices"
)

// Connection is one buildable's link to a grid. Output feeds the grid,
// Input draws from it, both per second.
type Connection struct {
	ID     string
	Input  float64
	Output float64
}

func (c *Connection) IsConsumer() bool { return c.Input > 0 }
func (c *Connection) IsProducer() bool { return c.Output > 0 }

type Grid struct {
	connections map[string]*Connection
	operating   bool
}

func NewGrid() *Grid {
	return &Grid{connections: make(map[string]*Connection)}
}

func (g *Grid) IsEmpty() bool     { return len(g.connections) == 0 }
func (g *Grid) IsOperating() bool { return g.operating }
func (g *Grid) Len() int          { return len(g.connections) }

// CanPlugIn reports whether c could join this grid.
func (g *Grid) CanPlugIn(c *Connection) bool {
	_, present := g.connections[c.ID]
	return !present
}

func (g *Grid) PlugIn(c *Connection) bool {
	if !g.CanPlugIn(c) {
		return false
	}
	g.connections[c.ID] = c
	return true
}

func (g *Grid) IsPluggedIn(c *Connection) bool {
	_, ok := g.connections[c.ID]
	return ok
}

func (g *Grid) Unplug(c *Connection) {
	delete(g.connections, c.ID)
}

// Balance is supply minus demand.
func (g *Grid) Balance() float64 {
	var supply, demand float64
	for _, c := range g.connections {
		supply += c.Output
		demand += c.Input
	}
	return supply - demand
}

// Tick recomputes whether the grid operates and reports a change.
func (g *Grid) Tick() bool {
	operating := !g.IsEmpty() && g.Balance() >= 0
	changed := operating != g.operating
	g.operating = operating
	return changed
}

// Connections returns the connections sorted by id.
func (g *Grid) Connections() []*Connection {
	out := make([]*Connection, 0, len(g.connections))
	for _, id := range slices.Sorted(maps.Keys(g.connections)) {
		out = append(out, g.connections[id])
	}
	return out
}

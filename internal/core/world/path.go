package world

import (
	"math"

	"github.com/zeusync/spacelife/pkg/generic"
	"github.com/zeusync/spacelife/pkg/sequence"
)

// search is the scratch state of one FindPath call.
type search struct {
	cameFrom map[*Tile]*Tile
	gScore   map[*Tile]float64
	closed   map[*Tile]bool
}

var searches = generic.NewPool(func() *search {
	return &search{
		cameFrom: make(map[*Tile]*Tile),
		gScore:   make(map[*Tile]float64),
		closed:   make(map[*Tile]bool),
	}
}, func(s *search) {
	clear(s.cameFrom)
	clear(s.gScore)
	clear(s.closed)
})

// FindPath runs A* from start to goal on start's layer. With adjacent set,
// any walkable neighbour of goal ends the search. The returned path excludes
// start and is nil when the goal cannot be reached. A start that already
// satisfies the goal yields an empty, non-nil path.
func (w *World) FindPath(start, goal *Tile, adjacent bool) []*Tile {
	if start == nil || goal == nil || start.Z != goal.Z {
		return nil
	}
	done := func(t *Tile) bool {
		return t == goal || (adjacent && t.IsNeighbour(goal, true))
	}
	if done(start) {
		return []*Tile{}
	}

	st := searches.Get()
	defer searches.Put(st)
	cameFrom, gScore, closed := st.cameFrom, st.gScore, st.closed
	gScore[start] = 0

	open := sequence.NewPriorityQueue[*Tile](sequence.LowestFirst)
	open.Enqueue(start, heuristic(start, goal))

	for !open.IsEmpty() {
		current, _ := open.Dequeue()
		if closed[current] {
			continue
		}
		if done(current) {
			return reconstruct(cameFrom, current)
		}
		closed[current] = true

		for _, n := range w.Neighbours(current, true) {
			if closed[n] || (!n.Walkable() && n != goal) {
				continue
			}
			if n == goal && !n.Walkable() && !adjacent {
				continue
			}
			if !w.canStep(current, n) {
				continue
			}
			step := n.MovementCost()
			if step <= 0 {
				step = 1
			}
			if current.X != n.X && current.Y != n.Y {
				step *= math.Sqrt2
			}
			tentative := gScore[current] + step
			if g, seen := gScore[n]; seen && tentative >= g {
				continue
			}
			cameFrom[n] = current
			gScore[n] = tentative
			open.Enqueue(n, tentative+heuristic(n, goal))
		}
	}
	return nil
}

// canStep forbids cutting diagonally past blocked corners.
func (w *World) canStep(from, to *Tile) bool {
	if from.X == to.X || from.Y == to.Y {
		return true
	}
	a, okA := w.TileAt(to.X, from.Y, from.Z)
	b, okB := w.TileAt(from.X, to.Y, from.Z)
	return okA && okB && a.Walkable() && b.Walkable()
}

func heuristic(a, b *Tile) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

func reconstruct(cameFrom map[*Tile]*Tile, end *Tile) []*Tile {
	var path []*Tile
	for t := end; ; {
		prev, ok := cameFrom[t]
		if !ok {
			break
		}
		path = append(path, t)
		t = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

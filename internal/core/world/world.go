// Package world is the tile grid the simulation runs on: tiles, the
// inventory lying on them, and path finding between them.
package world

import (
	"errors"
	"fmt"

	"github.com/zeusync/spacelife/internal/core/observability/log"
)

var ErrInvalidSize = errors.New("world: dimensions must be positive")

// StackLimits resolves the max stack size of an item type.
type StackLimits interface {
	MaxStackSize(itemType string) (int, bool)
}

type World struct {
	width, height, depth int
	tiles                []*Tile
	limits               StackLimits
	log                  log.Log
}

func New(width, height, depth int, limits StackLimits, logger log.Log) (*World, error) {
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrInvalidSize, width, height, depth)
	}
	if logger == nil {
		logger = log.NewNop()
	}
	w := &World{
		width:  width,
		height: height,
		depth:  depth,
		tiles:  make([]*Tile, width*height*depth),
		limits: limits,
		log:    logger.Named("world"),
	}
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				w.tiles[w.index(x, y, z)] = &Tile{Point: Point{X: x, Y: y, Z: z}}
			}
		}
	}
	return w, nil
}

func (w *World) Width() int  { return w.width }
func (w *World) Height() int { return w.height }
func (w *World) Depth() int  { return w.depth }

func (w *World) index(x, y, z int) int {
	return (z*w.height+y)*w.width + x
}

// TileAt returns the tile at (x, y, z) or false when out of bounds.
func (w *World) TileAt(x, y, z int) (*Tile, bool) {
	if x < 0 || y < 0 || z < 0 || x >= w.width || y >= w.height || z >= w.depth {
		return nil, false
	}
	return w.tiles[w.index(x, y, z)], true
}

func (w *World) TileAtPoint(p Point) (*Tile, bool) {
	return w.TileAt(p.X, p.Y, p.Z)
}

// Neighbours returns the in-bounds tiles around t on its layer.
func (w *World) Neighbours(t *Tile, diagonal bool) []*Tile {
	out := make([]*Tile, 0, 8)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if !diagonal && dx != 0 && dy != 0 {
				continue
			}
			if n, ok := w.TileAt(t.X+dx, t.Y+dy, t.Z); ok {
				out = append(out, n)
			}
		}
	}
	return out
}

// Tiles returns every tile, layer by layer.
func (w *World) Tiles() []*Tile {
	return w.tiles
}

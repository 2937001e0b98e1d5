package world

import (
	"github.com/zeusync/spacelife/internal/core/observability/log"
)

func (w *World) maxStack(inv *Inventory) int {
	if inv.MaxStackSize > 0 {
		return inv.MaxStackSize
	}
	if w.limits != nil {
		if n, ok := w.limits.MaxStackSize(inv.Type); ok {
			return n
		}
	}
	return inv.StackSize
}

// PlaceInventory moves as much of inv onto tile as fits, merging with a
// stack of the same type. It reports whether inv was placed completely; what
// did not fit stays in inv.
func (w *World) PlaceInventory(tile *Tile, inv *Inventory) bool {
	if tile == nil || inv == nil || inv.StackSize <= 0 {
		return false
	}
	if tile.Inventory == nil {
		max := w.maxStack(inv)
		moved := min(inv.StackSize, max)
		if moved <= 0 {
			return false
		}
		tile.Inventory = &Inventory{Type: inv.Type, StackSize: moved, MaxStackSize: max}
		inv.StackSize -= moved
		w.log.Debug("inventory placed", log.Stringer("tile", tile), log.String("type", inv.Type), log.Int("amount", moved))
		return inv.StackSize == 0
	}
	if tile.Inventory.Type != inv.Type {
		return false
	}
	moved := min(inv.StackSize, tile.Inventory.Room())
	if moved <= 0 {
		return false
	}
	tile.Inventory.StackSize += moved
	inv.StackSize -= moved
	return inv.StackSize == 0
}

// PlaceInventoryAround spreads inv over walkable tiles within radius of
// centre, nearest first. It reports whether everything was placed.
func (w *World) PlaceInventoryAround(centre *Tile, inv *Inventory, radius int) bool {
	if centre == nil || inv == nil {
		return false
	}
	visited := map[*Tile]bool{centre: true}
	frontier := []*Tile{centre}
	for len(frontier) > 0 {
		t := frontier[0]
		frontier = frontier[1:]
		if t.Walkable() || t == centre {
			if w.PlaceInventory(t, inv) {
				return true
			}
		}
		for _, n := range w.Neighbours(t, true) {
			if visited[n] || abs(n.X-centre.X) > radius || abs(n.Y-centre.Y) > radius {
				continue
			}
			visited[n] = true
			frontier = append(frontier, n)
		}
	}
	w.log.Warn("not enough room around tile", log.Stringer("tile", centre), log.String("type", inv.Type), log.Int("left", inv.StackSize))
	return false
}

// TakeInventory removes up to amount from tile and returns what was taken.
func (w *World) TakeInventory(tile *Tile, amount int) *Inventory {
	if tile == nil || tile.Inventory == nil || amount <= 0 {
		return nil
	}
	taken := min(amount, tile.Inventory.StackSize)
	out := &Inventory{Type: tile.Inventory.Type, StackSize: taken, MaxStackSize: tile.Inventory.MaxStackSize}
	tile.Inventory.StackSize -= taken
	if tile.Inventory.StackSize <= 0 {
		tile.Inventory = nil
	}
	return out
}

// RemoveInventoryOfType deletes up to amount items of itemType from the
// world and returns how many were removed.
func (w *World) RemoveInventoryOfType(itemType string, amount int, onlyUnlocked bool) int {
	removed := 0
	for _, t := range w.tiles {
		if removed >= amount {
			break
		}
		inv := t.Inventory
		if inv == nil || inv.Type != itemType || (onlyUnlocked && inv.Locked) {
			continue
		}
		removed += w.TakeInventory(t, amount-removed).StackSize
	}
	return removed
}

// CountInventory sums the unlocked stacks of itemType.
func (w *World) CountInventory(itemType string) int {
	n := 0
	for _, t := range w.tiles {
		if t.Inventory != nil && t.Inventory.Type == itemType && !t.Inventory.Locked {
			n += t.Inventory.StackSize
		}
	}
	return n
}

// FindNearestInventory returns the closest tile on from's layer holding an
// unlocked, non-empty stack of itemType, skipping the excluded tiles.
func (w *World) FindNearestInventory(from *Tile, itemType string, exclude ...*Tile) (*Tile, bool) {
	var best *Tile
	bestDist := -1
	for _, t := range w.tiles {
		if t.Z != from.Z || t.Inventory == nil || t.Inventory.Locked || t.Inventory.Type != itemType || t.Inventory.StackSize <= 0 {
			continue
		}
		if contains(exclude, t) {
			continue
		}
		d := abs(t.X-from.X) + abs(t.Y-from.Y)
		if bestDist < 0 || d < bestDist {
			best, bestDist = t, d
		}
	}
	return best, best != nil
}

func contains(tiles []*Tile, t *Tile) bool {
	for _, c := range tiles {
		if c == t {
			return true
		}
	}
	return false
}

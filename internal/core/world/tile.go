package world

import "fmt"

// Point is an integer grid coordinate; Z is the layer.
type Point struct {
	X, Y, Z int
}

func (p Point) Add(dx, dy int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy, Z: p.Z}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Occupant is whatever stands on a tile, normally a buildable.
type Occupant interface {
	ID() string
	// MovementCost multiplies the tile's cost; 0 makes it impassable.
	MovementCost() float64
}

// Inventory is a stack of one item type lying on a tile.
type Inventory struct {
	Type         string
	StackSize    int
	MaxStackSize int
	// Locked inventory is reserved for a consumer and ignored by haulers.
	Locked bool
}

func NewInventory(t string, stack, maxStack int) *Inventory {
	return &Inventory{Type: t, StackSize: stack, MaxStackSize: maxStack}
}

func (i *Inventory) Clone() *Inventory {
	cp := *i
	return &cp
}

// Room reports how many more items fit on the stack.
func (i *Inventory) Room() int {
	return i.MaxStackSize - i.StackSize
}

func (i *Inventory) String() string {
	return fmt.Sprintf("%s x%d/%d", i.Type, i.StackSize, i.MaxStackSize)
}

// Tile is one cell of the world grid.
type Tile struct {
	Point
	Inventory *Inventory
	Occupant  Occupant
}

func (t *Tile) String() string {
	return "tile" + t.Point.String()
}

// MovementCost is 1 for an empty floor, scaled by the occupant.
func (t *Tile) MovementCost() float64 {
	if t.Occupant == nil {
		return 1
	}
	return t.Occupant.MovementCost()
}

func (t *Tile) Walkable() bool {
	return t.MovementCost() > 0
}

// IsNeighbour reports whether o touches t on the same layer.
func (t *Tile) IsNeighbour(o *Tile, diagonal bool) bool {
	if t == nil || o == nil || t.Z != o.Z || t == o {
		return false
	}
	dx, dy := abs(t.X-o.X), abs(t.Y-o.Y)
	if diagonal {
		return dx <= 1 && dy <= 1
	}
	return dx+dy == 1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

package prototype

// Inventory describes a stackable item type.
type Inventory struct {
	Type         string `yaml:"type"`
	MaxStackSize int    `yaml:"maxStackSize"`
}

// Job is a reusable job template looked up by type.
type Job struct {
	Type      string    `yaml:"type"`
	WorkTime  float64   `yaml:"workTime"`
	Inventory []JobItem `yaml:"inventory"`
}

// JobItem is material a job consumes.
type JobItem struct {
	Type   string `yaml:"type"`
	Amount int    `yaml:"amount"`
}

// Event is a scheduled-event prototype whose callback lives in a script.
type Event struct {
	Name   string `yaml:"name"`
	OnFire string `yaml:"onFire"`
}

// Item is one input or output of a production chain. The slot is an offset
// from the buildable's base tile.
type Item struct {
	ObjectType string `yaml:"objectType"`
	Amount     int    `yaml:"amount"`
	SlotPosX   int    `yaml:"slotPosX"`
	SlotPosY   int    `yaml:"slotPosY"`
}

// ProductionChain is a named input to output recipe.
type ProductionChain struct {
	Name           string  `yaml:"name"`
	ProcessingTime float64 `yaml:"processingTime"`
	Input          []Item  `yaml:"input"`
	Output         []Item  `yaml:"output"`
}

type Workshop struct {
	Chains []ProductionChain `yaml:"chains"`
}

// Chain returns the production chain called name.
func (w *Workshop) Chain(name string) (ProductionChain, bool) {
	if w == nil {
		return ProductionChain{}, false
	}
	for _, c := range w.Chains {
		if c.Name == name {
			return c, true
		}
	}
	return ProductionChain{}, false
}

// Power is a buildable's grid connection. Output feeds the grid, Input draws from it.
type Power struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// Buildable is a placeable structure (the game's NestedObject).
type Buildable struct {
	Type         string    `yaml:"type"`
	Name         string    `yaml:"name"`
	Width        int       `yaml:"width"`
	Height       int       `yaml:"height"`
	MovementCost float64   `yaml:"movementCost"`
	Tags         []string  `yaml:"tags"`
	Workshop     *Workshop `yaml:"workshop,omitempty"`
	Power        *Power    `yaml:"power,omitempty"`
}

func (b Buildable) HasTag(tag string) bool {
	for _, t := range b.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Need is a character need that grows over time and is restored by using a
// buildable of RestoreBuildable type.
type Need struct {
	Type             string  `yaml:"type"`
	GrowthRate       float64 `yaml:"growthRate"`
	RestoreBuildable string  `yaml:"restoreBuildable"`
	RestoreTime      float64 `yaml:"restoreTime"`
	CompleteOnFail   bool    `yaml:"completeOnFail"`
}

// Ship describes traders and mining drones.
type Ship struct {
	Type  string  `yaml:"type"`
	Speed float64 `yaml:"speed"`
}

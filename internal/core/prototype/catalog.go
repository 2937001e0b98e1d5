// Package prototype holds the immutable data tables the simulation is built
// from. A Catalog is loaded once and never mutated; lookups return (value, ok).
package prototype

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

var (
	ErrDuplicate = errors.New("prototype: duplicate type")
	ErrInvalid   = errors.New("prototype: invalid definition")
)

// File is the on-disk layout of a prototype document.
type File struct {
	Inventory  []Inventory `yaml:"inventory"`
	Jobs       []Job       `yaml:"jobs"`
	Events     []Event     `yaml:"events"`
	Buildables []Buildable `yaml:"buildables"`
	Needs      []Need      `yaml:"needs"`
	Traders    []Ship      `yaml:"traders"`
	Drones     []Ship      `yaml:"drones"`
}

type Catalog struct {
	inventory  map[string]Inventory
	jobs       map[string]Job
	events     map[string]Event
	buildables map[string]Buildable
	needs      map[string]Need
	traders    []Ship
	drones     []Ship
}

// LoadFile reads and validates a prototype YAML file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prototypes: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads and validates a prototype YAML document.
func Load(r io.Reader) (*Catalog, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode prototypes: %w", err)
	}
	return Build(file)
}

// Build validates file and indexes it.
func Build(file File) (*Catalog, error) {
	c := &Catalog{
		inventory:  make(map[string]Inventory, len(file.Inventory)),
		jobs:       make(map[string]Job, len(file.Jobs)),
		events:     make(map[string]Event, len(file.Events)),
		buildables: make(map[string]Buildable, len(file.Buildables)),
		needs:      make(map[string]Need, len(file.Needs)),
		traders:    append([]Ship(nil), file.Traders...),
		drones:     append([]Ship(nil), file.Drones...),
	}

	var errs error
	for _, inv := range file.Inventory {
		if inv.Type == "" || inv.MaxStackSize <= 0 {
			errs = errors.Join(errs, fmt.Errorf("%w: inventory %q needs a type and a positive maxStackSize", ErrInvalid, inv.Type))
			continue
		}
		errs = errors.Join(errs, put(c.inventory, inv.Type, inv, "inventory"))
	}
	for _, j := range file.Jobs {
		if j.Type == "" || j.WorkTime < 0 {
			errs = errors.Join(errs, fmt.Errorf("%w: job %q", ErrInvalid, j.Type))
			continue
		}
		for _, it := range j.Inventory {
			if _, ok := c.inventory[it.Type]; !ok || it.Amount <= 0 {
				errs = errors.Join(errs, fmt.Errorf("%w: job %s needs %d of %q", ErrInvalid, j.Type, it.Amount, it.Type))
			}
		}
		j.Inventory = append([]JobItem(nil), j.Inventory...)
		errs = errors.Join(errs, put(c.jobs, j.Type, j, "job"))
	}
	for _, e := range file.Events {
		if e.Name == "" || e.OnFire == "" {
			errs = errors.Join(errs, fmt.Errorf("%w: event %q needs name and onFire", ErrInvalid, e.Name))
			continue
		}
		errs = errors.Join(errs, put(c.events, e.Name, e, "event"))
	}
	for _, b := range file.Buildables {
		if err := validateBuildable(b, c.inventory); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		if b.Width == 0 {
			b.Width = 1
		}
		if b.Height == 0 {
			b.Height = 1
		}
		b.Tags = append([]string(nil), b.Tags...)
		errs = errors.Join(errs, put(c.buildables, b.Type, b, "buildable"))
	}
	for _, n := range file.Needs {
		if n.Type == "" || n.GrowthRate < 0 {
			errs = errors.Join(errs, fmt.Errorf("%w: need %q", ErrInvalid, n.Type))
			continue
		}
		errs = errors.Join(errs, put(c.needs, n.Type, n, "need"))
	}
	if errs != nil {
		return nil, errs
	}
	return c, nil
}

func validateBuildable(b Buildable, inventory map[string]Inventory) error {
	if b.Type == "" || b.Width < 0 || b.Height < 0 {
		return fmt.Errorf("%w: buildable %q", ErrInvalid, b.Type)
	}
	if b.Workshop == nil {
		return nil
	}
	var errs error
	for _, chain := range b.Workshop.Chains {
		if chain.Name == "" || chain.ProcessingTime < 0 {
			errs = errors.Join(errs, fmt.Errorf("%w: buildable %s has a chain without name or with negative time", ErrInvalid, b.Type))
		}
		for _, it := range append(append([]Item(nil), chain.Input...), chain.Output...) {
			if it.Amount <= 0 {
				errs = errors.Join(errs, fmt.Errorf("%w: chain %s item %s amount %d", ErrInvalid, chain.Name, it.ObjectType, it.Amount))
			}
			if _, ok := inventory[it.ObjectType]; !ok {
				errs = errors.Join(errs, fmt.Errorf("%w: chain %s uses unknown inventory %q", ErrInvalid, chain.Name, it.ObjectType))
			}
		}
	}
	return errs
}

func put[T any](m map[string]T, key string, v T, what string) error {
	if _, exists := m[key]; exists {
		return fmt.Errorf("%w: %s %s", ErrDuplicate, what, key)
	}
	m[key] = v
	return nil
}

func (c *Catalog) Inventory(t string) (Inventory, bool) {
	v, ok := c.inventory[t]
	return v, ok
}

// MaxStackSize is the stack limit of an inventory type.
func (c *Catalog) MaxStackSize(itemType string) (int, bool) {
	v, ok := c.inventory[itemType]
	return v.MaxStackSize, ok
}

func (c *Catalog) Job(t string) (Job, bool) {
	v, ok := c.jobs[t]
	return v, ok
}

func (c *Catalog) Event(name string) (Event, bool) {
	v, ok := c.events[name]
	return v, ok
}

func (c *Catalog) Buildable(t string) (Buildable, bool) {
	v, ok := c.buildables[t]
	return v, ok
}

func (c *Catalog) Need(t string) (Need, bool) {
	v, ok := c.needs[t]
	return v, ok
}

// Events returns the scripted event prototypes sorted by name.
func (c *Catalog) Events() []Event {
	return sortedValues(c.events)
}

func (c *Catalog) Buildables() []Buildable {
	return sortedValues(c.buildables)
}

func (c *Catalog) Needs() []Need {
	return sortedValues(c.needs)
}

func (c *Catalog) Traders() []Ship { return append([]Ship(nil), c.traders...) }
func (c *Catalog) Drones() []Ship  { return append([]Ship(nil), c.drones...) }

func sortedValues[T any](m map[string]T) []T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

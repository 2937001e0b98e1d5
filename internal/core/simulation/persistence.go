package simulation

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/spacelife/internal/core/actor"
	"github.com/zeusync/spacelife/internal/core/buildable"
	"github.com/zeusync/spacelife/internal/core/observability/log"
	"github.com/zeusync/spacelife/internal/core/scheduler"
	"github.com/zeusync/spacelife/internal/core/traffic"
)

const saveVersion = 1

// envelope wraps the encoded state with a checksum over its exact bytes.
type envelope struct {
	Version  int    `yaml:"version"`
	Checksum string `yaml:"checksum"`
	State    string `yaml:"state"`
}

type state struct {
	Elapsed    float64            `yaml:"elapsed"`
	Events     []scheduler.Record `yaml:"events"`
	Buildables []buildableState   `yaml:"buildables"`
	Characters []characterState   `yaml:"characters"`
}

// Buildables are matched by type and origin tile; ids are not stable across
// sessions.
type buildableState struct {
	Type   string         `yaml:"type"`
	X      int            `yaml:"x"`
	Y      int            `yaml:"y"`
	Z      int            `yaml:"z"`
	Params map[string]any `yaml:"params,omitempty"`
	Stored map[string]int `yaml:"stored,omitempty"`
}

type characterState struct {
	Name  string             `yaml:"name"`
	X     int                `yaml:"x"`
	Y     int                `yaml:"y"`
	Z     int                `yaml:"z"`
	Needs map[string]float64 `yaml:"needs,omitempty"`
}

func checksum(b []byte) string {
	return strconv.FormatUint(xxhash.Sum64(b), 16)
}

// Save writes saveable scheduled events, buildables with their parameters
// and characters with their needs.
func (s *Simulation) Save(w io.Writer) error {
	st := state{Elapsed: s.elapsed, Events: s.scheduler.Save()}
	for _, b := range s.buildables.All() {
		bs := buildableState{
			Type:   b.Type(),
			X:      b.Tile().X,
			Y:      b.Tile().Y,
			Z:      b.Tile().Z,
			Params: b.Params().Snapshot(),
			Stored: b.StoredItems(),
		}
		st.Buildables = append(st.Buildables, bs)
	}
	for _, c := range s.characters {
		cs := characterState{Name: c.Name(), X: c.Tile().X, Y: c.Tile().Y, Z: c.Tile().Z}
		for _, n := range c.Needs() {
			if cs.Needs == nil {
				cs.Needs = make(map[string]float64)
			}
			cs.Needs[n.Type()] = n.Amount()
		}
		st.Characters = append(st.Characters, cs)
	}

	body, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(envelope{Version: saveVersion, Checksum: checksum(body), State: string(body)}); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	return enc.Close()
}

// Load restores a save on top of the current simulation. Live saveable
// events are replaced by the saved ones; transient events such as the power
// tick and ships in flight keep running. Parts that fail to restore are
// reported together and the rest is still applied.
func (s *Simulation) Load(r io.Reader) error {
	var env envelope
	if err := yaml.NewDecoder(r).Decode(&env); err != nil {
		return fmt.Errorf("read save: %w", err)
	}
	if env.Version != saveVersion {
		return fmt.Errorf("%w: %d", ErrSaveVersion, env.Version)
	}
	if got := checksum([]byte(env.State)); got != env.Checksum {
		return fmt.Errorf("%w: want %s, got %s", ErrChecksumMismatch, env.Checksum, got)
	}
	var st state
	if err := yaml.Unmarshal([]byte(env.State), &st); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	for _, evt := range s.scheduler.Events() {
		if evt.IsSaveable() {
			s.scheduler.DeregisterEvent(evt)
		}
	}
	var errs error
	if err := s.scheduler.Load(st.Events); err != nil {
		errs = errors.Join(errs, err)
	}
	for _, bs := range st.Buildables {
		if err := s.restoreBuildable(bs); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	for _, cs := range st.Characters {
		if err := s.restoreCharacter(cs); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	s.elapsed = st.Elapsed
	s.log.Info("save loaded",
		log.Int("events", len(st.Events)), log.Int("buildables", len(st.Buildables)), log.Int("characters", len(st.Characters)))
	return errs
}

func (s *Simulation) restoreBuildable(bs buildableState) error {
	tile, ok := s.world.TileAt(bs.X, bs.Y, bs.Z)
	if !ok {
		return fmt.Errorf("%w: %d,%d,%d", ErrNoTile, bs.X, bs.Y, bs.Z)
	}
	b, ok := tile.Occupant.(*buildable.Buildable)
	if !ok || b.Type() != bs.Type || b.Tile() != tile {
		var err error
		if b, err = s.buildables.Place(bs.Type, tile); err != nil {
			return fmt.Errorf("restore %s: %w", bs.Type, err)
		}
	}
	b.TakeStored()
	for t, n := range bs.Stored {
		b.Store(t, n)
	}
	if err := b.Params().Restore(bs.Params); err != nil {
		return fmt.Errorf("restore %s params: %w", b, err)
	}
	// Drone visits are transient, so a pad that was waiting calls a new one.
	if b.HasTag(traffic.LandingPadTag) && traffic.IsMineComplete(b) {
		return s.drones.MiningComplete(b)
	}
	return nil
}

func (s *Simulation) restoreCharacter(cs characterState) error {
	var c *actor.Character
	for _, existing := range s.characters {
		if existing.Name() == cs.Name {
			c = existing
			break
		}
	}
	if c == nil {
		var err error
		if c, err = s.AddCharacter(cs.Name, cs.X, cs.Y, cs.Z); err != nil {
			return fmt.Errorf("restore character %s: %w", cs.Name, err)
		}
	}
	for t, amount := range cs.Needs {
		if n, ok := c.Need(t); ok {
			n.SetAmount(amount)
		}
	}
	return nil
}

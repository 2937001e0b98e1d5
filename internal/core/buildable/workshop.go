package buildable

import (
	"errors"
	"fmt"

	"github.com/zeusync/spacelife/internal/core/events/bus"
	"github.com/zeusync/spacelife/internal/core/job"
	"github.com/zeusync/spacelife/internal/core/observability/log"
	"github.com/zeusync/spacelife/internal/core/params"
	"github.com/zeusync/spacelife/internal/core/prototype"
	"github.com/zeusync/spacelife/internal/core/world"
)

// Workshop parameter names, persisted with the buildable.
const (
	ParamProductionChain   = "cur_production_chain"
	ParamProcessingTime    = "cur_processing_time"
	ParamMaxProcessingTime = "max_processing_time"
	ParamProcessedInv      = "cur_processed_inv"
)

const (
	WorkshopComponent = "Workshop"
	haulingWorkTime   = 0.4
)

// Workshop turns the inputs of the selected production chain into its
// outputs. Inputs are delivered to slot tiles by hauling jobs the workshop
// spawns itself.
type Workshop struct {
	def     *prototype.Workshop
	b       *Buildable
	world   *world.World
	catalog *prototype.Catalog
	bus     bus.EventBus
	running bool
	subs    []bus.Subscription
	log     log.Log
}

func newWorkshopComponent(m *Manager, b *Buildable) Component {
	if b.proto.Workshop == nil {
		return nil
	}
	return &Workshop{
		// The chain table is shared between instances and never written.
		def:     b.proto.Workshop,
		world:   m.env.World,
		catalog: m.env.Catalog,
		bus:     m.env.Bus,
		log:     b.log.Named("workshop"),
	}
}

func (w *Workshop) TypeName() string { return WorkshopComponent }

func (w *Workshop) OnAttach(b *Buildable) error {
	w.b = b
	selected := ""
	switch len(w.def.Chains) {
	case 0:
		w.log.Warn("workshop has no production chain", log.String("name", b.Name()))
	case 1:
		selected = w.def.Chains[0].Name
	}
	p := b.params
	for _, err := range []error{
		p.Define(ParamProductionChain, params.KindString, selected),
		p.Define(ParamProcessingTime, params.KindFloat, 0.0),
		p.Define(ParamMaxProcessingTime, params.KindFloat, 0.0),
		p.Define(ParamProcessedInv, params.KindInt, 0),
	} {
		if err != nil {
			return err
		}
	}
	sub, err := b.On(KindOperatingChanged, func(bus.Event) {
		w.notifyRunning()
	})
	if err != nil {
		return err
	}
	w.subs = append(w.subs, sub)
	return nil
}

// OnDetach unlocks whatever was delivered for the current chain.
func (w *Workshop) OnDetach(b *Buildable) error {
	for _, s := range w.subs {
		_ = s.Cancel()
	}
	w.subs = nil
	if chain, ok := w.currentChain(); ok {
		w.unlockInputs(chain)
	}
	return nil
}

func (w *Workshop) IsRunning() bool { return w.running }

// Chains lists the selectable production chain names.
func (w *Workshop) Chains() []string {
	names := make([]string, 0, len(w.def.Chains))
	for _, c := range w.def.Chains {
		names = append(names, c.Name)
	}
	return names
}

// CurrentChain is the selected chain name, empty when none.
func (w *Workshop) CurrentChain() string {
	name, _ := w.b.params.String(ParamProductionChain)
	return name
}

func (w *Workshop) Processing() (elapsed, total float64, inProgress int) {
	elapsed, _ = w.b.params.Float(ParamProcessingTime)
	total, _ = w.b.params.Float(ParamMaxProcessingTime)
	inProgress, _ = w.b.params.Int(ParamProcessedInv)
	return elapsed, total, inProgress
}

func (w *Workshop) Description() string {
	if chain := w.CurrentChain(); chain != "" {
		return fmt.Sprintf("Production: %s", chain)
	}
	return "No selected production"
}

// ChangeProductionChain selects another chain. It reports false and changes
// nothing while output is being processed, when name is already selected or
// when the workshop has no such chain. A change stops the pending hauling
// jobs and unlocks inputs delivered for the old chain.
func (w *Workshop) ChangeProductionChain(name string) bool {
	old := w.CurrentChain()
	if _, _, inProgress := w.Processing(); inProgress > 0 || name == old {
		return false
	}
	if _, ok := w.def.Chain(name); !ok {
		w.log.Warn("unknown production chain", log.String("chain", name))
		return false
	}

	w.b.jobs.CancelAll()
	if err := w.b.params.SetString(ParamProductionChain, name); err != nil {
		w.log.Error("cannot select chain", log.Error(err))
		return false
	}
	if oldChain, ok := w.def.Chain(old); ok {
		w.unlockInputs(oldChain)
	} else if old != "" {
		w.log.Warn("previous production chain is gone", log.String("chain", old))
	}
	w.log.Debug("production chain changed", log.String("from", old), log.String("to", name))
	return true
}

func (w *Workshop) OnUpdate(dt float64) error {
	if w.b.IsBeingDestroyed() {
		return nil
	}
	chain, ok := w.currentChain()
	if !ok {
		return nil
	}
	p := w.b.params

	if _, _, inProgress := w.Processing(); inProgress == 0 {
		if taking, ok := w.inputsReady(chain); ok {
			for _, in := range taking {
				w.world.TakeInventory(in.tile, in.amount)
			}
			if err := errors.Join(
				p.SetInt(ParamProcessedInv, len(chain.Output)),
				p.SetFloat(ParamProcessingTime, 0),
				p.SetFloat(ParamMaxProcessingTime, chain.ProcessingTime),
			); err != nil {
				return err
			}
		}
		w.setRunning(false)
	} else {
		elapsed, err := p.AddFloat(ParamProcessingTime, dt)
		if err != nil {
			return err
		}
		if _, total, _ := w.Processing(); elapsed >= total {
			if slots, ok := w.outputsFree(chain); ok {
				for _, out := range slots {
					w.placeOutput(out)
				}
				if err := p.SetInt(ParamProcessedInv, 0); err != nil {
					return err
				}
			}
		}
		w.setRunning(true)
	}

	w.haulInputs(chain)
	return nil
}

type slot struct {
	tile     *world.Tile
	itemType string
	amount   int
}

func (w *Workshop) currentChain() (prototype.ProductionChain, bool) {
	name := w.CurrentChain()
	if name == "" {
		return prototype.ProductionChain{}, false
	}
	chain, ok := w.def.Chain(name)
	if !ok {
		w.log.Warn("selected production chain does not exist", log.String("chain", name))
	}
	return chain, ok
}

func (w *Workshop) slotTile(it prototype.Item) (*world.Tile, bool) {
	base := w.b.tile
	t, ok := w.world.TileAt(base.X+it.SlotPosX, base.Y+it.SlotPosY, base.Z)
	if !ok {
		w.log.Error("slot outside the world", log.String("item", it.ObjectType), log.Int("x", it.SlotPosX), log.Int("y", it.SlotPosY))
	}
	return t, ok
}

// inputsReady succeeds only when every input slot holds enough, in
// declaration order.
func (w *Workshop) inputsReady(chain prototype.ProductionChain) ([]slot, bool) {
	taking := make([]slot, 0, len(chain.Input))
	for _, in := range chain.Input {
		t, ok := w.slotTile(in)
		if !ok {
			return nil, false
		}
		inv := t.Inventory
		if inv == nil || inv.Type != in.ObjectType || inv.StackSize < in.Amount {
			return nil, false
		}
		taking = append(taking, slot{tile: t, itemType: in.ObjectType, amount: in.Amount})
	}
	return taking, true
}

// outputsFree succeeds only when every output fits whole.
func (w *Workshop) outputsFree(chain prototype.ProductionChain) ([]slot, bool) {
	slots := make([]slot, 0, len(chain.Output))
	for _, out := range chain.Output {
		t, ok := w.slotTile(out)
		if !ok {
			return nil, false
		}
		if t.Occupant != nil && t.Occupant != w.b {
			return nil, false
		}
		if inv := t.Inventory; inv != nil && (inv.Type != out.ObjectType || inv.StackSize+out.Amount > inv.MaxStackSize) {
			return nil, false
		}
		slots = append(slots, slot{tile: t, itemType: out.ObjectType, amount: out.Amount})
	}
	return slots, true
}

func (w *Workshop) placeOutput(s slot) {
	if s.tile.Inventory != nil {
		s.tile.Inventory.StackSize += s.amount
		return
	}
	maxStack, _ := w.catalog.MaxStackSize(s.itemType)
	if !w.world.PlaceInventory(s.tile, world.NewInventory(s.itemType, s.amount, maxStack)) {
		w.log.Warn("output did not fit its slot", logTile(s.tile), log.String("item", s.itemType))
	}
}

// haulInputs makes sure every under-stocked input has a hauling job.
func (w *Workshop) haulInputs(chain prototype.ProductionChain) {
	for _, in := range chain.Input {
		if _, exists := w.b.jobs.HasJobWithPredicate(func(j *job.Job) bool { return j.Requests(in.ObjectType) }); exists {
			continue
		}
		t, ok := w.slotTile(in)
		if !ok {
			continue
		}
		desired, _ := w.catalog.MaxStackSize(in.ObjectType)
		if inv := t.Inventory; inv != nil {
			if inv.Type != in.ObjectType {
				continue
			}
			desired -= inv.StackSize
		}
		if desired <= 0 {
			continue
		}

		opts := []job.Option{
			job.WithRequirements(job.Requirement{Type: in.ObjectType, Min: min(in.Amount, desired), Max: desired}),
			job.WithPriority(job.Medium),
			job.WithLogger(w.log),
			job.WithDescription(fmt.Sprintf("Hauling '%s' to '%s'", in.ObjectType, w.b.Name())),
		}
		if !t.Walkable() {
			opts = append(opts, job.Adjacent())
		}
		j := job.New(w.bus, t, "", haulingWorkTime, opts...)
		if _, err := j.On(job.KindWorked, w.deliverToInput); err != nil {
			w.log.Error("cannot follow hauling job", log.Error(err))
			continue
		}
		if err := w.b.jobs.Add(j); err != nil {
			w.log.Error("cannot add hauling job", log.Error(err))
		}
	}
}

// deliverToInput ends a worked hauling job by putting its load on the slot
// and locking it for this workshop.
func (w *Workshop) deliverToInput(j *job.Job) {
	if j.IsStopped() || !j.MaterialNeedsMet() {
		return
	}
	j.Stop()
	if w.b.IsBeingDestroyed() {
		for _, inv := range j.TakeHeld() {
			w.world.PlaceInventoryAround(j.Tile(), inv, 2)
		}
		return
	}
	for _, inv := range j.TakeHeld() {
		if !w.world.PlaceInventory(j.Tile(), inv) {
			w.log.Warn("input slot could not take delivery", logTile(j.Tile()), log.Stringer("inventory", inv))
			w.world.PlaceInventoryAround(j.Tile(), inv, 2)
			continue
		}
		j.Tile().Inventory.Locked = true
	}
}

func (w *Workshop) unlockInputs(chain prototype.ProductionChain) {
	for _, in := range chain.Input {
		t, ok := w.slotTile(in)
		if !ok {
			continue
		}
		if t.Inventory != nil && t.Inventory.Locked {
			t.Inventory.Locked = false
			w.log.Debug("input unlocked", logTile(t), log.Stringer("inventory", t.Inventory))
		}
	}
}

func (w *Workshop) setRunning(v bool) {
	if w.running == v {
		return
	}
	w.running = v
	w.notifyRunning()
}

// notifyRunning publishes whether the workshop visibly runs, which needs it
// to be both processing and operating.
func (w *Workshop) notifyRunning() {
	w.b.publish(KindRunningChanged, w.running && w.b.IsOperating())
}

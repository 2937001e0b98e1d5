package traffic

import (
	"github.com/zeusync/spacelife/internal/core/buildable"
	"github.com/zeusync/spacelife/internal/core/observability/log"
	"github.com/zeusync/spacelife/internal/core/params"
)

const (
	EvaluateMiningDroneVisit = "EvaluateMiningDroneVisit"
	EvaluateRefuelDrone      = "EvaluateRefuelDrone"
	EvaluateReturnToPlanet   = "EvaluateReturnToPlanet"

	// ParamMineComplete is set on a landing pad while its haul waits for a drone.
	ParamMineComplete = "mine_complete"

	// DronePhaseDelay separates the phases of a drone visit.
	DronePhaseDelay = 30.0

	droneSpeed    = 3.0
	dropOffRadius = 8
)

// DroneController runs mining drones. Each visit is triggered by
// MiningComplete and walks through transient one-shot events: visit,
// refuel after drop-off, and reset of the pad once the drone is gone.
type DroneController struct {
	fleet
}

func NewDroneController(env Env) *DroneController {
	env.defaults()
	return &DroneController{fleet: fleet{env: env, dirs: directions{rng: env.Rand}, log: env.Log.Named("drone")}}
}

// MiningComplete flags pad and calls a drone to it after DronePhaseDelay.
func (dc *DroneController) MiningComplete(pad *buildable.Buildable) error {
	if err := setMineComplete(pad, true); err != nil {
		return err
	}
	dc.oneShot(EvaluateMiningDroneVisit, DronePhaseDelay, pad, func() { dc.callDrone(pad) })
	return nil
}

func (dc *DroneController) callDrone(pad *buildable.Buildable) {
	if pad.IsBeingDestroyed() {
		dc.log.Debug("landing pad gone before the drone was called")
		return
	}
	proto, ok := pick(dc.env.Rand, dc.env.Catalog.Drones())
	if !ok {
		dc.log.Warn("no drone prototypes")
		return
	}
	s := dc.launch(proto, pad, 2, droneSpeed)
	s.onLanded = dc.dropOff
	s.onDeparted = dc.returning
}

// dropOff unloads the pad's internal inventory around the landing point and
// starts refuelling.
func (dc *DroneController) dropOff(s *Ship) {
	tile, ok := dc.env.World.TileAt(int(s.landing.X), int(s.landing.Y), s.pad.Tile().Z)
	if !ok {
		tile = s.pad.Tile()
	}
	for _, inv := range s.pad.TakeStored() {
		if maxStack, ok := dc.env.Catalog.MaxStackSize(inv.Type); ok {
			inv.MaxStackSize = maxStack
		}
		if !dc.env.World.PlaceInventoryAround(tile, inv, dropOffRadius) {
			dc.log.Warn("drop-off did not fit", log.Stringer("inventory", inv))
		}
	}
	dc.log.Info("drone refuelling", log.String("ship", s.Type()))
	dc.oneShot(EvaluateRefuelDrone, DronePhaseDelay, s.pad, s.Depart)
}

func (dc *DroneController) returning(s *Ship) {
	dc.remove(s)
	pad := s.pad
	dc.oneShot(EvaluateReturnToPlanet, DronePhaseDelay, pad, func() {
		if err := setMineComplete(pad, false); err != nil {
			dc.log.Error("cannot reset landing pad", log.Error(err))
		}
		pad.TakeStored()
	})
}

// DefineLandingPad declares the drone parameters of pad so they survive a
// save before the first drone visit.
func DefineLandingPad(pad *buildable.Buildable) error {
	return pad.Params().Define(ParamMineComplete, params.KindBool, false)
}

// IsMineComplete reports whether pad is waiting for a drone.
func IsMineComplete(pad *buildable.Buildable) bool {
	done, err := pad.Params().Bool(ParamMineComplete)
	return err == nil && done
}

func setMineComplete(pad *buildable.Buildable, v bool) error {
	if err := DefineLandingPad(pad); err != nil {
		return err
	}
	return pad.Params().SetBool(ParamMineComplete, v)
}

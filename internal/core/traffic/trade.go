package traffic

import (
	"github.com/zeusync/spacelife/internal/core/buildable"
	"github.com/zeusync/spacelife/internal/core/observability/log"
	"github.com/zeusync/spacelife/internal/core/scheduler"
)

const (
	EvaluateTraderVisit = "EvaluateTraderVisit"
	TradeWindowEvent    = "TradeWindow"

	// TraderVisitInterval is five minutes of simulation time.
	TraderVisitInterval = 5 * 60.0
	// TradeWindow is how long a trader stays landed.
	TradeWindow = 30.0

	traderSpeed = 5.0
)

// TradeController calls a trader to a free landing pad every
// TraderVisitInterval.
type TradeController struct {
	fleet
	completed int
}

// NewTradeController registers the visit prototype and schedules the
// recurring visit evaluation. The event is saveable; on load it is rebuilt
// from the prototype.
func NewTradeController(env Env) (*TradeController, error) {
	env.defaults()
	tc := &TradeController{fleet: fleet{env: env, dirs: directions{rng: env.Rand}, log: env.Log.Named("trade")}}
	err := env.Scheduler.RegisterPrototype(scheduler.Prototype{
		Name:     EvaluateTraderVisit,
		Callback: scheduler.Native(func(*scheduler.Event) error { tc.EvaluateVisit(); return nil }),
	})
	if err != nil {
		return nil, err
	}
	if _, err := env.Scheduler.ScheduleEvent(EvaluateTraderVisit, TraderVisitInterval, TraderVisitInterval, true, 0); err != nil {
		return nil, err
	}
	return tc, nil
}

// CompletedTrades counts trade windows that ran to the end.
func (tc *TradeController) CompletedTrades() int { return tc.completed }

// EvaluateVisit sends a trader to a random landing pad without one.
func (tc *TradeController) EvaluateVisit() {
	pads := tc.env.Buildables.Find(func(b *buildable.Buildable) bool {
		return b.HasTag(LandingPadTag) && !tc.hasShipAt(b)
	})
	pad, ok := pick(tc.env.Rand, pads)
	if !ok {
		tc.log.Debug("no free landing pad for a trader")
		return
	}
	proto, ok := pick(tc.env.Rand, tc.env.Catalog.Traders())
	if !ok {
		tc.log.Warn("no trader prototypes")
		return
	}
	s := tc.launch(proto, pad, 1, traderSpeed)
	s.onLanded = tc.openTradeWindow
	s.onDeparted = tc.remove
}

func (tc *TradeController) openTradeWindow(s *Ship) {
	tc.log.Info("trader landed", log.String("ship", s.Type()))
	tc.oneShot(TradeWindowEvent, TradeWindow, s.pad, func() {
		tc.completed++
		s.Depart()
	})
}

package scheduler

import (
	"errors"
	"fmt"

	"github.com/zeusync/spacelife/internal/core/observability/log"
)

// DefaultMaxFiresPerUpdate bounds the catch-up loop of a single Update call.
const DefaultMaxFiresPerUpdate = 1000

// Owner is the entity an event belongs to. The scheduler only reads it; the
// owner's lifecycle is managed elsewhere.
type Owner interface {
	ID() string
}

// Event is a deferred or recurring callback advanced in simulation time.
type Event struct {
	name     string
	callback Callback
	host     ScriptHost
	log      log.Log

	cooldown       float64
	timeToWait     float64
	repeatsLeft    int
	repeatsForever bool
	owner          Owner
	saveable       bool
	maxFires       int

	scheduled bool
}

type Option func(*Event)

// RepeatsForever makes the event fire every cooldown until stopped.
func RepeatsForever() Option {
	return func(e *Event) { e.repeatsForever = true }
}

// Repeats sets how many times the event fires. Ignored when RepeatsForever is set.
func Repeats(n int) Option {
	return func(e *Event) { e.repeatsLeft = n }
}

// WithOwner attaches the entity the event acts on.
func WithOwner(o Owner) Option {
	return func(e *Event) { e.owner = o }
}

// Transient excludes the event from saves.
func Transient() Option {
	return func(e *Event) { e.saveable = false }
}

// WithTimeToWait overrides the initial countdown, which defaults to the cooldown.
func WithTimeToWait(t float64) Option {
	return func(e *Event) { e.timeToWait = t }
}

// NewEvent creates an event that first fires after cooldown seconds. By
// default it fires once and is saveable.
func NewEvent(name string, cb Callback, cooldown float64, opts ...Option) (*Event, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if cb.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrNoCallback, name)
	}
	if !(cooldown > 0) {
		return nil, fmt.Errorf("%w: %s has cooldown %v", ErrInvalidCooldown, name, cooldown)
	}
	e := &Event{
		name:        name,
		callback:    cb,
		cooldown:    cooldown,
		timeToWait:  cooldown,
		repeatsLeft: 1,
		saveable:    true,
		maxFires:    DefaultMaxFiresPerUpdate,
		log:         log.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.repeatsLeft < 0 {
		return nil, fmt.Errorf("%w: %s has %d", ErrInvalidRepeats, name, e.repeatsLeft)
	}
	return e, nil
}

func (e *Event) Name() string              { return e.name }
func (e *Event) Callback() Callback        { return e.callback }
func (e *Event) Cooldown() float64         { return e.cooldown }
func (e *Event) TimeToWait() float64       { return e.timeToWait }
func (e *Event) RepeatsLeft() int          { return e.repeatsLeft }
func (e *Event) RepeatsForever() bool      { return e.repeatsForever }
func (e *Event) Owner() Owner              { return e.owner }
func (e *Event) IsSaveable() bool          { return e.saveable }
func (e *Event) SetSaveable(saveable bool) { e.saveable = saveable }

// LastShot reports whether the next fire is the final one.
func (e *Event) LastShot() bool {
	return e.repeatsLeft == 1 && !e.repeatsForever
}

// Finished reports whether the event has no fires left.
func (e *Event) Finished() bool {
	return e.repeatsLeft < 1 && !e.repeatsForever
}

// Stop terminates the event without firing it. The scheduler removes it on
// its next sweep.
func (e *Event) Stop() {
	e.repeatsLeft = 0
	e.repeatsForever = false
}

// Update advances the countdown by deltaTime and fires once per elapsed
// cooldown. A large deltaTime fires several times; the remainder carries over.
func (e *Event) Update(deltaTime float64) error {
	e.timeToWait -= deltaTime

	var errs error
	fires := 0
	for e.timeToWait <= 0 && !e.Finished() {
		if fires >= e.maxFires {
			e.log.Warn("fire cap reached, dropping backlog",
				log.String("event", e.name), log.Int("fires", fires), log.Float64("time_to_wait", e.timeToWait))
			e.timeToWait = e.cooldown
			return errors.Join(errs, fmt.Errorf("%w: %s after %d fires", ErrFireCapReached, e.name, fires))
		}
		if err := e.Fire(); err != nil {
			errs = errors.Join(errs, err)
		}
		fires++
		e.timeToWait += e.cooldown
	}
	return errs
}

// Fire invokes the callback once and then consumes one repeat. A finished
// event only logs. A callback that fails or panics stops the event.
func (e *Event) Fire() error {
	if e.Finished() {
		e.log.Debug("event finished its last repeat already, not firing again", log.String("event", e.name))
		return nil
	}

	err := e.invoke()
	e.repeatsLeft--
	if err != nil {
		e.Stop()
		return fmt.Errorf("event %s: %w", e.name, err)
	}
	return nil
}

func (e *Event) invoke() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCallbackPanic, r)
		}
	}()

	switch e.callback.kind {
	case CallbackNative:
		return e.callback.native(e)
	case CallbackScripted:
		if e.host == nil {
			return fmt.Errorf("%w: %s", ErrScriptHostMissing, e.callback.function)
		}
		if !e.host.Has(e.callback.function) {
			return fmt.Errorf("%w: %s", ErrScriptNotFound, e.callback.function)
		}
		return e.host.Call(e.callback.function, e)
	default:
		return ErrNoCallback
	}
}

func (e *Event) String() string {
	if e.repeatsForever {
		return fmt.Sprintf("%s(cooldown=%g wait=%g forever)", e.name, e.cooldown, e.timeToWait)
	}
	return fmt.Sprintf("%s(cooldown=%g wait=%g left=%d)", e.name, e.cooldown, e.timeToWait, e.repeatsLeft)
}

package scheduler

import (
	"fmt"
	"slices"
	"sort"

	"github.com/zeusync/spacelife/internal/core/observability/log"
)

// Prototype is a named callback template. Saved events are rebuilt from the
// prototype registered under their name.
type Prototype struct {
	Name     string
	Callback Callback
}

// Stats are cumulative counters since the scheduler was created.
type Stats struct {
	Ticks  uint64
	Failed uint64
	Swept  uint64
}

// Scheduler owns the live events and advances them once per simulation tick.
// It is not safe for concurrent use; the whole simulation runs on one goroutine.
type Scheduler struct {
	events     []*Event
	prototypes map[string]Prototype
	host       ScriptHost
	log        log.Log
	maxFires   int
	stats      Stats
}

type SchedulerOption func(*Scheduler)

// WithScriptHost binds scripted callbacks to host.
func WithScriptHost(host ScriptHost) SchedulerOption {
	return func(s *Scheduler) { s.host = host }
}

// WithMaxFiresPerUpdate overrides DefaultMaxFiresPerUpdate for every event
// registered afterwards.
func WithMaxFiresPerUpdate(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxFires = n
		}
	}
}

func New(logger log.Log, opts ...SchedulerOption) *Scheduler {
	if logger == nil {
		logger = log.NewNop()
	}
	s := &Scheduler{
		prototypes: make(map[string]Prototype),
		log:        logger.Named("scheduler"),
		maxFires:   DefaultMaxFiresPerUpdate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterPrototype makes name available to ScheduleEvent and Load.
// Registering the same name again replaces the earlier prototype.
func (s *Scheduler) RegisterPrototype(p Prototype) error {
	if p.Name == "" {
		return ErrEmptyName
	}
	if p.Callback.IsZero() {
		return fmt.Errorf("%w: prototype %s", ErrNoCallback, p.Name)
	}
	s.prototypes[p.Name] = p
	return nil
}

func (s *Scheduler) Prototype(name string) (Prototype, bool) {
	p, ok := s.prototypes[name]
	return p, ok
}

func (s *Scheduler) PrototypeNames() []string {
	names := make([]string, 0, len(s.prototypes))
	for n := range s.prototypes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RegisterEvent adds evt to the live set. Names need not be unique.
func (s *Scheduler) RegisterEvent(evt *Event) {
	if evt == nil {
		s.log.Warn("ignoring nil event")
		return
	}
	if evt.scheduled {
		return
	}
	evt.host = s.host
	evt.log = s.log
	evt.maxFires = s.maxFires
	evt.scheduled = true
	s.events = append(s.events, evt)
}

// ScheduleEvent builds an event from the prototype called name and registers it.
func (s *Scheduler) ScheduleEvent(name string, cooldown, timeToWait float64, repeatsForever bool, repeats int) (*Event, error) {
	evt, err := s.fromPrototype(name, cooldown, timeToWait, repeatsForever, repeats)
	if err != nil {
		return nil, err
	}
	s.RegisterEvent(evt)
	return evt, nil
}

// DeregisterEvent removes evt immediately. It will not be updated again even
// if the current tick already took its snapshot.
func (s *Scheduler) DeregisterEvent(evt *Event) {
	if evt == nil || !evt.scheduled {
		return
	}
	evt.scheduled = false
	s.events = slices.DeleteFunc(s.events, func(e *Event) bool { return e == evt })
}

func (s *Scheduler) IsRegistered(evt *Event) bool {
	return evt != nil && evt.scheduled
}

// Events returns a snapshot of the live set in registration order.
func (s *Scheduler) Events() []*Event {
	return slices.Clone(s.events)
}

func (s *Scheduler) Len() int { return len(s.events) }

func (s *Scheduler) Stats() Stats { return s.stats }

// Tick advances every live event by deltaTime and then removes the finished
// ones. Events registered by callbacks during the tick are first updated on
// the next tick. A failing callback only affects its own event.
func (s *Scheduler) Tick(deltaTime float64) {
	s.stats.Ticks++
	for _, evt := range slices.Clone(s.events) {
		if !evt.scheduled {
			continue
		}
		if err := evt.Update(deltaTime); err != nil {
			s.stats.Failed++
			s.log.Error("scheduled event failed", log.String("event", evt.name), log.Error(err))
		}
	}
	s.sweep()
}

func (s *Scheduler) sweep() {
	s.events = slices.DeleteFunc(s.events, func(e *Event) bool {
		if e.Finished() {
			e.scheduled = false
			s.stats.Swept++
			return true
		}
		return false
	})
}

// Clear drops every live event, e.g. before loading a save.
func (s *Scheduler) Clear() {
	for _, e := range s.events {
		e.scheduled = false
	}
	s.events = nil
}

func (s *Scheduler) fromPrototype(name string, cooldown, timeToWait float64, repeatsForever bool, repeats int) (*Event, error) {
	p, ok := s.prototypes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPrototype, name)
	}
	opts := []Option{WithTimeToWait(timeToWait), Repeats(repeats)}
	if repeatsForever {
		opts = append(opts, RepeatsForever())
	}
	return NewEvent(p.Name, p.Callback, cooldown, opts...)
}

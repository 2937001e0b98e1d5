package actor

import (
	"github.com/zeusync/spacelife/internal/core/observability/log"
)

// State is one behaviour node. Update runs once per tick while the state is
// active. A state completes by handing control to its next state.
type State interface {
	Name() string
	Update(dt float64)
	// Interrupt abandons the state and everything chained after it. Owned
	// jobs go back to the global queue.
	Interrupt()
	Next() State
}

// Machine holds one active state and a FIFO of pending ones.
type Machine struct {
	current  State
	queue    []State
	fallback func() State
	log      log.Log
}

// NewMachine creates a machine. fallback supplies a state when both the
// active state and the queue are empty.
func NewMachine(fallback func() State, logger log.Log) *Machine {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Machine{fallback: fallback, log: logger}
}

func (m *Machine) Current() State {
	return m.current
}

// Queued returns the pending states in order.
func (m *Machine) Queued() []State {
	return append([]State(nil), m.queue...)
}

// SetState replaces the active state. A nil state means "pick the next
// one": the head of the queue, or the fallback.
func (m *Machine) SetState(s State) {
	if s == nil {
		s = m.pick()
	}
	if s != nil {
		m.log.Debug("state changed", log.String("state", s.Name()))
	}
	m.current = s
}

// QueueState appends s without preempting the active state.
func (m *Machine) QueueState(s State) {
	if s == nil {
		return
	}
	m.queue = append(m.queue, s)
}

// InterruptState abandons the active state. The machine is left without an
// active state until the next SetState or Update.
func (m *Machine) InterruptState() {
	cur := m.current
	m.current = nil
	if cur != nil {
		m.log.Debug("state interrupted", log.String("state", cur.Name()))
		cur.Interrupt()
	}
}

// ClearStateQueue interrupts and discards every pending state.
func (m *Machine) ClearStateQueue() {
	pending := m.queue
	m.queue = nil
	for _, s := range pending {
		s.Interrupt()
	}
}

func (m *Machine) Update(dt float64) {
	if m.current == nil {
		m.SetState(nil)
	}
	if m.current != nil {
		m.current.Update(dt)
	}
}

func (m *Machine) pick() State {
	if len(m.queue) > 0 {
		s := m.queue[0]
		m.queue[0] = nil
		m.queue = m.queue[1:]
		return s
	}
	if m.fallback != nil {
		return m.fallback()
	}
	return nil
}

package actor

import (
	"github.com/zeusync/spacelife/internal/core/observability/log"
)

type base struct {
	name string
	c    *Character
	next State
}

func (b *base) Name() string { return b.name }
func (b *base) Next() State  { return b.next }

// finished hands control to the next state; nil lets the machine pick.
func (b *base) finished() {
	b.c.SetState(b.next)
}

func (b *base) Interrupt() {
	if b.next != nil {
		b.next.Interrupt()
		b.next = nil
	}
}

func (b *base) debug(msg string, fields ...log.Field) {
	b.c.log.Debug(b.name+": "+msg, fields...)
}

// IdleState waits a random 0.2 to 2 seconds before looking for work.
type IdleState struct {
	base
	total   float64
	elapsed float64
}

const (
	minIdle = 0.2
	maxIdle = 2.0
)

func NewIdleState(c *Character, next State) *IdleState {
	return &IdleState{
		base:  base{name: "Idle", c: c, next: next},
		total: minIdle + c.env.Rand.Float64()*(maxIdle-minIdle),
	}
}

// Duration is how long the character idles.
func (s *IdleState) Duration() float64 { return s.total }

func (s *IdleState) Update(dt float64) {
	s.elapsed += dt
	if s.elapsed >= s.total {
		s.c.lastAbandoned = nil
		s.finished()
	}
}

package bus

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrNilHandler = errors.New("bus: nil handler")

// simpleEvent is a basic implementation of Event.
type simpleEvent struct {
	kind   string
	source string
	data   any
}

func (e simpleEvent) Kind() string   { return e.kind }
func (e simpleEvent) Source() string { return e.source }
func (e simpleEvent) Data() any      { return e.data }

// NewEvent creates a simple Event implementation.
func NewEvent(kind, source string, data any) Event {
	return simpleEvent{kind: kind, source: source, data: data}
}

type subscription struct {
	id      string
	topic   string
	kind    string
	handler EventHandler
	active  bool
	cancel  func()
}

func (s *subscription) ID() string     { return s.id }
func (s *subscription) Topic() string  { return s.topic }
func (s *subscription) Kind() string   { return s.kind }
func (s *subscription) IsActive() bool { return s.active }
func (s *subscription) Cancel() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.active = false
	return nil
}

// inMemoryBus: topic -> kind -> subID -> subscription. Registration order is
// kept per kind so delivery is deterministic.
type inMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string]map[string][]*subscription
}

// New creates a new EventBus instance.
func New() EventBus {
	return &inMemoryBus{handlers: make(map[string]map[string][]*subscription)}
}

func (b *inMemoryBus) Subscribe(topic, kind string, handler EventHandler) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[string][]*subscription)
	}
	s := &subscription{id: uuid.NewString(), topic: topic, kind: kind, handler: handler, active: true}
	s.cancel = func() { b.remove(s) }
	b.handlers[topic][kind] = append(b.handlers[topic][kind], s)
	return s, nil
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) Publish(topic string, event Event) error {
	b.mu.RLock()
	var subs []*subscription
	if inner := b.handlers[topic]; inner != nil {
		subs = append(subs, inner[event.Kind()]...)
	}
	b.mu.RUnlock()

	var all error
	for _, s := range subs {
		if !s.active {
			continue
		}
		if err := s.handler(event); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

func (b *inMemoryBus) DropTopic(topic string) {
	b.mu.Lock()
	inner := b.handlers[topic]
	delete(b.handlers, topic)
	b.mu.Unlock()
	for _, subs := range inner {
		for _, s := range subs {
			s.active = false
		}
	}
}

func (b *inMemoryBus) Len(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, subs := range b.handlers[topic] {
		n += len(subs)
	}
	return n
}

func (b *inMemoryBus) remove(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s.active = false
	inner := b.handlers[s.topic]
	if inner == nil {
		return
	}
	subs := inner[s.kind]
	for i, cand := range subs {
		if cand == s {
			inner[s.kind] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(inner[s.kind]) == 0 {
		delete(inner, s.kind)
	}
	if len(inner) == 0 {
		delete(b.handlers, s.topic)
	}
}

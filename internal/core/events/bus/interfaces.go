package bus

// EventBus is an in-process observer registry keyed by (topic, kind).
//
// The topic is the id of the entity an event is about (a job, a buildable, a
// character) and the kind names what happened to it ("completed", "removed",
// ...). Subscriptions are explicit and symmetric: every Subscribe returns a
// Subscription that must be cancelled, and DropTopic clears everything bound
// to an entity when it is torn down.
//
// Delivery is synchronous, in the publisher's goroutine. The handler set is
// snapshotted before delivery, so handlers may subscribe or unsubscribe while
// being called. Handler errors are joined and returned from Publish.
type EventBus interface {
	// Subscribe registers handler for kind within topic.
	Subscribe(topic, kind string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub. Safe to call with nil.
	Unsubscribe(sub Subscription) error
	// Publish delivers event to every active handler of (topic, event.Kind()).
	Publish(topic string, event Event) error
	// DropTopic cancels every subscription bound to topic.
	DropTopic(topic string)
	// Len reports the number of active subscriptions in topic.
	Len(topic string) int
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Kind() string
	Source() string
	Data() any
}

type (
	EventHandler func(event Event) error
)

// Subscription represents a registered handler bound to a topic and kind.
type Subscription interface {
	ID() string
	Topic() string
	Kind() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

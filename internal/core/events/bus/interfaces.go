package bus

// EventBus is an in-process pub/sub bus for simulation events.
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by Event.Type().
// - Wildcard: handlers subscribed to AnyType receive every event.
// - Synchronous delivery in subscription order, in the publisher's goroutine.
// - Error aggregation: handler errors are joined and returned from Publish.
// - Metrics are produced only when observers are registered.
//
// All methods are safe for concurrent use.
type EventBus interface {
	// Publish delivers the event to all active subscribers of event.Type()
	// and to wildcard subscribers.
	Publish(event Event) error
	// Subscribe registers a handler for an event type and returns a handle
	// that can be used to cancel it.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. Nil is ignored.
	Unsubscribe(Subscription) error

	// PublishWithFilters drops the event when any filter returns false.
	PublishWithFilters(event Event, filters ...EventFilter) error
	// PublishBatch publishes events in order and aggregates errors.
	PublishBatch(events ...Event) error

	AddObserver(obs EventBusObserver)
	RemoveObserver(obs EventBusObserver)
	// GetMetrics returns a snapshot of counters collected while observed.
	GetMetrics() EventBusMetrics
}

// AnyType subscribes a handler to every event type.
const AnyType = "*"

// Event is an immutable message. Time is the simulation clock at which the
// event happened, not wall-clock time.
type Event interface {
	Type() string
	Source() string
	Time() float64
	Data() any
}

type (
	// EventHandler is invoked per delivered event.
	EventHandler func(event Event) error
	// EventFilter decides whether an event should be delivered.
	EventFilter func(event Event) bool
)

type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified about deliveries. Observers should return quickly.
type EventBusObserver interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error)
}

type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	DroppedByFilters  uint64
	SubscribersActive uint64
}

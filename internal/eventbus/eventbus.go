package eventbus

// Event represents an arbitrary event passed on the bus.
type Event interface{}

// EventBus implements a simple publish/subscribe event bus.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus is the default EventBus implementation, a TypedBus carrying untyped
// events so one bus can fan out snapshots, auction and delivery events to
// heterogeneous consumers.
type Bus struct {
	TypedBus[Event]
}

// New creates a new Bus.
func New() *Bus { return &Bus{} }

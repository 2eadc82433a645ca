package scheduler

import (
	"fmt"

	"github.com/zeusync/grove/internal/core/world"
)

// Action is the payload of an Event. The scheduler never inspects it
// beyond its name; the Dispatcher interprets it.
type Action interface {
	Name() string
}

// Event is an Action owned by an entity, due at an absolute simulation time.
type Event struct {
	Owner  world.Handle
	Action Action
	Time   float64
	// Seq is the insertion sequence; it orders events with equal Time.
	Seq uint64
}

func (e Event) String() string {
	return fmt.Sprintf("%s#%d@%.3f", e.Action.Name(), e.Owner, e.Time)
}

// Dispatcher executes events popped by Advance.
type Dispatcher interface {
	Dispatch(ev Event) error
}

type DispatchFunc func(ev Event) error

func (f DispatchFunc) Dispatch(ev Event) error {
	return f(ev)
}

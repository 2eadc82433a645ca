package engine

import (
	"github.com/zeusync/grove/internal/core/events/bus"
	"github.com/zeusync/grove/internal/core/observability/log"
	"github.com/zeusync/grove/internal/core/world"
)

// Event types published on the bus.
const (
	EventEntityAdded       = "entity.added"
	EventEntityRemoved     = "entity.removed"
	EventEntityMoved       = "entity.moved"
	EventEntityTransformed = "entity.transformed"
)

const eventSource = "engine"

// EntityRef is a value copy of an entity's identity at publish time.
type EntityRef struct {
	ID       string      `json:"id"`
	Kind     string      `json:"kind"`
	Position world.Point `json:"position"`
}

func refOf(e *world.Entity, at world.Point) EntityRef {
	return EntityRef{ID: e.ID, Kind: e.Kind.String(), Position: at}
}

type MoveData struct {
	Entity EntityRef   `json:"entity"`
	From   world.Point `json:"from"`
}

type TransformData struct {
	From EntityRef `json:"from"`
	To   EntityRef `json:"to"`
}

var _ world.Observer = (*worldPublisher)(nil)

// worldPublisher republishes world membership changes on the bus.
type worldPublisher struct {
	bus    bus.EventBus
	clock  func() float64
	logger log.Log
}

// NewWorldPublisher returns a world.Observer that publishes entity.added,
// entity.removed and entity.moved events stamped with clock().
func NewWorldPublisher(b bus.EventBus, clock func() float64, logger log.Log) world.Observer {
	if logger == nil {
		logger = log.Nop()
	}
	return &worldPublisher{bus: b, clock: clock, logger: logger}
}

func (p *worldPublisher) EntityAdded(e *world.Entity) {
	p.publish(EventEntityAdded, refOf(e, e.Position))
}

func (p *worldPublisher) EntityRemoved(e *world.Entity, at world.Point) {
	p.publish(EventEntityRemoved, refOf(e, at))
}

func (p *worldPublisher) EntityMoved(e *world.Entity, from, to world.Point) {
	p.publish(EventEntityMoved, MoveData{Entity: refOf(e, to), From: from})
}

func (p *worldPublisher) publish(typ string, data any) {
	if err := p.bus.Publish(bus.NewEvent(typ, eventSource, p.clock(), data)); err != nil {
		p.logger.Warn("event handler failed", log.String("type", typ), log.Error(err))
	}
}

package engine

import (
	"fmt"
	"math/rand/v2"

	"github.com/zeusync/grove/internal/core/events/bus"
	"github.com/zeusync/grove/internal/core/images"
	"github.com/zeusync/grove/internal/core/observability/log"
	"github.com/zeusync/grove/internal/core/scheduler"
	"github.com/zeusync/grove/internal/core/world"
)

var _ scheduler.Dispatcher = (*Engine)(nil)

// Engine is the action state machine. It interprets events delivered by the
// scheduler, mutates the world and schedules follow-up events.
type Engine struct {
	world  *world.World
	sched  *scheduler.Scheduler
	images images.Provider
	rng    Rand
	tuning Tuning
	bus    bus.EventBus
	logger log.Log
}

type Option func(*Engine)

func WithRand(r Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithSeed is WithRand over a PCG source seeded with seed.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func WithTuning(t Tuning) Option {
	return func(e *Engine) { e.tuning = t }
}

func WithEventBus(b bus.EventBus) Option {
	return func(e *Engine) { e.bus = b }
}

func WithLogger(l log.Log) Option {
	return func(e *Engine) { e.logger = l }
}

func New(w *world.World, s *scheduler.Scheduler, p images.Provider, opts ...Option) *Engine {
	eng := &Engine{
		world:  w,
		sched:  s,
		images: p,
		tuning: DefaultTuning(),
		logger: log.Nop(),
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.rng == nil {
		WithSeed(0)(eng)
	}
	if eng.images == nil {
		eng.images = images.NewStore(nil)
	}
	return eng
}

func (eng *Engine) World() *world.World             { return eng.world }
func (eng *Engine) Scheduler() *scheduler.Scheduler { return eng.sched }
func (eng *Engine) Tuning() Tuning                  { return eng.tuning }

// Dispatch executes one scheduled event. Events whose owner is no longer
// live are dropped.
func (eng *Engine) Dispatch(ev scheduler.Event) error {
	e, ok := eng.world.Entity(ev.Owner)
	if !ok {
		eng.logger.Debug("dropping event for detached entity", log.Stringer("event", ev))
		return nil
	}

	switch a := ev.Action.(type) {
	case Activity:
		return eng.activity(e)
	case Animation:
		return eng.animate(e, a)
	default:
		return fmt.Errorf("%w: %T for %s", ErrUnknownAction, ev.Action, e)
	}
}

// ScheduleActions queues the initial events of a freshly registered entity.
func (eng *Engine) ScheduleActions(e *world.Entity) {
	h := e.Handle()
	switch e.Kind {
	case world.KindWorkerEmpty, world.KindWorkerFull, world.KindFairy, world.KindSapling, world.KindTree:
		eng.sched.Schedule(h, Activity{}, e.ActionPeriod)
		eng.sched.Schedule(h, Animation{}, e.AnimationPeriod)
	case world.KindObstacle:
		eng.sched.Schedule(h, Animation{}, e.AnimationPeriod)
	}
}

// ScheduleAll queues initial events for every live entity, in registration order.
func (eng *Engine) ScheduleAll() {
	for e := range eng.world.Entities() {
		eng.ScheduleActions(e)
	}
}

func (eng *Engine) activity(e *world.Entity) error {
	b, ok := behaviorFor(e.Kind)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedActivity, e)
	}
	return b.activity(eng, e)
}

func (eng *Engine) animate(e *world.Entity, a Animation) error {
	if !animated(e.Kind) {
		return fmt.Errorf("%w: %s", ErrUnsupportedAnimation, e)
	}
	e.NextImage()
	if next, ok := a.next(); ok {
		eng.sched.Schedule(e.Handle(), next, e.AnimationPeriod)
	}
	return nil
}

func animated(k world.Kind) bool {
	switch k {
	case world.KindWorkerEmpty, world.KindWorkerFull, world.KindObstacle,
		world.KindFairy, world.KindSapling, world.KindTree:
		return true
	default:
		return false
	}
}

func (eng *Engine) reschedule(e *world.Entity) {
	eng.sched.Schedule(e.Handle(), Activity{}, e.ActionPeriod)
}

// replace swaps old for next at old's position. old loses all pending
// events; next is scheduled from scratch when schedule is set.
func (eng *Engine) replace(old, next *world.Entity, schedule bool) error {
	from := refOf(old, old.Position)
	eng.world.Remove(old)
	if err := eng.world.TryAdd(next); err != nil {
		return fmt.Errorf("transform %s into %s: %w", from.ID, next.Kind, err)
	}
	if schedule {
		eng.ScheduleActions(next)
	}

	eng.logger.Debug("entity transformed",
		log.String("from", from.Kind),
		log.String("to", next.Kind.String()),
		log.String("id", next.ID),
		log.Stringer("at", next.Position),
	)
	eng.publish(EventEntityTransformed, TransformData{From: from, To: refOf(next, next.Position)})
	return nil
}

func (eng *Engine) frames(k world.Kind) images.Frames {
	return eng.images.Frames(k.ImageKey())
}

func (eng *Engine) publish(typ string, data any) {
	if eng.bus == nil {
		return
	}
	if err := eng.bus.Publish(bus.NewEvent(typ, eventSource, eng.sched.Now(), data)); err != nil {
		eng.logger.Warn("event handler failed", log.String("type", typ), log.Error(err))
	}
}

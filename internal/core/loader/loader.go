package loader

import (
	"fmt"

	"github.com/zeusync/grove/internal/core/engine"
	"github.com/zeusync/grove/internal/core/images"
	"github.com/zeusync/grove/internal/core/observability/log"
	"github.com/zeusync/grove/internal/core/world"
)

// Loader turns documents into populated worlds.
type Loader struct {
	images  images.Provider
	sapling world.SaplingSpec
	logger  log.Log
}

type Option func(*Loader)

func WithLogger(l log.Log) Option {
	return func(ld *Loader) { ld.logger = l }
}

// WithSapling overrides the fixed parameters given to loaded saplings.
func WithSapling(s world.SaplingSpec) Option {
	return func(ld *Loader) { ld.sapling = s }
}

func New(p images.Provider, opts ...Option) *Loader {
	ld := &Loader{
		images:  p,
		sapling: world.DefaultSapling,
		logger:  log.Nop(),
	}
	for _, opt := range opts {
		opt(ld)
	}
	if ld.images == nil {
		ld.images = images.NewStore(nil)
	}
	return ld
}

// Build creates the world described by doc. Entities outside the grid are
// skipped; an entity landing on an occupied cell fails the build.
func (ld *Loader) Build(doc *Document, opts ...world.Option) (*world.World, error) {
	w, err := world.New(doc.Rows, doc.Cols, opts...)
	if err != nil {
		return nil, err
	}

	if doc.DefaultBackground != "" {
		w.FillBackground(ld.background(doc.DefaultBackground))
	}
	for row, keys := range doc.Background {
		for col, key := range keys {
			if key == "" {
				continue
			}
			w.SetBackground(world.Pt(col, row), ld.background(key))
		}
	}

	skipped := 0
	for i, spec := range doc.Entities {
		e, err := ld.entity(spec)
		if err != nil {
			return nil, fmt.Errorf("entity %d (%s): %w", i, spec.ID, err)
		}
		if !w.WithinBounds(e.Position) {
			ld.logger.Warn("entity out of bounds, skipped",
				log.String("id", e.ID),
				log.Stringer("position", e.Position),
			)
			skipped++
			continue
		}
		if err := w.TryAdd(e); err != nil {
			return nil, fmt.Errorf("entity %d (%s): %w", i, spec.ID, err)
		}
	}

	ld.logger.Info("world built",
		log.Int("rows", w.Rows()),
		log.Int("cols", w.Cols()),
		log.Int("entities", w.Len()),
		log.Int("skipped", skipped),
	)
	return w, nil
}

// Schedule queues the initial events of every entity in the engine's world.
func (ld *Loader) Schedule(eng *engine.Engine) {
	eng.ScheduleAll()
	ld.logger.Debug("initial events scheduled", log.Int("pending", eng.Scheduler().Len()))
}

func (ld *Loader) background(key string) world.Background {
	return world.Background{ID: key, Images: ld.images.Frames(key)}
}

func (ld *Loader) entity(s EntitySpec) (*world.Entity, error) {
	kind, ok := world.ParseKind(s.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}

	pos := world.Pt(s.Col, s.Row)
	frames := ld.images.Frames(kind.ImageKey())

	switch kind {
	case world.KindWorkerEmpty:
		return world.NewWorker(s.ID, pos, s.ActionPeriod, s.AnimationPeriod, s.ResourceLimit, frames), nil
	case world.KindWorkerFull:
		return world.NewWorkerFull(s.ID, pos, s.ActionPeriod, s.AnimationPeriod, s.ResourceLimit, frames), nil
	case world.KindTree:
		return world.NewTree(s.ID, pos, s.ActionPeriod, s.AnimationPeriod, s.Health, frames), nil
	case world.KindSapling:
		return ld.sapling.New(s.ID, pos, frames, s.Health), nil
	case world.KindStump:
		return world.NewStump(s.ID, pos, frames), nil
	case world.KindFairy:
		return world.NewFairy(s.ID, pos, s.ActionPeriod, s.AnimationPeriod, frames), nil
	case world.KindHouse:
		return world.NewHouse(s.ID, pos, frames), nil
	case world.KindObstacle:
		return world.NewObstacle(s.ID, pos, s.AnimationPeriod, frames), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}
}

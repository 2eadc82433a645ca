package simulation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zeusync/grove/internal/core/engine"
	"github.com/zeusync/grove/internal/core/events/bus"
	"github.com/zeusync/grove/internal/core/images"
	"github.com/zeusync/grove/internal/core/loader"
	"github.com/zeusync/grove/internal/core/observability/log"
	"github.com/zeusync/grove/internal/core/scheduler"
	"github.com/zeusync/grove/internal/core/snapshot"
	"github.com/zeusync/grove/internal/core/storage/journal"
	"github.com/zeusync/grove/internal/core/world"
)

// EventAdvanced is published on the bus after every Advance, outside the
// simulation lock. Its data is an Advanced value.
const EventAdvanced = "sim.advanced"

type Advanced struct {
	Tick     uint64            `json:"tick"`
	Snapshot snapshot.Snapshot `json:"snapshot"`
}

// Recorder persists snapshots of a run. *journal.Journal implements it.
type Recorder interface {
	BeginRun(ctx context.Context, seed uint64, document string, start snapshot.Snapshot) (journal.Run, error)
	Record(ctx context.Context, runID string, tick uint64, s snapshot.Snapshot) error
}

// Simulation owns one world and its timeline. Advance is serialised under a
// write lock; Snapshot and Clock read under a read lock, so readers only see
// the world between two advances.
//
// Bus handlers for entity.* events run inside Advance and must not call back
// into the Simulation.
type Simulation struct {
	mu     sync.RWMutex
	world  *world.World
	sched  *scheduler.Scheduler
	engine *engine.Engine
	tick   uint64

	bus    bus.EventBus
	logger log.Log

	seed        uint64
	document    string
	recorder    Recorder
	recordEvery uint64
	runID       string
}

type options struct {
	seed        uint64
	tuning      engine.Tuning
	bus         bus.EventBus
	logger      log.Log
	recorder    Recorder
	recordEvery uint64
	document    string
}

type Option func(*options)

func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

func WithTuning(t engine.Tuning) Option {
	return func(o *options) { o.tuning = t }
}

func WithEventBus(b bus.EventBus) Option {
	return func(o *options) { o.bus = b }
}

func WithLogger(l log.Log) Option {
	return func(o *options) { o.logger = l }
}

// WithRecorder records a snapshot every `every` ticks once Start was called.
func WithRecorder(r Recorder, every uint64) Option {
	return func(o *options) {
		o.recorder = r
		o.recordEvery = max(every, 1)
	}
}

// WithDocumentName labels the run in the recorder.
func WithDocumentName(name string) Option {
	return func(o *options) { o.document = name }
}

// New builds the world described by doc and queues its initial events.
func New(doc *loader.Document, p images.Provider, opts ...Option) (*Simulation, error) {
	o := options{
		tuning:      engine.DefaultTuning(),
		logger:      log.Nop(),
		recordEvery: 1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.bus == nil {
		o.bus = bus.New()
	}

	sched := scheduler.New(o.logger.Named("scheduler"))
	ld := loader.New(p,
		loader.WithLogger(o.logger.Named("loader")),
		loader.WithSapling(o.tuning.Sapling),
	)
	w, err := ld.Build(doc,
		world.WithCanceller(sched),
		world.WithObserver(engine.NewWorldPublisher(o.bus, sched.Now, o.logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("build world: %w", err)
	}

	eng := engine.New(w, sched, p,
		engine.WithSeed(o.seed),
		engine.WithTuning(o.tuning),
		engine.WithEventBus(o.bus),
		engine.WithLogger(o.logger.Named("engine")),
	)
	ld.Schedule(eng)

	return &Simulation{
		world:       w,
		sched:       sched,
		engine:      eng,
		bus:         o.bus,
		logger:      o.logger.Named("simulation"),
		seed:        o.seed,
		document:    o.document,
		recorder:    o.recorder,
		recordEvery: o.recordEvery,
	}, nil
}

// Start opens a recorder run for the current state. Without a recorder it
// does nothing.
func (s *Simulation) Start(ctx context.Context) error {
	if s.recorder == nil {
		return nil
	}
	run, err := s.recorder.BeginRun(ctx, s.seed, s.document, s.Snapshot())
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	s.mu.Lock()
	s.runID = run.ID
	s.mu.Unlock()
	s.logger.Info("recording run", log.String("run_id", run.ID), log.Uint64("every", s.recordEvery))
	return nil
}

// Advance moves the clock forward by delta simulation seconds, dispatching
// every event due on the way.
func (s *Simulation) Advance(ctx context.Context, delta float64) (snapshot.Snapshot, error) {
	s.mu.Lock()
	err := s.sched.Advance(delta, s.engine)
	s.tick++
	tick, runID := s.tick, s.runID
	snap := s.capture()
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("advance failed", log.Uint64("tick", tick), log.Error(err))
		return snap, fmt.Errorf("tick %d: %w", tick, err)
	}

	if runID != "" && tick%s.recordEvery == 0 {
		if err := s.recorder.Record(ctx, runID, tick, snap); err != nil {
			return snap, fmt.Errorf("record tick %d: %w", tick, err)
		}
	}

	if err := s.bus.Publish(bus.NewEvent(EventAdvanced, "simulation", snap.Time, Advanced{Tick: tick, Snapshot: snap})); err != nil {
		s.logger.Warn("advance handler failed", log.Error(err))
	}
	return snap, nil
}

// Run advances by interval*timeScale simulation seconds on every tick of a
// wall clock ticker until ctx is done.
func (s *Simulation) Run(ctx context.Context, interval time.Duration, timeScale float64) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	delta := interval.Seconds() * timeScale
	s.logger.Info("simulation loop started",
		log.Duration("interval", interval),
		log.Float64("delta", delta),
	)
	for {
		select {
		case <-ticker.C:
			if _, err := s.Advance(ctx, delta); err != nil {
				if ctx.Err() != nil {
					s.logger.Warn("advance interrupted by shutdown", log.Error(err))
					return nil
				}
				return err
			}
		case <-ctx.Done():
			s.logger.Info("simulation loop stopped", log.Uint64("tick", s.Tick()))
			return nil
		}
	}
}

func (s *Simulation) Snapshot() snapshot.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capture()
}

func (s *Simulation) capture() snapshot.Snapshot {
	return snapshot.Capture(s.world, s.sched.Now(), s.sched.Len())
}

func (s *Simulation) Clock() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sched.Now()
}

func (s *Simulation) Tick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

// RunID is the recorder run, or "" before Start.
func (s *Simulation) RunID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runID
}

func (s *Simulation) Seed() uint64      { return s.seed }
func (s *Simulation) Bus() bus.EventBus { return s.bus }

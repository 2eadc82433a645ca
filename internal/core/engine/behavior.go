package engine

import "github.com/zeusync/grove/internal/core/world"

// behavior is one kind's Activity step. Each step either resolves the
// entity (usually by transforming it) or reschedules it.
type behavior interface {
	activity(eng *Engine, e *world.Entity) error
}

func behaviorFor(k world.Kind) (behavior, bool) {
	switch k {
	case world.KindWorkerEmpty:
		return workerEmpty{}, true
	case world.KindWorkerFull:
		return workerFull{}, true
	case world.KindTree:
		return tree{}, true
	case world.KindSapling:
		return sapling{}, true
	case world.KindFairy:
		return fairy{}, true
	case world.KindStump, world.KindHouse, world.KindObstacle:
		return nil, false
	default:
		return nil, false
	}
}

type workerEmpty struct{}

func (workerEmpty) activity(eng *Engine, e *world.Entity) error {
	target, ok := FindNearest(eng.world, e.Position, world.KindTree, world.KindSapling)
	if ok && eng.harvest(e, target) {
		done, err := eng.fill(e)
		if err != nil || done {
			return err
		}
	}
	eng.reschedule(e)
	return nil
}

// harvest takes one unit from target when adjacent, otherwise steps toward it.
func (eng *Engine) harvest(e, target *world.Entity) bool {
	if e.Position.Adjacent(target.Position) {
		e.ResourceCount++
		target.Health--
		return true
	}
	eng.step(e, target.Position)
	return false
}

// fill turns a worker at its resource limit into a full worker.
func (eng *Engine) fill(e *world.Entity) (bool, error) {
	if e.ResourceCount < e.ResourceLimit {
		return false, nil
	}
	full := world.NewWorkerFull(e.ID, e.Position, e.ActionPeriod, e.AnimationPeriod, e.ResourceLimit, e.Images)
	return true, eng.replace(e, full, true)
}

type workerFull struct{}

func (workerFull) activity(eng *Engine, e *world.Entity) error {
	house, ok := FindNearest(eng.world, e.Position, world.KindHouse)
	if ok && eng.approach(e, house.Position) {
		empty := world.NewWorker(e.ID, e.Position, e.ActionPeriod, e.AnimationPeriod, e.ResourceLimit, e.Images)
		return eng.replace(e, empty, true)
	}
	eng.reschedule(e)
	return nil
}

// approach reports adjacency to dest, stepping toward it when not there yet.
func (eng *Engine) approach(e *world.Entity, dest world.Point) bool {
	if e.Position.Adjacent(dest) {
		return true
	}
	eng.step(e, dest)
	return false
}

func (eng *Engine) step(e *world.Entity, dest world.Point) {
	if next := NextPosition(eng.world, e, dest); next != e.Position {
		eng.world.Move(e, next)
	}
}

type tree struct{}

func (tree) activity(eng *Engine, e *world.Entity) error {
	if e.Health <= 0 {
		return eng.fell(e)
	}
	eng.reschedule(e)
	return nil
}

// fell replaces a plant with a stump. Stumps have no events of their own.
func (eng *Engine) fell(e *world.Entity) error {
	stump := world.NewStump(world.StumpPrefix+e.ID, e.Position, eng.frames(world.KindStump))
	return eng.replace(e, stump, false)
}

type sapling struct{}

func (sapling) activity(eng *Engine, e *world.Entity) error {
	e.Health++
	switch {
	case e.Health <= 0:
		return eng.fell(e)
	case e.Health >= e.HealthLimit:
		t := eng.tuning
		grown := world.NewTree(world.TreePrefix+e.ID, e.Position,
			t.TreeActionPeriod.Sample(eng.rng),
			t.TreeAnimationPeriod.Sample(eng.rng),
			t.TreeHealth.Sample(eng.rng),
			eng.frames(world.KindTree),
		)
		return eng.replace(e, grown, true)
	default:
		eng.reschedule(e)
		return nil
	}
}

type fairy struct{}

func (fairy) activity(eng *Engine, e *world.Entity) error {
	if stump, ok := FindNearest(eng.world, e.Position, world.KindStump); ok {
		at := stump.Position
		if eng.approach(e, at) {
			id := world.SaplingPrefix + stump.ID
			eng.world.Remove(stump)
			seedling := eng.tuning.Sapling.New(id, at, eng.frames(world.KindSapling), 0)
			if err := eng.world.TryAdd(seedling); err != nil {
				return err
			}
			eng.ScheduleActions(seedling)
		}
	}
	eng.reschedule(e)
	return nil
}

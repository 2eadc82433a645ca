package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/grove/internal/core/events/bus"
	"github.com/zeusync/grove/internal/core/images"
	"github.com/zeusync/grove/internal/core/scheduler"
	"github.com/zeusync/grove/internal/core/world"
)

type fixture struct {
	t     *testing.T
	world *world.World
	sched *scheduler.Scheduler
	eng   *Engine
}

func newFixture(t *testing.T, rows, cols int, opts ...Option) *fixture {
	t.Helper()
	s := scheduler.New(nil)
	w, err := world.New(rows, cols, world.WithCanceller(s))
	require.NoError(t, err)

	store := images.NewStore(nil)
	store.Add("tree", "tree1", "tree2", "tree3")
	store.Add("sapling", "sapling1", "sapling2")
	store.Add("stump", "stump")
	store.Add("worker", "worker1", "worker2")
	store.Add("obstacle", "water1", "water2", "water3")

	eng := New(w, s, store, append([]Option{WithSeed(42)}, opts...)...)
	return &fixture{t: t, world: w, sched: s, eng: eng}
}

// place registers e and queues its initial events.
func (f *fixture) place(e *world.Entity) *world.Entity {
	f.t.Helper()
	require.NoError(f.t, f.world.TryAdd(e))
	f.eng.ScheduleActions(e)
	return e
}

func (f *fixture) advanceTo(until float64) {
	f.t.Helper()
	require.NoError(f.t, f.sched.AdvanceTo(until, f.eng))
	require.NoError(f.t, f.world.Check())
}

func (f *fixture) at(col, row int) *world.Entity {
	f.t.Helper()
	e, ok := f.world.Occupant(world.Pt(col, row))
	require.True(f.t, ok, "nothing at (%d,%d)", col, row)
	return e
}

func countActions(events []scheduler.Event) (activities, animations int) {
	for _, ev := range events {
		switch ev.Action.(type) {
		case Activity:
			activities++
		case Animation:
			animations++
		}
	}
	return activities, animations
}

func TestHarvestAdjacentTreeThenStump(t *testing.T) {
	f := newFixture(t, 5, 5)
	worker := f.place(world.NewWorker("worker", world.Pt(2, 2), 1, 0.5, 4, nil))
	oak := f.place(world.NewTree("oak", world.Pt(2, 3), 2, 0.3, 1, nil))
	oakHandle := oak.Handle()

	f.advanceTo(1.0)
	assert.Equal(t, 0, oak.Health)
	assert.Equal(t, 1, worker.ResourceCount)
	assert.Equal(t, world.KindTree, f.at(2, 3).Kind, "tree waits for its own activity")

	f.advanceTo(2.0)
	stump := f.at(2, 3)
	assert.Equal(t, world.KindStump, stump.Kind)
	assert.Equal(t, "stump_oak", stump.ID)
	assert.False(t, oak.Alive())
	assert.Empty(t, f.sched.Pending(oakHandle))
	assert.Empty(t, f.sched.Pending(stump.Handle()), "stumps schedule nothing")
}

func TestWorkerTransformsWhenFull(t *testing.T) {
	f := newFixture(t, 3, 3)
	worker := f.place(world.NewWorker("w", world.Pt(0, 0), 1, 0.4, 1, nil))
	oak := f.place(world.NewTree("oak", world.Pt(1, 0), 5, 5, 5, nil))
	old := worker.Handle()

	f.advanceTo(1.0)

	full := f.at(0, 0)
	assert.Equal(t, world.KindWorkerFull, full.Kind)
	assert.Equal(t, "w", full.ID)
	assert.Equal(t, 1, full.ResourceLimit)
	assert.Equal(t, 4, oak.Health)
	assert.False(t, worker.Alive())
	assert.Empty(t, f.sched.Pending(old))

	activities, animations := countActions(f.sched.Pending(full.Handle()))
	assert.Equal(t, 1, activities)
	assert.Equal(t, 1, animations)
	assert.Equal(t, 2.0, f.sched.Pending(full.Handle())[1].Time)
}

func TestWorkerNeverExceedsLimitBeforeTransform(t *testing.T) {
	f := newFixture(t, 3, 3)
	f.place(world.NewWorker("w", world.Pt(0, 0), 1, 1, 3, nil))
	f.place(world.NewTree("oak", world.Pt(1, 0), 100, 100, 10, nil))

	for i := 1; i <= 3; i++ {
		f.advanceTo(float64(i))
		e := f.at(0, 0)
		if e.Kind == world.KindWorkerEmpty {
			assert.Less(t, e.ResourceCount, e.ResourceLimit)
		}
	}
	assert.Equal(t, world.KindWorkerFull, f.at(0, 0).Kind)
	assert.Equal(t, 7, f.at(1, 0).Health)
}

func TestFullWorkerWalksHome(t *testing.T) {
	f := newFixture(t, 3, 6)
	f.place(world.NewWorkerFull("w", world.Pt(0, 0), 1, 1, 2, nil))
	f.place(world.NewHouse("home", world.Pt(3, 0), nil))

	f.advanceTo(1)
	assert.Equal(t, world.KindWorkerFull, f.at(1, 0).Kind)
	f.advanceTo(2)
	assert.Equal(t, world.KindWorkerFull, f.at(2, 0).Kind)
	f.advanceTo(3)
	empty := f.at(2, 0)
	assert.Equal(t, world.KindWorkerEmpty, empty.Kind)
	assert.Equal(t, 0, empty.ResourceCount)
	assert.Equal(t, 2, empty.ResourceLimit)
}

func TestFullWorkerWithoutHouseWaits(t *testing.T) {
	f := newFixture(t, 3, 3)
	w := f.place(world.NewWorkerFull("w", world.Pt(1, 1), 1, 1, 2, nil))
	f.advanceTo(3)
	assert.Equal(t, world.Pt(1, 1), w.Position)
	activities, _ := countActions(f.sched.Pending(w.Handle()))
	assert.Equal(t, 1, activities)
}

func TestWorkerWalksThroughStump(t *testing.T) {
	f := newFixture(t, 3, 5)
	w := f.place(world.NewWorker("w", world.Pt(0, 0), 1, 1, 2, nil))
	stump := f.place(world.NewStump("s", world.Pt(1, 0), nil))
	f.place(world.NewTree("oak", world.Pt(3, 0), 50, 50, 3, nil))

	f.advanceTo(1)
	assert.Equal(t, world.Pt(1, 0), w.Position)
	assert.False(t, stump.Alive())
	assert.Equal(t, world.Removed, stump.Position)
}

func TestFairyRegrowsStump(t *testing.T) {
	f := newFixture(t, 3, 3)
	fay := f.place(world.NewFairy("fay", world.Pt(0, 0), 1, 0.2, nil))
	stump := f.place(world.NewStump("s1", world.Pt(1, 0), nil))

	f.advanceTo(1)
	assert.False(t, stump.Alive())

	sprout := f.at(1, 0)
	assert.Equal(t, world.KindSapling, sprout.Kind)
	assert.Equal(t, "sapling_s1", sprout.ID)
	assert.Equal(t, 0, sprout.Health)
	assert.Equal(t, world.DefaultSapling.HealthLimit, sprout.HealthLimit)
	assert.Equal(t, sprout.ActionPeriod, sprout.AnimationPeriod)
	assert.Equal(t, images.Frames{"sapling1", "sapling2"}, sprout.Images)

	activities, animations := countActions(f.sched.Pending(sprout.Handle()))
	assert.Equal(t, 1, activities)
	assert.Equal(t, 1, animations)

	next := f.sched.Pending(fay.Handle())
	activities, _ = countActions(next)
	assert.Equal(t, 1, activities, "fairy always keeps an activity queued")
}

func TestFairyWithoutStumpKeepsLooping(t *testing.T) {
	f := newFixture(t, 3, 3)
	fay := f.place(world.NewFairy("fay", world.Pt(0, 0), 1, 1, nil))
	for i := 1; i <= 4; i++ {
		f.advanceTo(float64(i))
		activities, _ := countActions(f.sched.Pending(fay.Handle()))
		assert.Equal(t, 1, activities)
	}
}

func TestFairyApproachesStump(t *testing.T) {
	f := newFixture(t, 4, 4)
	fay := f.place(world.NewFairy("fay", world.Pt(0, 0), 1, 1, nil))
	f.place(world.NewStump("s", world.Pt(3, 0), nil))

	f.advanceTo(1)
	assert.Equal(t, world.Pt(1, 0), fay.Position)
	f.advanceTo(2)
	assert.Equal(t, world.Pt(2, 0), fay.Position)
	f.advanceTo(3)
	assert.Equal(t, world.KindSapling, f.at(3, 0).Kind)
	assert.Equal(t, world.Pt(2, 0), fay.Position)
}

func TestSaplingGrowsIntoTree(t *testing.T) {
	f := newFixture(t, 3, 3)
	f.place(world.NewSapling("sap", world.Pt(1, 1), nil, 4))

	f.advanceTo(1)
	grown := f.at(1, 1)
	require.Equal(t, world.KindTree, grown.Kind)
	assert.Equal(t, "tree_sap", grown.ID)

	tuning := DefaultTuning()
	assert.GreaterOrEqual(t, grown.ActionPeriod, tuning.TreeActionPeriod.Min)
	assert.Less(t, grown.ActionPeriod, tuning.TreeActionPeriod.Max)
	assert.GreaterOrEqual(t, grown.AnimationPeriod, tuning.TreeAnimationPeriod.Min)
	assert.Less(t, grown.AnimationPeriod, tuning.TreeAnimationPeriod.Max)
	assert.Contains(t, []int{1, 2}, grown.Health)
	assert.Equal(t, images.Frames{"tree1", "tree2", "tree3"}, grown.Images)

	activities, animations := countActions(f.sched.Pending(grown.Handle()))
	assert.Equal(t, 1, activities)
	assert.Equal(t, 1, animations)
}

func TestSaplingGrowthIsSeeded(t *testing.T) {
	grow := func(seed uint64) *world.Entity {
		f := newFixture(t, 3, 3, WithSeed(seed))
		f.place(world.NewSapling("sap", world.Pt(1, 1), nil, 4))
		f.advanceTo(1)
		return f.at(1, 1)
	}
	a, b := grow(7), grow(7)
	assert.Equal(t, a.ActionPeriod, b.ActionPeriod)
	assert.Equal(t, a.AnimationPeriod, b.AnimationPeriod)
	assert.Equal(t, a.Health, b.Health)
}

func TestSaplingHealthClimbs(t *testing.T) {
	f := newFixture(t, 3, 3)
	sap := f.place(world.NewSapling("sap", world.Pt(1, 1), nil, 0))
	for i := 1; i < world.DefaultSapling.HealthLimit; i++ {
		f.advanceTo(float64(i))
		require.True(t, sap.Alive())
		assert.Equal(t, i, sap.Health)
		assert.Less(t, sap.Health, sap.HealthLimit)
	}
	f.advanceTo(float64(world.DefaultSapling.HealthLimit))
	assert.False(t, sap.Alive())
	assert.Equal(t, world.KindTree, f.at(1, 1).Kind)
}

func TestHarvestedSaplingBecomesStump(t *testing.T) {
	f := newFixture(t, 3, 3)
	f.place(world.NewSapling("sap", world.Pt(1, 1), nil, -3))
	f.advanceTo(1)
	stump := f.at(1, 1)
	assert.Equal(t, world.KindStump, stump.Kind)
	assert.Equal(t, "stump_sap", stump.ID)
}

func TestCustomTuning(t *testing.T) {
	tuning := DefaultTuning()
	tuning.Sapling = world.SaplingSpec{Period: 0.5, HealthLimit: 2}
	tuning.TreeHealth = IntRange{Min: 9, Max: 9}
	f := newFixture(t, 3, 3, WithTuning(tuning))
	f.place(world.NewFairy("fay", world.Pt(0, 0), 1, 1, nil))
	f.place(world.NewStump("s", world.Pt(1, 0), nil))

	f.advanceTo(1)
	sprout := f.at(1, 0)
	assert.Equal(t, 0.5, sprout.ActionPeriod)
	f.advanceTo(2)
	grown := f.at(1, 0)
	require.Equal(t, world.KindTree, grown.Kind)
	assert.Equal(t, 9, grown.Health)
}

func TestAnimationTermination(t *testing.T) {
	frames := make(images.Frames, 100)
	for i := range frames {
		frames[i] = images.Handle("f")
	}

	cases := []struct {
		repeat int
		want   int
	}{
		{repeat: 1, want: 1},
		{repeat: 3, want: 3},
		{repeat: 0, want: 20},
	}
	for _, tc := range cases {
		f := newFixture(t, 2, 2)
		rock := world.NewObstacle("rock", world.Pt(0, 0), 1, frames)
		require.NoError(t, f.world.TryAdd(rock))
		f.sched.Schedule(rock.Handle(), Animation{Repeat: tc.repeat}, 1)

		f.advanceTo(20)
		assert.Equal(t, tc.want, rock.ImageIndex, "repeat %d", tc.repeat)
		if tc.repeat == 0 {
			assert.Len(t, f.sched.Pending(rock.Handle()), 1)
		} else {
			assert.Empty(t, f.sched.Pending(rock.Handle()))
		}
	}
}

func TestAnimationWrapsFrames(t *testing.T) {
	f := newFixture(t, 2, 2)
	rock := f.place(world.NewObstacle("rock", world.Pt(0, 0), 1, images.Frames{"a", "b", "c"}))
	f.advanceTo(4)
	assert.Equal(t, 1, rock.ImageIndex)
	assert.Equal(t, images.Handle("b"), rock.CurrentImage())
}

func TestScheduleActionsPerKind(t *testing.T) {
	f := newFixture(t, 3, 8)
	cases := []struct {
		e          *world.Entity
		activities int
		animations int
	}{
		{world.NewWorker("w", world.Pt(0, 0), 1, 1, 1, nil), 1, 1},
		{world.NewWorkerFull("wf", world.Pt(1, 0), 1, 1, 1, nil), 1, 1},
		{world.NewFairy("f", world.Pt(2, 0), 1, 1, nil), 1, 1},
		{world.NewSapling("s", world.Pt(3, 0), nil, 0), 1, 1},
		{world.NewTree("t", world.Pt(4, 0), 1, 1, 1, nil), 1, 1},
		{world.NewObstacle("o", world.Pt(5, 0), 1, nil), 0, 1},
		{world.NewHouse("h", world.Pt(6, 0), nil), 0, 0},
		{world.NewStump("st", world.Pt(7, 0), nil), 0, 0},
	}
	for _, tc := range cases {
		f.place(tc.e)
		activities, animations := countActions(f.sched.Pending(tc.e.Handle()))
		assert.Equal(t, tc.activities, activities, tc.e.Kind.String())
		assert.Equal(t, tc.animations, animations, tc.e.Kind.String())
	}
}

func TestUnsupportedDispatchIsFatal(t *testing.T) {
	f := newFixture(t, 2, 2)
	house := world.NewHouse("h", world.Pt(0, 0), nil)
	require.NoError(t, f.world.TryAdd(house))
	f.sched.Schedule(house.Handle(), Activity{}, 1)

	err := f.sched.AdvanceTo(2, f.eng)
	assert.ErrorIs(t, err, ErrUnsupportedActivity)

	g := newFixture(t, 2, 2)
	stump := world.NewStump("s", world.Pt(0, 0), nil)
	require.NoError(t, g.world.TryAdd(stump))
	g.sched.Schedule(stump.Handle(), Animation{}, 1)
	assert.ErrorIs(t, g.sched.AdvanceTo(2, g.eng), ErrUnsupportedAnimation)
}

func TestRemovedEntityIsNeverDispatched(t *testing.T) {
	f := newFixture(t, 3, 3)
	oak := f.place(world.NewTree("oak", world.Pt(0, 0), 0.5, 0.25, 3, nil))
	f.place(world.NewTree("elm", world.Pt(2, 2), 0.5, 0.25, 3, nil))
	gone := oak.Handle()

	f.advanceTo(1)
	require.True(t, f.world.Remove(oak))

	var owners []world.Handle
	d := scheduler.DispatchFunc(func(ev scheduler.Event) error {
		owners = append(owners, ev.Owner)
		return f.eng.Dispatch(ev)
	})
	require.NoError(t, f.sched.AdvanceTo(10, d))
	assert.NotEmpty(t, owners)
	assert.NotContains(t, owners, gone)
}

func TestTransformPublishesEvent(t *testing.T) {
	b := bus.New()
	var got []TransformData
	_, err := b.Subscribe(EventEntityTransformed, func(e bus.Event) error {
		got = append(got, e.Data().(TransformData))
		return nil
	})
	require.NoError(t, err)

	f := newFixture(t, 3, 3, WithEventBus(b))
	f.place(world.NewTree("oak", world.Pt(1, 1), 1, 1, 0, nil))
	f.advanceTo(1)

	require.Len(t, got, 1)
	assert.Equal(t, "oak", got[0].From.ID)
	assert.Equal(t, "tree", got[0].From.Kind)
	assert.Equal(t, "stump_oak", got[0].To.ID)
	assert.Equal(t, world.Pt(1, 1), got[0].To.Position)
}

func TestWorldPublisher(t *testing.T) {
	b := bus.New()
	var types []string
	_, err := b.Subscribe(bus.AnyType, func(e bus.Event) error {
		types = append(types, e.Type())
		return nil
	})
	require.NoError(t, err)

	s := scheduler.New(nil)
	w, err := world.New(3, 3, world.WithCanceller(s), world.WithObserver(NewWorldPublisher(b, s.Now, nil)))
	require.NoError(t, err)
	e := world.NewFairy("f", world.Pt(0, 0), 1, 1, nil)
	require.True(t, w.Add(e))
	require.True(t, w.Move(e, world.Pt(1, 0)))
	require.True(t, w.Remove(e))

	assert.Equal(t, []string{EventEntityAdded, EventEntityMoved, EventEntityRemoved}, types)
}

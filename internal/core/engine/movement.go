package engine

import "github.com/zeusync/grove/internal/core/world"

// FindNearest returns the live entity of one of kinds closest to origin by
// squared distance. Ties go to the entity registered first.
func FindNearest(w *world.World, origin world.Point, kinds ...world.Kind) (*world.Entity, bool) {
	var (
		nearest *world.Entity
		best    int
	)
	for e := range w.Entities() {
		if !hasKind(e.Kind, kinds) {
			continue
		}
		d := e.Position.DistanceSquared(origin)
		if nearest == nil || d < best {
			nearest, best = e, d
		}
	}
	return nearest, nearest != nil
}

func hasKind(k world.Kind, kinds []world.Kind) bool {
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

// NextPosition is one greedy step from mover toward dest: along the column
// axis first, then the row axis, otherwise stay put.
func NextPosition(w *world.World, mover *world.Entity, dest world.Point) world.Point {
	pos := mover.Position

	horiz := sign(dest.Col - pos.Col)
	next := pos.Add(horiz, 0)
	if horiz == 0 || blocked(w, mover, next) {
		vert := sign(dest.Row - pos.Row)
		next = pos.Add(0, vert)
		if vert == 0 || blocked(w, mover, next) {
			next = pos
		}
	}
	return next
}

// blocked reports whether mover may not step onto p. Workers walk over
// stumps; everything else is blocked by any occupant.
func blocked(w *world.World, mover *world.Entity, p world.Point) bool {
	occupant, ok := w.Occupant(p)
	if !ok {
		return false
	}
	return !(isWorker(mover.Kind) && occupant.Kind == world.KindStump)
}

func isWorker(k world.Kind) bool {
	return k == world.KindWorkerEmpty || k == world.KindWorkerFull
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

package world

import (
	"fmt"
	"iter"
	"slices"

	"github.com/zeusync/grove/internal/core/images"
)

// Canceller drops every pending event owned by an entity. The scheduler
// implements it; World calls it before an entity leaves the grid.
type Canceller interface {
	CancelAll(owner Handle)
}

// Observer is told about every membership change, after it happened.
type Observer interface {
	EntityAdded(e *Entity)
	EntityRemoved(e *Entity, at Point)
	EntityMoved(e *Entity, from, to Point)
}

// Background is a purely cosmetic terrain tile.
type Background struct {
	ID         string
	Images     images.Frames
	ImageIndex int
}

func (b Background) CurrentImage() images.Handle {
	return b.Images.At(b.ImageIndex)
}

// World is the bounded occupancy grid plus the live entity set. It is the
// sole owner of live entities; the grid stores handles.
//
// Invariant: an entity is live iff the occupancy cell at its position holds
// its handle, and no two live entities share a cell.
type World struct {
	rows int
	cols int

	occupancy  []Handle
	background []Background

	entities map[Handle]*Entity
	live     []Handle
	next     Handle

	canceller Canceller
	observers []Observer
}

type Option func(*World)

func WithCanceller(c Canceller) Option {
	return func(w *World) { w.canceller = c }
}

func WithObserver(o Observer) Option {
	return func(w *World) { w.observers = append(w.observers, o) }
}

func New(rows, cols int, opts ...Option) (*World, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	w := &World{
		rows:       rows,
		cols:       cols,
		occupancy:  make([]Handle, rows*cols),
		background: make([]Background, rows*cols),
		entities:   make(map[Handle]*Entity),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// SetCanceller installs the canceller after construction, for callers that
// build the scheduler after the world.
func (w *World) SetCanceller(c Canceller) {
	w.canceller = c
}

func (w *World) AddObserver(o Observer) {
	w.observers = append(w.observers, o)
}

func (w *World) Rows() int { return w.rows }
func (w *World) Cols() int { return w.cols }

func (w *World) WithinBounds(p Point) bool {
	return p.Row >= 0 && p.Row < w.rows && p.Col >= 0 && p.Col < w.cols
}

func (w *World) cell(p Point) int {
	return p.Row*w.cols + p.Col
}

func (w *World) IsOccupied(p Point) bool {
	return w.WithinBounds(p) && w.occupancy[w.cell(p)] != 0
}

// Occupant returns the live entity at p, if any.
func (w *World) Occupant(p Point) (*Entity, bool) {
	if !w.IsOccupied(p) {
		return nil, false
	}
	return w.entities[w.occupancy[w.cell(p)]], true
}

// Entity resolves a handle. Handles of removed entities never resolve.
func (w *World) Entity(h Handle) (*Entity, bool) {
	e, ok := w.entities[h]
	return e, ok
}

// Len is the number of live entities.
func (w *World) Len() int {
	return len(w.live)
}

// Entities iterates live entities in registration order.
func (w *World) Entities() iter.Seq[*Entity] {
	return func(yield func(*Entity) bool) {
		for _, h := range w.live {
			if !yield(w.entities[h]) {
				return
			}
		}
	}
}

// Add registers e at its position. Out-of-bounds positions and occupied
// cells are refused; the result reports whether e was placed.
func (w *World) Add(e *Entity) bool {
	if e == nil || e.Alive() || !w.WithinBounds(e.Position) || w.IsOccupied(e.Position) {
		return false
	}
	w.next++
	e.handle = w.next
	w.entities[e.handle] = e
	w.live = append(w.live, e.handle)
	w.occupancy[w.cell(e.Position)] = e.handle

	for _, o := range w.observers {
		o.EntityAdded(e)
	}
	return true
}

// TryAdd is the strict variant of Add used for placement that must not
// collide: an occupied target cell is an error. Out-of-bounds is still a
// silent no-op.
func (w *World) TryAdd(e *Entity) error {
	if e == nil {
		return ErrNilEntity
	}
	if e.Alive() {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, e)
	}
	if w.IsOccupied(e.Position) {
		return fmt.Errorf("%w: %s at %s", ErrCellOccupied, e.ID, e.Position)
	}
	w.Add(e)
	return nil
}

// Move relocates e to p. Whatever occupied p is removed first. Moving out
// of bounds or onto the current cell does nothing.
func (w *World) Move(e *Entity, p Point) bool {
	if e == nil || !w.isLive(e) || !w.WithinBounds(p) || p == e.Position {
		return false
	}
	if occupant, ok := w.Occupant(p); ok {
		w.Remove(occupant)
	}

	from := e.Position
	w.occupancy[w.cell(from)] = 0
	w.occupancy[w.cell(p)] = e.handle
	e.Position = p

	for _, o := range w.observers {
		o.EntityMoved(e, from, p)
	}
	return true
}

// Remove cancels e's pending events, clears its cell, evicts it from the
// live set and parks it at Removed. Removing a detached entity is a no-op.
func (w *World) Remove(e *Entity) bool {
	if e == nil || !w.isLive(e) {
		return false
	}
	if w.canceller != nil {
		w.canceller.CancelAll(e.handle)
	}

	at := e.Position
	w.occupancy[w.cell(at)] = 0
	if i := slices.Index(w.live, e.handle); i >= 0 {
		w.live = slices.Delete(w.live, i, i+1)
	}
	delete(w.entities, e.handle)
	e.handle = 0
	e.Position = Removed

	for _, o := range w.observers {
		o.EntityRemoved(e, at)
	}
	return true
}

// RemoveAt removes whatever occupies p.
func (w *World) RemoveAt(p Point) bool {
	e, ok := w.Occupant(p)
	if !ok {
		return false
	}
	return w.Remove(e)
}

func (w *World) isLive(e *Entity) bool {
	if e.handle == 0 {
		return false
	}
	cur, ok := w.entities[e.handle]
	return ok && cur == e
}

func (w *World) SetBackground(p Point, b Background) bool {
	if !w.WithinBounds(p) {
		return false
	}
	w.background[w.cell(p)] = b
	return true
}

func (w *World) Background(p Point) (Background, bool) {
	if !w.WithinBounds(p) {
		return Background{}, false
	}
	return w.background[w.cell(p)], true
}

// FillBackground sets every cell to b.
func (w *World) FillBackground(b Background) {
	for i := range w.background {
		w.background[i] = b
	}
}

// Check verifies the occupancy/live-set invariant and returns the first
// violation found.
func (w *World) Check() error {
	if len(w.live) != len(w.entities) {
		return fmt.Errorf("live list has %d handles, arena has %d", len(w.live), len(w.entities))
	}
	seen := make(map[Point]Handle, len(w.live))
	for _, h := range w.live {
		e, ok := w.entities[h]
		if !ok {
			return fmt.Errorf("live handle %d not in arena", h)
		}
		if e.handle != h {
			return fmt.Errorf("entity %s carries handle %d, listed as %d", e, e.handle, h)
		}
		if !w.WithinBounds(e.Position) {
			return fmt.Errorf("entity %s out of bounds", e)
		}
		if other, dup := seen[e.Position]; dup {
			return fmt.Errorf("entities %d and %d share %s", other, h, e.Position)
		}
		seen[e.Position] = h
		if got := w.occupancy[w.cell(e.Position)]; got != h {
			return fmt.Errorf("cell %s holds %d, expected %d", e.Position, got, h)
		}
	}
	occupied := 0
	for _, h := range w.occupancy {
		if h != 0 {
			occupied++
		}
	}
	if occupied != len(w.live) {
		return fmt.Errorf("%d occupied cells for %d live entities", occupied, len(w.live))
	}
	return nil
}

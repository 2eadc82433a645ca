package scheduler

import (
	"fmt"
	"math"
	"sort"

	"github.com/zeusync/grove/internal/core/observability/log"
	"github.com/zeusync/grove/internal/core/world"
	"github.com/zeusync/grove/pkg/sequence"
)

var _ world.Canceller = (*Scheduler)(nil)

type item = sequence.PriorityItem[Event]

// Scheduler is a discrete-event timeline: a min-heap of events ordered by
// (time, insertion sequence) and a per-owner index used for cancellation.
// It is not safe for concurrent use.
type Scheduler struct {
	queue   *sequence.PriorityQueue[Event]
	pending map[world.Handle]map[uint64]*item
	now     float64
	stats   Stats
	logger  log.Log
}

// Stats counts scheduler activity since construction.
type Stats struct {
	Scheduled  uint64
	Dispatched uint64
	Cancelled  uint64
}

func New(logger log.Log) *Scheduler {
	if logger == nil {
		logger = log.Nop()
	}
	return &Scheduler{
		queue:   sequence.NewPriorityQueue[Event](),
		pending: make(map[world.Handle]map[uint64]*item),
		logger:  logger,
	}
}

// Now is the current simulation clock.
func (s *Scheduler) Now() float64 {
	return s.now
}

// Len is the number of queued events.
func (s *Scheduler) Len() int {
	return s.queue.Len()
}

func (s *Scheduler) Stats() Stats {
	return s.stats
}

// Schedule enqueues action for owner at Now()+delay. Negative delays are
// treated as zero. An owner may hold any number of pending events.
func (s *Scheduler) Schedule(owner world.Handle, action Action, delay float64) Event {
	if delay < 0 || math.IsNaN(delay) {
		delay = 0
	}
	ev := Event{Owner: owner, Action: action, Time: s.now + delay}
	it := s.queue.Enqueue(ev, ev.Time)
	it.Value.Seq = it.Seq()

	set, ok := s.pending[owner]
	if !ok {
		set = make(map[uint64]*item)
		s.pending[owner] = set
	}
	set[it.Seq()] = it
	s.stats.Scheduled++
	return it.Value
}

// CancelAll drops every pending event owned by owner. Unknown owners and
// repeated calls are no-ops.
func (s *Scheduler) CancelAll(owner world.Handle) {
	set, ok := s.pending[owner]
	if !ok {
		return
	}
	for _, it := range set {
		if s.queue.Remove(it) {
			s.stats.Cancelled++
		}
	}
	delete(s.pending, owner)
}

// Pending returns owner's queued events in delivery order.
func (s *Scheduler) Pending(owner world.Handle) []Event {
	set := s.pending[owner]
	out := make([]Event, 0, len(set))
	for _, it := range set {
		out = append(out, it.Value)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// AdvanceTo delivers every event due at or before until, earliest first,
// then sets the clock to until. A target behind the clock delivers nothing
// and leaves the clock alone.
//
// Each event leaves the owner index before it is dispatched, so the
// dispatcher sees only what is still outstanding. A dispatch error stops
// the advance at that event's time and is returned.
func (s *Scheduler) AdvanceTo(until float64, d Dispatcher) error {
	if d == nil {
		return ErrNilDispatcher
	}
	if until < s.now || math.IsNaN(until) {
		until = s.now
	}

	for {
		due, ok := s.queue.PeekPriority()
		if !ok || due > until {
			break
		}
		ev, _ := s.queue.Dequeue()
		s.forget(ev)
		s.now = ev.Time
		s.stats.Dispatched++

		if err := d.Dispatch(ev); err != nil {
			s.logger.Error("dispatch failed",
				log.Stringer("event", ev),
				log.Error(err),
			)
			return fmt.Errorf("%w: %s: %w", ErrDispatch, ev, err)
		}
	}

	s.now = until
	return nil
}

// Advance is AdvanceTo(Now()+delta). Negative deltas deliver nothing.
func (s *Scheduler) Advance(delta float64, d Dispatcher) error {
	if delta < 0 || math.IsNaN(delta) {
		delta = 0
	}
	return s.AdvanceTo(s.now+delta, d)
}

func (s *Scheduler) forget(ev Event) {
	set, ok := s.pending[ev.Owner]
	if !ok {
		return
	}
	delete(set, ev.Seq)
	if len(set) == 0 {
		delete(s.pending, ev.Owner)
	}
}

package sched

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/oshokin/regatta-timer/internal/logger"
)

// Priority selects the dispatch tier of a task. When several deferred
// actions come due at the same instant, higher tiers run first.
type Priority uint8

const (
	// PrioritySequence is the tier of countdown steps and actuator continuations.
	PrioritySequence Priority = iota
	// PriorityPoll is the tier of the button poller; it goes ahead of
	// sequence work whenever both are ready.
	PriorityPoll
)

// Task is a deferred action. It runs to completion on the dispatch
// goroutine and receives the instant it was scheduled for, so chained
// deferrals compound without drift.
type Task func(ctx context.Context, fired time.Time)

// Capacity is the fixed number of deferred-action slots. Sized for one
// pending poll tick, one pending countdown step, and the bounded horn and
// light continuations in flight at once. Slot 0 is reserved for the poll
// tier: at most one poll tick is ever pending, so the poll loop can
// always re-arm no matter how crowded the sequence tier gets.
const Capacity = 16

var (
	// ErrQueueFull is returned when no free slot is available. Callers
	// log and proceed without the deferred effect.
	ErrQueueFull = errors.New("scheduler queue is full")
	// ErrAlreadyFired is returned when cancelling a handle whose task
	// already started or completed. Callers must not assume side effects
	// were prevented.
	ErrAlreadyFired = errors.New("scheduled task already fired")
)

// Handle is a single-use cancellation token for one pending deferred
// action. The zero Handle refers to nothing; cancelling a handle that
// was consumed reports ErrAlreadyFired.
type Handle struct {
	id uint64
}

// Zero reports whether the handle refers to nothing.
func (h Handle) Zero() bool {
	return h.id == 0
}

// entry is one deferred-action slot.
type entry struct {
	// id distinguishes generations of the same slot.
	id uint64
	// at is the instant the task is due.
	at time.Time
	// priority is the dispatch tier.
	priority Priority
	// name labels the task in trace lines.
	name string
	// task is the deferred action.
	task Task
	// armed marks the slot as occupied.
	armed bool
}

// Scheduler dispatches deferred actions in time order, never early,
// each run to completion on a single goroutine. Because no two tasks
// ever run concurrently, a task's critical section over shared actuator
// state cannot be observed half-done by another task.
type Scheduler struct {
	clk    clock.Clock
	log    *zap.SugaredLogger
	mu     sync.Mutex
	slots  [Capacity]entry
	lastID uint64
	wake   chan struct{}
}

// New returns an idle scheduler over the given timer source.
// Run must be called before scheduled tasks can fire.
func New(clk clock.Clock) *Scheduler {
	return &Scheduler{
		clk:  clk,
		log:  logger.Logger().Named("sched"),
		wake: make(chan struct{}, 1),
	}
}

// Now returns the current instant of the scheduler's timer source.
func (s *Scheduler) Now() time.Time {
	return s.clk.Now()
}

// ScheduleAt registers a task to fire at or after the given instant.
func (s *Scheduler) ScheduleAt(at time.Time, priority Priority, name string, task Task) (Handle, error) {
	s.mu.Lock()

	slot := -1

	first := 0
	if priority != PriorityPoll {
		// Sequence-tier tasks never take slot 0; see Capacity.
		first = 1
	}

	for i := first; i < len(s.slots); i++ {
		if !s.slots[i].armed {
			slot = i

			break
		}
	}

	if slot < 0 {
		s.mu.Unlock()
		s.log.Warnw("No free slot for deferred task", "task", name)

		return Handle{}, ErrQueueFull
	}

	s.lastID++
	s.slots[slot] = entry{
		id:       s.lastID,
		at:       at,
		priority: priority,
		name:     name,
		task:     task,
		armed:    true,
	}

	h := Handle{id: s.lastID}
	s.mu.Unlock()

	s.log.Debugw("Scheduled deferred task", "task", name, "at", at)
	s.poke()

	return h, nil
}

// ScheduleAfter registers a task to fire after the given delay from now.
func (s *Scheduler) ScheduleAfter(delay time.Duration, priority Priority, name string, task Task) (Handle, error) {
	return s.ScheduleAt(s.clk.Now().Add(delay), priority, name, task)
}

// Cancel revokes a pending task. It reports ErrAlreadyFired when the
// task already started executing, completed, or was cancelled before;
// the caller compensates with a corrective action instead of relying on
// cancellation alone.
func (s *Scheduler) Cancel(h Handle) error {
	if h.Zero() {
		return ErrAlreadyFired
	}

	s.mu.Lock()

	for i := range s.slots {
		if s.slots[i].armed && s.slots[i].id == h.id {
			name := s.slots[i].name
			s.slots[i] = entry{}
			s.mu.Unlock()

			s.log.Debugw("Cancelled deferred task", "task", name)

			return nil
		}
	}

	s.mu.Unlock()

	return ErrAlreadyFired
}

// Run dispatches deferred actions until the context is cancelled.
// It owns the only goroutine on which tasks execute.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next, ok := s.nextDeadline()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
				continue
			}
		}

		if wait := next.Sub(s.clk.Now()); wait > 0 {
			timer := s.clk.Timer(wait)

			select {
			case <-ctx.Done():
				timer.Stop()

				return
			case <-s.wake:
				// An earlier deadline may have been registered.
				timer.Stop()

				continue
			case <-timer.C:
			}
		}

		for _, e := range s.takeDue(s.clk.Now()) {
			s.log.Debugw("Dispatching deferred task", "task", e.name, "at", e.at)
			e.task(ctx, e.at)
		}
	}
}

// nextDeadline returns the earliest armed deadline, if any.
func (s *Scheduler) nextDeadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		found bool
		next  time.Time
	)

	for i := range s.slots {
		if s.slots[i].armed && (!found || s.slots[i].at.Before(next)) {
			next = s.slots[i].at
			found = true
		}
	}

	return next, found
}

// takeDue removes and returns every armed entry due at the given
// instant, ordered by deadline, then priority tier, then registration.
// Once taken, an entry's handle reports ErrAlreadyFired on Cancel.
func (s *Scheduler) takeDue(now time.Time) []entry {
	s.mu.Lock()

	var due []entry

	for i := range s.slots {
		if s.slots[i].armed && !s.slots[i].at.After(now) {
			due = append(due, s.slots[i])
			s.slots[i] = entry{}
		}
	}

	s.mu.Unlock()

	// Dispatch stays time-ordered even when the batch lagged; the
	// priority tier only breaks equal-deadline ties. Running a later
	// poll ahead of an earlier settle write would let a stale
	// continuation overwrite the poll's reset.
	sort.Slice(due, func(i, j int) bool {
		if !due[i].at.Equal(due[j].at) {
			return due[i].at.Before(due[j].at)
		}

		if due[i].priority != due[j].priority {
			return due[i].priority > due[j].priority
		}

		return due[i].id < due[j].id
	})

	return due
}

// poke nudges the dispatch loop to recompute its deadline.
func (s *Scheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

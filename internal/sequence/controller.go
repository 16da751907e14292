package sequence

import (
	"context"
	"sync"
	"time"

	"github.com/oshokin/regatta-timer/internal/actuator"
	"github.com/oshokin/regatta-timer/internal/logger"
	"github.com/oshokin/regatta-timer/internal/sched"
)

// Timings holds the compiled-in or configured durations of the countdown.
type Timings struct {
	// WarmupMin and WarmupMax bound the drawn warm-up period, [min, max).
	WarmupMin time.Duration
	WarmupMax time.Duration
	// MinuteGap separates the minute signals.
	MinuteGap time.Duration
	// Horn durations per step.
	HornWarmup       time.Duration
	HornThreeMinutes time.Duration
	HornTwoMinutes   time.Duration
	HornOneMinute    time.Duration
	HornStart        time.Duration
}

// stepPlan is the data-driven description of one countdown step: the
// horn pulse it sounds, the light pattern it sets (nil leaves the lights
// unchanged), and where the sequence goes next.
type stepPlan struct {
	horn     time.Duration
	lights   *[3]actuator.Level
	next     State
	terminal bool
}

// Controller is the countdown state machine. A single ownership slot
// holds the handle of the pending step; the generation counter fences
// steps that were already dequeued when a stop arrived, so cancellation
// stays race-free even when it loses the cancel-vs-fire race.
type Controller struct {
	mu         sync.Mutex
	sched      *sched.Scheduler
	acts       *actuator.Coordinator
	timings    Timings
	warmup     WarmupFunc
	pending    sched.Handle
	generation uint64
	state      State
}

// New returns an idle controller. A nil drawer gets the default uniform
// whole-second draw over the configured warm-up range.
func New(s *sched.Scheduler, acts *actuator.Coordinator, timings Timings, warmup WarmupFunc) *Controller {
	if warmup == nil {
		warmup = NewWarmupDraw(timings.WarmupMin, timings.WarmupMax)
	}

	return &Controller{
		sched:   s,
		acts:    acts,
		timings: timings,
		warmup:  warmup,
	}
}

// Arm starts a new countdown at Warmup with the given seed. It reports
// false when a countdown is already armed (repeated start presses are
// no-ops) or when no scheduler slot was free.
func (c *Controller) Arm(ctx context.Context, seed uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.pending.Zero() {
		return false
	}

	c.generation++

	handle, err := c.sched.ScheduleAt(
		c.sched.Now(),
		sched.PrioritySequence,
		"countdown-step",
		c.stepTask(c.generation, Warmup, seed),
	)
	if err != nil {
		logger.WarnKV(ctx, "Could not arm countdown", "error", err)

		return false
	}

	c.pending = handle
	c.state = Warmup

	logger.InfoKV(ctx, "Countdown armed", "seed", seed)

	return true
}

// Disarm takes the pending handle out of the ownership slot and fences
// any step already in flight. The caller owns the returned handle and is
// expected to attempt cancellation, then reset the actuators regardless
// of the outcome.
func (c *Controller) Disarm(ctx context.Context) (sched.Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending.Zero() {
		return sched.Handle{}, false
	}

	handle := c.pending
	c.pending = sched.Handle{}
	c.generation++

	logger.Info(ctx, "Countdown disarmed")

	return handle, true
}

// Snapshot reports the last entered state and whether a step is pending.
func (c *Controller) Snapshot() (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state, !c.pending.Zero()
}

// stepTask wraps one countdown step as a scheduler task.
func (c *Controller) stepTask(generation uint64, state State, seed uint64) sched.Task {
	return func(ctx context.Context, fired time.Time) {
		c.runStep(ctx, fired, generation, state, seed)
	}
}

// runStep consumes the ownership slot, performs the step's horn and
// light actions, and re-arms the slot with the next step. A step whose
// generation went stale (a stop won the race after this step was already
// dequeued) abandons itself without touching the actuators.
func (c *Controller) runStep(ctx context.Context, fired time.Time, generation uint64, state State, seed uint64) {
	c.mu.Lock()

	if generation != c.generation {
		c.mu.Unlock()

		logger.DebugKV(ctx, "Abandoning stale countdown step", "state", state)

		return
	}

	// The firing consumed the handle; it must never be acted on again.
	c.pending = sched.Handle{}
	c.state = state
	c.mu.Unlock()

	logger.InfoKV(ctx, "Countdown state entered", "state", state)

	plan := c.plan(state)

	// Fire-and-forget: a dropped pulse or light update is logged by the
	// coordinator and must not halt the countdown.
	c.acts.BeepHorn(ctx, plan.horn, 1)

	if plan.lights != nil {
		c.acts.SetLights(ctx, plan.lights[0], plan.lights[1], plan.lights[2])
	}

	if plan.terminal {
		logger.Info(ctx, "Start!")

		return
	}

	delay := c.delayToNext(ctx, state, seed)

	handle, err := c.sched.ScheduleAt(
		fired.Add(delay),
		sched.PrioritySequence,
		"countdown-step",
		c.stepTask(generation, plan.next, seed),
	)
	if err != nil {
		logger.ErrorKV(ctx, "Countdown halted, no slot for next step", "state", plan.next, "error", err)

		return
	}

	c.mu.Lock()

	if generation == c.generation {
		c.pending = handle
		c.mu.Unlock()

		return
	}

	c.mu.Unlock()

	// A stop arrived while this step was running; revoke the step we
	// just scheduled instead of storing a handle the stop never saw.
	_ = c.sched.Cancel(handle)
}

// plan returns the data-driven actions of a step.
func (c *Controller) plan(state State) stepPlan {
	switch state {
	case ThreeMinutes:
		return stepPlan{
			horn:   c.timings.HornThreeMinutes,
			lights: &[3]actuator.Level{actuator.On, actuator.On, actuator.On},
			next:   TwoMinutes,
		}
	case TwoMinutes:
		return stepPlan{
			horn:   c.timings.HornTwoMinutes,
			lights: &[3]actuator.Level{actuator.Off, actuator.On, actuator.On},
			next:   OneMinute,
		}
	case OneMinute:
		return stepPlan{
			horn:   c.timings.HornOneMinute,
			lights: &[3]actuator.Level{actuator.Off, actuator.Off, actuator.On},
			next:   Start,
		}
	case Start:
		return stepPlan{
			horn:     c.timings.HornStart,
			lights:   &[3]actuator.Level{actuator.Off, actuator.Off, actuator.Off},
			terminal: true,
		}
	case Warmup:
		fallthrough
	default:
		// Warm-up leaves the lights as they were.
		return stepPlan{
			horn: c.timings.HornWarmup,
			next: ThreeMinutes,
		}
	}
}

// delayToNext computes the offset from this step's instant to the next.
func (c *Controller) delayToNext(ctx context.Context, state State, seed uint64) time.Duration {
	if state != Warmup {
		return c.timings.MinuteGap
	}

	period := c.warmup(seed)
	logger.InfoKV(ctx, "Warm-up period drawn", "seed", seed, "period", period)

	return period
}

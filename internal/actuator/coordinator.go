package actuator

import (
	"context"
	"sync"
	"time"

	"github.com/oshokin/regatta-timer/internal/hal"
	"github.com/oshokin/regatta-timer/internal/logger"
	"github.com/oshokin/regatta-timer/internal/sched"
)

// Level is a binary light command.
type Level uint8

const (
	// Off deasserts a light line.
	Off Level = iota
	// On asserts a light line.
	On
)

// String renders the level for trace lines.
func (l Level) String() string {
	if l == On {
		return "on"
	}

	return "off"
}

// Coordinator owns the only mutable handles to the horn and the three
// indicator lights. Every write goes through its mutex, so actuator
// state is serialized no matter which task requested the change.
type Coordinator struct {
	mu     sync.Mutex
	sched  *sched.Scheduler
	horn   hal.OutputLine
	lights [3]hal.OutputLine
	settle time.Duration
	gap    time.Duration

	// pulse numbers the current horn pulse chain. BeepHorn and ResetAll
	// advance it; deferred on/off phases carrying an older number
	// abandon themselves, so two chains never interleave on the line.
	pulse uint64
}

// New returns a coordinator over the given lines. settle separates the
// individual light writes of one SetLights call; gap separates repeated
// horn pulses.
func New(s *sched.Scheduler, horn, light1, light2, light3 hal.OutputLine, settle, gap time.Duration) *Coordinator {
	return &Coordinator{
		sched:  s,
		horn:   horn,
		lights: [3]hal.OutputLine{light1, light2, light3},
		settle: settle,
		gap:    gap,
	}
}

// ResetAll forces the horn and all lights to their idle level. It is the
// system's recovery action: unconditional, idempotent, and it never fails.
// Any in-flight horn pulse chain is orphaned so it cannot re-open the
// horn after the reset.
func (c *Coordinator) ResetAll(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	logger.Info(ctx, "Reset all actuators")

	c.pulse++
	c.horn.Deassert()

	for _, light := range c.lights {
		light.Deassert()
	}
}

// SetLights writes all three lights as one logical unit. The first line
// is written immediately; the remaining writes are deferred by the
// settle delay each, so no two lines switch in the same instant.
// A line whose deferral cannot be scheduled is skipped with a log line.
func (c *Coordinator) SetLights(ctx context.Context, l1, l2, l3 Level) {
	logger.InfoKV(ctx, "Setting lights", "light1", l1, "light2", l2, "light3", l3)

	levels := [3]Level{l1, l2, l3}

	c.writeLight(0, levels[0])

	for i := 1; i < len(levels); i++ {
		index, level := i, levels[i]

		_, err := c.sched.ScheduleAfter(
			time.Duration(index)*c.settle,
			sched.PrioritySequence,
			"light-settle",
			func(context.Context, time.Time) {
				c.writeLight(index, level)
			},
		)
		if err != nil {
			logger.WarnKV(ctx, "Dropped light update", "light", index+1, "error", err)
		}
	}
}

// BeepHorn sounds the horn for the given on-time, repeated the given
// number of times with the pulse gap in between. The waveform is a chain
// of deferred on/off phases; repetitions counts the on/off cycles left.
// Starting a new waveform supersedes any chain still in flight.
func (c *Coordinator) BeepHorn(ctx context.Context, on time.Duration, repetitions int) {
	if repetitions < 1 {
		return
	}

	c.mu.Lock()
	c.pulse++
	pulse := c.pulse
	c.mu.Unlock()

	c.hornOn(ctx, c.sched.Now(), on, repetitions, pulse)
}

// hornOn opens one pulse and defers the closing phase.
func (c *Coordinator) hornOn(ctx context.Context, at time.Time, on time.Duration, repetitions int, pulse uint64) {
	c.mu.Lock()

	if pulse != c.pulse {
		c.mu.Unlock()
		logger.Debug(ctx, "Horn pulse superseded")

		return
	}

	logger.Debug(ctx, "Horn start")
	c.horn.Assert()
	c.mu.Unlock()

	_, err := c.sched.ScheduleAt(
		at.Add(on),
		sched.PrioritySequence,
		"horn-off",
		func(ctx context.Context, fired time.Time) {
			c.hornOff(ctx, fired, on, repetitions-1, pulse)
		},
	)
	if err != nil {
		// The off phase must not be lost or the horn stays open.
		logger.WarnKV(ctx, "Closing horn pulse inline", "error", err)

		c.mu.Lock()
		c.horn.Deassert()
		c.mu.Unlock()
	}
}

// hornOff closes the pulse and defers the next one when repetitions remain.
func (c *Coordinator) hornOff(ctx context.Context, at time.Time, on time.Duration, repetitions int, pulse uint64) {
	c.mu.Lock()

	if pulse != c.pulse {
		// A newer chain or a reset owns the line now.
		c.mu.Unlock()
		logger.Debug(ctx, "Horn pulse superseded")

		return
	}

	logger.Debug(ctx, "Horn stop")
	c.horn.Deassert()
	c.mu.Unlock()

	if repetitions < 1 {
		return
	}

	_, err := c.sched.ScheduleAt(
		at.Add(c.gap),
		sched.PrioritySequence,
		"horn-on",
		func(ctx context.Context, fired time.Time) {
			c.hornOn(ctx, fired, on, repetitions, pulse)
		},
	)
	if err != nil {
		logger.WarnKV(ctx, "Dropped horn repetition", "remaining", repetitions, "error", err)
	}
}

// writeLight drives one light line under the coordinator lock.
func (c *Coordinator) writeLight(index int, level Level) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if level == On {
		c.lights[index].Assert()

		return
	}

	c.lights[index].Deassert()
}

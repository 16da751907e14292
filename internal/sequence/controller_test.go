package sequence

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/regatta-timer/internal/actuator"
	"github.com/oshokin/regatta-timer/internal/hal"
	"github.com/oshokin/regatta-timer/internal/sched"
)

const (
	eventuallyTimeout = 2 * time.Second
	eventuallyTick    = time.Millisecond
)

// testTimings are the stock horn box timings.
func testTimings() Timings {
	return Timings{
		WarmupMin:        20 * time.Second,
		WarmupMax:        90 * time.Second,
		MinuteGap:        time.Minute,
		HornWarmup:       800 * time.Millisecond,
		HornThreeMinutes: 1200 * time.Millisecond,
		HornTwoMinutes:   400 * time.Millisecond,
		HornOneMinute:    400 * time.Millisecond,
		HornStart:        2 * time.Second,
	}
}

// rig bundles a controller over memory lines, a mock clock, and a running dispatcher.
type rig struct {
	controller *Controller
	scheduler  *sched.Scheduler
	mock       *clock.Mock
	start      time.Time
	horn       *hal.MemoryOutput
	lights     [3]*hal.MemoryOutput
}

// newRig builds a controller whose warm-up draw is fixed to 42 s.
func newRig(t *testing.T) *rig {
	t.Helper()

	mock := clock.NewMock()
	s := sched.New(mock)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go s.Run(ctx)

	horn := hal.NewMemoryOutput()
	lights := [3]*hal.MemoryOutput{hal.NewMemoryOutput(), hal.NewMemoryOutput(), hal.NewMemoryOutput()}
	acts := actuator.New(s, horn, lights[0], lights[1], lights[2], 2*time.Millisecond, 50*time.Millisecond)

	fixedDraw := func(uint64) time.Duration { return 42 * time.Second }

	return &rig{
		controller: New(s, acts, testTimings(), fixedDraw),
		scheduler:  s,
		mock:       mock,
		start:      mock.Now(),
		horn:       horn,
		lights:     lights,
	}
}

// advanceTo moves the mock clock to the given offset from the rig's arm time.
func (r *rig) advanceTo(offset time.Duration) {
	if d := r.start.Add(offset).Sub(r.mock.Now()); d > 0 {
		r.mock.Add(d)
	}
}

// pattern reports the current levels of the three lights.
func (r *rig) pattern() [3]bool {
	return [3]bool{r.lights[0].Asserted(), r.lights[1].Asserted(), r.lights[2].Asserted()}
}

// requireState waits until the controller has entered the given state.
func (r *rig) requireState(t *testing.T, want State) {
	t.Helper()

	require.Eventually(t, func() bool {
		state, _ := r.controller.Snapshot()

		return state == want
	}, eventuallyTimeout, eventuallyTick)
}

// requirePattern waits until the lights show the given levels.
func (r *rig) requirePattern(t *testing.T, want [3]bool) {
	t.Helper()

	require.Eventually(t, func() bool {
		return r.pattern() == want
	}, eventuallyTimeout, eventuallyTick)
}

// TestController_FullRunVisitsEveryStateOnSchedule walks an uninterrupted
// countdown with a fixed 42 s warm-up and checks the transition offsets
// 0/42/102/162/222 s and the light pattern at each signal.
func TestController_FullRunVisitsEveryStateOnSchedule(t *testing.T) {
	t.Parallel()

	r := newRig(t)
	ctx := context.Background()

	require.True(t, r.controller.Arm(ctx, 7))

	r.requireState(t, Warmup)

	// The warm-up step sounds the horn but leaves the lights alone.
	require.Eventually(t, func() bool {
		return r.horn.Asserted()
	}, eventuallyTimeout, eventuallyTick)

	// Wait until the warm-up step has re-armed the slot with the next step.
	require.Eventually(t, func() bool {
		_, active := r.controller.Snapshot()

		return active
	}, eventuallyTimeout, eventuallyTick)

	// One tick before the drawn period the sequence must not have moved.
	r.advanceTo(41 * time.Second)
	state, active := r.controller.Snapshot()
	require.Equal(t, Warmup, state)
	require.True(t, active)
	require.Empty(t, r.lights[0].Writes())

	// The 50 ms slack past each signal flushes the settle-delayed writes.
	r.advanceTo(42*time.Second + 50*time.Millisecond)
	r.requireState(t, ThreeMinutes)
	r.requirePattern(t, [3]bool{true, true, true})

	r.advanceTo(102*time.Second + 50*time.Millisecond)
	r.requireState(t, TwoMinutes)
	r.requirePattern(t, [3]bool{false, true, true})

	r.advanceTo(162*time.Second + 50*time.Millisecond)
	r.requireState(t, OneMinute)
	r.requirePattern(t, [3]bool{false, false, true})

	r.advanceTo(222*time.Second + 50*time.Millisecond)
	r.requireState(t, Start)
	r.requirePattern(t, [3]bool{false, false, false})

	// Terminal: ownership is cleared, the start pulse is still sounding.
	_, active = r.controller.Snapshot()
	require.False(t, active)
	require.True(t, r.horn.Asserted())

	r.advanceTo(225 * time.Second)
	require.Eventually(t, func() bool {
		return !r.horn.Asserted()
	}, eventuallyTimeout, eventuallyTick)
}

// TestController_ArmWhileRunningIsNoop asserts repeated start presses
// never restart or re-arm an active countdown.
func TestController_ArmWhileRunningIsNoop(t *testing.T) {
	t.Parallel()

	r := newRig(t)
	ctx := context.Background()

	require.True(t, r.controller.Arm(ctx, 1))
	r.requireState(t, Warmup)

	require.False(t, r.controller.Arm(ctx, 2))
	require.False(t, r.controller.Arm(ctx, 3))

	state, active := r.controller.Snapshot()
	require.Equal(t, Warmup, state)
	require.True(t, active)
}

// TestController_DisarmStopsTheCountdown asserts Disarm hands out the
// pending handle, cancellation revokes the next step, and nothing moves
// afterwards.
func TestController_DisarmStopsTheCountdown(t *testing.T) {
	t.Parallel()

	r := newRig(t)
	ctx := context.Background()

	require.True(t, r.controller.Arm(ctx, 7))

	// The warm-up pulse marks the step as having run; once the slot is
	// armed again it holds the handle of the three-minute step.
	require.Eventually(t, func() bool {
		return r.horn.Asserted()
	}, eventuallyTimeout, eventuallyTick)
	require.Eventually(t, func() bool {
		_, active := r.controller.Snapshot()

		return active
	}, eventuallyTimeout, eventuallyTick)

	handle, wasArmed := r.controller.Disarm(ctx)
	require.True(t, wasArmed)
	require.NoError(t, r.scheduler.Cancel(handle))

	_, active := r.controller.Snapshot()
	require.False(t, active)

	// Far past every would-be signal: the sequence must not have moved.
	r.advanceTo(10 * time.Minute)
	state, _ := r.controller.Snapshot()
	require.Equal(t, Warmup, state)
	require.Empty(t, r.lights[0].Writes())
}

// TestController_DisarmWhenIdle reports no active countdown.
func TestController_DisarmWhenIdle(t *testing.T) {
	t.Parallel()

	r := newRig(t)

	handle, wasArmed := r.controller.Disarm(context.Background())
	require.False(t, wasArmed)
	require.True(t, handle.Zero())
}

// TestController_StaleStepAbandonsItself asserts a step dequeued before
// the stop bumped the generation performs no actions and does not re-arm.
func TestController_StaleStepAbandonsItself(t *testing.T) {
	t.Parallel()

	r := newRig(t)
	ctx := context.Background()

	r.controller.generation = 2

	// A step carrying the fenced-off generation fires late.
	r.controller.runStep(ctx, r.mock.Now(), 1, ThreeMinutes, 7)

	require.Empty(t, r.horn.Writes())
	require.Empty(t, r.lights[0].Writes())

	_, active := r.controller.Snapshot()
	require.False(t, active)
}

// TestController_CanRearmAfterTerminal asserts a finished sequence can be started again.
func TestController_CanRearmAfterTerminal(t *testing.T) {
	t.Parallel()

	r := newRig(t)
	ctx := context.Background()

	require.True(t, r.controller.Arm(ctx, 7))
	r.advanceTo(223 * time.Second)
	r.requireState(t, Start)

	require.Eventually(t, func() bool {
		_, active := r.controller.Snapshot()

		return !active
	}, eventuallyTimeout, eventuallyTick)

	require.True(t, r.controller.Arm(ctx, 8))
	r.requireState(t, Warmup)
}

// TestWarmupDraw_PureFunctionOfSeed asserts determinism, range, and
// whole-second granularity of the default drawer.
func TestWarmupDraw_PureFunctionOfSeed(t *testing.T) {
	t.Parallel()

	draw := NewWarmupDraw(20*time.Second, 90*time.Second)
	seen := make(map[time.Duration]struct{})

	for seed := uint64(0); seed < 200; seed++ {
		first := draw(seed)
		second := draw(seed)

		require.Equal(t, first, second, "seed %d", seed)
		require.GreaterOrEqual(t, first, 20*time.Second)
		require.Less(t, first, 90*time.Second)
		require.Zero(t, first%time.Second)

		seen[first] = struct{}{}
	}

	// Different seeds must actually vary the period.
	require.Greater(t, len(seen), 1)
}

// TestWarmupDraw_DegenerateRange asserts a zero-width range returns the lower bound.
func TestWarmupDraw_DegenerateRange(t *testing.T) {
	t.Parallel()

	draw := NewWarmupDraw(30*time.Second, 30*time.Second)
	require.Equal(t, 30*time.Second, draw(12))
}

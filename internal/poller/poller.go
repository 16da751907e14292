package poller

import (
	"context"
	"time"

	"github.com/oshokin/regatta-timer/internal/actuator"
	"github.com/oshokin/regatta-timer/internal/hal"
	"github.com/oshokin/regatta-timer/internal/logger"
	"github.com/oshokin/regatta-timer/internal/sched"
	"github.com/oshokin/regatta-timer/internal/sequence"
)

// AckPulse describes the corrective horn pulse acknowledging a stop.
type AckPulse struct {
	// Delay is the settle pause before the pulse starts.
	Delay time.Duration
	// Beep is the horn-on time of each pulse.
	Beep time.Duration
	// Repetitions is the number of pulses.
	Repetitions int
}

// Poller samples the start and stop buttons on a fixed period and drives
// the sequence controller. It runs at the poll priority tier, so a tick
// is dispatched ahead of countdown work due at the same instant.
type Poller struct {
	sched  *sched.Scheduler
	seq    *sequence.Controller
	acts   *actuator.Coordinator
	start  hal.InputLine
	stop   hal.InputLine
	period time.Duration
	ack    AckPulse

	// count advances every tick and seeds the warm-up draw. It wraps
	// rather than overflows. Touched only on the dispatch goroutine.
	count uint64
}

// New returns a poller over the given button lines.
func New(
	s *sched.Scheduler,
	seq *sequence.Controller,
	acts *actuator.Coordinator,
	start, stop hal.InputLine,
	period time.Duration,
	ack AckPulse,
) *Poller {
	return &Poller{
		sched:  s,
		seq:    seq,
		acts:   acts,
		start:  start,
		stop:   stop,
		period: period,
		ack:    ack,
	}
}

// Start arms the first poll tick. Failing to arm it is fatal: without the
// poller the controller is deaf.
func (p *Poller) Start(ctx context.Context) error {
	_, err := p.sched.ScheduleAt(p.sched.Now(), sched.PriorityPoll, "poll-buttons", p.tick)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Button poller started", "period", p.period)

	return nil
}

// tick samples both buttons once and re-arms itself unconditionally.
// Stop takes precedence over start when both appear asserted.
func (p *Poller) tick(ctx context.Context, fired time.Time) {
	p.count++

	switch {
	case p.stop.IsAsserted():
		p.handleStop(ctx)
	case p.start.IsAsserted():
		if p.seq.Arm(ctx, p.count) {
			logger.InfoKV(ctx, "Start accepted", "tick", p.count)
		}
	}

	// The poll loop never terminates: the scheduler keeps a slot
	// reserved for the poll tier, so re-arming cannot run out of room.
	_, err := p.sched.ScheduleAt(fired.Add(p.period), sched.PriorityPoll, "poll-buttons", p.tick)
	if err != nil {
		logger.ErrorKV(ctx, "Poll tick could not re-arm", "error", err)
	}
}

// handleStop tears down an active countdown: take the handle, reset the
// actuators, then attempt cancellation. Losing the cancel race is fine;
// the in-flight step is fenced by the controller and the reset already
// put the outputs at idle.
func (p *Poller) handleStop(ctx context.Context) {
	handle, wasArmed := p.seq.Disarm(ctx)
	if !wasArmed {
		return
	}

	ctx = logger.WithKV(ctx, "tick", p.count)
	logger.Info(ctx, "Stop accepted")

	p.acts.ResetAll(ctx)

	if err := p.sched.Cancel(handle); err != nil {
		logger.WarnKV(ctx, "Countdown step outran cancellation", "error", err)
	}

	// Acknowledge the stop with a short double pulse.
	_, err := p.sched.ScheduleAfter(
		p.ack.Delay,
		sched.PrioritySequence,
		"stop-ack",
		func(ctx context.Context, _ time.Time) {
			p.acts.BeepHorn(ctx, p.ack.Beep, p.ack.Repetitions)
		},
	)
	if err != nil {
		logger.WarnKV(ctx, "Dropped stop acknowledgment pulse", "error", err)
	}
}

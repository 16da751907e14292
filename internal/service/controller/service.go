package controller

import (
	"context"

	"github.com/benbjohnson/clock"

	"github.com/oshokin/regatta-timer/internal/actuator"
	"github.com/oshokin/regatta-timer/internal/config"
	"github.com/oshokin/regatta-timer/internal/hal"
	"github.com/oshokin/regatta-timer/internal/logger"
	"github.com/oshokin/regatta-timer/internal/poller"
	"github.com/oshokin/regatta-timer/internal/sched"
	"github.com/oshokin/regatta-timer/internal/sequence"
)

// lineSet groups the six lines of the horn box.
type lineSet struct {
	horn   hal.OutputLine
	light1 hal.OutputLine
	light2 hal.OutputLine
	light3 hal.OutputLine
	start  hal.InputLine
	stop   hal.InputLine
}

// service wires the dispatcher, the actuator coordinator, the countdown
// controller and the button poller together. It is unexported to keep
// the CLI decoupled from the composition.
type service struct {
	scheduler   *sched.Scheduler
	coordinator *actuator.Coordinator
	controller  *sequence.Controller
	buttons     *poller.Poller
}

// newService composes the control loop from a profile and a set of lines.
func newService(cfg *config.Config, clk clock.Clock, lines *lineSet) *service {
	scheduler := sched.New(clk)

	coordinator := actuator.New(
		scheduler,
		lines.horn,
		lines.light1,
		lines.light2,
		lines.light3,
		cfg.SettleDelay,
		cfg.HornGap,
	)

	timings := sequence.Timings{
		WarmupMin:        cfg.WarmupMin,
		WarmupMax:        cfg.WarmupMax,
		MinuteGap:        cfg.MinuteGap,
		HornWarmup:       cfg.Horn.Warmup,
		HornThreeMinutes: cfg.Horn.ThreeMinutes,
		HornTwoMinutes:   cfg.Horn.TwoMinutes,
		HornOneMinute:    cfg.Horn.OneMinute,
		HornStart:        cfg.Horn.Start,
	}
	controller := sequence.New(scheduler, coordinator, timings, nil)

	buttons := poller.New(
		scheduler,
		controller,
		coordinator,
		lines.start,
		lines.stop,
		cfg.PollPeriod,
		poller.AckPulse{
			Delay:       cfg.StopAckDelay,
			Beep:        cfg.StopAckBeep,
			Repetitions: cfg.StopAckRepetitions,
		},
	)

	return &service{
		scheduler:   scheduler,
		coordinator: coordinator,
		controller:  controller,
		buttons:     buttons,
	}
}

// run brings the outputs to a known idle level, starts the poll loop and
// dispatches until the context is cancelled. The outputs are never left
// driven on the way out.
func (s *service) run(ctx context.Context) error {
	s.coordinator.ResetAll(ctx)

	if err := s.buttons.Start(ctx); err != nil {
		return err
	}

	s.scheduler.Run(ctx)

	if handle, wasArmed := s.controller.Disarm(ctx); wasArmed {
		_ = s.scheduler.Cancel(handle)
	}

	s.coordinator.ResetAll(ctx)

	logger.Info(ctx, "Controller shut down")

	return nil
}

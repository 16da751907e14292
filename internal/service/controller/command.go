package controller

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/benbjohnson/clock"

	"github.com/oshokin/regatta-timer/internal/config"
	"github.com/oshokin/regatta-timer/internal/hal"
	"github.com/oshokin/regatta-timer/internal/logger"
)

// Options controls the regatta-timer process.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Simulate runs against in-memory lines instead of GPIO hardware.
	Simulate bool
	// LogLevel overrides the profile's diagnostic level when non-empty.
	LogLevel string
}

// Run starts the control loop and blocks until the context is cancelled.
// On the way out it disarms any active countdown and forces every output
// back to its idle level.
func Run(ctx context.Context, opts *Options) error {
	cfg, err := loadProfile(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}

	if opts.LogLevel != "" {
		level, ok := logger.ParseLogLevel(opts.LogLevel)
		if !ok {
			return fmt.Errorf("unknown log level %q", opts.LogLevel)
		}

		// The flag outranks the profile for this run only; the shared
		// default level stays on the profile value.
		logger.SetLogger(logger.Logger().WithOptions(logger.WithLevel(level)))
	}

	ctx = logger.WithName(ctx, "regatta-timer")

	lines, closeLines, err := openLines(ctx, cfg, opts.Simulate)
	if err != nil {
		return err
	}
	defer closeLines()

	svc := newService(cfg, clock.New(), lines)

	return svc.run(ctx)
}

// loadProfile reads the YAML profile, falling back to the compiled-in
// defaults when no file exists at the default location.
func loadProfile(ctx context.Context, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}

	if path == "" && errors.Is(err, fs.ErrNotExist) {
		logger.Info(ctx, "No settings file found, using compiled-in profile")

		return config.Default(), nil
	}

	return nil, fmt.Errorf("load profile: %w", err)
}

// openLines builds the six lines of the horn box, either over real GPIO
// pins or as in-memory simulations.
func openLines(ctx context.Context, cfg *config.Config, simulate bool) (*lineSet, func(), error) {
	if simulate {
		logger.Info(ctx, "Running in simulation mode, outputs are in-memory")

		return &lineSet{
			horn:   hal.NewMemoryOutput(),
			light1: hal.NewMemoryOutput(),
			light2: hal.NewMemoryOutput(),
			light3: hal.NewMemoryOutput(),
			start:  hal.NewMemoryInput(),
			stop:   hal.NewMemoryInput(),
		}, func() {}, nil
	}

	chip, err := hal.OpenChip()
	if err != nil {
		return nil, nil, fmt.Errorf("open lines: %w", err)
	}

	closeChip := func() {
		if closeErr := chip.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Could not close GPIO", "error", closeErr)
		}
	}

	return &lineSet{
		horn:   chip.Output(cfg.Pins.Horn, cfg.OutputsActiveLow),
		light1: chip.Output(cfg.Pins.Light1, cfg.OutputsActiveLow),
		light2: chip.Output(cfg.Pins.Light2, cfg.OutputsActiveLow),
		light3: chip.Output(cfg.Pins.Light3, cfg.OutputsActiveLow),
		start:  chip.Input(cfg.Pins.StartButton, cfg.InputsActiveLow),
		stop:   chip.Input(cfg.Pins.StopButton, cfg.InputsActiveLow),
	}, closeChip, nil
}

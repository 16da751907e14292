package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// HornProfile holds the horn-on durations for each countdown step.
type HornProfile struct {
	// Warmup is the horn-on time when the warm-up step fires.
	Warmup time.Duration `yaml:"warmup"`
	// ThreeMinutes is the horn-on time at the three-minute signal.
	ThreeMinutes time.Duration `yaml:"three_minutes"`
	// TwoMinutes is the horn-on time at the two-minute signal.
	TwoMinutes time.Duration `yaml:"two_minutes"`
	// OneMinute is the horn-on time at the one-minute signal.
	OneMinute time.Duration `yaml:"one_minute"`
	// Start is the horn-on time at the start signal.
	Start time.Duration `yaml:"start"`
}

// Pins holds the BCM pin assignments for every line the controller drives or samples.
type Pins struct {
	// Horn is the output pin driving the horn relay.
	Horn int `yaml:"horn"`
	// Light1 is the output pin for the first indicator light.
	Light1 int `yaml:"light1"`
	// Light2 is the output pin for the second indicator light.
	Light2 int `yaml:"light2"`
	// Light3 is the output pin for the third indicator light.
	Light3 int `yaml:"light3"`
	// StartButton is the input pin for the start button.
	StartButton int `yaml:"start_button"`
	// StopButton is the input pin for the stop button.
	StopButton int `yaml:"stop_button"`
}

// Config is the compiled-in behavior profile of the start-sequence
// controller, optionally overridden from a YAML file. Timing constants
// and pin polarity vary between horn boxes, so they live here rather
// than in the core packages.
type Config struct {
	// PollPeriod is the button sampling period.
	PollPeriod time.Duration `yaml:"poll_period"`
	// SettleDelay separates successive light writes to avoid a current surge.
	SettleDelay time.Duration `yaml:"settle_delay"`
	// HornGap separates repeated horn pulses.
	HornGap time.Duration `yaml:"horn_gap"`
	// WarmupMin is the inclusive lower bound of the drawn warm-up period.
	WarmupMin time.Duration `yaml:"warmup_min"`
	// WarmupMax is the exclusive upper bound of the drawn warm-up period.
	WarmupMax time.Duration `yaml:"warmup_max"`
	// MinuteGap is the delay between the minute signals.
	MinuteGap time.Duration `yaml:"minute_gap"`
	// Horn holds per-step horn durations.
	Horn HornProfile `yaml:"horn"`
	// StopAckDelay is the pause before the stop acknowledgment pulse.
	StopAckDelay time.Duration `yaml:"stop_ack_delay"`
	// StopAckBeep is the horn-on time of each stop acknowledgment pulse.
	StopAckBeep time.Duration `yaml:"stop_ack_beep"`
	// StopAckRepetitions is how many acknowledgment pulses are sounded.
	StopAckRepetitions int `yaml:"stop_ack_repetitions"`
	// Pins holds the BCM pin assignments.
	Pins Pins `yaml:"pins"`
	// OutputsActiveLow inverts the electrical level of all output lines.
	OutputsActiveLow bool `yaml:"outputs_active_low"`
	// InputsActiveLow inverts the electrical level of both button lines.
	InputsActiveLow bool `yaml:"inputs_active_low"`
	// LogLevel is the minimum diagnostic level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultConfigFilename is the default filename for the behavior profile.
	DefaultConfigFilename = "regatta-timer-settings.yaml"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errWarmupRange is returned when the warm-up bounds are not an ascending range.
	errWarmupRange = errors.New("warmup_min must be less than warmup_max")
	// errPinsDistinct is returned when two lines share a pin.
	errPinsDistinct = errors.New("pin assignments must be distinct")
)

// Default returns the compiled-in profile matching the stock horn box wiring.
func Default() *Config {
	return &Config{
		PollPeriod:  50 * time.Millisecond,
		SettleDelay: 2 * time.Millisecond,
		HornGap:     50 * time.Millisecond,
		WarmupMin:   20 * time.Second,
		WarmupMax:   90 * time.Second,
		MinuteGap:   time.Minute,
		Horn: HornProfile{
			Warmup:       800 * time.Millisecond,
			ThreeMinutes: 1200 * time.Millisecond,
			TwoMinutes:   400 * time.Millisecond,
			OneMinute:    400 * time.Millisecond,
			Start:        2 * time.Second,
		},
		StopAckDelay:       100 * time.Millisecond,
		StopAckBeep:        300 * time.Millisecond,
		StopAckRepetitions: 2,
		Pins: Pins{
			Horn:        18,
			Light1:      22,
			Light2:      21,
			Light3:      19,
			StartButton: 25,
			StopButton:  26,
		},
		LogLevel: "info",
	}
}

// Load reads the profile from the provided path and validates it.
// Missing fields fall back to the compiled-in defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the profile to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the profile for usable timing ranges and pin wiring,
// normalizing non-positive durations back to defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	defaults := Default()

	if cfg.PollPeriod <= 0 {
		cfg.PollPeriod = defaults.PollPeriod
	}

	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = defaults.SettleDelay
	}

	if cfg.HornGap <= 0 {
		cfg.HornGap = defaults.HornGap
	}

	if cfg.MinuteGap <= 0 {
		cfg.MinuteGap = defaults.MinuteGap
	}

	if cfg.WarmupMin <= 0 {
		cfg.WarmupMin = defaults.WarmupMin
	}

	if cfg.WarmupMax <= 0 {
		cfg.WarmupMax = defaults.WarmupMax
	}

	if cfg.WarmupMin >= cfg.WarmupMax {
		return errWarmupRange
	}

	if cfg.StopAckRepetitions <= 0 {
		cfg.StopAckRepetitions = defaults.StopAckRepetitions
	}

	return validatePins(&cfg.Pins)
}

// validatePins rejects profiles where two lines share a pin number.
func validatePins(pins *Pins) error {
	assigned := make(map[int]struct{}, 6)

	for _, pin := range []int{
		pins.Horn,
		pins.Light1,
		pins.Light2,
		pins.Light3,
		pins.StartButton,
		pins.StopButton,
	} {
		if pin < 0 {
			return fmt.Errorf("invalid pin %d: %w", pin, errPinsDistinct)
		}

		if _, dup := assigned[pin]; dup {
			return fmt.Errorf("pin %d assigned twice: %w", pin, errPinsDistinct)
		}

		assigned[pin] = struct{}{}
	}

	return nil
}

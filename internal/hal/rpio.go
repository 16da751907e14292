package hal

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// Chip owns the memory-mapped GPIO range. Exactly one Chip should be
// open per process; Close releases the mapping.
type Chip struct{}

// OpenChip maps the GPIO registers.
func OpenChip() (*Chip, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}

	return &Chip{}, nil
}

// Close unmaps the GPIO registers.
func (c *Chip) Close() error {
	if err := rpio.Close(); err != nil {
		return fmt.Errorf("close gpio: %w", err)
	}

	return nil
}

// rpioInput samples a physical pin with a pull-down, active level chosen by polarity.
type rpioInput struct {
	pin       rpio.Pin
	activeLow bool
}

// Input configures the given BCM pin as a pulled-down input line.
func (c *Chip) Input(bcm int, activeLow bool) InputLine {
	pin := rpio.Pin(bcm)
	pin.Input()
	pin.PullDown()

	return &rpioInput{pin: pin, activeLow: activeLow}
}

// IsAsserted samples the pin once.
func (i *rpioInput) IsAsserted() bool {
	high := i.pin.Read() == rpio.High
	if i.activeLow {
		return !high
	}

	return high
}

// rpioOutput drives a physical push-pull pin, active level chosen by polarity.
type rpioOutput struct {
	pin       rpio.Pin
	activeLow bool
}

// Output configures the given BCM pin as an output line at its idle level.
func (c *Chip) Output(bcm int, activeLow bool) OutputLine {
	pin := rpio.Pin(bcm)
	pin.Output()

	out := &rpioOutput{pin: pin, activeLow: activeLow}
	out.Deassert()

	return out
}

// Assert drives the pin to its active level.
func (o *rpioOutput) Assert() {
	if o.activeLow {
		o.pin.Low()

		return
	}

	o.pin.High()
}

// Deassert drives the pin to its idle level.
func (o *rpioOutput) Deassert() {
	if o.activeLow {
		o.pin.High()

		return
	}

	o.pin.Low()
}

// Package hal provides the digital line capabilities consumed by the
// controller core: sampled inputs and assert/deassert outputs.
//
// Two backends exist: memory-mapped GPIO pins via go-rpio for the real
// horn box, and in-memory lines for tests and the --simulate mode.
// Polarity (active-high vs. active-low) is mapped once at construction.
package hal

package hal

// InputLine is the sampled digital-input capability. Implementations
// translate the electrical level to the logical "asserted" reading, so
// wiring polarity never leaks into the control logic.
type InputLine interface {
	// IsAsserted samples the line once and reports whether it is active.
	IsAsserted() bool
}

// OutputLine is the digital-output capability. Assert drives the line to
// its active level, Deassert to its idle level; the mapping to an
// electrical high or low is fixed once at construction.
type OutputLine interface {
	Assert()
	Deassert()
}

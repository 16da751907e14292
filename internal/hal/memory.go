package hal

import "sync"

// MemoryInput is an in-memory input line for simulation and tests.
// Set flips the sampled value from any goroutine.
type MemoryInput struct {
	mu       sync.Mutex
	asserted bool
}

// NewMemoryInput returns a deasserted in-memory input line.
func NewMemoryInput() *MemoryInput {
	return &MemoryInput{}
}

// Set drives the simulated line level.
func (m *MemoryInput) Set(asserted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.asserted = asserted
}

// IsAsserted samples the simulated line.
func (m *MemoryInput) IsAsserted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.asserted
}

// MemoryOutput is an in-memory output line for simulation and tests.
// It records every write so tests can assert on waveforms.
type MemoryOutput struct {
	mu       sync.Mutex
	asserted bool
	writes   []bool
}

// NewMemoryOutput returns a deasserted in-memory output line.
func NewMemoryOutput() *MemoryOutput {
	return &MemoryOutput{}
}

// Assert drives the simulated line active.
func (m *MemoryOutput) Assert() {
	m.record(true)
}

// Deassert drives the simulated line idle.
func (m *MemoryOutput) Deassert() {
	m.record(false)
}

// Asserted reports the current simulated level.
func (m *MemoryOutput) Asserted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.asserted
}

// Writes returns a copy of every level written to the line, in order.
func (m *MemoryOutput) Writes() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]bool(nil), m.writes...)
}

// record appends one write and updates the level.
func (m *MemoryOutput) record(level bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.asserted = level
	m.writes = append(m.writes, level)
}

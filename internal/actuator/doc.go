// Package actuator serializes every write to the horn and indicator
// lights behind one coordinator, and composes the horn pulse and light
// pattern waveforms out of deferred scheduler continuations.
package actuator

// Package sequence implements the countdown state machine:
// warmup → three minutes → two minutes → one minute → start.
//
// Each step sounds a horn pulse, sets a light pattern, and schedules the
// next step relative to its own instant. At most one countdown is armed
// at a time; the single ownership slot and its generation counter make
// stop requests win against steps already in flight.
package sequence

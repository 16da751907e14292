package sequence

// State is the countdown position. States are ordered by progression;
// Start is terminal and requires a new arm to run again.
type State uint8

const (
	// Warmup is the randomized attention period before the timed countdown.
	Warmup State = iota
	// ThreeMinutes is the three-minute signal.
	ThreeMinutes
	// TwoMinutes is the two-minute signal.
	TwoMinutes
	// OneMinute is the one-minute signal.
	OneMinute
	// Start is the terminal start signal.
	Start
)

// String renders the state for trace lines.
func (s State) String() string {
	switch s {
	case Warmup:
		return "warmup"
	case ThreeMinutes:
		return "three-minutes"
	case TwoMinutes:
		return "two-minutes"
	case OneMinute:
		return "one-minute"
	case Start:
		return "start"
	default:
		return "unknown"
	}
}

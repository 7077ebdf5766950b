package types

// SignalValue is the per-day discrete output of a signal generator.
type SignalValue int

const (
	// SignalExit tells the simulator to leave a position
	SignalExit SignalValue = -1
	// SignalHold is the neutral output
	SignalHold SignalValue = 0
	// SignalEnter tells the simulator to open a position
	SignalEnter SignalValue = 1
)

// PositionState is the two-state machine a signal generator threads
// through its scan. There are no short positions.
type PositionState int

const (
	// PositionFlat means no position is held
	PositionFlat PositionState = 0
	// PositionLong means a long position is held
	PositionLong PositionState = 1
)

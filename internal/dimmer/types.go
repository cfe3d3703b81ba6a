// Package dimmer implements zero-cross synchronized AC phase control for a
// four-channel triac dimmer board.
// This package has NO external dependencies (no GPIO, MQTT, OS timers).
// Hardware access goes through the GateDriver and FireTimer capabilities,
// and the clock is always injectable.
package dimmer

// NumChannels is the number of physical triac outputs, fixed at compile time.
const NumChannels = 4

// MaxLevel is the highest discretized brightness level.
const MaxLevel = 9

// Timing constants, all in microseconds unless noted.
const (
	// HalfCycleUS is the interval between zero-cross edges for 50Hz mains.
	HalfCycleUS = 10000

	// MinDelayUS is the minimum safe delay from zero-cross to firing.
	MinDelayUS = 100

	// maxDelayUS is the latest useful firing point inside a half-cycle.
	maxDelayUS = 8500

	// offDelayUS lies beyond the half-cycle, so the channel never fires.
	offDelayUS = HalfCycleUS + 2000

	// GatePulseUS is how long the triac gate is held high.
	GatePulseUS = 500

	// debounceUS rejects zero-cross edges arriving faster than physically
	// possible (noise spikes, double-triggers from the sensor pulse width).
	// Real edges are ~10ms apart for 50Hz, so 3ms is safe.
	debounceUS = 3000

	// lossTimeoutUS is how long without an accepted edge before the signal
	// is declared lost and outputs are forced off.
	lossTimeoutUS = 100000

	// fireToleranceUS groups channels whose delays are this close into one
	// synchronized gate pulse.
	fireToleranceUS = 10
)

// Frame is one candidate output for all channels on the raw 0-255 scale.
type Frame [NumChannels]uint8

// FrameFromSlice builds a Frame from an arbitrary-length value list.
// Missing values are zero-filled, extra values are ignored.
func FrameFromSlice(values []uint8) Frame {
	var f Frame
	copy(f[:], values)
	return f
}

// channel holds per-output state. Level and delay are always written
// together; fired is reset on every accepted zero-cross edge.
type channel struct {
	level   int
	delayUS int64
	fired   bool
}

// GateDriver drives the triac gate outputs. Implementations must be safe to
// call from the timer-fire path; I/O errors are handled internally and
// surfaced only as diagnostics.
type GateDriver interface {
	// Assert drives the given gate high.
	Assert(ch int)

	// ClearAll drives every gate low.
	ClearAll()
}

// Package gpio provides the triac gate outputs and the zero-cross edge
// input with hardware abstraction. The real implementation uses the Linux
// GPIO character device; the fakes allow testing without hardware.
package gpio

// Bank drives the triac gate output lines. Assert and ClearAll sit on the
// firing hot path, so I/O errors are counted rather than returned; Errors
// exposes the running count for diagnostics.
type Bank interface {
	// Assert drives one gate line high.
	Assert(ch int)

	// ClearAll drives every gate line low.
	ClearAll()

	// Errors returns how many line writes have failed.
	Errors() uint64

	// Close drops all lines low and releases GPIO resources.
	Close() error
}

// EdgeSource delivers zero-cross edges to the handler it was constructed
// with. Closing stops delivery and releases the line.
type EdgeSource interface {
	Close() error
}

// DefaultChannelPins are the gate output pins (BCM numbering).
var DefaultChannelPins = []int{5, 6, 13, 19}

// DefaultZeroCrossPin is the BCM pin wired to the zero-cross detector.
const DefaultZeroCrossPin = 17

// DefaultChip is the GPIO character device name on a Raspberry Pi.
const DefaultChip = "gpiochip0"

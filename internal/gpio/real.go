//go:build linux

package gpio

import (
	"fmt"
	"sync/atomic"

	"github.com/warthog618/go-gpiocdev"
)

// RealBank drives actual gate lines through the Linux GPIO character
// device.
type RealBank struct {
	chip   *gpiocdev.Chip
	lines  []*gpiocdev.Line
	errCnt atomic.Uint64
}

// NewRealBank opens the chip and requests the given pins as outputs,
// driven low.
func NewRealBank(chipName string, pins []int) (*RealBank, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %q: %w", chipName, err)
	}

	b := &RealBank{chip: chip}
	for _, pin := range pins {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request gate pin %d: %w", pin, err)
		}
		b.lines = append(b.lines, line)
	}
	return b, nil
}

// Assert drives one gate high. Write failures are counted, not returned:
// this runs on the firing hot path and a transient failure must not stall
// the pulse for the other channels.
func (b *RealBank) Assert(ch int) {
	if ch < 0 || ch >= len(b.lines) {
		return
	}
	if err := b.lines[ch].SetValue(1); err != nil {
		b.errCnt.Add(1)
	}
}

// ClearAll drives every gate low.
func (b *RealBank) ClearAll() {
	for _, line := range b.lines {
		if err := line.SetValue(0); err != nil {
			b.errCnt.Add(1)
		}
	}
}

// Errors returns the number of failed line writes.
func (b *RealBank) Errors() uint64 {
	return b.errCnt.Load()
}

// Close drives all gates low and releases GPIO resources. Gates are left
// as inputs with pull-down, matching Pi boot defaults, so the triacs stay
// off across a restart.
func (b *RealBank) Close() error {
	var errs []error
	for i, line := range b.lines {
		if line == nil {
			continue
		}
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear gate %d: %w", i, err))
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure gate %d: %w", i, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close gate %d: %w", i, err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealEdgeSource watches the zero-cross input for falling edges and calls
// the handler from the event goroutine.
type RealEdgeSource struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealEdgeSource requests the zero-cross pin with a pull-up, matching
// the open-collector detector output, and subscribes to falling edges.
func NewRealEdgeSource(chipName string, pin int, handler func()) (*RealEdgeSource, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %q: %w", chipName, err)
	}

	line, err := chip.RequestLine(pin,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) {
			handler()
		}))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request zero-cross pin %d: %w", pin, err)
	}

	return &RealEdgeSource{chip: chip, line: line}, nil
}

// Close stops edge delivery and releases GPIO resources.
func (s *RealEdgeSource) Close() error {
	var errs []error
	if s.line != nil {
		if err := s.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close zero-cross line: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

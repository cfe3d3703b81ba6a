// Package mode reconciles the three candidate brightness sources — static,
// planned, and fast — into one authoritative output pushed into the
// phase-control engine, with timeout-based fallback when the fast channel
// goes silent.
package mode

import (
	"sync"

	"github.com/sweeney/triac-dimmer/internal/dimmer"
)

// Mode identifies the active brightness source.
type Mode string

const (
	Static  Mode = "STATIC"
	Planned Mode = "PLANNED"
	Fast    Mode = "FAST"
)

// DefaultFastTimeoutMS is how long the arbiter stays in Fast mode without
// a fresh fast frame before falling back.
const DefaultFastTimeoutMS = 3000

// Sink receives discretized brightness levels. *dimmer.Engine satisfies it.
type Sink interface {
	SetChannelBrightness(ch, level int)
}

// Arbiter holds the candidate frames, the active mode, and the fast-input
// staleness deadline. Only Fast mode times out; Static and Planned persist
// until displaced.
//
// Safe for concurrent use: frames arrive from the broker and datagram
// goroutines while Update runs on the driver tick.
type Arbiter struct {
	mu            sync.Mutex
	sink          Sink
	fastTimeoutMS int64

	mode    Mode
	static  dimmer.Frame
	planned dimmer.Frame
	fast    dimmer.Frame
	current dimmer.Frame

	hasStatic  bool
	hasPlanned bool
	lastFastMS int64

	lastApplied [dimmer.NumChannels]int
}

// NewArbiter creates an arbiter in Static mode with all channels off.
// Non-positive fastTimeoutMS selects DefaultFastTimeoutMS.
func NewArbiter(sink Sink, fastTimeoutMS int64) *Arbiter {
	if fastTimeoutMS <= 0 {
		fastTimeoutMS = DefaultFastTimeoutMS
	}
	a := &Arbiter{
		sink:          sink,
		fastTimeoutMS: fastTimeoutMS,
		mode:          Static,
	}
	// Force the first application through, whatever the first frame is.
	for i := range a.lastApplied {
		a.lastApplied[i] = -1
	}
	return a
}

// levelForRaw maps the raw 0-255 external scale onto the engine's discrete
// 0-9 levels.
func levelForRaw(v uint8) int {
	return int(v) * dimmer.MaxLevel / 255
}

// applyLocked pushes the current frame into the sink, one call per channel
// whose mapped level actually changed. Re-applying identical values is a
// no-op so the engine's interrupt-shared state is not churned needlessly.
func (a *Arbiter) applyLocked() {
	for i, raw := range a.current {
		level := levelForRaw(raw)
		if level == a.lastApplied[i] {
			continue
		}
		a.lastApplied[i] = level
		a.sink.SetChannelBrightness(i, level)
	}
}

// SetStatic stores the static candidate, switches to Static mode and
// applies it immediately, regardless of the current mode. Empty value
// lists are dropped.
func (a *Arbiter) SetStatic(values []uint8, nowMS int64) {
	if len(values) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.static = dimmer.FrameFromSlice(values)
	a.hasStatic = true
	a.mode = Static
	a.current = a.static
	a.applyLocked()
}

// SetPlanned stores the planned candidate. It is pushed to the output only
// while the arbiter is already in Planned mode; entering Planned happens
// via ForceMode or fallback, never by merely receiving planned data.
func (a *Arbiter) SetPlanned(values []uint8, nowMS int64) {
	if len(values) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.planned = dimmer.FrameFromSlice(values)
	a.hasPlanned = true
	if a.mode == Planned {
		a.current = a.planned
		a.applyLocked()
	}
}

// SetFast stores the fast candidate, switches to Fast mode unconditionally,
// applies the frame immediately and refreshes the staleness deadline.
func (a *Arbiter) SetFast(values []uint8, nowMS int64) {
	if len(values) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.fast = dimmer.FrameFromSlice(values)
	a.lastFastMS = nowMS
	a.mode = Fast
	a.current = a.fast
	a.applyLocked()
}

// Update runs the fast-staleness check, once per driver tick. Only active
// in Fast mode: past the timeout it falls back to the static candidate if
// one was ever set, else the planned candidate if one was ever set, else
// all channels off in Static mode.
func (a *Arbiter) Update(nowMS int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.mode != Fast {
		return
	}
	if nowMS-a.lastFastMS <= a.fastTimeoutMS {
		return
	}

	switch {
	case a.hasStatic:
		a.mode = Static
		a.current = a.static
	case a.hasPlanned:
		a.mode = Planned
		a.current = a.planned
	default:
		a.mode = Static
		a.current = dimmer.Frame{}
	}
	a.applyLocked()
}

// ForceMode switches to the given mode and re-applies its candidate frame.
// Forcing the already-active mode is a no-op.
func (a *Arbiter) ForceMode(m Mode, nowMS int64) bool {
	switch m {
	case Static, Planned, Fast:
	default:
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.mode == m {
		return true
	}
	a.mode = m
	switch m {
	case Static:
		a.current = a.static
	case Planned:
		a.current = a.planned
	case Fast:
		a.current = a.fast
	}
	a.applyLocked()
	return true
}

// Mode returns the active mode.
func (a *Arbiter) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// CurrentFrame returns the frame currently mirrored to the output, on the
// raw 0-255 scale.
func (a *Arbiter) CurrentFrame() dimmer.Frame {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

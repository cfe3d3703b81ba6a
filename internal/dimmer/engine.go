package dimmer

import (
	"sync"
	"time"
)

// Config carries the engine's injectable collaborators. Zero values select
// production defaults: a monotonic microsecond clock and a synchronous
// busy-wait pulse hold.
type Config struct {
	// Now returns microseconds on a monotonic clock.
	Now func() int64

	// Hold blocks for the gate pulse width. It must be synchronous: the
	// outputs have to drop before the next scheduling decision.
	Hold func(time.Duration)
}

// Engine owns the per-channel state and reacts to zero-cross edges and
// timer firings. HandleZeroCross and HandleTimerFire are the two handlers
// driven by hardware events; Update is the foreground safety watchdog.
//
// All shared state lives behind one mutex. Each handler takes its snapshot
// of channel state right after acquiring the lock, so it never observes a
// level paired with a stale delay. A brightness update that races a handler
// takes effect the next half-cycle, never mid-pulse.
type Engine struct {
	mu       sync.Mutex
	channels [NumChannels]channel

	lastZeroCrossUS int64
	lastFireDelayUS int64
	healthy         bool
	shutoff         bool
	timerArmed      bool
	lossCount       uint64

	gates GateDriver
	timer FireTimer
	nowUS func() int64
	hold  func(time.Duration)
}

// NewEngine creates an engine driving the given gates. A nil timer selects
// a SystemTimer bound to HandleTimerFire.
func NewEngine(gates GateDriver, timer FireTimer, cfg Config) *Engine {
	e := &Engine{
		gates:   gates,
		timer:   timer,
		nowUS:   cfg.Now,
		hold:    cfg.Hold,
		healthy: true,
	}
	if e.nowUS == nil {
		start := time.Now()
		e.nowUS = func() int64 { return time.Since(start).Microseconds() }
	}
	if e.hold == nil {
		e.hold = busyHold
	}
	if e.timer == nil {
		e.timer = NewSystemTimer(e.HandleTimerFire)
	}
	e.lastZeroCrossUS = e.nowUS()
	for i := range e.channels {
		e.channels[i].delayUS = offDelayUS
	}
	return e
}

// busyHold spins for the given duration. Intentional: the hold is a fixed,
// very short pulse width and must complete before the handler reschedules.
func busyHold(d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}

// SetBrightness sets every channel to the same level.
func (e *Engine) SetBrightness(level int) {
	for ch := 0; ch < NumChannels; ch++ {
		e.SetChannelBrightness(ch, level)
	}
}

// SetChannelBrightness clamps the level to 0-9 and writes the level and its
// derived firing delay together. It has no effect on the current
// half-cycle's firing; the new delay applies from the next edge.
func (e *Engine) SetChannelBrightness(ch, level int) {
	if ch < 0 || ch >= NumChannels {
		return
	}
	level = clampLevel(level)
	delay := DelayForLevel(level)

	e.mu.Lock()
	e.channels[ch].level = level
	e.channels[ch].delayUS = delay
	e.mu.Unlock()
}

// HandleZeroCross is invoked on every falling edge of the zero-cross input.
// Edges arriving sooner than the debounce interval after the last accepted
// one are ignored. An accepted edge starts a new half-cycle: fired flags
// clear, the elapsed baseline resets, and the next firing is scheduled
// unless an emergency shutoff is latched.
func (e *Engine) HandleZeroCross() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.nowUS()
	if now-e.lastZeroCrossUS < debounceUS {
		return
	}

	// Always record the edge, even while shut off: Update uses this
	// timestamp to detect recovery.
	e.lastZeroCrossUS = now
	e.healthy = true

	for i := range e.channels {
		e.channels[i].fired = false
	}
	e.lastFireDelayUS = 0

	// The shutoff latch is only cleared in Update, in foreground context,
	// so this handler never blocks on recovery bookkeeping.
	if !e.shutoff {
		e.scheduleNextFireLocked()
	}
}

// scheduleNextFireLocked arms the timer for the earliest pending channel,
// or disarms it when every firable channel has fired. Caller holds e.mu.
func (e *Engine) scheduleNextFireLocked() {
	minDelay := int64(offDelayUS)
	found := false
	for i := range e.channels {
		c := e.channels[i]
		if !c.fired && c.delayUS < HalfCycleUS && c.delayUS < minDelay {
			minDelay = c.delayUS
			found = true
		}
	}
	if !found {
		e.timer.Disarm()
		e.timerArmed = false
		return
	}

	// The countdown runs from the previous fire point, not from the edge.
	// lastFireDelayUS advances only in HandleTimerFire, after every channel
	// at that delay has fired, so near-equal channels group into one pulse.
	delta := minDelay - e.lastFireDelayUS
	if delta < fireToleranceUS {
		delta = fireToleranceUS
	}
	e.timer.Arm(time.Duration(delta) * time.Microsecond)
	e.timerArmed = true
}

// HandleTimerFire runs when the countdown elapses. It fires every unfired
// channel whose delay falls within the tolerance window of the minimum
// pending delay, holds the gates high for the pulse width, then drops all
// outputs and reschedules for the remaining channels.
func (e *Engine) HandleTimerFire() {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Snapshot channel state so the whole firing decision sees one
	// consistent view even if a brightness update is racing us.
	var delays [NumChannels]int64
	var fired [NumChannels]bool
	for i := range e.channels {
		delays[i] = e.channels[i].delayUS
		fired[i] = e.channels[i].fired
	}

	target := int64(offDelayUS)
	found := false
	for i := 0; i < NumChannels; i++ {
		if !fired[i] && delays[i] < HalfCycleUS && delays[i] < target {
			target = delays[i]
			found = true
		}
	}
	if !found {
		e.timer.Disarm()
		e.timerArmed = false
		return
	}

	for i := 0; i < NumChannels; i++ {
		if !fired[i] && delays[i] <= target+fireToleranceUS {
			e.gates.Assert(i)
			e.channels[i].fired = true
		}
	}

	e.hold(GatePulseUS * time.Microsecond)
	e.gates.ClearAll()

	// Baseline moves to the delay just fired, after firing, so the next
	// countdown is relative to this pulse.
	e.lastFireDelayUS = target

	e.scheduleNextFireLocked()
}

// Update is the foreground safety watchdog, called once per driver tick.
// Zero-cross silence beyond the timeout forces all outputs off and latches
// the shutoff; a fresh edge observed since then clears the latch so firing
// resumes on the next edge. Loss is a local fail-safe, never an error.
func (e *Engine) Update() {
	e.mu.Lock()
	defer e.mu.Unlock()

	elapsed := e.nowUS() - e.lastZeroCrossUS
	if elapsed > lossTimeoutUS {
		if e.healthy {
			e.healthy = false
			e.shutoff = true
			e.lossCount++
			e.timer.Disarm()
			e.timerArmed = false
			e.gates.ClearAll()
		}
		return
	}
	if !e.healthy || e.shutoff {
		e.healthy = true
		e.shutoff = false
	}
}

// ForceOff drops all outputs and disarms the timer. Used at shutdown.
func (e *Engine) ForceOff() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.timer.Disarm()
	e.timerArmed = false
	e.gates.ClearAll()
}

// ZeroCrossHealthy reports whether the AC reference is currently present.
func (e *Engine) ZeroCrossHealthy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.healthy
}

// ChannelLevel returns the current level of one channel.
func (e *Engine) ChannelLevel(ch int) int {
	if ch < 0 || ch >= NumChannels {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.channels[ch].level
}

// ChannelDelay returns the current firing delay of one channel in
// microseconds.
func (e *Engine) ChannelDelay(ch int) int64 {
	if ch < 0 || ch >= NumChannels {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.channels[ch].delayUS
}

// Levels returns every channel's current level.
func (e *Engine) Levels() [NumChannels]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out [NumChannels]int
	for i := range e.channels {
		out[i] = e.channels[i].level
	}
	return out
}

// LastFireDelay returns the elapsed baseline of the current half-cycle.
func (e *Engine) LastFireDelay() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastFireDelayUS
}

// LossCount returns how many times the zero-cross signal has been lost.
func (e *Engine) LossCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lossCount
}

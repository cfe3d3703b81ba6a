// Package status provides a thread-safe status tracker for the dimmer
// daemon. It is read by the HTTP handlers and the websocket stream.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/triac-dimmer/internal/dimmer"
)

// Config contains daemon configuration for display.
type Config struct {
	TickMS        int64
	FastTimeoutMS int64
	HeartbeatMS   int64
	Broker        string
	BaseTopic     string
	HTTPAddr      string
	UDPPort       int
}

// Counters tracks advisory totals since startup.
type Counters struct {
	FastPackets     uint64
	PlanSteps       uint64
	SignalLosses    uint64
	DroppedMessages uint64
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Mode             string
	Frame            dimmer.Frame
	Levels           [dimmer.NumChannels]int
	ZeroCrossHealthy bool
	MQTTConnected    bool
	Counters         Counters
	StartTime        time.Time
	Now              time.Time
	Config           Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets mode, output frame, mapped levels, signal health and
// counters. Called from the driver loop on every tick.
func (t *Tracker) Update(mode string, frame dimmer.Frame, levels [dimmer.NumChannels]int, healthy bool, counters Counters) {
	t.mu.Lock()
	t.snap.Mode = mode
	t.snap.Frame = frame
	t.snap.Levels = levels
	t.snap.ZeroCrossHealthy = healthy
	t.snap.Counters = counters
	t.mu.Unlock()
}

// SetMQTTConnected sets the broker connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

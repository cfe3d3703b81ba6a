package status

import (
	"testing"
	"time"

	"github.com/sweeney/triac-dimmer/internal/dimmer"
)

func TestTrackerUpdateAndSnapshot(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{TickMS: 10, FastTimeoutMS: 3000, HTTPAddr: ":8080", UDPPort: 5000}
	tr := NewTracker(start, cfg)

	frame := dimmer.Frame{255, 128, 0, 64}
	levels := [dimmer.NumChannels]int{9, 4, 0, 2}
	counters := Counters{FastPackets: 7, SignalLosses: 1}
	tr.Update("FAST", frame, levels, true, counters)
	tr.SetMQTTConnected(true)

	snap := tr.Snapshot()
	if snap.Mode != "FAST" {
		t.Errorf("expected mode FAST, got %s", snap.Mode)
	}
	if snap.Frame != frame {
		t.Errorf("expected frame %v, got %v", frame, snap.Frame)
	}
	if snap.Levels != levels {
		t.Errorf("expected levels %v, got %v", levels, snap.Levels)
	}
	if !snap.ZeroCrossHealthy {
		t.Error("expected healthy signal")
	}
	if !snap.MQTTConnected {
		t.Error("expected mqtt connected")
	}
	if snap.Counters != counters {
		t.Errorf("expected counters %+v, got %+v", counters, snap.Counters)
	}
	if !snap.StartTime.Equal(start) {
		t.Errorf("expected start %v, got %v", start, snap.StartTime)
	}
	if snap.Config != cfg {
		t.Errorf("expected config %+v, got %+v", cfg, snap.Config)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update("STATIC", dimmer.Frame{1, 1, 1, 1}, [dimmer.NumChannels]int{}, true, Counters{})

	snap := tr.Snapshot()
	tr.Update("FAST", dimmer.Frame{9, 9, 9, 9}, [dimmer.NumChannels]int{}, false, Counters{})

	if snap.Mode != "STATIC" || snap.Frame != (dimmer.Frame{1, 1, 1, 1}) {
		t.Error("snapshot mutated by a later update")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Now().Add(-90 * time.Second)
	tr := NewTracker(start, Config{})

	up := tr.Snapshot().Uptime()
	if up < 90*time.Second || up > 95*time.Second {
		t.Errorf("unexpected uptime %v", up)
	}
}

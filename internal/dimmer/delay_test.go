package dimmer

import "testing"

func TestDelayForLevelEndpoints(t *testing.T) {
	if d := DelayForLevel(0); d != offDelayUS {
		t.Errorf("level 0: expected off delay %d, got %d", int64(offDelayUS), d)
	}
	if d := DelayForLevel(MaxLevel); d != MinDelayUS {
		t.Errorf("level %d: expected min delay %d, got %d", MaxLevel, int64(MinDelayUS), d)
	}
}

func TestDelayForLevelClampsOutOfRange(t *testing.T) {
	if d := DelayForLevel(-3); d != offDelayUS {
		t.Errorf("negative level should map to off delay, got %d", d)
	}
	if d := DelayForLevel(15); d != MinDelayUS {
		t.Errorf("level above max should map to min delay, got %d", d)
	}
}

func TestDelayForLevelMonotonic(t *testing.T) {
	prev := DelayForLevel(0)
	for level := 1; level <= MaxLevel; level++ {
		d := DelayForLevel(level)
		if d >= prev {
			t.Errorf("delay not strictly decreasing: level %d -> %d, level %d -> %d",
				level-1, prev, level, d)
		}
		prev = d
	}
}

func TestDelayForLevelIntermediateInsideHalfCycle(t *testing.T) {
	for level := 1; level < MaxLevel; level++ {
		d := DelayForLevel(level)
		if d < MinDelayUS || d > maxDelayUS {
			t.Errorf("level %d: delay %d outside [%d, %d]", level, d, int64(MinDelayUS), int64(maxDelayUS))
		}
	}
}

func TestClampLevel(t *testing.T) {
	if got := clampLevel(-1); got != 0 {
		t.Errorf("clampLevel(-1) = %d, want 0", got)
	}
	if got := clampLevel(5); got != 5 {
		t.Errorf("clampLevel(5) = %d, want 5", got)
	}
	if got := clampLevel(200); got != MaxLevel {
		t.Errorf("clampLevel(200) = %d, want %d", got, MaxLevel)
	}
}

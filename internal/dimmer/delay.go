package dimmer

// DelayForLevel converts a 0-9 brightness level to the firing delay in
// microseconds from the zero-cross edge. Level 0 maps beyond the half-cycle
// (never fires), level 9 maps to the minimum safe delay (full brightness),
// and intermediate levels interpolate inverse-linearly so that a higher
// level fires earlier and conducts more energy per half-cycle.
func DelayForLevel(level int) int64 {
	if level <= 0 {
		return offDelayUS
	}
	if level >= MaxLevel {
		return MinDelayUS
	}
	return MinDelayUS + int64(MaxLevel-level)*(maxDelayUS-MinDelayUS)/MaxLevel
}

// clampLevel limits a requested level to the valid 0-9 range.
func clampLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

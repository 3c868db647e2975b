// Package convert holds bounded integer conversions for configuration values.
package convert

import "math"

// ShiftWidth returns v as a shift count in [0, 62], so 1<<ShiftWidth(v) never overflows int64.
func ShiftWidth(v int) uint {
	if v < 0 {
		return 0
	}
	if v > 62 {
		return 62
	}
	return uint(v)
}

// IntToUint32Clamped converts v, clamping to the uint32 range.
func IntToUint32Clamped(v int) uint32 {
	if v < 0 {
		return 0
	}
	if uint64(v) > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

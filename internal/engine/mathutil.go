package engine

import (
	"math"
	"math/rand"
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

// inverseLerp returns where v sits between a and b, clamped to [0,1].
func inverseLerp(a, b, v float64) float64 {
	if a == b {
		return 0
	}
	return clamp01((v - a) / (b - a))
}

// rangeFloat draws uniformly from [lo, hi]. A degenerate range returns lo.
func rangeFloat(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}

// sanitizeDelta turns a raw frame delta into a usable tick length.
func sanitizeDelta(dt, limit float64) float64 {
	if math.IsNaN(dt) || dt < 0 {
		return 0
	}
	if dt > limit {
		return limit
	}
	return dt
}

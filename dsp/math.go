package dsp

// Lerp interpolates linearly between a and b; t is not clamped.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

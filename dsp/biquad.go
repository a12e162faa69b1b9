package dsp

import (
	"math"

	"github.com/chewxy/math32"
)

// BiquadKind names the response a Biquad was designed for.
type BiquadKind uint8

const (
	// BiquadCustom is a filter built from raw coefficients.
	BiquadCustom BiquadKind = iota
	BiquadLowpass
	BiquadHighpass
	BiquadBandpass
	BiquadAllpass
	BiquadLowShelf
	BiquadHighShelf
)

var biquadKindNames = [...]string{"custom", "lowpass", "highpass", "bandpass", "allpass", "lowshelf", "highshelf"}

func (k BiquadKind) String() string {
	if int(k) < len(biquadKindNames) {
		return biquadKindNames[k]
	}
	return "unknown"
}

// Biquad is a generic second-order IIR filter in transposed direct form II.
//
// Coefficients are stored normalized by a0. The running state (z1, z2)
// belongs to one stream; copy the value to filter a second stream.
type Biquad struct {
	Kind BiquadKind `yaml:"kind"`
	B0   float32    `yaml:"b0"`
	B1   float32    `yaml:"b1"`
	B2   float32    `yaml:"b2"`
	A1   float32    `yaml:"a1"`
	A2   float32    `yaml:"a2"`

	z1, z2 float32
}

// NewBiquad builds a filter from raw coefficients and normalizes them by a0.
// A zero or non-finite a0 yields a pass-through filter.
func NewBiquad(b0, b1, b2, a0, a1, a2 float32) Biquad {
	if a0 == 0 || math32.IsNaN(a0) || math32.IsInf(a0, 0) {
		return PassThrough()
	}
	inv := 1 / a0
	return Biquad{
		Kind: BiquadCustom,
		B0:   b0 * inv,
		B1:   b1 * inv,
		B2:   b2 * inv,
		A1:   a1 * inv,
		A2:   a2 * inv,
	}
}

// PassThrough returns a filter that outputs its input unchanged.
func PassThrough() Biquad {
	return Biquad{Kind: BiquadCustom, B0: 1}
}

// rbj computes the shared cookbook intermediates for normalized frequency fc.
func rbj(fc, q float32) (cosW0, alpha float32) {
	fc = clampFrequency(fc)
	if q <= 0 {
		q = float32(math.Sqrt2) / 2
	}
	w0 := 2 * float32(math.Pi) * fc
	sinW0, cos := math32.Sincos(w0)
	return cos, sinW0 / (2 * q)
}

func clampFrequency(fc float32) float32 {
	const lo, hi = 1e-5, 0.49999
	if fc < lo {
		return lo
	}
	if fc > hi {
		return hi
	}
	return fc
}

func withKind(b Biquad, kind BiquadKind) Biquad {
	b.Kind = kind
	return b
}

// NewLowpass designs a lowpass filter at normalized cutoff fc with quality q.
func NewLowpass(fc, q float32) Biquad {
	cosW0, alpha := rbj(fc, q)
	b1 := 1 - cosW0
	return withKind(NewBiquad(b1/2, b1, b1/2, 1+alpha, -2*cosW0, 1-alpha), BiquadLowpass)
}

// NewHighpass designs a highpass filter at normalized cutoff fc with quality q.
func NewHighpass(fc, q float32) Biquad {
	cosW0, alpha := rbj(fc, q)
	b1 := 1 + cosW0
	return withKind(NewBiquad(b1/2, -b1, b1/2, 1+alpha, -2*cosW0, 1-alpha), BiquadHighpass)
}

// NewBandpass designs a constant 0 dB peak bandpass filter.
func NewBandpass(fc, q float32) Biquad {
	cosW0, alpha := rbj(fc, q)
	return withKind(NewBiquad(alpha, 0, -alpha, 1+alpha, -2*cosW0, 1-alpha), BiquadBandpass)
}

// NewAllpass designs an all-pass filter centered at fc.
func NewAllpass(fc, q float32) Biquad {
	cosW0, alpha := rbj(fc, q)
	return withKind(NewBiquad(1-alpha, -2*cosW0, 1+alpha, 1+alpha, -2*cosW0, 1-alpha), BiquadAllpass)
}

// NewLowShelf designs a low shelf with the given gain in decibels.
func NewLowShelf(fc, q, gainDB float32) Biquad {
	cosW0, alpha := rbj(fc, q)
	a := math32.Pow(10, gainDB/40)
	beta := 2 * math32.Sqrt(a) * alpha
	return withKind(NewBiquad(
		a*((a+1)-(a-1)*cosW0+beta),
		2*a*((a-1)-(a+1)*cosW0),
		a*((a+1)-(a-1)*cosW0-beta),
		(a+1)+(a-1)*cosW0+beta,
		-2*((a-1)+(a+1)*cosW0),
		(a+1)+(a-1)*cosW0-beta,
	), BiquadLowShelf)
}

// NewHighShelf designs a high shelf with the given gain in decibels.
func NewHighShelf(fc, q, gainDB float32) Biquad {
	cosW0, alpha := rbj(fc, q)
	a := math32.Pow(10, gainDB/40)
	beta := 2 * math32.Sqrt(a) * alpha
	return withKind(NewBiquad(
		a*((a+1)+(a-1)*cosW0+beta),
		-2*a*((a-1)+(a+1)*cosW0),
		a*((a+1)+(a-1)*cosW0-beta),
		(a+1)-(a-1)*cosW0+beta,
		2*((a-1)-(a+1)*cosW0),
		(a+1)-(a-1)*cosW0-beta,
	), BiquadHighShelf)
}

// Feed filters one sample.
func (b *Biquad) Feed(x float32) float32 {
	y := b.B0*x + b.z1
	b.z1 = b.B1*x - b.A1*y + b.z2
	b.z2 = b.B2*x - b.A2*y
	return y
}

// Reset clears the running state, keeping the coefficients.
func (b *Biquad) Reset() {
	b.z1, b.z2 = 0, 0
}

// State returns the two delay elements.
func (b *Biquad) State() (z1, z2 float32) {
	return b.z1, b.z2
}

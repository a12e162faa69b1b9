package dsp

import (
	"math"

	"github.com/chewxy/math32"
)

// OnePole is a first-order lowpass: y += (x - y) * a.
type OnePole struct {
	a    float32
	last float32
}

// NewOnePole returns a one-pole lowpass at normalized cutoff fc.
func NewOnePole(fc float32) OnePole {
	var p OnePole
	p.SetFc(fc)
	return p
}

// SetFc updates the cutoff without touching the state.
func (p *OnePole) SetFc(fc float32) {
	fc = clampFrequency(fc)
	p.a = 1 - math32.Exp(-2*float32(math.Pi)*fc)
}

// Feed filters one sample.
func (p *OnePole) Feed(x float32) float32 {
	p.last += (x - p.last) * p.a
	return p.last
}

// DelayLine is a fixed-length circular sample buffer.
type DelayLine struct {
	buf []float32
	pos int
}

// NewDelayLine allocates a delay of length samples (at least one).
func NewDelayLine(length int) DelayLine {
	if length < 1 {
		length = 1
	}
	return DelayLine{buf: make([]float32, length)}
}

// Len returns the delay length in samples.
func (d *DelayLine) Len() int {
	return len(d.buf)
}

// Last returns the sample that the next Feed will push out.
func (d *DelayLine) Last() float32 {
	return d.buf[d.pos]
}

// Feed pushes x and returns the sample delayed by Len.
func (d *DelayLine) Feed(x float32) float32 {
	out := d.buf[d.pos]
	d.buf[d.pos] = x
	d.pos++
	if d.pos == len(d.buf) {
		d.pos = 0
	}
	return out
}

// Clear zeroes the buffer.
func (d *DelayLine) Clear() {
	clear(d.buf)
	d.pos = 0
}

// LpfComb is a feedback comb filter with a one-pole lowpass in the loop.
type LpfComb struct {
	delay    DelayLine
	lowpass  OnePole
	feedback float32
}

// NewLpfComb builds a comb of the given length, feedback and damping cutoff.
func NewLpfComb(length int, feedback, fc float32) LpfComb {
	return LpfComb{
		delay:    NewDelayLine(length),
		lowpass:  NewOnePole(fc),
		feedback: feedback,
	}
}

// Len returns the comb delay in samples.
func (c *LpfComb) Len() int {
	return c.delay.Len()
}

// SetFeedback sets the loop gain.
func (c *LpfComb) SetFeedback(feedback float32) {
	c.feedback = feedback
}

// Feedback returns the loop gain.
func (c *LpfComb) Feedback() float32 {
	return c.feedback
}

// SetFc sets the damping cutoff.
func (c *LpfComb) SetFc(fc float32) {
	c.lowpass.SetFc(fc)
}

// Feed filters one sample.
func (c *LpfComb) Feed(x float32) float32 {
	out := c.delay.Last()
	c.delay.Feed(x + c.lowpass.Feed(out)*c.feedback)
	return out
}

// AllPass is a Schroeder all-pass section.
type AllPass struct {
	delay DelayLine
	gain  float32
}

// NewAllPass builds an all-pass section of the given length and gain.
func NewAllPass(length int, gain float32) AllPass {
	return AllPass{delay: NewDelayLine(length), gain: gain}
}

// Feed filters one sample.
func (a *AllPass) Feed(x float32) float32 {
	delayed := a.delay.Last()
	a.delay.Feed(x + delayed*a.gain)
	return delayed - x
}

// Package dsp holds the small signal-processing building blocks used by the
// mixer: a second-order (biquad) filter with RBJ cookbook constructors, a
// one-pole lowpass, delay-line based comb and all-pass filters, and float32
// interpolation helpers.
//
// Frequencies passed to constructors are normalized: the cutoff in Hz divided
// by the sampling rate (see mixer.State.NormalizeFrequency). All filters are
// stateful and must be fed one sample at a time from a single stream.
package dsp

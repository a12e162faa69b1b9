// Package buffer provides immutable stereo sample buffers for sound sources.
//
// A Buffer stores decoded audio as float32 (left, right) frames at a fixed
// sample rate. Mono material is duplicated into both channels at decode time
// so the mixer never branches on channel count.
//
// Buffers can be built from raw samples, decoded from WAV streams, or decoded
// from a sequence of Opus packets. Resample converts a buffer to the rate of
// the mixing context with linear interpolation.
//
// Cache deduplicates decoded buffers by the BLAKE2b-256 digest of their
// encoded bytes, so the same file loaded twice shares one Buffer:
//
//	cache := buffer.NewCache()
//	buf, err := cache.LoadFile("assets/step.wav")
//	if err != nil {
//	    return err
//	}
//	buf, err = buffer.Resample(buf, 44100)
//
// Buffers are safe for concurrent reads once constructed.
package buffer

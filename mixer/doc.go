// Package mixer is the real-time audio backend: it owns sound sources and
// effects and renders them into a stereo output stream.
//
// # Sessions
//
// A Context is one backend session. All state lives behind a single mutex;
// Lock returns the guarded State and State.Unlock releases it. Hold the guard
// for one logical operation only (one creation, one field update, one render
// pass):
//
//	ctx := mixer.NewContext(mixer.Options{SampleRate: 44100})
//	state := ctx.Lock()
//	h := state.AddSource(source)
//	state.Unlock()
//
// Context.Render acquires the guard itself and is the only operation meant to
// run on the audio callback thread.
//
// # Rendering
//
// A render pass advances every playing source by one frame, mixes the dry
// signal through the selected Renderer with click-free gain ramps, then lets
// each Effect mix its inputs and add its output. Effect inputs are weak: an
// input whose source was removed is dropped on the next pass.
//
// # Effects
//
// Effect is a closed set of variants (StubEffect, ReverbEffect). Every variant
// embeds a BaseEffect reached through Effect.Base, which holds the inputs and
// the effect-wide gain. The effect gain is applied when the variant's output
// is added to the output buffer.
package mixer

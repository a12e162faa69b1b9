// Package device moves rendered audio out of a mixer.Context.
//
// Reader renders on demand and yields interleaved float32 little-endian
// stereo PCM, the format Player hands to the system audio device through
// oto. Streamer adapts a context to beep, which ExportWAV uses to render a
// fixed duration into a WAV file. Pump drives a Reader in real time into
// any writer, which is how null output is implemented.
//
// Building with the headless tag replaces Player with a version that pumps
// into io.Discard, so programs run on machines without audio hardware.
package device

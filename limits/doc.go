// Package limits holds the size caps shared by the decoders and buffer
// constructors.
//
// # Caps
//
//   - MaxOpusPacket (1275 bytes): the largest packet a single Opus frame
//     may occupy.
//   - MaxBufferFrames: ten minutes of audio at the highest supported
//     sample rate. Anything longer should be streamed, not held in memory.
//   - MaxEncodedFile (256MB): the largest file the buffer cache will read.
//
// Each Validate function reports ErrEmpty for zero or negative sizes and wraps
// ErrTooLarge with the actual and maximum sizes otherwise:
//
//	if err := limits.ValidateBufferFrames(len(frames)); err != nil {
//		return nil, err
//	}
package limits

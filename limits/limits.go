package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxOpusPacket is the largest Opus packet for one frame (RFC 6716 3.4).
	MaxOpusPacket = 1275

	// MaxSampleRate is the highest sample rate buffers are checked against.
	MaxSampleRate = 192000

	// MaxBufferFrames is ten minutes at MaxSampleRate.
	MaxBufferFrames = MaxSampleRate * 60 * 10

	// MaxEncodedFile caps the bytes read for one encoded file.
	MaxEncodedFile = 256 << 20
)

var (
	// ErrEmpty indicates a zero or negative size.
	ErrEmpty = errors.New("empty input")

	// ErrTooLarge indicates a size above its cap.
	ErrTooLarge = errors.New("input too large")
)

// ValidateSize checks size against maxSize.
func ValidateSize(what string, size, maxSize int) error {
	if size <= 0 {
		return fmt.Errorf("%w: %s", ErrEmpty, what)
	}
	if size > maxSize {
		return fmt.Errorf("%w: %s size %d exceeds limit %d", ErrTooLarge, what, size, maxSize)
	}
	return nil
}

// ValidateOpusPacket checks one encoded Opus packet.
func ValidateOpusPacket(packet []byte) error {
	return ValidateSize("opus packet", len(packet), MaxOpusPacket)
}

// ValidateBufferFrames checks the frame count of a decoded buffer.
func ValidateBufferFrames(frames int) error {
	return ValidateSize("buffer", frames, MaxBufferFrames)
}

// ValidateEncodedFile checks the byte size of a file before it is decoded.
func ValidateEncodedFile(size int64) error {
	if size <= 0 {
		return fmt.Errorf("%w: file size %d", ErrEmpty, size)
	}
	if size > MaxEncodedFile {
		return fmt.Errorf("%w: file size %d exceeds limit %d", ErrTooLarge, size, MaxEncodedFile)
	}
	return ValidateSize("file", int(size), MaxEncodedFile)
}

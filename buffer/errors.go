package buffer

import "errors"

// Construction errors.
var (
	// ErrEmptyData indicates there were no samples or encoded bytes to decode.
	ErrEmptyData = errors.New("empty audio data")

	// ErrInvalidSampleRate indicates a zero sample rate.
	ErrInvalidSampleRate = errors.New("invalid sample rate")

	// ErrInvalidChannels indicates a channel count other than 1 or 2.
	ErrInvalidChannels = errors.New("unsupported channel count")

	// ErrMisaligned indicates interleaved samples that do not divide by the channel count.
	ErrMisaligned = errors.New("samples not aligned to channel count")
)

// Decoding errors.
var (
	// ErrUnsupportedFormat indicates a file extension with no decoder.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrDecodeFailed indicates the underlying codec rejected the data.
	ErrDecodeFailed = errors.New("audio decode failed")
)

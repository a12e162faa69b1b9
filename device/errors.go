package device

import "errors"

// Output errors.
var (
	// ErrDeviceUnavailable indicates the audio device could not be opened.
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrPlayerClosed indicates an operation on a closed player.
	ErrPlayerClosed = errors.New("player closed")

	// ErrOutputClosed indicates the pump's writer stopped accepting data.
	ErrOutputClosed = errors.New("output closed")
)

package mixer

import "errors"

// Source construction errors.
var (
	// ErrInvalidParameter indicates a parameter combination a source cannot be built from.
	ErrInvalidParameter = errors.New("invalid sound source parameter")

	// ErrEmptyBuffer indicates a buffer with no frames.
	ErrEmptyBuffer = errors.New("buffer has no frames")
)

// Enum parsing errors.
var (
	// ErrUnknownStatus indicates text that names no Status.
	ErrUnknownStatus = errors.New("unknown status")

	// ErrUnknownDistanceModel indicates text that names no DistanceModel.
	ErrUnknownDistanceModel = errors.New("unknown distance model")

	// ErrUnknownRenderer indicates text that names no Renderer.
	ErrUnknownRenderer = errors.New("unknown renderer")
)

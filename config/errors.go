package config

import "errors"

// Validation errors.
var (
	// ErrInvalidSampleRate indicates a sample rate outside the supported range.
	ErrInvalidSampleRate = errors.New("invalid sample rate")

	// ErrInvalidFrameDuration indicates a render frame that is empty or longer than a second.
	ErrInvalidFrameDuration = errors.New("invalid frame duration")

	// ErrInvalidInterval indicates a non-positive control tick interval.
	ErrInvalidInterval = errors.New("invalid iteration interval")

	// ErrInvalidGain indicates a negative master gain.
	ErrInvalidGain = errors.New("invalid master gain")

	// ErrInvalidLogLevel indicates a level logrus does not know.
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrUnknownOutput indicates an output mode other than device, wav or null.
	ErrUnknownOutput = errors.New("unknown output mode")

	// ErrMissingOutputPath indicates wav output without a file path.
	ErrMissingOutputPath = errors.New("wav output requires a path")
)

// Environment errors.
var (
	// ErrInvalidEnv indicates an environment override that does not parse.
	ErrInvalidEnv = errors.New("invalid environment override")
)

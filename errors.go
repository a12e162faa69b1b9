package soundsync

import "errors"

// Lifecycle errors.
var (
	// ErrEngineNotRunning indicates an operation that needs a started engine.
	ErrEngineNotRunning = errors.New("engine is not running")

	// ErrEngineAlreadyRunning indicates Start on a running engine, or offline
	// rendering while live output is active.
	ErrEngineAlreadyRunning = errors.New("engine is already running")

	// ErrOfflineOutput indicates Start with wav output, which renders through
	// RenderWAV instead.
	ErrOfflineOutput = errors.New("wav output renders offline")
)

package soundsync

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/opd-ai/soundsync/config"
	"github.com/opd-ai/soundsync/device"
	"github.com/opd-ai/soundsync/mixer"
	"github.com/opd-ai/soundsync/scene"
	"github.com/sirupsen/logrus"
)

// Engine owns a mixer backend, the scene model that drives it and the
// output the backend renders into.
type Engine struct {
	mu sync.RWMutex

	cfg       config.Config
	native    *mixer.Context
	model     *scene.SoundContext
	sounds    scene.Registry
	overrides scene.NodeSet
	reader    *device.Reader

	running  bool
	player   *device.Player
	stopPump context.CancelFunc
	pumpDone chan error

	iterations uint64
}

// New creates an engine from cfg. A nil cfg uses config.DefaultConfig.
//
// The backend is created at cfg.SampleRate with cfg's mix settings. No
// output is opened until Start.
func New(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "New",
			"error":    err.Error(),
		}).Error("Configuration validation failed")
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logrus.SetLevel(cfg.Level())

	native := mixer.NewContext(mixer.Options{SampleRate: cfg.SampleRate})
	model := scene.NewSoundContext(native)
	model.SetMasterGain(cfg.MasterGain)
	model.SetDistanceModel(cfg.DistanceModel)
	model.SetRenderer(cfg.Renderer)
	model.Pause(cfg.Paused)

	e := &Engine{
		cfg:    *cfg,
		native: native,
		model:  model,
		reader: device.NewReader(native, cfg.FramesPerRender()),
	}

	logrus.WithFields(logrus.Fields{
		"function":           "New",
		"sample_rate":        cfg.SampleRate,
		"frames_per_render":  cfg.FramesPerRender(),
		"iteration_interval": cfg.IterationInterval.String(),
		"output":             string(cfg.Output),
	}).Info("Engine created")
	return e, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() config.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// Backend returns the mixer context. It is safe to lock from any goroutine.
func (e *Engine) Backend() *mixer.Context { return e.native }

// Reader returns the PCM stream the live output consumes.
func (e *Engine) Reader() *device.Reader { return e.reader }

// Edit runs f with exclusive access to the model and the sound registry.
func (e *Engine) Edit(f func(model *scene.SoundContext, sounds *scene.Registry)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f(e.model, &e.sounds)
}

// AddSound registers sound. Its backend source is created by the next
// Iterate.
func (e *Engine) AddSound(sound *scene.Sound) scene.NodeHandle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sounds.Add(sound)
}

// RemoveSound unregisters the sound at h and removes its backend source.
// It reports whether h was registered.
func (e *Engine) RemoveSound(h scene.NodeHandle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	sound, ok := e.sounds.Remove(h)
	if ok && sound.Native().IsSome() {
		e.model.RemoveSound(sound.Native(), sound.Name())
	}
	return ok
}

// SetOverrides restricts which nodes keep backend sources. A nil set
// permits every node.
func (e *Engine) SetOverrides(set scene.NodeSet) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.overrides = set
}

// IterationInterval returns the recommended interval between Iterate calls.
func (e *Engine) IterationInterval() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg.IterationInterval.Duration
}

// Iterations returns how many control ticks have run.
func (e *Engine) Iterations() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.iterations
}

// Iterate runs one control tick: effects are reconciled, every registered
// sound pushes its changes to the backend, then playback status and time
// are pulled back into the model.
func (e *Engine) Iterate() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.model.Update()
	for node, sound := range e.sounds.All() {
		e.model.SyncToSound(node, sound, e.overrides)
		e.model.SyncWithSound(sound)
	}
	e.iterations++
}

// Run calls Iterate every IterationInterval until ctx is done. A changed
// interval takes effect after the next tick.
func (e *Engine) Run(ctx context.Context) error {
	if !e.IsRunning() {
		return ErrEngineNotRunning
	}

	interval := e.IterationInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logrus.WithFields(logrus.Fields{
		"function": "Engine.Run",
		"interval": interval.String(),
	}).Info("Control loop started")

	for {
		select {
		case <-ctx.Done():
			logrus.WithFields(logrus.Fields{
				"function":   "Engine.Run",
				"iterations": e.Iterations(),
			}).Info("Control loop stopped")
			return nil
		case <-ticker.C:
			e.Iterate()
			if next := e.IterationInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

// Start opens the configured output and begins rendering into it.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrEngineAlreadyRunning
	}

	switch e.cfg.Output {
	case config.OutputDevice:
		latency := 2 * e.cfg.FrameDuration.Duration
		player, err := device.NewPlayer(e.reader, int(e.cfg.SampleRate), latency)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Engine.Start",
				"error":    err.Error(),
			}).Error("Failed to open audio device")
			return err
		}
		if err := player.Start(); err != nil {
			_ = player.Close()
			return err
		}
		e.player = player
	case config.OutputNull:
		ctx, cancel := context.WithCancel(context.Background())
		e.stopPump = cancel
		e.pumpDone = make(chan error, 1)
		interval := e.cfg.FrameDuration.Duration
		block := device.BlockBytes(e.cfg.SampleRate, interval)
		go func(done chan<- error) {
			done <- device.Pump(ctx, e.reader, io.Discard, block, interval)
		}(e.pumpDone)
	default:
		return ErrOfflineOutput
	}

	e.running = true
	logrus.WithFields(logrus.Fields{
		"function": "Engine.Start",
		"output":   string(e.cfg.Output),
	}).Info("Engine started")
	return nil
}

// Stop closes the output. Stopping a stopped engine is a no-op.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return nil
	}
	e.running = false

	var err error
	if e.player != nil {
		err = e.player.Close()
		e.player = nil
	}
	if e.stopPump != nil {
		e.stopPump()
		err = <-e.pumpDone
		e.stopPump, e.pumpDone = nil, nil
	}

	logrus.WithFields(logrus.Fields{
		"function":   "Engine.Stop",
		"iterations": e.iterations,
	}).Info("Engine stopped")
	return err
}

// IsRunning reports whether live output is active.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// RenderStats returns the backend render timing.
func (e *Engine) RenderStats() mixer.RenderStats {
	state := e.native.Lock()
	defer state.Unlock()
	return state.RenderStats()
}

// ApplyConfig applies the mix settings and log level of cfg to the running
// engine, along with the iteration interval. Sample rate, frame and output
// changes need a new engine and are ignored with a warning.
func (e *Engine) ApplyConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if cfg.SampleRate != e.cfg.SampleRate || cfg.Output != e.cfg.Output ||
		cfg.OutputPath != e.cfg.OutputPath || cfg.FrameDuration != e.cfg.FrameDuration {
		logrus.WithFields(logrus.Fields{
			"function": "Engine.ApplyConfig",
		}).Warn("Sample rate, frame and output changes need a restart")
	}

	logrus.SetLevel(cfg.Level())
	e.model.SetMasterGain(cfg.MasterGain)
	e.model.SetDistanceModel(cfg.DistanceModel)
	e.model.SetRenderer(cfg.Renderer)
	e.model.Pause(cfg.Paused)

	e.cfg.MasterGain = cfg.MasterGain
	e.cfg.DistanceModel = cfg.DistanceModel
	e.cfg.Renderer = cfg.Renderer
	e.cfg.Paused = cfg.Paused
	e.cfg.LogLevel = cfg.LogLevel
	e.cfg.IterationInterval = cfg.IterationInterval

	logrus.WithFields(logrus.Fields{
		"function":       "Engine.ApplyConfig",
		"master_gain":    cfg.MasterGain,
		"distance_model": cfg.DistanceModel.String(),
		"renderer":       cfg.Renderer.String(),
		"paused":         cfg.Paused,
	}).Info("Configuration applied")
	return nil
}

// WatchConfig applies every valid change of the file at path until ctx is
// done.
func (e *Engine) WatchConfig(ctx context.Context, path string) error {
	return config.Watch(ctx, path, func(cfg *config.Config) {
		if err := e.ApplyConfig(cfg); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Engine.WatchConfig",
				"error":    err.Error(),
			}).Warn("Configuration change rejected")
		}
	})
}

//go:build !headless

package device

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"
)

// Player plays a float32 LE stereo stream through the system audio device.
//
// oto allows one context per process, so a program should create a single
// Player.
type Player struct {
	mu      sync.Mutex
	ctx     *oto.Context
	player  *oto.Player
	started bool
	closed  bool
}

// NewPlayer opens the audio device at sampleRate and prepares to play r.
// latency is the device buffer length; zero lets oto choose.
func NewPlayer(r io.Reader, sampleRate int, latency time.Duration) (*Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   latency,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	<-ready

	logrus.WithFields(logrus.Fields{
		"function":    "NewPlayer",
		"sample_rate": sampleRate,
		"latency":     latency.String(),
	}).Info("Audio device opened")

	return &Player{ctx: ctx, player: ctx.NewPlayer(r)}, nil
}

// Start begins or resumes playback.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPlayerClosed
	}
	if !p.started {
		p.player.Play()
		p.started = true
	}
	return nil
}

// Stop pauses playback. Start resumes it.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started && !p.closed {
		p.player.Pause()
		p.started = false
	}
}

// Close stops playback and releases the player.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.started = false
	return p.player.Close()
}

// IsStarted reports whether the player is playing.
func (p *Player) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

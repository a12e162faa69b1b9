//go:build headless

package device

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const headlessLatency = 20 * time.Millisecond

// Player consumes a stream in real time without an audio device.
type Player struct {
	mu      sync.Mutex
	r       io.Reader
	rate    int
	latency time.Duration
	cancel  context.CancelFunc
	done    chan struct{}
	closed  bool
}

// NewPlayer returns a player that pumps r into io.Discard at sampleRate.
func NewPlayer(r io.Reader, sampleRate int, latency time.Duration) (*Player, error) {
	if latency <= 0 {
		latency = headlessLatency
	}
	return &Player{r: r, rate: sampleRate, latency: latency}, nil
}

// Start begins consuming the stream.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPlayerClosed
	}
	if p.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		if err := Pump(ctx, p.r, io.Discard, BlockBytes(uint32(p.rate), p.latency), p.latency); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Player.Start",
				"error":    err.Error(),
			}).Warn("Headless pump stopped")
		}
	}(p.done)
	return nil
}

// Stop pauses consumption.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.cancel = nil
}

// Close stops the player for good.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.closed = true
	return nil
}

// IsStarted reports whether the stream is being consumed.
func (p *Player) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

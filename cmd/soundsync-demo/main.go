// Package main renders a small demo scene: a drone panned left, a pulse
// routed through a reverb and a tone orbiting the listener.
//
// Audio goes to the system device, a WAV file or nowhere, as configured.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/chewxy/math32"
	"github.com/opd-ai/soundsync"
	"github.com/opd-ai/soundsync/buffer"
	"github.com/opd-ai/soundsync/config"
	"github.com/opd-ai/soundsync/mixer"
	"github.com/opd-ai/soundsync/scene"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// CLI configuration
type cliConfig struct {
	configPath string
	output     string
	outputPath string
	duration   time.Duration
	input      string
	watch      bool
	help       bool
}

func parseCLIFlags() *cliConfig {
	c := &cliConfig{}
	flag.StringVar(&c.configPath, "config", "", "TOML configuration file")
	flag.StringVar(&c.output, "output", "", "Output mode override (device, wav, null)")
	flag.StringVar(&c.outputPath, "out", "", "WAV file path for wav output")
	flag.DurationVar(&c.duration, "duration", 10*time.Second, "How long to play")
	flag.StringVar(&c.input, "input", "", "Optional WAV file to loop at the listener")
	flag.BoolVar(&c.watch, "watch", false, "Reload -config on change")
	flag.BoolVar(&c.help, "help", false, "Show help message")
	flag.Parse()
	return c
}

func printUsage() {
	fmt.Println("soundsync demo")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s [options]\n", os.Args[0])
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  %s -duration 30s\n", os.Args[0])
	fmt.Printf("  %s -output wav -out demo.wav -duration 5s\n", os.Args[0])
	fmt.Printf("  %s -config soundsync.toml -watch\n", os.Args[0])
}

func loadConfig(c *cliConfig) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if c.output != "" {
		cfg.Output = config.OutputMode(c.output)
	}
	if c.outputPath != "" {
		cfg.OutputPath = c.outputPath
	}
	if c.watch && c.configPath == "" {
		return nil, errors.New("-watch needs -config")
	}
	return cfg, cfg.Validate()
}

// tone returns a mono sine buffer with a short fade at both ends.
func tone(rate uint32, hz, gain float32, length time.Duration) (*buffer.Buffer, error) {
	n := int(length.Seconds() * float64(rate))
	fade := float32(rate) / 100
	samples := make([]float32, n)
	for i := range samples {
		env := min(float32(i)/fade, float32(n-i)/fade, 1)
		samples[i] = gain * env * math32.Sin(2*math32.Pi*hz*float32(i)/float32(rate))
	}
	return buffer.FromSamples(rate, 1, samples)
}

type demoScene struct {
	orbit *scene.Sound
}

func buildScene(engine *soundsync.Engine, input string) (*demoScene, error) {
	rate := engine.Config().SampleRate

	drone, err := tone(rate, 110, 0.3, 2*time.Second)
	if err != nil {
		return nil, err
	}
	pulse, err := tone(rate, 660, 0.5, 150*time.Millisecond)
	if err != nil {
		return nil, err
	}
	orbitTone, err := tone(rate, 440, 0.4, time.Second)
	if err != nil {
		return nil, err
	}

	d := &demoScene{}
	sounds := []*scene.Sound{}

	left := scene.NewSound("drone")
	left.SetBuffer(drone)
	left.SetLooping(true)
	left.SetSpatialBlend(0)
	left.SetPanning(-0.7)
	left.Play()
	sounds = append(sounds, left)

	hit := scene.NewSound("pulse")
	hit.SetBuffer(pulse)
	hit.SetSpatialBlend(0)
	hit.SetEffectName("hall")
	hit.Play()
	sounds = append(sounds, hit)

	d.orbit = scene.NewSound("orbit")
	d.orbit.SetBuffer(orbitTone)
	d.orbit.SetLooping(true)
	d.orbit.SetRadius(1)
	d.orbit.SetGlobalPosition(mixer.Vec3{X: 3})
	d.orbit.Play()
	sounds = append(sounds, d.orbit)

	if input != "" {
		cache := buffer.NewCache()
		loaded, err := cache.LoadFile(input)
		if err != nil {
			return nil, err
		}
		resampled, err := buffer.Resample(loaded, rate)
		if err != nil {
			return nil, err
		}
		loop := scene.NewSound(filepath.Base(input))
		loop.SetBuffer(resampled)
		loop.SetLooping(true)
		loop.SetSpatialBlend(0)
		loop.Play()
		sounds = append(sounds, loop)
	}

	engine.Edit(func(model *scene.SoundContext, registry *scene.Registry) {
		hall := scene.NewReverbEffect("hall")
		hall.SetDecayTime(2 * time.Second)
		hall.SetDry(0)
		hall.SetWet(0.8)
		model.AddEffect(hall)
		for _, s := range sounds {
			registry.Add(s)
		}
	})
	return d, nil
}

// animate moves the orbiting tone around the listener and retriggers the
// pulse every second.
func (d *demoScene) animate(ctx context.Context, engine *soundsync.Engine) error {
	ticker := time.NewTicker(engine.IterationInterval())
	defer ticker.Stop()

	start := time.Now()
	lastPulse := time.Duration(0)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			elapsed := time.Since(start)
			angle := float32(elapsed.Seconds()) * math32.Pi / 2
			s, c := math32.Sincos(angle)
			engine.Edit(func(_ *scene.SoundContext, registry *scene.Registry) {
				d.orbit.SetGlobalPosition(mixer.Vec3{X: 3 * c, Z: 3 * s})
				if elapsed-lastPulse < time.Second {
					return
				}
				lastPulse = elapsed
				for _, sound := range registry.All() {
					if sound.Name() == "pulse" {
						sound.Stop()
						sound.Play()
					}
				}
			})
		}
	}
}

func run(c *cliConfig) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	engine, err := soundsync.New(cfg)
	if err != nil {
		return err
	}
	demo, err := buildScene(engine, c.input)
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}

	if cfg.Output == config.OutputWAV {
		f, err := os.Create(cfg.OutputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := engine.RenderWAV(f, c.duration); err != nil {
			return err
		}
		fmt.Printf("Wrote %s (%s)\n", cfg.OutputPath, c.duration)
		return nil
	}

	if err := engine.Start(); err != nil {
		return err
	}
	defer engine.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, c.duration)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return engine.Run(gctx) })
	g.Go(func() error { return demo.animate(gctx, engine) })
	if c.watch {
		g.Go(func() error { return engine.WatchConfig(gctx, c.configPath) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	stats := engine.RenderStats()
	fmt.Printf("Rendered %d passes, average %s, max %s, %d control ticks\n",
		stats.Renders, stats.Average(), stats.Max, engine.Iterations())
	return nil
}

func main() {
	c := parseCLIFlags()
	if c.help {
		printUsage()
		os.Exit(0)
	}

	if err := run(c); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Error("Demo failed")
		os.Exit(1)
	}
}

// Package soundsync is a spatial audio engine built from a real-time mixer
// and a model layer that keeps it in sync with a scene.
//
// The mixer package renders sound sources through an effect graph on the
// audio thread. The scene package holds the model: sounds with
// change-tracked fields, named effects and global settings. Each control
// tick the model pushes only what changed into the mixer and pulls playback
// progress back.
//
// Engine wires the two together with configuration and an output device:
//
//	cfg := config.DefaultConfig()
//	engine, err := soundsync.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	step := scene.NewSound("footstep")
//	step.SetBuffer(buf)
//	step.Play()
//	engine.AddSound(step)
//
//	if err := engine.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop()
//	engine.Run(ctx)
//
// Engine methods are safe for concurrent use. Changes to a Sound added with
// AddSound should go through Edit so they do not race with the control
// tick.
package soundsync

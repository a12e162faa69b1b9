// Package config loads engine settings from TOML files and SOUNDSYNC_*
// environment variables, and watches the file for live changes.
//
//	cfg, err := config.Load("soundsync.toml")
//	if err != nil {
//	    return err
//	}
//	if err := cfg.ApplyEnv(); err != nil {
//	    return err
//	}
//
// Only the mix settings (master gain, distance model, renderer, pause and
// log level) are meant to change while an engine is running. Sample rate
// and output changes take effect on the next engine start.
package config

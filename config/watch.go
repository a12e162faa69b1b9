package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watch reloads the file at path whenever it is written or replaced and
// passes each valid result, with environment overrides applied, to
// onChange. Invalid edits are logged and skipped. Watch blocks until ctx is
// done.
//
// The parent directory is watched so that editors which save by renaming a
// temporary file are seen.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "config.Watch",
		"path":     target,
	}).Info("Watching configuration")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			reload(target, onChange)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logrus.WithFields(logrus.Fields{
				"function": "config.Watch",
				"path":     target,
				"error":    err.Error(),
			}).Warn("Watcher error")
		}
	}
}

func reload(path string, onChange func(*Config)) {
	cfg, err := Load(path)
	if err == nil {
		err = cfg.ApplyEnv()
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "config.Watch",
			"path":     path,
			"error":    err.Error(),
		}).Warn("Ignoring invalid configuration change")
		return
	}

	logrus.WithFields(logrus.Fields{
		"function": "config.Watch",
		"path":     path,
	}).Info("Configuration reloaded")
	onChange(cfg)
}

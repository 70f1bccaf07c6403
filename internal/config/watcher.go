package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"showhound/internal/utils"
)

// Watch reloads the config file whenever it changes and hands the fresh
// config to onChange. The parent directory is watched rather than the file
// itself, since editors and config management tools replace files instead
// of writing them in place. Returns a stop function.
func Watch(path string, logger *utils.Logger, onChange func(*Config)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		var reloadTimer *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absPath {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				// Debounce: editors fire several events per save.
				if reloadTimer != nil {
					reloadTimer.Stop()
				}
				reloadTimer = time.AfterFunc(500*time.Millisecond, func() {
					cfg, err := Load(path)
					if err != nil {
						logger.Error("Failed to reload config:", err)
						return
					}
					logger.Info("Config reloaded from", path)
					onChange(cfg)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("Config watcher error:", err)
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}

// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/linuxdeepin/go-lib/xdg/basedir"
	"gopkg.in/yaml.v3"
)

// getCfgDir mirrors display1/config.go's resolution of the per-user
// config directory, renamed for this daemon.
func getCfgDir() string {
	return filepath.Join(basedir.GetUserConfigDir(), "sunshine")
}

// DefaultVideoConfigPath is where LoadVideoConfig looks when given an
// empty path.
func DefaultVideoConfigPath() string {
	return filepath.Join(getCfgDir(), "video.yaml")
}

// LoadVideoConfig reads the on-disk video configuration. A missing file
// is not an error: it returns the zero VideoConfig, which every
// *_from_view helper maps to NoOp/NoOp behavior.
func LoadVideoConfig(path string) (VideoConfig, error) {
	if path == "" {
		path = DefaultVideoConfigPath()
	}

	// #nosec G304
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return VideoConfig{}, nil
		}
		return VideoConfig{}, err
	}

	var cfg VideoConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return VideoConfig{}, err
	}
	return cfg, nil
}

// VideoConfigWatcher watches the on-disk video configuration's directory
// and reloads it whenever the file itself is written or recreated,
// grounded in appearance/fsnotify.go's watchDirs/handleThemeChanged
// directory-watch pattern (watch the containing directory rather than
// the file, which survives editors that replace-on-save).
type VideoConfigWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchVideoConfig starts watching path (DefaultVideoConfigPath if
// empty) and invokes onChange with the freshly reloaded config whenever
// it changes on disk. Reload errors are logged and skipped.
func WatchVideoConfig(path string, onChange func(VideoConfig)) (*VideoConfigWatcher, error) {
	if path == "" {
		path = DefaultVideoConfigPath()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		watcher.Close()
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	w := &VideoConfigWatcher{watcher: watcher, done: make(chan struct{})}
	go w.run(path, onChange)
	return w, nil
}

func (w *VideoConfigWatcher) run(path string, onChange func(VideoConfig)) {
	for {
		select {
		case <-w.done:
			return
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warning("video config watcher error:", err)
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := LoadVideoConfig(path)
			if err != nil {
				logger.Warning("failed to reload changed video config:", err)
				continue
			}
			onChange(cfg)
		}
	}
}

// Close stops the watcher goroutine and releases the underlying
// fsnotify.Watcher.
func (w *VideoConfigWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

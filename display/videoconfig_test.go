// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadVideoConfigMissingFileReturnsZeroValue(t *testing.T) {
	cfg, err := LoadVideoConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, VideoConfig{}, cfg)
}

func TestLoadVideoConfigParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "video.yaml")
	content := "resolution_change: manual\nmanual_resolution: 1920x1080\ndisplay_device_prep: ensure_active\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadVideoConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "manual", cfg.ResolutionChange)
	assert.Equal(t, "1920x1080", cfg.ManualResolution)
	assert.Equal(t, "ensure_active", cfg.DisplayDevicePrep)
}

func TestWatchVideoConfigReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "video.yaml")
	require.NoError(t, os.WriteFile(path, []byte("resolution_change: no_op\n"), 0o644))

	changes := make(chan VideoConfig, 4)
	watcher, err := WatchVideoConfig(path, func(cfg VideoConfig) {
		changes <- cfg
	})
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, os.WriteFile(path, []byte("resolution_change: manual\nmanual_resolution: 2560x1440\n"), 0o644))

	select {
	case cfg := <-changes:
		assert.Equal(t, "manual", cfg.ResolutionChange)
		assert.Equal(t, "2560x1440", cfg.ManualResolution)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for video config reload")
	}
}

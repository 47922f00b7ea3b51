// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevicePrepFromView(t *testing.T) {
	assert.Equal(t, DevicePrepEnsureActive, DevicePrepFromView("ensure_active"))
	assert.Equal(t, DevicePrepEnsurePrimary, DevicePrepFromView("ensure_primary"))
	assert.Equal(t, DevicePrepEnsureOnlyDisplay, DevicePrepFromView("ensure_only_display"))
	assert.Equal(t, DevicePrepNoOp, DevicePrepFromView("no_op"))
	assert.Equal(t, DevicePrepNoOp, DevicePrepFromView("bogus"), "unknown strings fall back to no_op")
}

func TestParseResolutionOption(t *testing.T) {
	testdata := []struct {
		name    string
		cfg     VideoConfig
		session LaunchSession
		want    *Resolution
		wantErr bool
	}{
		{
			name: "no_op leaves unchanged",
			cfg:  VideoConfig{ResolutionChange: "no_op"},
			want: nil,
		},
		{
			name:    "automatic without sops is ignored",
			cfg:     VideoConfig{ResolutionChange: "automatic"},
			session: LaunchSession{EnableSops: false, Width: 1920, Height: 1080},
			want:    nil,
		},
		{
			name:    "automatic with sops uses session dimensions",
			cfg:     VideoConfig{ResolutionChange: "automatic"},
			session: LaunchSession{EnableSops: true, Width: 1920, Height: 1080},
			want:    &Resolution{Width: 1920, Height: 1080},
		},
		{
			name:    "automatic with sops and negative dimensions fails",
			cfg:     VideoConfig{ResolutionChange: "automatic"},
			session: LaunchSession{EnableSops: true, Width: -1, Height: 1080},
			wantErr: true,
		},
		{
			name: "manual parses WIDTHxHEIGHT",
			cfg:  VideoConfig{ResolutionChange: "manual", ManualResolution: " 3840x2160 "},
			want: &Resolution{Width: 3840, Height: 2160},
		},
		{
			name:    "manual rejects malformed string",
			cfg:     VideoConfig{ResolutionChange: "manual", ManualResolution: "not a resolution"},
			wantErr: true,
		},
	}

	for _, d := range testdata {
		got, err := parseResolutionOption(d.cfg, d.session)
		if d.wantErr {
			assert.Error(t, err, d.name)
			continue
		}
		require.NoError(t, err, d.name)
		assert.Equal(t, d.want, got, d.name)
	}
}

func TestParseRefreshRateOption(t *testing.T) {
	testdata := []struct {
		name    string
		cfg     VideoConfig
		session LaunchSession
		want    *RefreshRate
		wantErr bool
	}{
		{
			name: "no_op leaves unchanged",
			cfg:  VideoConfig{RefreshRateChange: "no_op"},
			want: nil,
		},
		{
			name:    "automatic uses fps",
			cfg:     VideoConfig{RefreshRateChange: "automatic"},
			session: LaunchSession{FPS: 60},
			want:    &RefreshRate{Numerator: 60, Denominator: 1},
		},
		{
			name:    "automatic rejects negative fps",
			cfg:     VideoConfig{RefreshRateChange: "automatic"},
			session: LaunchSession{FPS: -1},
			wantErr: true,
		},
		{
			name: "manual integer",
			cfg:  VideoConfig{RefreshRateChange: "manual", ManualRefreshRate: "60"},
			want: &RefreshRate{Numerator: 60, Denominator: 1},
		},
		{
			name: "manual fractional",
			cfg:  VideoConfig{RefreshRateChange: "manual", ManualRefreshRate: "59.94"},
			want: &RefreshRate{Numerator: 5994, Denominator: 100},
		},
		{
			name:    "manual rejects malformed string",
			cfg:     VideoConfig{RefreshRateChange: "manual", ManualRefreshRate: "fast"},
			wantErr: true,
		},
	}

	for _, d := range testdata {
		got, err := parseRefreshRateOption(d.cfg, d.session)
		if d.wantErr {
			assert.Error(t, err, d.name)
			continue
		}
		require.NoError(t, err, d.name)
		assert.Equal(t, d.want, got, d.name)
	}
}

func TestParseHDROption(t *testing.T) {
	enabled := parseHDROption(VideoConfig{HDRPrep: "automatic"}, LaunchSession{EnableHDR: true})
	require.NotNil(t, enabled)
	assert.True(t, *enabled)

	noop := parseHDROption(VideoConfig{HDRPrep: "no_op"}, LaunchSession{EnableHDR: true})
	assert.Nil(t, noop)
}

func TestMakeParsedPlanFailsClosed(t *testing.T) {
	cfg := VideoConfig{
		ResolutionChange: "manual",
		ManualResolution: "garbage",
	}
	_, err := MakeParsedPlan(cfg, LaunchSession{})
	assert.Error(t, err)
}

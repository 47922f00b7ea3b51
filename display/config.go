// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DevicePrep is what the session should do with the requested device
// before applying modes/HDR.
type DevicePrep int

const (
	DevicePrepNoOp DevicePrep = iota
	DevicePrepEnsureActive
	DevicePrepEnsurePrimary
	DevicePrepEnsureOnlyDisplay
)

// DevicePrepFromView parses the user-facing string. Unknown strings map
// to DevicePrepNoOp, matching the source's fail-safe default.
func DevicePrepFromView(value string) DevicePrep {
	switch value {
	case "ensure_active":
		return DevicePrepEnsureActive
	case "ensure_primary":
		return DevicePrepEnsurePrimary
	case "ensure_only_display":
		return DevicePrepEnsureOnlyDisplay
	default:
		return DevicePrepNoOp
	}
}

// ResolutionChange selects how the resolution is determined.
type ResolutionChange int

const (
	ResolutionChangeNoOp ResolutionChange = iota
	ResolutionChangeAutomatic
	ResolutionChangeManual
)

func ResolutionChangeFromView(value string) ResolutionChange {
	switch value {
	case "automatic":
		return ResolutionChangeAutomatic
	case "manual":
		return ResolutionChangeManual
	default:
		return ResolutionChangeNoOp
	}
}

// RefreshRateChange selects how the refresh rate is determined.
type RefreshRateChange int

const (
	RefreshRateChangeNoOp RefreshRateChange = iota
	RefreshRateChangeAutomatic
	RefreshRateChangeManual
)

func RefreshRateChangeFromView(value string) RefreshRateChange {
	switch value {
	case "automatic":
		return RefreshRateChangeAutomatic
	case "manual":
		return RefreshRateChangeManual
	default:
		return RefreshRateChangeNoOp
	}
}

// HDRPrep selects how the HDR state is determined.
type HDRPrep int

const (
	HDRPrepNoOp HDRPrep = iota
	HDRPrepAutomatic
)

func HDRPrepFromView(value string) HDRPrep {
	switch value {
	case "automatic":
		return HDRPrepAutomatic
	default:
		return HDRPrepNoOp
	}
}

// VideoConfig is the user's video-related configuration, as loaded by
// LoadVideoConfig.
type VideoConfig struct {
	ResolutionChange  string `yaml:"resolution_change"`
	RefreshRateChange string `yaml:"refresh_rate_change"`
	HDRPrep           string `yaml:"hdr_prep"`
	DisplayDevicePrep string `yaml:"display_device_prep"`
	OutputName        string `yaml:"output_name"`
	ManualResolution  string `yaml:"manual_resolution"`
	ManualRefreshRate string `yaml:"manual_refresh_rate"`
}

// LaunchSession is the client's launch-time stream parameters.
type LaunchSession struct {
	EnableSops bool
	Width      int32
	Height     int32
	FPS        int32
	EnableHDR  bool
}

// ParsedPlan is the validated, ready-to-apply configuration the
// topology planner and settings applicator consume.
type ParsedPlan struct {
	DeviceID       DeviceID
	DevicePrep     DevicePrep
	Resolution     *Resolution
	RefreshRate    *RefreshRate
	ChangeHDRState *bool
}

var (
	resolutionPattern  = regexp.MustCompile(`^(\d+)x(\d+)$`)
	refreshRatePattern = regexp.MustCompile(`^(\d+)(?:\.(\d+))?$`)
)

// MakeParsedPlan parses cfg and session into a ParsedPlan. The plan
// fails closed: any parse error aborts the apply with
// ResultConfigParseFail at the caller.
func MakeParsedPlan(cfg VideoConfig, session LaunchSession) (ParsedPlan, error) {
	plan := ParsedPlan{
		DeviceID:   DeviceID(cfg.OutputName),
		DevicePrep: DevicePrepFromView(cfg.DisplayDevicePrep),
	}

	plan.ChangeHDRState = parseHDROption(cfg, session)

	resolution, err := parseResolutionOption(cfg, session)
	if err != nil {
		return ParsedPlan{}, err
	}
	plan.Resolution = resolution

	refreshRate, err := parseRefreshRateOption(cfg, session)
	if err != nil {
		return ParsedPlan{}, err
	}
	plan.RefreshRate = refreshRate

	return plan, nil
}

func parseResolutionOption(cfg VideoConfig, session LaunchSession) (*Resolution, error) {
	switch ResolutionChangeFromView(cfg.ResolutionChange) {
	case ResolutionChangeAutomatic:
		if !session.EnableSops {
			// "Optimize game settings" must be enabled on the client side.
			return nil, nil
		}
		if session.Width >= 0 && session.Height >= 0 {
			return &Resolution{Width: uint32(session.Width), Height: uint32(session.Height)}, nil
		}
		return nil, fmt.Errorf("resolution provided by client session config is invalid: %dx%d", session.Width, session.Height)
	case ResolutionChangeManual:
		trimmed := strings.TrimSpace(cfg.ManualResolution)
		match := resolutionPattern.FindStringSubmatch(trimmed)
		if match == nil {
			return nil, fmt.Errorf("failed to parse manual resolution string %q, must match WIDTHxHEIGHT", trimmed)
		}
		width, err := strconv.ParseUint(match[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("failed to parse manual resolution width: %w", err)
		}
		height, err := strconv.ParseUint(match[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("failed to parse manual resolution height: %w", err)
		}
		return &Resolution{Width: uint32(width), Height: uint32(height)}, nil
	default:
		return nil, nil
	}
}

func parseRefreshRateOption(cfg VideoConfig, session LaunchSession) (*RefreshRate, error) {
	switch RefreshRateChangeFromView(cfg.RefreshRateChange) {
	case RefreshRateChangeAutomatic:
		if session.FPS >= 0 {
			return &RefreshRate{Numerator: uint32(session.FPS), Denominator: 1}, nil
		}
		return nil, fmt.Errorf("FPS value provided by client session config is invalid: %d", session.FPS)
	case RefreshRateChangeManual:
		trimmed := strings.TrimSpace(cfg.ManualRefreshRate)
		match := refreshRatePattern.FindStringSubmatch(trimmed)
		if match == nil {
			return nil, fmt.Errorf(`failed to parse manual refresh rate string %q, must match "123" or "123.456"`, trimmed)
		}
		intPart, fracPart := match[1], match[2]
		if fracPart == "" {
			numerator, err := strconv.ParseUint(intPart, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("failed to parse manual refresh rate: %w", err)
			}
			return &RefreshRate{Numerator: uint32(numerator), Denominator: 1}, nil
		}
		numerator, err := strconv.ParseUint(intPart+fracPart, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("failed to parse manual refresh rate: %w", err)
		}
		denominator := uint64(math.Pow10(len(fracPart)))
		if denominator > math.MaxUint32 {
			return nil, fmt.Errorf("manual refresh rate denominator overflowed: %q", trimmed)
		}
		return &RefreshRate{Numerator: uint32(numerator), Denominator: uint32(denominator)}, nil
	default:
		return nil, nil
	}
}

func parseHDROption(cfg VideoConfig, session LaunchSession) *bool {
	if HDRPrepFromView(cfg.HDRPrep) == HDRPrepAutomatic {
		v := session.EnableHDR
		return &v
	}
	return nil
}

// SPDX-License-Identifier: GPL-3.0-or-later

package display

import "math"

// Resolution is a display's pixel dimensions.
type Resolution struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// RefreshRate is kept as an exact rational so that a value like 59.995
// round-trips as 59995/1000 rather than being rounded during storage.
type RefreshRate struct {
	Numerator   uint32 `json:"numerator"`
	Denominator uint32 `json:"denominator"`
}

// Hz converts the rational rate to a float64, for fuzzy comparisons
// only. It is never used for journal equality.
func (r RefreshRate) Hz() float64 {
	if r.Denominator == 0 {
		return 0
	}
	return float64(r.Numerator) / float64(r.Denominator)
}

// FuzzyEqual reports whether two refresh rates are within 1.0 Hz of
// each other. This is used exclusively when validating that the OS
// honored a mode request, never for journal equality.
func (r RefreshRate) FuzzyEqual(other RefreshRate) bool {
	return math.Abs(r.Hz()-other.Hz()) <= 1.0
}

// DisplayMode pairs a resolution with a refresh rate.
type DisplayMode struct {
	Resolution  Resolution  `json:"resolution"`
	RefreshRate RefreshRate `json:"refresh_rate"`
}

// FuzzyEqual reports whether two modes have equal resolutions and
// fuzzy-equal refresh rates.
func (m DisplayMode) FuzzyEqual(other DisplayMode) bool {
	return m.Resolution == other.Resolution && m.RefreshRate.FuzzyEqual(other.RefreshRate)
}

// SPDX-License-Identifier: GPL-3.0-or-later

package display

// Adapter is the display-control contract the settings engine consumes.
// It abstracts the OS display driver: enumerate, query/set topology,
// modes, HDR, primary. All setters must be idempotent with respect to
// re-application of the value they just set.
type Adapter interface {
	// EnumAvailableDevices lists every device the OS currently knows
	// about, active or not.
	EnumAvailableDevices() map[DeviceID]DeviceInfo

	// GetDisplayName returns the logical display name for id, or empty
	// if the id is unknown or inactive.
	GetDisplayName(id DeviceID) string

	// GetCurrentTopology returns the active topology, or an empty
	// topology on failure.
	GetCurrentTopology() Topology

	// IsTopologyValid checks structural validity only.
	IsTopologyValid(t Topology) bool

	// IsTopologyTheSame compares two topologies as unordered sets.
	IsTopologyTheSame(a, b Topology) bool

	// SetTopology applies a new topology. Implementations verify the
	// result after setting and must revert and return false on a
	// verify mismatch rather than leave the OS in a half-applied state.
	SetTopology(t Topology) bool

	// GetCurrentDisplayModes returns the current mode for every id in
	// ids, or an empty map if any of them is missing.
	GetCurrentDisplayModes(ids []DeviceID) map[DeviceID]DisplayMode

	// SetDisplayModes tries to set the given modes. If any of the
	// specified devices are duplicated, modes must be provided for
	// every device in the group. When allowAdjustments is true the OS
	// is permitted to snap to a close match; when false it must honor
	// the requested mode exactly or fail, which is what lets a custom
	// mode configured outside the standard lists be set.
	SetDisplayModes(modes map[DeviceID]DisplayMode, allowAdjustments bool) bool

	// IsPrimaryDevice reports whether id is currently primary.
	IsPrimaryDevice(id DeviceID) bool

	// SetAsPrimaryDevice tries to make id primary. If id is duplicated,
	// its mirror sibling becomes primary too.
	SetAsPrimaryDevice(id DeviceID) bool

	// GetCurrentHDRStates returns the current HDR state for every id in
	// ids.
	GetCurrentHDRStates(ids []DeviceID) map[DeviceID]HDRState

	// SetHDRStates tries to set the HDR state for the given devices.
	// HDRStateUnknown entries must be silently ignored.
	SetHDRStates(states map[DeviceID]HDRState) bool
}

// SPDX-License-Identifier: GPL-3.0-or-later

package display

import "sync"

// MockAdapter is an in-memory Adapter a test harness configures and
// injects in place of a real display driver.
type MockAdapter struct {
	mu sync.Mutex

	Devices  map[DeviceID]DeviceInfo
	Topology Topology
	Modes    map[DeviceID]DisplayMode
	Primary  DeviceID
	HDR      map[DeviceID]HDRState

	// FailSetTopology, when true, makes SetTopology report failure
	// without mutating state, so tests can exercise revert paths.
	FailSetTopology bool
	// FailSetModes, when true, makes SetDisplayModes always report
	// failure.
	FailSetModes bool
	// FailSetPrimary, when true, makes SetAsPrimaryDevice always report
	// failure.
	FailSetPrimary bool
	// FailSetHDR, when true, makes SetHDRStates always report failure.
	FailSetHDR bool
	// RejectStrictModes, when true, makes the strict (no adjustments)
	// SetDisplayModes call fail, forcing callers to fall back to the
	// pre-apply modes. Used to exercise the mode-retry failure path.
	RejectStrictModes bool
	// AdjustedModes, when set, is what an allow-adjustments
	// SetDisplayModes call applies in place of the requested mode,
	// imitating the OS snapping to a close match from its standard
	// list. Strict calls ignore it.
	AdjustedModes map[DeviceID]DisplayMode

	// Calls records, in order, every mutating call made against the
	// mock, for tests asserting stage ordering.
	Calls []string
}

// NewMockAdapter returns an empty mock with all maps initialized.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		Devices: make(map[DeviceID]DeviceInfo),
		Modes:   make(map[DeviceID]DisplayMode),
		HDR:     make(map[DeviceID]HDRState),
	}
}

func (a *MockAdapter) record(call string) {
	a.Calls = append(a.Calls, call)
}

func (a *MockAdapter) EnumAvailableDevices() map[DeviceID]DeviceInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[DeviceID]DeviceInfo, len(a.Devices))
	for k, v := range a.Devices {
		out[k] = v
	}
	return out
}

func (a *MockAdapter) GetDisplayName(id DeviceID) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.Topology.Contains(id) {
		return ""
	}
	return a.Devices[id].DisplayName
}

func (a *MockAdapter) GetCurrentTopology() Topology {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Topology.Clone()
}

func (a *MockAdapter) IsTopologyValid(t Topology) bool {
	return t.IsValid()
}

func (a *MockAdapter) IsTopologyTheSame(x, y Topology) bool {
	return TopologiesEqual(x, y)
}

func (a *MockAdapter) SetTopology(t Topology) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.record("set_topology")
	if a.FailSetTopology {
		return false
	}
	a.Topology = t.Clone()
	return true
}

func (a *MockAdapter) GetCurrentDisplayModes(ids []DeviceID) map[DeviceID]DisplayMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[DeviceID]DisplayMode, len(ids))
	for _, id := range ids {
		mode, ok := a.Modes[id]
		if !ok {
			return map[DeviceID]DisplayMode{}
		}
		out[id] = mode
	}
	return out
}

func (a *MockAdapter) SetDisplayModes(modes map[DeviceID]DisplayMode, allowAdjustments bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.record("set_display_modes")
	if a.FailSetModes {
		return false
	}
	if !allowAdjustments && a.RejectStrictModes {
		return false
	}
	for id, mode := range modes {
		if allowAdjustments {
			if snapped, ok := a.AdjustedModes[id]; ok {
				mode = snapped
			}
		}
		a.Modes[id] = mode
	}
	return true
}

func (a *MockAdapter) IsPrimaryDevice(id DeviceID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Primary == id
}

func (a *MockAdapter) SetAsPrimaryDevice(id DeviceID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.record("set_as_primary_device")
	if a.FailSetPrimary {
		return false
	}
	a.Primary = id
	return true
}

func (a *MockAdapter) GetCurrentHDRStates(ids []DeviceID) map[DeviceID]HDRState {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[DeviceID]HDRState, len(ids))
	for _, id := range ids {
		out[id] = a.HDR[id]
	}
	return out
}

func (a *MockAdapter) SetHDRStates(states map[DeviceID]HDRState) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.record("set_hdr_states")
	if a.FailSetHDR {
		return false
	}
	for id, state := range states {
		if state == HDRStateUnknown {
			continue
		}
		a.HDR[id] = state
	}
	return true
}

// SPDX-License-Identifier: GPL-3.0-or-later

package display

// HDRState describes a device's HDR status.
type HDRState int

const (
	// HDRStateUnknown means the device does not expose HDR or is
	// inactive. It must be ignored (no-op) by the adapter whenever it
	// appears in a requested state-map.
	HDRStateUnknown HDRState = iota
	HDRStateDisabled
	HDRStateEnabled
)

func (s HDRState) String() string {
	switch s {
	case HDRStateDisabled:
		return "disabled"
	case HDRStateEnabled:
		return "enabled"
	default:
		return "unknown"
	}
}

// ParseHDRState parses the journal's enum string representation.
func ParseHDRState(s string) HDRState {
	switch s {
	case "disabled":
		return HDRStateDisabled
	case "enabled":
		return HDRStateEnabled
	default:
		return HDRStateUnknown
	}
}

// MarshalJSON implements json.Marshaler.
func (s HDRState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *HDRState) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	*s = ParseHDRState(str)
	return nil
}

// DeviceState describes a device's activation state. Multiple devices
// may be DeviceStatePrimary simultaneously when they belong to the same
// mirror group.
type DeviceState int

const (
	DeviceStateInactive DeviceState = iota
	DeviceStateActive
	DeviceStatePrimary
)

// DeviceInfo is what the adapter reports about one enumerable device.
type DeviceInfo struct {
	DisplayName  string
	FriendlyName string
	State        DeviceState
	HDRState     HDRState
}

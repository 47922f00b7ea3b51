// SPDX-License-Identifier: GPL-3.0-or-later

package display

import "sort"

// DeviceID opaquely identifies a monitor across reboots and driver
// reinstalls. It is derived from EDID plus the stable portion of the OS
// instance id, falling back to the monitor device path. Identity is
// semi-stable: it need not survive the monitor being moved to a
// different GPU port.
type DeviceID string

// Topology is an ordered sequence of groups; each group is an ordered
// sequence of device ids. A group of size >1 denotes duplicated
// (mirrored) displays.
type Topology [][]DeviceID

// Clone returns a deep copy of t.
func (t Topology) Clone() Topology {
	if t == nil {
		return nil
	}
	out := make(Topology, len(t))
	for i, group := range t {
		out[i] = append([]DeviceID(nil), group...)
	}
	return out
}

// Contains reports whether id appears in any group of t.
func (t Topology) Contains(id DeviceID) bool {
	for _, group := range t {
		for _, d := range group {
			if d == id {
				return true
			}
		}
	}
	return false
}

// GroupOf returns the group containing id, or nil if id is not present.
func (t Topology) GroupOf(id DeviceID) []DeviceID {
	for _, group := range t {
		for _, d := range group {
			if d == id {
				return group
			}
		}
	}
	return nil
}

// IsEmpty reports whether the topology has no groups.
func (t Topology) IsEmpty() bool {
	return len(t) == 0
}

// normalized returns a sort-normalized copy: each group is sorted, and
// the groups themselves are sorted. Two equivalent topologies produce
// identical normalized forms.
func (t Topology) normalized() []string {
	groups := make([]string, 0, len(t))
	for _, group := range t {
		cp := append([]DeviceID(nil), group...)
		sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
		var s string
		for i, d := range cp {
			if i > 0 {
				s += ","
			}
			s += string(d)
		}
		groups = append(groups, s)
	}
	sort.Strings(groups)
	return groups
}

// IsValid checks the structural invariants of a topology: non-empty,
// no empty group, no group larger than 2 (the OS settings UI does not
// render larger groups and behavior beyond it is undefined), and every
// device id appears at most once across all groups.
func (t Topology) IsValid() bool {
	if len(t) == 0 {
		return false
	}
	seen := make(map[DeviceID]bool)
	for _, group := range t {
		if len(group) == 0 || len(group) > 2 {
			return false
		}
		for _, d := range group {
			if seen[d] {
				return false
			}
			seen[d] = true
		}
	}
	return true
}

// TopologiesEqual reports whether a and b are equivalent when compared
// as unordered sets of unordered groups.
func TopologiesEqual(a, b Topology) bool {
	na, nb := a.normalized(), b.normalized()
	if len(na) != len(nb) {
		return false
	}
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}

// DevicesNotIn returns the device ids present in a but not in b,
// preserving a's group order. Used to compute newly-enabled devices.
func DevicesNotIn(a, b Topology) []DeviceID {
	var out []DeviceID
	for _, group := range a {
		for _, d := range group {
			if !b.Contains(d) {
				out = append(out, d)
			}
		}
	}
	return out
}

// SPDX-License-Identifier: GPL-3.0-or-later

package display

import "golang.org/x/xerrors"

// TopologyPlan is the topology planner's output: the topology the session was in before any
// of this session's changes, and the topology it must end up in.
type TopologyPlan struct {
	Initial Topology
	Final   Topology

	CurrentTopology        Topology
	NewlyEnabledDevices    []DeviceID
	PrimaryDeviceRequested bool
	DuplicatedDevices      []DeviceID
}

// revertFunc matches the signature the planner needs from the revert engine to erase
// prior state when the journal disagrees with the freshly computed plan.
// Injected so the planner never imports the revert engine directly.
type revertFunc func() bool

// ErrReconcileRevertFailed is returned by PlanTopology when step 5's
// journal reconciliation had to invoke revert and that revert failed.
// Callers should surface this distinctly from a plain topology failure,
// since a revert invoked mid-apply is a different kind of error than
// the topology simply being unreachable.
var ErrReconcileRevertFailed = xerrors.New("revert during topology reconciliation failed")

// PlanTopology implements the eight-step topology-planning algorithm.
// journal may be nil when no prior session state exists.
func PlanTopology(adapter Adapter, plan ParsedPlan, journal *PersistentData, revert revertFunc) (TopologyPlan, error) {
	// Step 1: resolve target device.
	deviceID, primaryRequested, err := resolveTargetDevice(adapter, plan.DeviceID)
	if err != nil {
		return TopologyPlan{}, err
	}

	// Step 2: snapshot + validate current topology.
	current := adapter.GetCurrentTopology()
	if current.IsEmpty() || !current.IsValid() {
		return TopologyPlan{}, xerrors.New("current topology is empty or invalid")
	}

	// Step 3: duplicated devices.
	duplicated := duplicatedDevices(current, deviceID)

	// Step 4: final topology from device_prep.
	final := computeFinalTopology(current, deviceID, plan.DevicePrep, primaryRequested, duplicated)

	currentBeforeApply := current

	// Step 5: reconcile with journal.
	if journal != nil && journal.HasModifications() && !TopologiesEqual(journal.Topology.Modified, final) {
		if revert != nil && !revert() {
			return TopologyPlan{}, ErrReconcileRevertFailed
		}
		current = adapter.GetCurrentTopology()
		if current.IsEmpty() || !current.IsValid() {
			return TopologyPlan{}, xerrors.New("current topology is empty or invalid after reconciling journal")
		}
		duplicated = duplicatedDevices(current, deviceID)
		final = computeFinalTopology(current, deviceID, plan.DevicePrep, primaryRequested, duplicated)
		currentBeforeApply = current
	}

	// Step 6: apply if needed, then re-read and refresh duplicates.
	if !TopologiesEqual(current, final) {
		if !adapter.SetTopology(final) {
			return TopologyPlan{}, xerrors.Errorf("adapter rejected topology change to %v", final)
		}
		current = adapter.GetCurrentTopology()
		duplicated = duplicatedDevices(current, deviceID)
	}

	// Step 7: sanity check.
	if !final.Contains(deviceID) {
		return TopologyPlan{}, xerrors.Errorf("resolved device %q missing from final topology", deviceID)
	}

	// Step 8: determine initial_topology.
	initial := currentBeforeApply
	if journal != nil && TopologiesEqual(journal.Topology.Modified, currentBeforeApply) {
		initial = journal.Topology.Initial
	}

	return TopologyPlan{
		Initial:                initial,
		Final:                  final,
		CurrentTopology:        final,
		NewlyEnabledDevices:    DevicesNotIn(final, currentBeforeApply),
		PrimaryDeviceRequested: primaryRequested,
		DuplicatedDevices:      duplicated,
	}, nil
}

func resolveTargetDevice(adapter Adapter, requested DeviceID) (deviceID DeviceID, primaryRequested bool, err error) {
	if requested != "" {
		devices := adapter.EnumAvailableDevices()
		if _, ok := devices[requested]; !ok {
			return "", false, xerrors.Errorf("requested device %q not found", requested)
		}
		return requested, false, nil
	}

	for id, info := range adapter.EnumAvailableDevices() {
		if info.State == DeviceStatePrimary {
			return id, true, nil
		}
	}
	return "", false, xerrors.New("no device id requested and no primary device currently active")
}

// duplicatedDevices returns deviceID followed by every other device
// sharing its mirror group in topology; empty if deviceID is inactive.
func duplicatedDevices(topology Topology, deviceID DeviceID) []DeviceID {
	group := topology.GroupOf(deviceID)
	if group == nil {
		return nil
	}

	out := make([]DeviceID, 0, len(group))
	out = append(out, deviceID)
	for _, id := range group {
		if id != deviceID {
			out = append(out, id)
		}
	}
	return out
}

func computeFinalTopology(current Topology, deviceID DeviceID, prep DevicePrep, primaryRequested bool, duplicated []DeviceID) Topology {
	switch prep {
	case DevicePrepNoOp:
		return current.Clone()

	case DevicePrepEnsureActive, DevicePrepEnsurePrimary:
		if primaryRequested || current.Contains(deviceID) {
			return current.Clone()
		}
		final := current.Clone()
		final = append(final, []DeviceID{deviceID})
		return final

	case DevicePrepEnsureOnlyDisplay:
		if primaryRequested && len(current) > 1 {
			return Topology{append([]DeviceID{}, duplicated...)}
		}
		if !current.Contains(deviceID) || len(duplicated) > 1 || len(current) > 1 {
			return Topology{{deviceID}}
		}
		return current.Clone()

	default:
		return current.Clone()
	}
}

// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlannerAdapter(topo Topology, primary DeviceID, devices map[DeviceID]DeviceState) *MockAdapter {
	a := NewMockAdapter()
	a.Topology = topo
	a.Primary = primary
	for id, state := range devices {
		a.Devices[id] = DeviceInfo{DisplayName: string(id), State: state}
	}
	return a
}

func TestPlanTopologyNoOpRequestingPrimary(t *testing.T) {
	adapter := newPlannerAdapter(Topology{{"A"}}, "A", map[DeviceID]DeviceState{
		"A": DeviceStatePrimary,
	})

	plan := ParsedPlan{DevicePrep: DevicePrepNoOp}
	result, err := PlanTopology(adapter, plan, nil, nil)
	require.NoError(t, err)

	assert.True(t, TopologiesEqual(Topology{{"A"}}, result.Final))
	assert.True(t, result.PrimaryDeviceRequested)
}

func TestPlanTopologyEnsureActiveActivatesInactiveDevice(t *testing.T) {
	// Scenario (d): current [[A]], B inactive; plan device_id=B, ensure_active.
	adapter := newPlannerAdapter(Topology{{"A"}}, "A", map[DeviceID]DeviceState{
		"A": DeviceStatePrimary,
		"B": DeviceStateInactive,
	})

	plan := ParsedPlan{DeviceID: "B", DevicePrep: DevicePrepEnsureActive}
	result, err := PlanTopology(adapter, plan, nil, nil)
	require.NoError(t, err)

	assert.True(t, TopologiesEqual(Topology{{"A"}, {"B"}}, result.Final))
	assert.Contains(t, result.NewlyEnabledDevices, DeviceID("B"))
	assert.False(t, result.PrimaryDeviceRequested)
}

func TestPlanTopologyEnsureOnlyDisplayWithDuplicatedPrimary(t *testing.T) {
	// Scenario (b): current [[A,B],[C]], primary group {A,B}; plan
	// device_id="", ensure_only_display -> final [[A,B]].
	adapter := newPlannerAdapter(Topology{{"A", "B"}, {"C"}}, "A", map[DeviceID]DeviceState{
		"A": DeviceStatePrimary,
		"B": DeviceStatePrimary,
		"C": DeviceStateActive,
	})

	plan := ParsedPlan{DevicePrep: DevicePrepEnsureOnlyDisplay}
	result, err := PlanTopology(adapter, plan, nil, nil)
	require.NoError(t, err)

	assert.True(t, TopologiesEqual(Topology{{"A", "B"}}, result.Final))
	assert.ElementsMatch(t, []DeviceID{"A", "B"}, result.DuplicatedDevices)
}

func TestPlanTopologyFailsWhenRequestedDeviceMissing(t *testing.T) {
	adapter := newPlannerAdapter(Topology{{"A"}}, "A", map[DeviceID]DeviceState{
		"A": DeviceStatePrimary,
	})

	plan := ParsedPlan{DeviceID: "Z", DevicePrep: DevicePrepEnsureActive}
	_, err := PlanTopology(adapter, plan, nil, nil)
	assert.Error(t, err)
}

func TestPlanTopologyReportsRevertFailureDuringReconciliation(t *testing.T) {
	adapter := newPlannerAdapter(Topology{{"A"}}, "A", map[DeviceID]DeviceState{
		"A": DeviceStatePrimary,
	})

	journal := &PersistentData{}
	journal.Topology.Initial = Topology{{"A"}}
	journal.Topology.Modified = Topology{{"A"}, {"B"}}

	revert := func() bool { return false }

	plan := ParsedPlan{DevicePrep: DevicePrepNoOp}
	_, err := PlanTopology(adapter, plan, journal, revert)
	assert.ErrorIs(t, err, ErrReconcileRevertFailed)
}

func TestPlanTopologyReconcilesWithDivergentJournal(t *testing.T) {
	adapter := newPlannerAdapter(Topology{{"A"}}, "A", map[DeviceID]DeviceState{
		"A": DeviceStatePrimary,
	})

	journal := &PersistentData{}
	journal.Topology.Initial = Topology{{"A"}}
	journal.Topology.Modified = Topology{{"A"}, {"B"}}

	reverted := false
	revert := func() bool {
		reverted = true
		return true
	}

	plan := ParsedPlan{DevicePrep: DevicePrepNoOp}
	_, err := PlanTopology(adapter, plan, journal, revert)
	require.NoError(t, err)
	assert.True(t, reverted, "planner must invoke revert when journal.modified diverges from the freshly computed final topology")
}
